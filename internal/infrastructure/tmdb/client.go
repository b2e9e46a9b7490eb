package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/enthub-api/internal/config"
	"github.com/enthub-api/internal/domain"
)

const (
	MaxQueryLength = 100
	MinPage        = 1
	MaxPage        = 500

	PlaceholderImage = "/placeholder-poster.png"
)

// Image size tokens accepted by ImageURL.
const (
	SizeW500     = "w500"
	SizeOriginal = "original"
)

// APIError is a non-2xx response from the media database.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Unknown error"
	}
	return fmt.Sprintf("tmdb: %s - %s", e.Status, msg)
}

// Client is a read-only client for the media database HTTP API.
type Client struct {
	baseURL      string
	imageBaseURL string
	token        string
	http         *http.Client
}

func NewClient(cfg *config.Config) *Client {
	if cfg.TMDBReadToken == "" {
		slog.Warn("TMDB_READ_TOKEN is not set; media requests will fail")
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.TMDBBaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.TMDBImageBaseURL, "/"),
		token:        cfg.TMDBReadToken,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

// Trending lists trending movies, shows and people. window is "day" or "week".
func (c *Client) Trending(ctx context.Context, window string) (*Page[MediaItem], error) {
	if window == "" {
		window = "week"
	}
	if window != "day" && window != "week" {
		return nil, domain.NewValidationError("window", "must be day or week")
	}
	var out Page[MediaItem]
	if err := c.get(ctx, "/trending/all/"+window, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a multi search. The query is trimmed and cut to MaxQueryLength
// characters and page is clamped into [MinPage, MaxPage].
func (c *Client) Search(ctx context.Context, query string, page int) (*Page[MediaItem], error) {
	q := SanitizeQuery(query)
	if q == "" {
		return nil, domain.NewValidationError("query", "search query cannot be empty")
	}
	params := url.Values{}
	params.Set("query", q)
	params.Set("page", strconv.Itoa(ClampPage(page)))

	var out Page[MediaItem]
	if err := c.get(ctx, "/search/multi", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Details fetches a movie or show with credits and videos appended.
func (c *Client) Details(ctx context.Context, mediaType string, id int64) (*MediaDetails, error) {
	if mediaType != domain.MediaMovie && mediaType != domain.MediaTV {
		return nil, domain.NewValidationError("type", "must be movie or tv")
	}
	params := url.Values{}
	params.Set("append_to_response", "credits,videos")

	var out MediaDetails
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", mediaType, id), params, &out); err != nil {
		return nil, err
	}
	if out.MediaType == "" {
		out.MediaType = mediaType
	}
	return &out, nil
}

func (c *Client) Collection(ctx context.Context, id int64) (*Collection, error) {
	var out Collection
	if err := c.get(ctx, fmt.Sprintf("/collection/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Person fetches a person with combined movie and TV credits appended.
func (c *Client) Person(ctx context.Context, id int64) (*Person, error) {
	params := url.Values{}
	params.Set("append_to_response", "combined_credits")

	var out Person
	if err := c.get(ctx, fmt.Sprintf("/person/%d", id), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Season(ctx context.Context, seriesID int64, number int) (*Season, error) {
	var out Season
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", seriesID, number), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImageURL builds the CDN URL for path. An empty path yields PlaceholderImage;
// an unknown size falls back to SizeW500.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return PlaceholderImage
	}
	if size != SizeOriginal {
		size = SizeW500
	}
	return c.imageBaseURL + "/" + size + path
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Error("tmdb request failed", "endpoint", endpoint, "err", err)
		return fmt.Errorf("tmdb %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			StatusMessage string `json:"status_message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Message: body.StatusMessage}
		slog.Error("tmdb request failed", "endpoint", endpoint, "status", resp.StatusCode)
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", endpoint, err)
	}
	return nil
}

// SanitizeQuery trims q and cuts it to MaxQueryLength characters.
func SanitizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if r := []rune(q); len(r) > MaxQueryLength {
		q = string(r[:MaxQueryLength])
	}
	return q
}

func ClampPage(page int) int {
	if page < MinPage {
		return MinPage
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

// FilterAdult drops items flagged as adult content.
func FilterAdult(items []MediaItem) []MediaItem {
	out := make([]MediaItem, 0, len(items))
	for _, it := range items {
		if !it.Adult {
			out = append(out, it)
		}
	}
	return out
}
