package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/enthub-api/internal/config"
	"github.com/enthub-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{
		TMDBBaseURL:      srv.URL,
		TMDBImageBaseURL: "https://image.tmdb.org/t/p",
		TMDBReadToken:    "tok",
	})
}

func TestTrending_DefaultsToWeek(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Movie 1","media_type":"movie"},{"id":2,"name":"Show","media_type":"tv"}],"total_pages":10,"total_results":200}`))
	})

	page, err := c.Trending(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "/trending/all/week", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "Movie 1", page.Results[0].DisplayTitle())
	assert.Equal(t, "Show", page.Results[1].DisplayTitle())
	assert.Equal(t, 200, page.TotalResults)
}

func TestTrending_RejectsUnknownWindow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { t.Error("unexpected request") })
	_, err := c.Trending(context.Background(), "month")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSearch_SanitizesInput(t *testing.T) {
	var gotQuery, gotPage string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		gotPage = r.URL.Query().Get("page")
		_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
	})

	_, err := c.Search(context.Background(), "  "+strings.Repeat("a", 150)+"  ", 9000)
	require.NoError(t, err)
	assert.Len(t, gotQuery, MaxQueryLength)
	assert.Equal(t, "500", gotPage)

	_, err = c.Search(context.Background(), "dune", -3)
	require.NoError(t, err)
	assert.Equal(t, "dune", gotQuery)
	assert.Equal(t, "1", gotPage)
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { t.Error("unexpected request") })
	_, err := c.Search(context.Background(), "   ", 1)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "query", ve.Field)
}

func TestDetails_AppendsCreditsAndVideos(t *testing.T) {
	var gotPath, gotAppend string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAppend = r.URL.Query().Get("append_to_response")
		_, _ = w.Write([]byte(`{"id":550,"title":"Fight Club","genres":[{"id":18,"name":"Drama"}],"runtime":139,"credits":{"cast":[{"id":1,"name":"Ed"}]},"videos":{"results":[]}}`))
	})

	d, err := c.Details(context.Background(), "movie", 550)
	require.NoError(t, err)
	assert.Equal(t, "/movie/550", gotPath)
	assert.Equal(t, "credits,videos", gotAppend)
	assert.Equal(t, "movie", d.MediaType)
	assert.Equal(t, 139, d.Runtime)
	require.Len(t, d.Credits.Cast, 1)
}

func TestPerson_AppendsCombinedCredits(t *testing.T) {
	var gotAppend string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAppend = r.URL.Query().Get("append_to_response")
		_, _ = w.Write([]byte(`{"id":7,"name":"Someone","combined_credits":{"cast":[{"id":1,"media_type":"movie"}]}}`))
	})

	p, err := c.Person(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "combined_credits", gotAppend)
	assert.Len(t, p.CombinedCredits.Cast, 1)
}

func TestGet_NonOKBecomesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_message":"The resource you requested could not be found."}`))
	})

	_, err := c.Collection(context.Background(), 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "could not be found")
}

func TestImageURL(t *testing.T) {
	c := NewClient(&config.Config{TMDBImageBaseURL: "https://image.tmdb.org/t/p"})

	assert.Equal(t, PlaceholderImage, c.ImageURL("", SizeW500))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", c.ImageURL("/abc.jpg", SizeW500))
	assert.Equal(t, "https://image.tmdb.org/t/p/original/abc.jpg", c.ImageURL("/abc.jpg", SizeOriginal))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", c.ImageURL("/abc.jpg", "w92"))
}

func TestFilterAdult(t *testing.T) {
	items := []MediaItem{{ID: 1}, {ID: 2, Adult: true}, {ID: 3}}
	got := FilterAdult(items)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}
