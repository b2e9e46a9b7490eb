package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Client reaches a remote Hub over HTTP. Calls are POST /v1/functions/{name}
// and subscriptions are server-sent event streams from GET /v1/subscribe/{name}.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
}

type ClientOption func(*Client)

// WithToken sets a source for the bearer token sent with each request.
func WithToken(fn func() string) ClientOption {
	return func(c *Client) { c.token = fn }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call runs name once. Values are returned as json.RawMessage; use Decode.
func (c *Client) Call(ctx context.Context, name string, args Args) (any, error) {
	body, err := json.Marshal(map[string]any{"args": args})
	if err != nil {
		return nil, fmt.Errorf("%w: encode args: %v", ErrMutation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/functions/"+url.PathEscape(name), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMutation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMutation, err)
	}
	defer resp.Body.Close()

	var res Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16<<20)).Decode(&res); err != nil || res.Status == "" {
		return nil, fmt.Errorf("%w: unexpected response %s", ErrMutation, resp.Status)
	}
	v, err := res.Unwrap()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Subscribe opens the event stream synchronously and then delivers results
// from a background goroutine. A connection or status failure is returned
// directly; a later stream failure goes to onError.
func (c *Client) Subscribe(ctx context.Context, name string, args Args, onUpdate func(any), onError func(error)) (Unsubscribe, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("%w: encode args: %v", ErrSubscription, err)
	}
	q := url.Values{}
	q.Set("args", string(encoded))

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/subscribe/"+url.PathEscape(name)+"?"+q.Encode(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrSubscription, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", ErrSubscription, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		defer cancel()
		var res Result
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&res) == nil && res.Status == StatusError {
			_, rerr := res.Unwrap()
			return nil, rerr
		}
		return nil, fmt.Errorf("%w: %s", ErrSubscription, resp.Status)
	}

	go func() {
		defer resp.Body.Close()
		err := readEvents(resp.Body, func(res Result) {
			if ctx.Err() != nil {
				return
			}
			v, err := res.Unwrap()
			if err != nil {
				onError(err)
				return
			}
			onUpdate(v)
		})
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, io.EOF) {
			err = errors.New("stream closed by server")
		}
		slog.Warn("subscription stream ended", "function", name, "err", err)
		onError(fmt.Errorf("%w: %v", ErrSubscription, err))
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token == nil {
		return
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
}
