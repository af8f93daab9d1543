package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"
)

type Config struct {
	BaseURL    string
	CoversURL  string
	UserAgent  string
	RPS        float64
	MaxRetries int
	// Backoff is the first retry delay; later retries double it.
	Backoff    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	coversURL  string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CoversURL == "" {
		cfg.CoversURL = DefaultCoversURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "bookshelf/1.0"
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &Client{
		httpClient: cfg.HTTPClient,
		userAgent:  cfg.UserAgent,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		coversURL:  strings.TrimRight(cfg.CoversURL, "/"),
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}
}

// SearchBooks runs a free-text search. An empty query returns no results
// without calling the catalog.
func (c *Client) SearchBooks(ctx context.Context, query string, limit int) ([]BookSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []BookSummary{}, nil
	}
	if limit <= 0 {
		limit = 40
	}
	u := fmt.Sprintf("%s/search.json?q=%s&fields=%s&limit=%d",
		c.baseURL, url.QueryEscape(query), searchFields, limit)

	var res searchResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	out := make([]BookSummary, 0, len(res.Docs))
	for _, d := range res.Docs {
		out = append(out, d.summary())
	}
	return out, nil
}

// GetWork fetches /works/<id>.json and normalizes it.
func (c *Client) GetWork(ctx context.Context, workID string) (*Work, error) {
	id := WorkID(workID)
	if id == "" {
		return nil, ErrInvalidID
	}
	var raw workJSON
	if err := c.get(ctx, fmt.Sprintf("%s/works/%s.json", c.baseURL, url.PathEscape(id)), &raw); err != nil {
		return nil, err
	}
	w := raw.normalize()
	w.ID = id
	return w, nil
}

// GetAuthor accepts either "/authors/OL..A" or the bare id.
func (c *Client) GetAuthor(ctx context.Context, authorKey string) (*Author, error) {
	id := AuthorID(authorKey)
	if id == "" {
		return nil, ErrInvalidID
	}
	var raw authorJSON
	if err := c.get(ctx, fmt.Sprintf("%s/authors/%s.json", c.baseURL, url.PathEscape(id)), &raw); err != nil {
		return nil, err
	}
	a := raw.normalize()
	a.ID = id
	return a, nil
}

func (c *Client) GetAuthorWorks(ctx context.Context, authorKey string, limit int) ([]WorkSummary, error) {
	id := AuthorID(authorKey)
	if id == "" {
		return nil, ErrInvalidID
	}
	if limit <= 0 {
		limit = 50
	}
	u := fmt.Sprintf("%s/authors/%s/works.json?limit=%d", c.baseURL, url.PathEscape(id), limit)

	var res authorWorksResponse
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	out := make([]WorkSummary, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, e.summary())
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			backoff := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return timedOut(ctx)
			}
		}

		retry, err := c.do(ctx, url, target)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			return err
		}
	}
	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

// timedOut classifies an expired or canceled call as a catalog failure while
// keeping the context error matchable.
func timedOut(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCatalogUnavailable, ctx.Err())
}

// do performs one request. retry reports whether the failure is transient.
func (c *Client) do(ctx context.Context, url string, target any) (retry bool, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%w: rate limit wait: %w", ErrCatalogUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, timedOut(ctx)
		}
		return true, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		statusErr := &StatusError{StatusCode: resp.StatusCode, URL: req.URL.Path}
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return transient, statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", ErrCatalogUnavailable, req.URL.Path, err)
	}
	return false, nil
}

var (
	// ErrCatalogUnavailable matches every failed catalog call.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrNotFound           = errors.New("not found in catalog")
	ErrInvalidID          = errors.New("invalid catalog id")
)

// StatusError is a non-2xx catalog response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned status %d", ErrCatalogUnavailable, e.URL, e.StatusCode)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrCatalogUnavailable:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}
