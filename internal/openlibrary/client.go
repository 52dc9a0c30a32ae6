// Package openlibrary is the remote search transport: a paginated client for
// the OpenLibrary search API plus the mapping of search documents into catalog
// records.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://openlibrary.org"
	defaultTimeout     = 10 * time.Second
	defaultMinInterval = 200 * time.Millisecond
	userAgent          = "ShelfSync/1.0 (https://github.com/mrlokans/shelfsync)"
)

// Client fetches search pages and work details from the OpenLibrary API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another host, e.g. a test server. An empty
// value keeps the default.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithMinInterval spaces requests at least d apart. Zero disables limiting.
func WithMinInterval(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient creates an OpenLibrary client with rate limiting.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		limiter:    rate.NewLimiter(rate.Every(defaultMinInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search returns one page of search documents for query. page is 1-based.
//
// Failures are typed: *TransportError when no complete response arrived,
// *StatusError for non-2xx responses and ErrMalformedResponse when the body
// does not decode.
func (c *Client) Search(ctx context.Context, query string, page, limit int) ([]SearchDoc, error) {
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, q.Encode())

	var result searchResult
	if err := c.getJSON(ctx, searchURL, &result); err != nil {
		return nil, err
	}
	return result.Docs, nil
}

// WorkDescription fetches the description of a work, e.g. "OL45804W". It
// returns an empty string when the work has none.
func (c *Client) WorkDescription(ctx context.Context, workID string) (string, error) {
	if workID == "" {
		return "", fmt.Errorf("empty work id")
	}

	var work workDetails
	if err := c.getJSON(ctx, fmt.Sprintf("%s/works/%s.json", c.baseURL, url.PathEscape(workID)), &work); err != nil {
		return "", err
	}

	switch v := work.Description.(type) {
	case string:
		return v, nil
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val, nil
		}
	}
	return "", nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "fetch " + target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read response", Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// SearchDoc is one raw item of a search page. Every field may be absent.
type SearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear *int     `json:"first_publish_year"`
	CoverI           *int     `json:"cover_i"`
	CoverEditionKey  string   `json:"cover_edition_key"`
	ISBN             []string `json:"isbn"`
	Subject          []string `json:"subject"`
	RatingsAverage   *float64 `json:"ratings_average"`
}

type searchResult struct {
	NumFound int         `json:"numFound"`
	Docs     []SearchDoc `json:"docs"`
}

type workDetails struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description any    `json:"description"` // Can be string or {type, value}
}
