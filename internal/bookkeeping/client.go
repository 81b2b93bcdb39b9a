// Package bookkeeping is a read-only client for the bookkeeping platform's
// OData-style API: division lookup, cost-center, GL-account and sales-entry
// queries.
package bookkeeping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultBaseURL is the fixed host of the bookkeeping platform.
const defaultBaseURL = "https://start.exactonline.nl"

// ErrUnauthorized is returned when the platform rejects the bearer token.
// Callers use it to trigger re-authentication instead of aborting.
var ErrUnauthorized = errors.New("bookkeeping: unauthorized")

// ErrNoDivision is returned when a division-scoped call is attempted before
// the accounting division has been resolved with SetDivision.
var ErrNoDivision = errors.New("bookkeeping: no accounting division was set")

// ErrNoResults is returned when a single-record lookup matches nothing.
var ErrNoResults = errors.New("bookkeeping: query returned no results")

// StatusError represents a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bookkeeping: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client is an authenticated client for the bookkeeping platform.
//
// The division must be set exactly once, before any concurrent use; after
// that the client is read-only and safe to share.
type Client struct {
	baseURL    string
	token      string
	division   int
	hasDivision bool
	httpClient *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithBaseURL overrides the fixed platform host. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// New creates a Client with the given bearer token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDivision stores the accounting division used to prefix divisioned
// paths. Obtain the value with AccountingDivision.
func (c *Client) SetDivision(division int) {
	c.division = division
	c.hasDivision = true
}

// url joins an absolute API path, e.g. /api/v1/current/Me, onto the platform
// host.
func (c *Client) url(path string) string {
	return c.baseURL + path
}

// divisionedURL joins a path inside the accounting-division namespace. Where
// the API documents /api/v1/{division}/salesentry/SalesEntries, pass
// /salesentry/SalesEntries.
func (c *Client) divisionedURL(path string) (string, error) {
	if !c.hasDivision {
		return "", ErrNoDivision
	}
	return c.url(fmt.Sprintf("/api/v1/%d%s", c.division, path)), nil
}

// getJSON issues a GET with bearer auth and decodes a 2xx JSON response.
// The URL is passed through verbatim: $filter expressions are pre-encoded.
func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s := string(body)
		if len(s) > 512 {
			s = s[:512]
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: s}
	}
	return json.Unmarshal(body, dest)
}

// payload is the response envelope every query endpoint uses.
type payload[T any] struct {
	D struct {
		Results []T `json:"results"`
	} `json:"d"`
}

// queryOne fetches a query endpoint expected to match exactly one record.
func queryOne[T any](ctx context.Context, c *Client, url string) (T, error) {
	var zero T
	results, err := queryList[T](ctx, c, url)
	if err != nil {
		return zero, err
	}
	if len(results) == 0 {
		return zero, ErrNoResults
	}
	return results[0], nil
}

// queryList fetches all records a query endpoint returns.
func queryList[T any](ctx context.Context, c *Client, url string) ([]T, error) {
	var p payload[T]
	if err := c.getJSON(ctx, url, &p); err != nil {
		return nil, err
	}
	return p.D.Results, nil
}
