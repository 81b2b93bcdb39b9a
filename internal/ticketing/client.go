// Package ticketing is a client for the ticketing platform's REST API:
// organizer and event listings, and the asynchronous exporter jobs that
// produce order data and PDF reports.
package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnauthorized is returned when the platform rejects the bearer token.
// Callers use it to trigger re-authentication instead of aborting.
var ErrUnauthorized = errors.New("ticketing: unauthorized")

// StatusError represents a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string // first 512 bytes
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ticketing: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client is an authenticated client for the ticketing platform.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used in tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// New creates a Client for the platform at baseURL, which must not end with
// a slash.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
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

// URL joins a path like /api/v1/organizers onto the platform base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + path
}

// get issues a GET with bearer auth and returns the raw response. The caller
// owns the response body. Status codes are not interpreted here.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.httpClient.Do(req)
}

// getJSON issues a GET and decodes a 2xx JSON response into dest.
func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

// postJSON issues a POST with an optional JSON payload and decodes a 2xx JSON
// response into dest.
func (c *Client) postJSON(ctx context.Context, url string, payload, dest any) error {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := checkStatus(resp.StatusCode, body); err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

func checkStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	if code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	s := string(body)
	if len(s) > 512 {
		s = s[:512]
	}
	return &StatusError{StatusCode: code, Body: s}
}

// listResponse is the envelope of every paginated list endpoint.
type listResponse[T any] struct {
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// ListPaginated fetches every page of a paginated endpoint, following the
// `next` link until it is absent, and returns the concatenated results.
func ListPaginated[T any](ctx context.Context, c *Client, url string) ([]T, error) {
	var data []T
	for {
		var page listResponse[T]
		if err := c.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}
		data = append(data, page.Results...)

		if page.Next == nil || *page.Next == "" {
			return data, nil
		}
		url = *page.Next
	}
}
