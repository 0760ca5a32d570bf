// Package anime fetches and parses episode-list fragments from the
// streaming site's ajax endpoint.
package anime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://4anime.gg"
	defaultTimeout = 10 * time.Second
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client fetches episode-list documents for numeric title identifiers.
// The endpoint wraps an HTML fragment in a JSON envelope:
//
//	{"html": "<ul>...<li class=\"ep-item\" data-id=\"1\">...</ul>"}
//
// Client does no retrying or pacing; the pipeline owns both.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a new episode-list client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the site.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// URL returns the episode-list endpoint URL for an identifier.
// It is also the URL recorded for failed identifiers, so a saved error
// list can be fed straight back into a retry run.
func (c *Client) URL(id int) string {
	return fmt.Sprintf("%s/ajax/episode/list/%d", c.baseURL, id)
}

// Fetch retrieves the raw HTML fragment for one identifier.
// Non-2xx responses come back as *HTTPStatusError; an envelope without
// usable HTML comes back as *ParseError.
func (c *Client) Fetch(ctx context.Context, id int) ([]byte, error) {
	endpoint := c.URL(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &HTTPStatusError{URL: endpoint, StatusCode: resp.StatusCode}
	}

	var envelope struct {
		HTML string `json:"html"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("invalid JSON envelope: %v", err)}
	}
	if strings.TrimSpace(envelope.HTML) == "" {
		return nil, &ParseError{Reason: "envelope contains no HTML"}
	}

	return []byte(envelope.HTML), nil
}
