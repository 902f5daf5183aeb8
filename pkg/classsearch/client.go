// Package classsearch is a client for the university class-search (FOSE) API.
package classsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// DefaultURL is the NYU class-search endpoint for the search route.
const DefaultURL = "https://bulletins.nyu.edu/class-search/api/?page=fose&route=search"

// The API rejects requests without a browser-like user agent.
const userAgent = "Mozilla/5.0"

// ErrFatal is returned when the API reports a fatal error in a 200 response.
var ErrFatal = errors.New("classsearch: api reported fatal error")

// ClientOptions configures the class-search client
type ClientOptions struct {
	// URL is the full search route URL (default: DefaultURL)
	URL string
	// RetryMax is the number of retries after the first attempt (default: 0, no retry)
	RetryMax int
	// HTTPClient overrides the underlying transport client (tests)
	HTTPClient *http.Client
}

// Client is the class-search API client
type Client struct {
	url        string
	httpClient *retryablehttp.Client
}

// NewClient creates a client for the default endpoint with no retries
func NewClient() *Client {
	return NewClientWithOptions(ClientOptions{})
}

// NewClientWithOptions creates a class-search client with custom options
func NewClientWithOptions(opts ClientOptions) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.Logger = nil // Disable logging by default
	// Hand the final response back so status handling stays in one place.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.HTTPClient != nil {
		retryClient.HTTPClient = opts.HTTPClient
	}

	return &Client{
		url:        opts.URL,
		httpClient: retryClient,
	}
}

// Search runs one search request and returns the decoded response.
// Non-200 statuses and API-reported fatal errors are returned as errors.
func (c *Client) Search(ctx context.Context, search SearchRequest) (*SearchResponse, error) {
	payload, err := json.Marshal(search)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var searchResponse SearchResponse
	if err := json.Unmarshal(body, &searchResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if searchResponse.Fatal != "" {
		return nil, fmt.Errorf("%w: %s", ErrFatal, searchResponse.Fatal)
	}

	return &searchResponse, nil
}

// SearchKeyword searches term for a single keyword and returns the raw result documents.
func (c *Client) SearchKeyword(ctx context.Context, term, keyword string) ([]map[string]any, error) {
	resp, err := c.Search(ctx, NewKeywordSearch(term, keyword))
	if err != nil {
		return nil, err
	}

	return resp.Results, nil
}
