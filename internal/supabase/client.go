// Package supabase writes and searches courses through the Supabase REST (PostgREST) API.
package supabase

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

	"github.com/hashicorp/go-retryablehttp"

	"github.com/classfinder/courses/internal/models"
)

const (
	restPath         = "/rest/v1/"
	matchCoursesRPC  = "rpc/match_courses"
	conflictColumn   = "course_code"
	upsertPreference = "resolution=merge-duplicates,return=minimal"
)

var (
	// ErrMissingURL is returned when the project URL is empty.
	ErrMissingURL = errors.New("supabase: project url is required")
	// ErrMissingKey is returned when the service key is empty.
	ErrMissingKey = errors.New("supabase: service key is required")
)

// ClientOptions configures the Supabase client.
type ClientOptions struct {
	// URL is the project URL, e.g. https://xyz.supabase.co
	URL string
	// Key is the service-role key; it bypasses row level security.
	Key string
	// Table is the courses table (default: courses)
	Table string
	// RetryMax is the number of retries after the first attempt (default: 0)
	RetryMax int
	// HTTPClient overrides the underlying transport client (tests)
	HTTPClient *http.Client
}

// Client talks to one Supabase project.
type Client struct {
	baseURL    string
	key        string
	table      string
	httpClient *retryablehttp.Client
}

// NewClient creates a Supabase REST client.
func NewClient(opts ClientOptions) (*Client, error) {
	if opts.URL == "" {
		return nil, ErrMissingURL
	}

	if opts.Key == "" {
		return nil, ErrMissingKey
	}

	if opts.Table == "" {
		opts.Table = "courses"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.HTTPClient != nil {
		retryClient.HTTPClient = opts.HTTPClient
	}

	return &Client{
		baseURL:    opts.URL + restPath,
		key:        opts.Key,
		table:      opts.Table,
		httpClient: retryClient,
	}, nil
}

// Upsert writes rows in one request, merging on course_code.
// PostgREST applies a bulk insert atomically, so a failure writes none of the rows.
func (c *Client) Upsert(ctx context.Context, rows []models.CourseRow) error {
	if len(rows) == 0 {
		return nil
	}

	endpoint := c.baseURL + url.PathEscape(c.table) + "?on_conflict=" + conflictColumn

	headers := map[string]string{"Prefer": upsertPreference}

	if _, err := c.post(ctx, endpoint, rows, headers); err != nil {
		return fmt.Errorf("supabase: upsert %d rows: %w", len(rows), err)
	}

	return nil
}

type matchCoursesParams struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
}

// MatchCourses calls the match_courses database function, which ranks courses by
// cosine similarity to embedding.
func (c *Client) MatchCourses(
	ctx context.Context, embedding []float32, threshold float64, limit int,
) ([]models.CourseMatch, error) {
	body, err := c.post(ctx, c.baseURL+matchCoursesRPC, matchCoursesParams{
		QueryEmbedding: embedding,
		MatchThreshold: threshold,
		MatchCount:     limit,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: match_courses: %w", err)
	}

	var matches []models.CourseMatch
	if err := json.Unmarshal(body, &matches); err != nil {
		return nil, fmt.Errorf("supabase: unmarshal matches: %w", err)
	}

	return matches, nil
}

// NearestCourses satisfies the search service's store interface.
func (c *Client) NearestCourses(
	ctx context.Context, embedding []float32, threshold float64, limit int,
) ([]models.CourseMatch, error) {
	return c.MatchCourses(ctx, embedding, threshold, limit)
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, headers map[string]string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

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

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
