// Package nomic provides a client for the Nomic Atlas text embedding API.
package nomic

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

// DefaultBaseURL is the Nomic Atlas API host.
const DefaultBaseURL = "https://api-atlas.nomic.ai"

const (
	defaultModel     = "nomic-embed-text-v1.5"
	defaultDimension = 768
	embedTextPath    = "/v1/embedding/text"
)

// Task types understood by nomic-embed-text models.
const (
	TaskSearchDocument = "search_document"
	TaskSearchQuery    = "search_query"
)

var (
	// ErrEmptyInput is returned when no texts are given.
	ErrEmptyInput = errors.New("nomic: input texts are empty")
	// ErrMissingAPIKey is returned when the client has no credential.
	ErrMissingAPIKey = errors.New("nomic: api key is required")
	// ErrCountMismatch is returned when the response holds a different number of embeddings than texts sent.
	ErrCountMismatch = errors.New("nomic: embedding count mismatch")
	// ErrDimensionMismatch is returned when a returned vector does not have the configured length.
	ErrDimensionMismatch = errors.New("nomic: embedding dimension mismatch")
)

type embedRequest struct {
	Texts          []string `json:"texts"`
	Model          string   `json:"model"`
	TaskType       string   `json:"task_type"`
	Dimensionality int      `json:"dimensionality,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Client calls the Nomic embedding endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *retryablehttp.Client
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API host (tests, proxies).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithModel sets the embedding model. Empty keeps the default.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithDimensions sets the requested output dimensionality (must match the store column).
func WithDimensions(dim int) ClientOption {
	return func(c *Client) {
		c.dimensions = dim
	}
}

// WithRetryMax sets how many times a failed call is retried (default 0).
func WithRetryMax(n int) ClientOption {
	return func(c *Client) {
		c.httpClient.RetryMax = n
	}
}

// NewClient creates a Nomic embeddings client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		model:      defaultModel,
		dimensions: defaultDimension,
		httpClient: retryClient,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Dimensions returns the configured vector length.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// EmbedDocuments embeds texts for storage (task type search_document), preserving input order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embed(ctx, texts, TaskSearchDocument)
}

// EmbedQuery embeds a search query (task type search_query).
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := c.embed(ctx, []string{text}, TaskSearchQuery)
	if err != nil {
		return nil, err
	}

	return out[0], nil
}

func (c *Client) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(embedRequest{
		Texts:          texts,
		Model:          c.model,
		TaskType:       taskType,
		Dimensionality: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("nomic: marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+embedTextPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("nomic: create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nomic: execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("Failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("nomic: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nomic: API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("nomic: unmarshal response: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrCountMismatch, len(result.Embeddings), len(texts))
	}

	for i, emb := range result.Embeddings {
		if len(emb) != c.dimensions {
			return nil, fmt.Errorf("%w: index %d got %d, want %d", ErrDimensionMismatch, i, len(emb), c.dimensions)
		}
	}

	return result.Embeddings, nil
}
