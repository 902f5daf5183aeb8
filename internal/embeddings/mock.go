package embeddings

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	vectors "github.com/classfinder/courses/pkg/embeddings"
)

// ErrEmptyText is returned by MockClient for empty input.
var ErrEmptyText = errors.New("embeddings: text cannot be empty")

// MockClient implements Client for tests and offline runs.
// It derives a unit-length vector from the SHA-256 of each text, so equal texts embed equally.
type MockClient struct {
	dimensions int
}

// NewMockClient creates a mock client with the given dimensions.
func NewMockClient(dimensions int) *MockClient {
	return &MockClient{dimensions: dimensions}
}

// EmbedDocuments generates one deterministic embedding per text.
func (c *MockClient) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyText
	}

	for i, text := range texts {
		if text == "" {
			return nil, fmt.Errorf("%w: index %d", ErrEmptyText, i)
		}
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = c.vector(text)
	}

	return out, nil
}

// EmbedQuery generates a deterministic embedding for text.
func (c *MockClient) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	return c.vector(text), nil
}

// Dimensions returns the configured vector length.
func (c *MockClient) Dimensions() int {
	return c.dimensions
}

func (c *MockClient) vector(text string) []float32 {
	hash := sha256.Sum256([]byte(text))
	vec := make([]float32, c.dimensions)

	// Hash bytes are reused cyclically and mapped into [-1, 1].
	for i := range vec {
		vec[i] = (float32(hash[i%len(hash)]) / 127.5) - 1.0
	}

	vectors.NormalizeL2(vec)

	return vec
}

var _ Client = (*MockClient)(nil)
