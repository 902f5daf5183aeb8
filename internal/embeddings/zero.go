package embeddings

import (
	"context"

	vectors "github.com/classfinder/courses/pkg/embeddings"
)

// ZeroClient returns all-zero vectors. It is used when no embedding credential is configured,
// so rows are still written and can be re-embedded later.
type ZeroClient struct {
	dimensions int
}

// NewZeroClient creates a client producing zero vectors of the given length.
func NewZeroClient(dimensions int) *ZeroClient {
	return &ZeroClient{dimensions: dimensions}
}

// EmbedDocuments returns len(texts) zero vectors.
func (c *ZeroClient) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	return vectors.Zeros(len(texts), c.dimensions), nil
}

// EmbedQuery returns a zero vector.
func (c *ZeroClient) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return make([]float32, c.dimensions), nil
}

// Dimensions returns the configured vector length.
func (c *ZeroClient) Dimensions() int {
	return c.dimensions
}

var _ Client = (*ZeroClient)(nil)
