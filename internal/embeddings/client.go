// Package embeddings defines the embedding client used by the ingestion and search services.
package embeddings

import "context"

// Client generates text embeddings.
type Client interface {
	// EmbedDocuments returns one vector per text; output i belongs to input i.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the length of every vector the client produces.
	Dimensions() int
}
