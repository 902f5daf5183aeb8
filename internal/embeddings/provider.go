package embeddings

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classfinder/courses/internal/config"
	"github.com/classfinder/courses/internal/googleai"
	"github.com/classfinder/courses/internal/nomic"
	"github.com/classfinder/courses/internal/openai"
)

var (
	_ Client = (*nomic.Client)(nil)
	_ Client = (*openai.Client)(nil)
	_ Client = (*googleai.Client)(nil)
)

// New returns the embedding client selected by cfg.EmbeddingProvider.
// Without a credential it returns a ZeroClient and logs a warning; callers can
// detect that mode with IsDegenerate.
//
// Provider-level retries stay at zero: the ingestion service owns retries
// (EMBEDDING_MAX_RETRIES) so one setting governs every provider.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	if !cfg.HasEmbeddingCredential() {
		slog.Warn("embeddings: no credential configured, storing zero vectors",
			"provider", cfg.EmbeddingProvider,
			"dimensions", cfg.EmbeddingDimensions,
		)

		return NewZeroClient(cfg.EmbeddingDimensions), nil
	}

	switch cfg.EmbeddingProvider {
	case config.EmbeddingProviderNomic:
		return nomic.NewClient(cfg.EmbeddingAPIKey,
			nomic.WithModel(cfg.EmbeddingModel),
			nomic.WithDimensions(cfg.EmbeddingDimensions),
		), nil
	case config.EmbeddingProviderOpenAI:
		return openai.NewClient(cfg.EmbeddingAPIKey,
			openai.WithModel(cfg.EmbeddingModel),
			openai.WithDimensions(cfg.EmbeddingDimensions),
		), nil
	case config.EmbeddingProviderGoogle:
		client, err := googleai.NewClient(ctx, cfg.EmbeddingAPIKey,
			googleai.WithModel(cfg.EmbeddingModel),
			googleai.WithDimensions(cfg.EmbeddingDimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("embeddings: %w", err)
		}

		return client, nil
	default:
		return nil, fmt.Errorf("embeddings: unknown provider %q", cfg.EmbeddingProvider)
	}
}

// IsDegenerate reports whether client only produces zero vectors.
func IsDegenerate(client Client) bool {
	_, ok := client.(*ZeroClient)

	return ok
}
