package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classfinder/courses/internal/config"
	"github.com/classfinder/courses/internal/nomic"
	"github.com/classfinder/courses/internal/openai"
	vectors "github.com/classfinder/courses/pkg/embeddings"
)

func TestZeroClient(t *testing.T) {
	client := NewZeroClient(768)

	got, err := client.EmbedDocuments(context.Background(), []string{"a", "b", "c"})

	require.NoError(t, err)
	require.Len(t, got, 3)

	for _, vec := range got {
		assert.Len(t, vec, 768)
		assert.True(t, vectors.IsZero(vec))
	}

	query, err := client.EmbedQuery(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, query, 768)
	assert.True(t, vectors.IsZero(query))
}

func TestMockClient_deterministicUnitVectors(t *testing.T) {
	client := NewMockClient(16)

	first, err := client.EmbedDocuments(context.Background(), []string{"Intro: CS-1. Basics", "Calc: MATH-1. "})
	require.NoError(t, err)

	second, err := client.EmbedQuery(context.Background(), "Intro: CS-1. Basics")
	require.NoError(t, err)

	assert.Equal(t, first[0], second)
	assert.NotEqual(t, first[0], first[1])

	var sum float64
	for _, v := range first[0] {
		sum += float64(v) * float64(v)
	}

	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestMockClient_rejectsEmptyText(t *testing.T) {
	client := NewMockClient(4)

	_, err := client.EmbedDocuments(context.Background(), []string{"ok", ""})
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = client.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		cfg        *config.Config
		degenerate bool
		check      func(t *testing.T, client Client)
	}{
		{
			name: "no credential yields zero client",
			cfg: &config.Config{
				EmbeddingProvider:   config.EmbeddingProviderNomic,
				EmbeddingDimensions: 768,
			},
			degenerate: true,
		},
		{
			name: "nomic",
			cfg: &config.Config{
				EmbeddingProvider:   config.EmbeddingProviderNomic,
				EmbeddingAPIKey:     "nk-test",
				EmbeddingModel:      "nomic-embed-text-v1.5",
				EmbeddingDimensions: 512,
			},
			check: func(t *testing.T, client Client) {
				assert.IsType(t, &nomic.Client{}, client)
				assert.Equal(t, 512, client.Dimensions())
			},
		},
		{
			name: "openai",
			cfg: &config.Config{
				EmbeddingProvider:   config.EmbeddingProviderOpenAI,
				EmbeddingAPIKey:     "sk-test",
				EmbeddingModel:      "text-embedding-3-small",
				EmbeddingDimensions: 768,
			},
			check: func(t *testing.T, client Client) {
				assert.IsType(t, &openai.Client{}, client)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(context.Background(), tt.cfg)

			require.NoError(t, err)
			assert.Equal(t, tt.degenerate, IsDegenerate(client))

			if tt.check != nil {
				tt.check(t, client)
			}
		})
	}
}

func TestNew_unknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.Config{
		EmbeddingProvider:   "cohere",
		EmbeddingAPIKey:     "key",
		EmbeddingDimensions: 768,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cohere")
}
