package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingData struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

func newEmbeddingsServer(t *testing.T, data []embeddingData) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"), "path %s", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "text-embedding-3-small", body["model"])
		assert.InDelta(t, 3, body["dimensions"], 0)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "text-embedding-3-small",
			"usage":  map[string]any{"prompt_tokens": 4, "total_tokens": 4},
		}))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestClient_EmbedDocuments_ordersByIndex(t *testing.T) {
	server := newEmbeddingsServer(t, []embeddingData{
		{Object: "embedding", Index: 1, Embedding: []float64{0, 1, 0}},
		{Object: "embedding", Index: 0, Embedding: []float64{1, 0, 0}},
	})

	client := NewClient("sk-test", WithBaseURL(server.URL), WithDimensions(3))

	got, err := client.EmbedDocuments(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float32{1, 0, 0}, got[0])
	assert.Equal(t, []float32{0, 1, 0}, got[1])
}

func TestClient_EmbedDocuments_countMismatch(t *testing.T) {
	server := newEmbeddingsServer(t, []embeddingData{
		{Object: "embedding", Index: 0, Embedding: []float64{1, 0, 0}},
	})

	client := NewClient("sk-test", WithBaseURL(server.URL), WithDimensions(3))

	_, err := client.EmbedDocuments(context.Background(), []string{"first", "second"})

	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestClient_EmbedQuery_dimensionMismatch(t *testing.T) {
	server := newEmbeddingsServer(t, []embeddingData{
		{Object: "embedding", Index: 0, Embedding: []float64{1, 0}},
	})

	client := NewClient("sk-test", WithBaseURL(server.URL), WithDimensions(3))

	_, err := client.EmbedQuery(context.Background(), "query")

	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestClient_EmbedDocuments_validation(t *testing.T) {
	client := NewClient("sk-test")

	_, err := client.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	client = NewClient("sk-test", WithDimensions(0))
	_, err = client.EmbedDocuments(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrInvalidDims)
}
