package classsearch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SearchKeyword(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify the request
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "fose", r.URL.Query().Get("page"))
		assert.Equal(t, "search", r.URL.Query().Get("route"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"srcdb": "1254"}, body["other"])
		assert.Equal(t, []any{map[string]any{"field": "keyword", "value": "A"}}, body["criteria"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"srcdb":"1254","count":2,"results":[
			{"code":"CS-UY 1114","title":"Intro to Programming","description":"Basics","crn":"10001"},
			{"code":"MATH-UA 121","title":"Calculus I","instr":"Staff"}
		]}`)); err != nil {
			slog.Error("Failed to write response", "error", err)
		}
	}))
	defer server.Close()

	client := NewClientWithOptions(ClientOptions{URL: server.URL + "/class-search/api/?page=fose&route=search"})

	results, err := client.SearchKeyword(context.Background(), "1254", "A")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "CS-UY 1114", results[0]["code"])
	assert.Equal(t, "10001", results[0]["crn"])
	assert.Equal(t, "Staff", results[1]["instr"])
}

func TestClient_Search_ErrorHandling(t *testing.T) {
	t.Run("HTTP error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			if _, err := w.Write([]byte(`{"error": "boom"}`)); err != nil {
				slog.Error("Failed to write error response", "error", err)
			}
		}))
		defer server.Close()

		client := NewClientWithOptions(ClientOptions{URL: server.URL})
		results, err := client.SearchKeyword(context.Background(), "1254", "B")

		require.Error(t, err)
		assert.Nil(t, results)
		assert.Contains(t, err.Error(), "500")
	})

	t.Run("Fatal in 200 response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte(`{"fatal":"Invalid srcdb"}`)); err != nil {
				slog.Error("Failed to write response", "error", err)
			}
		}))
		defer server.Close()

		client := NewClientWithOptions(ClientOptions{URL: server.URL})
		_, err := client.SearchKeyword(context.Background(), "9999", "C")

		require.ErrorIs(t, err, ErrFatal)
		assert.Contains(t, err.Error(), "Invalid srcdb")
	})

	t.Run("Invalid JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte(`<html>maintenance</html>`)); err != nil {
				slog.Error("Failed to write response", "error", err)
			}
		}))
		defer server.Close()

		client := NewClientWithOptions(ClientOptions{URL: server.URL})
		_, err := client.SearchKeyword(context.Background(), "1254", "D")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal")
	})

	t.Run("Transport error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		client := NewClientWithOptions(ClientOptions{URL: url})
		_, err := client.SearchKeyword(context.Background(), "1254", "E")

		require.Error(t, err)
	})
}

func TestClient_Search_noRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClientWithOptions(ClientOptions{URL: server.URL})
	_, err := client.SearchKeyword(context.Background(), "1254", "F")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Search_retriesWhenConfigured(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"results":[{"code":"X-1","title":"Retried"}]}`)); err != nil {
			slog.Error("Failed to write response", "error", err)
		}
	}))
	defer server.Close()

	client := NewClientWithOptions(ClientOptions{URL: server.URL, RetryMax: 1})
	results, err := client.SearchKeyword(context.Background(), "1254", "G")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int32(2), calls.Load())
}
