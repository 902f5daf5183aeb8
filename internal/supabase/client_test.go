package supabase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classfinder/courses/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{URL: server.URL, Key: "service-key"})
	require.NoError(t, err)

	return client
}

func TestNewClient_validation(t *testing.T) {
	_, err := NewClient(ClientOptions{Key: "k"})
	assert.ErrorIs(t, err, ErrMissingURL)

	_, err = NewClient(ClientOptions{URL: "https://example.supabase.co"})
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestClient_Upsert(t *testing.T) {
	raw := map[string]any{"code": "CS-1", "title": "Intro", "description": "Basics", "crn": "1001"}
	rows := []models.CourseRow{
		models.NewCourseRow(models.NewCourseRecord(raw), []float32{0.5, 0.25}),
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/courses", r.URL.Path)
		assert.Equal(t, "course_code", r.URL.Query().Get("on_conflict"))
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Prefer"), "resolution=merge-duplicates")

		var body []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, "CS-1", body[0]["course_code"])
		assert.Equal(t, "Intro", body[0]["title"])
		assert.Equal(t, "Basics", body[0]["description"])
		assert.Equal(t, []any{0.5, 0.25}, body[0]["embedding"])
		assert.Equal(t, raw, body[0]["metadata"])

		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.Upsert(context.Background(), rows))
}

func TestClient_Upsert_errorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		if _, err := w.Write([]byte(`{"message":"expected 768 dimensions, not 2"}`)); err != nil {
			slog.Error("Failed to write response", "error", err)
		}
	})

	err := client.Upsert(context.Background(), []models.CourseRow{{CourseCode: "CS-1", Embedding: []float32{1, 0}}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "expected 768 dimensions")
}

func TestClient_Upsert_emptyIsNoop(t *testing.T) {
	client := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	assert.NoError(t, client.Upsert(context.Background(), nil))
}

func TestClient_MatchCourses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/match_courses", r.URL.Path)

		var params map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		assert.Equal(t, []any{1.0, 0.0}, params["query_embedding"])
		assert.InDelta(t, 0.3, params["match_threshold"], 1e-9)
		assert.InDelta(t, 20, params["match_count"], 0)

		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`[
			{"id":1,"course_code":"CS-1","title":"Intro","description":"Basics","similarity":0.91},
			{"id":2,"course_code":"CS-2","title":"Data","description":null,"similarity":0.42}
		]`)); err != nil {
			slog.Error("Failed to write response", "error", err)
		}
	})

	matches, err := client.NearestCourses(context.Background(), []float32{1, 0}, 0.3, 20)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "CS-1", matches[0].CourseCode)
	assert.InDelta(t, 0.91, matches[0].Similarity, 1e-9)
	assert.Empty(t, matches[1].Description)
}
