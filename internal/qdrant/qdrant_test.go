package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQdrant keeps collections and points in memory and records requests.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]int
	points      map[string][]Point
	apiKeys     []string
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{collections: map[string]int{}, points: map[string][]Point{}}
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections", func(w http.ResponseWriter, r *http.Request) {
		var cols []map[string]string
		for name := range f.collections {
			cols = append(cols, map[string]string{"name": name})
		}
		writeJSON(w, map[string]any{"result": map[string]any{"collections": cols}})
	})
	mux.HandleFunc("GET /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := f.collections[r.PathValue("name")]; !ok {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"result": map[string]any{"status": "green"}})
	})
	mux.HandleFunc("PUT /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Vectors.Distance != "Cosine" {
			http.Error(w, "bad distance", http.StatusBadRequest)
			return
		}
		f.collections[r.PathValue("name")] = body.Vectors.Size
		writeJSON(w, map[string]any{"result": true})
	})
	mux.HandleFunc("DELETE /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		delete(f.collections, r.PathValue("name"))
		writeJSON(w, map[string]any{"result": true})
	})
	mux.HandleFunc("PUT /collections/{name}/points", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("wait") != "true" {
			http.Error(w, "expected wait", http.StatusBadRequest)
			return
		}
		var body struct {
			Points []Point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		name := r.PathValue("name")
		f.points[name] = append(f.points[name], body.Points...)
		writeJSON(w, map[string]any{"result": map[string]any{"status": "completed"}})
	})
	mux.HandleFunc("POST /collections/{name}/points/search", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Limit       int  `json:"limit"`
			WithPayload bool `json:"with_payload"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		var result []map[string]any
		for i, p := range f.points[r.PathValue("name")] {
			if i >= body.Limit {
				break
			}
			entry := map[string]any{"id": p.ID, "score": 1.0 - float64(i)*0.1}
			if body.WithPayload {
				entry["payload"] = p.Payload
			}
			result = append(result, entry)
		}
		writeJSON(w, map[string]any{"result": result})
	})
	mux.HandleFunc("POST /collections/{name}/points/count", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"result": map[string]any{"count": len(f.points[r.PathValue("name")])}})
	})
	mux.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T) (*Client, *fakeQdrant) {
	t.Helper()
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(Config{URL: srv.URL + "/", APIKey: "secret"}), fake
}

func TestEnsureCollection(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	exists, err := c.CollectionExists(ctx, "chatbot")
	require.NoError(t, err)
	assert.False(t, exists)

	created, err := c.EnsureCollection(ctx, "chatbot", 768)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 768, fake.collections["chatbot"])

	created, err = c.EnsureCollection(ctx, "chatbot", 768)
	require.NoError(t, err)
	assert.False(t, created)

	for _, k := range fake.apiKeys {
		assert.Equal(t, "secret", k)
	}
}

func TestCreateCollectionRejectsBadSize(t *testing.T) {
	c, _ := newTestClient(t)
	assert.Error(t, c.CreateCollection(context.Background(), "x", 0))
}

func TestUpsertAndSearch(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	_, err := c.EnsureCollection(ctx, "chatbot", 2)
	require.NoError(t, err)

	points := []Point{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]any{"content": "alpha"}},
		{ID: "b", Vector: []float32{0, 1}, Payload: map[string]any{"content": "beta"}},
		{ID: "c", Vector: []float32{1, 1}, Payload: map[string]any{"content": "gamma"}},
	}
	require.NoError(t, c.Upsert(ctx, "chatbot", points))

	n, err := c.Count(ctx, "chatbot")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	results, err := c.Search(ctx, "chatbot", []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "alpha", results[0].Payload["content"])
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestUpsertEmptyIsNoop(t *testing.T) {
	c := NewClient(Config{URL: "http://127.0.0.1:1"})
	assert.NoError(t, c.Upsert(context.Background(), "x", nil))
}

func TestListAndDeleteCollections(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, c.CreateCollection(ctx, "one", 4))

	names, err := c.ListCollections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, names)

	require.NoError(t, c.DeleteCollection(ctx, "one"))
	names, err = c.ListCollections(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestAPIErrorUnwrapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL})
	_, err := c.Search(context.Background(), "missing", []float32{1}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "gone", apiErr.Body)
}

func TestServerErrorIsNotNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{URL: srv.URL})
	_, err := c.CollectionExists(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
