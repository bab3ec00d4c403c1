package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instrit/internal/config"
	"instrit/internal/models"
	"instrit/internal/qdrant"
)

func item(id, title, content string, page int, vec ...float32) models.ChunkEmbedding {
	return models.ChunkEmbedding{
		Chunk:     models.Chunk{ID: id, Title: title, Content: content, PageNumber: page},
		Embedding: vec,
	}
}

func TestPayloadKeepsExistingKeys(t *testing.T) {
	it := item("0-1", "manual", "chunk text", 1, 1, 0)
	it.SourceFilename = "manual.json"
	it.Payload = map[string]any{"content": "section text", "tags": []string{"a"}}

	p := Payload(it)
	assert.Equal(t, "section text", p["content"])
	assert.Equal(t, "manual", p["title"])
	assert.Equal(t, "0-1", p["chunk_id"])
	assert.Equal(t, 1, p["page_number"])
	assert.Equal(t, "manual.json", p["source_filename"])
	assert.Equal(t, []string{"a"}, p["tags"])
	assert.Len(t, it.Payload, 2)
}

func TestPointIDStable(t *testing.T) {
	a := item("0-1", "manual", "x", 1)
	b := item("0-1", "manual", "y", 1)
	assert.Equal(t, PointID(a), PointID(b))
	assert.NotEqual(t, PointID(a), PointID(item("0-2", "manual", "x", 1)))
}

func TestResultFromPayload(t *testing.T) {
	r := resultFromPayload("id", 0.8, map[string]any{"content": "c", "title": "t", "page_number": float64(4)})
	assert.Equal(t, models.SearchResult{ID: "id", Content: "c", Title: "t", PageNumber: 4, Score: 0.8}, r)

	r = resultFromPayload("id", 0.1, map[string]any{"page_number": "7"})
	assert.Equal(t, 7, r.PageNumber)

	r = resultFromPayload("id", 0.1, map[string]any{"page_number": ""})
	assert.Equal(t, 0, r.PageNumber)
}

func TestStringMetadata(t *testing.T) {
	meta, err := stringMetadata(map[string]any{
		"content":     "skipped",
		"title":       "t",
		"page_number": 3,
		"tags":        []string{"x", "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"title": "t", "page_number": "3", "tags": `["x","y"]`}, meta)
}

func TestChromemStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore(config.ChromemConfig{Path: t.TempDir(), InMemory: true}, "chatbot")
	require.NoError(t, err)

	created, err := s.EnsureCollection(ctx)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, s.Upsert(ctx, []models.ChunkEmbedding{
		item("0-0", "manual", "oil change", 1, 1, 0, 0),
		item("1-0", "manual", "motor voltage", 2, 0, 1, 0),
	}))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := s.Search(ctx, []float32{0, 1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "motor voltage", results[0].Content)
	assert.Equal(t, 2, results[0].PageNumber)
	assert.Equal(t, "manual", results[0].Title)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestChromemStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := config.ChromemConfig{Path: t.TempDir(), InMemory: true}

	s, err := NewChromemStore(cfg, "chatbot")
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, []models.ChunkEmbedding{item("0-0", "manual", "oil", 1, 1, 0)}))
	require.NoError(t, s.Close())

	reopened, err := NewChromemStore(cfg, "chatbot")
	require.NoError(t, err)
	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestChromemStoreUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s, err := NewChromemStore(config.ChromemConfig{Path: t.TempDir(), InMemory: true}, "chatbot")
	require.NoError(t, err)

	it := item("0-0", "manual", "oil", 1, 1, 0)
	require.NoError(t, s.Upsert(ctx, []models.ChunkEmbedding{it}))
	require.NoError(t, s.Upsert(ctx, []models.ChunkEmbedding{it}))
	n, _ := s.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestQdrantStoreRejectsWrongSize(t *testing.T) {
	s := NewQdrantStore(qdrant.NewClient(qdrant.Config{URL: "http://127.0.0.1:1"}), "chatbot", 3)
	err := s.Upsert(context.Background(), []models.ChunkEmbedding{item("0-0", "m", "x", 1, 1, 0)})
	assert.ErrorContains(t, err, "vector size 2")
}

func TestQdrantStoreSearch(t *testing.T) {
	var gotPoints []qdrant.Point
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /collections/chatbot/points", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Points []qdrant.Point `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotPoints = body.Points
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	})
	mux.HandleFunc("POST /collections/chatbot/points/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":[{"id":"p1","score":0.91,"payload":{"content":"oil","title":"manual","page_number":2}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	s := NewQdrantStore(qdrant.NewClient(qdrant.Config{URL: srv.URL}), "chatbot", 2)
	require.NoError(t, s.Upsert(ctx, []models.ChunkEmbedding{item("1-0", "manual", "oil", 2, 1, 0)}))
	require.Len(t, gotPoints, 1)
	assert.Equal(t, PointID(item("1-0", "manual", "", 2)), gotPoints[0].ID)
	assert.Equal(t, "oil", gotPoints[0].Payload["content"])

	results, err := s.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []models.SearchResult{{ID: "p1", Content: "oil", Title: "manual", PageNumber: 2, Score: 0.91}}, results)
}

func TestPgvectorToDocuments(t *testing.T) {
	s := NewPgvectorStore(nil, 2)
	docs, err := s.toDocuments([]models.ChunkEmbedding{item("0-3", "manual", "oil", 1, 0.5, 0.5)})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "0-3", docs[0].ChunkID)
	assert.Equal(t, []float32{0.5, 0.5}, docs[0].Embedding.Slice())
	assert.Equal(t, "oil", docs[0].Payload["content"])

	_, err = s.toDocuments([]models.ChunkEmbedding{item("0-3", "manual", "oil", 1, 1)})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	cfg := config.DefaultConfig()
	s, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &QdrantStore{}, s)

	cfg.VectorStore.Type = "chromem"
	cfg.VectorStore.Chromem.Path = t.TempDir()
	s, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &ChromemStore{}, s)

	cfg.VectorStore.Type = "pgvector"
	_, err = New(cfg)
	assert.Error(t, err, "dsn is required")

	cfg.VectorStore.Type = "faiss"
	_, err = New(cfg)
	assert.Error(t, err)
}
