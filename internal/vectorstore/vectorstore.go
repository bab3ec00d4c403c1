// Package vectorstore puts the three supported backends (Qdrant, chromem-go
// and Postgres with pgvector) behind one Store interface.
package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"instrit/internal/config"
	"instrit/internal/db"
	"instrit/internal/helper"
	"instrit/internal/models"
	"instrit/internal/qdrant"
)

// Store holds chunk embeddings of a single collection. Scores returned by
// Search are cosine similarities, highest first.
type Store interface {
	// EnsureCollection creates the collection when missing and reports
	// whether it did.
	EnsureCollection(ctx context.Context) (bool, error)
	Upsert(ctx context.Context, items []models.ChunkEmbedding) error
	Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error)
	Count(ctx context.Context) (int, error)
	DeleteCollection(ctx context.Context) error
	Close() error
}

func New(cfg *config.Config) (Store, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case "qdrant":
		client := qdrant.NewClient(qdrant.Config{
			URL:     vs.Qdrant.URL,
			APIKey:  vs.Qdrant.APIKey,
			Timeout: time.Duration(vs.Qdrant.TimeoutSecs) * time.Second,
		})
		return NewQdrantStore(client, vs.Collection, vs.VectorSize), nil
	case "chromem":
		return NewChromemStore(vs.Chromem, vs.Collection)
	case "pgvector":
		sqldb, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewPgvectorStore(db.NewDB(sqldb, cfg.Database.Debug), vs.VectorSize), nil
	default:
		return nil, fmt.Errorf("unknown vector store type %q", vs.Type)
	}
}

// PointID is the stable id an item is stored under.
func PointID(item models.ChunkEmbedding) string {
	return helper.PointID(item.Title, item.ID)
}

// Payload returns the item's payload with the chunk fields filled in.
func Payload(item models.ChunkEmbedding) map[string]any {
	payload := make(map[string]any, len(item.Payload)+5)
	for k, v := range item.Payload {
		payload[k] = v
	}
	setDefault(payload, "content", item.Content)
	setDefault(payload, "title", item.Title)
	setDefault(payload, "chunk_id", item.ID)
	setDefault(payload, "page_number", item.PageNumber)
	if item.SourceFilename != "" {
		setDefault(payload, "source_filename", item.SourceFilename)
	}
	return payload
}

func setDefault(m map[string]any, key string, value any) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// resultFromPayload maps a stored payload back to a search result.
func resultFromPayload(id string, score float64, payload map[string]any) models.SearchResult {
	return models.SearchResult{
		ID:         id,
		Content:    stringValue(payload["content"]),
		Title:      stringValue(payload["title"]),
		PageNumber: intValue(payload["page_number"]),
		Score:      score,
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// intValue accepts the shapes a page number comes back in: JSON numbers,
// Go ints and the strings used by section payloads.
func intValue(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
