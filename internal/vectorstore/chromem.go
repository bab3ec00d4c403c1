package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"instrit/internal/chromemdb"
	"instrit/internal/config"
	"instrit/internal/models"
)

// ChromemStore keeps vectors in an embedded chromem-go database. An
// in-memory database is loaded from its export file on open and written
// back on Close.
type ChromemStore struct {
	manager    *chromemdb.VectorDBManager
	collection string
	inMemory   bool
}

func NewChromemStore(cfg config.ChromemConfig, collection string) (*ChromemStore, error) {
	manager, err := chromemdb.NewVectorDBManager(cfg, collection)
	if err != nil {
		return nil, err
	}
	if _, err := manager.GetOrCreateCollection(collection); err != nil {
		return nil, err
	}
	s := &ChromemStore{manager: manager, collection: collection, inMemory: cfg.InMemory}
	if cfg.InMemory {
		if _, err := os.Stat(manager.FilePath()); err == nil {
			if err := manager.Import(); err != nil {
				return nil, err
			}
			log.Debug().Str("file", manager.FilePath()).Int("count", manager.Count()).Msg("Imported chromem collection")
		}
	}
	return s, nil
}

func (s *ChromemStore) EnsureCollection(ctx context.Context) (bool, error) {
	if s.manager.Collection() != nil {
		return false, nil
	}
	if _, err := s.manager.GetOrCreateCollection(s.collection); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ChromemStore) Upsert(ctx context.Context, items []models.ChunkEmbedding) error {
	if s.manager.Collection() == nil {
		return fmt.Errorf("collection %s does not exist", s.collection)
	}
	docs := make([]chromemdb.Document, 0, len(items))
	for _, item := range items {
		meta, err := stringMetadata(Payload(item))
		if err != nil {
			return fmt.Errorf("chunk %s: %w", item.ID, err)
		}
		docs = append(docs, chromemdb.Document{
			ID:        PointID(item),
			Content:   item.Content,
			Metadata:  meta,
			Embedding: item.Embedding,
		})
	}
	return s.manager.CreateDocs(ctx, docs)
}

func (s *ChromemStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error) {
	if s.manager.Collection() == nil {
		return nil, fmt.Errorf("collection %s does not exist", s.collection)
	}
	hits, err := s.manager.Search(ctx, vector, topK)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		payload := make(map[string]any, len(h.Metadata)+1)
		for k, v := range h.Metadata {
			payload[k] = v
		}
		payload["content"] = h.Content
		results = append(results, resultFromPayload(h.ID, float64(h.Similarity), payload))
	}
	return results, nil
}

func (s *ChromemStore) Count(ctx context.Context) (int, error) {
	return s.manager.Count(), nil
}

func (s *ChromemStore) DeleteCollection(ctx context.Context) error {
	return s.manager.DeleteCollection()
}

func (s *ChromemStore) Close() error {
	if !s.inMemory || s.manager.Collection() == nil {
		return nil
	}
	return s.manager.Export()
}

// stringMetadata flattens a payload into chromem's string metadata. Non
// string values are stored as JSON.
func stringMetadata(payload map[string]any) (map[string]string, error) {
	meta := make(map[string]string, len(payload))
	var errs []error
	for k, v := range payload {
		if k == "content" {
			continue
		}
		if str, ok := v.(string); ok {
			meta[k] = str
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("metadata %s: %w", k, err))
			continue
		}
		meta[k] = string(b)
	}
	return meta, errors.Join(errs...)
}
