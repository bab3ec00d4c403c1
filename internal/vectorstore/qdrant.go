package vectorstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"instrit/internal/models"
	"instrit/internal/qdrant"
)

type QdrantStore struct {
	client     *qdrant.Client
	collection string
	vectorSize int
}

func NewQdrantStore(client *qdrant.Client, collection string, vectorSize int) *QdrantStore {
	return &QdrantStore{client: client, collection: collection, vectorSize: vectorSize}
}

func (s *QdrantStore) EnsureCollection(ctx context.Context) (bool, error) {
	created, err := s.client.EnsureCollection(ctx, s.collection, s.vectorSize)
	if err != nil {
		return false, err
	}
	if created {
		log.Info().Str("collection", s.collection).Int("size", s.vectorSize).Msg("Created qdrant collection")
	}
	return created, nil
}

func (s *QdrantStore) Upsert(ctx context.Context, items []models.ChunkEmbedding) error {
	points := make([]qdrant.Point, 0, len(items))
	for _, item := range items {
		if len(item.Embedding) != s.vectorSize {
			return fmt.Errorf("chunk %s: vector size %d, collection expects %d", item.ID, len(item.Embedding), s.vectorSize)
		}
		points = append(points, qdrant.Point{
			ID:      PointID(item),
			Vector:  item.Embedding,
			Payload: Payload(item),
		})
	}
	return s.client.Upsert(ctx, s.collection, points)
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error) {
	hits, err := s.client.Search(ctx, s.collection, vector, topK)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, resultFromPayload(fmt.Sprint(h.ID), h.Score, h.Payload))
	}
	return results, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	return s.client.Count(ctx, s.collection)
}

func (s *QdrantStore) DeleteCollection(ctx context.Context) error {
	return s.client.DeleteCollection(ctx, s.collection)
}

func (s *QdrantStore) Close() error { return nil }
