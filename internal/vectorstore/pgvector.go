package vectorstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"

	"instrit/internal/db"
	"instrit/internal/models"
)

// PgvectorStore stores chunks in the documents table of a Postgres
// database with the pgvector extension, such as Supabase.
type PgvectorStore struct {
	db         *bun.DB
	vectorSize int
}

func NewPgvectorStore(bunDB *bun.DB, vectorSize int) *PgvectorStore {
	return &PgvectorStore{db: bunDB, vectorSize: vectorSize}
}

func (s *PgvectorStore) EnsureCollection(ctx context.Context) (bool, error) {
	if err := db.InitDB(ctx, s.db); err != nil {
		return false, err
	}
	return false, nil
}

func (s *PgvectorStore) Upsert(ctx context.Context, items []models.ChunkEmbedding) error {
	docs, err := s.toDocuments(items)
	if err != nil {
		return err
	}
	return db.StoreDocuments(ctx, s.db, docs)
}

func (s *PgvectorStore) toDocuments(items []models.ChunkEmbedding) ([]db.Document, error) {
	docs := make([]db.Document, 0, len(items))
	for _, item := range items {
		if len(item.Embedding) != s.vectorSize {
			return nil, fmt.Errorf("chunk %s: vector size %d, table expects %d", item.ID, len(item.Embedding), s.vectorSize)
		}
		docs = append(docs, db.Document{
			ID:             PointID(item),
			Content:        item.Content,
			Title:          item.Title,
			ChunkID:        item.ID,
			PageNumber:     item.PageNumber,
			SourceFilename: item.SourceFilename,
			Payload:        Payload(item),
			Embedding:      pgvector.NewVector(item.Embedding),
		})
	}
	return docs, nil
}

func (s *PgvectorStore) Search(ctx context.Context, vector []float32, topK int) ([]models.SearchResult, error) {
	rows, err := db.SearchDocuments(ctx, s.db, vector, topK)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, models.SearchResult{
			ID:         r.ID,
			Content:    r.Content,
			Title:      r.Title,
			PageNumber: r.PageNumber,
			Score:      r.Score,
		})
	}
	return results, nil
}

func (s *PgvectorStore) Count(ctx context.Context) (int, error) {
	return db.CountDocuments(ctx, s.db)
}

func (s *PgvectorStore) DeleteCollection(ctx context.Context) error {
	return db.DropDocuments(ctx, s.db)
}

func (s *PgvectorStore) Close() error {
	return s.db.Close()
}
