package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"instrit/internal/config"
)

type Document struct {
	bun.BaseModel  `bun:"table:documents,alias:d"`
	ID             string          `bun:"id,pk"`
	Content        string          `bun:"content,notnull"`
	Title          string          `bun:"title"`
	ChunkID        string          `bun:"chunk_id"`
	PageNumber     int             `bun:"page_number"`
	SourceFilename string          `bun:"source_filename"`
	Payload        map[string]any  `bun:"payload,type:jsonb"`
	Embedding      pgvector.Vector `bun:"embedding,notnull,type:vector"`
}

// ScoredDocument is a search row; Score is the cosine similarity.
type ScoredDocument struct {
	ID         string  `bun:"id"`
	Content    string  `bun:"content"`
	Title      string  `bun:"title"`
	ChunkID    string  `bun:"chunk_id"`
	PageNumber int     `bun:"page_number"`
	Score      float64 `bun:"score"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the Supabase Postgres database with the configured
// driver: "pgdriver" (default) or "pq".
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}
	switch cfg.Driver {
	case "", "pgdriver":
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	case "pq":
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return sqldb, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// InitDB enables pgvector and creates the documents table.
func InitDB(ctx context.Context, db bun.IDB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

// StoreDocuments inserts documents, replacing rows with the same id.
func StoreDocuments(ctx context.Context, db bun.IDB, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := upsertQuery(db, docs).Exec(ctx); err != nil {
		return fmt.Errorf("failed to store documents: %w", err)
	}
	return nil
}

func upsertQuery(db bun.IDB, docs []Document) *bun.InsertQuery {
	return db.NewInsert().
		Model(&docs).
		On("CONFLICT (id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("title = EXCLUDED.title").
		Set("chunk_id = EXCLUDED.chunk_id").
		Set("page_number = EXCLUDED.page_number").
		Set("source_filename = EXCLUDED.source_filename").
		Set("payload = EXCLUDED.payload").
		Set("embedding = EXCLUDED.embedding")
}

func SearchDocuments(ctx context.Context, db bun.IDB, queryEmbedding []float32, limit int) ([]ScoredDocument, error) {
	var docs []ScoredDocument
	if err := searchQuery(db, queryEmbedding, limit).Scan(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	return docs, nil
}

func searchQuery(db bun.IDB, queryEmbedding []float32, limit int) *bun.SelectQuery {
	vec := pgvector.NewVector(queryEmbedding)
	return db.NewSelect().
		Model((*Document)(nil)).
		Column("id", "content", "title", "chunk_id", "page_number").
		ColumnExpr("1 - (embedding <=> ?) AS score", vec).
		OrderExpr("embedding <=> ?", vec).
		Limit(limit)
}

func CountDocuments(ctx context.Context, db bun.IDB) (int, error) {
	return db.NewSelect().Model((*Document)(nil)).Count(ctx)
}

func DropDocuments(ctx context.Context, db bun.IDB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}
