package server

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"instrit/internal/embedding"
	"instrit/internal/helper"
	"instrit/internal/models"
	"instrit/internal/parser"
	"instrit/internal/similarity"
)

// Corpus is a chunk file held in memory with one vector per chunk.
type Corpus struct {
	chunks  []models.Chunk
	vectors [][]float32
}

type cachedEmbedding struct {
	Content   string    `json:"chunk"`
	Embedding []float32 `json:"embedding"`
}

func NewCorpus(chunks []models.Chunk, vectors [][]float32) (*Corpus, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("corpus has %d chunks and %d vectors", len(chunks), len(vectors))
	}
	return &Corpus{chunks: chunks, vectors: vectors}, nil
}

// LoadCorpus reads the chunk file at corpusPath and embeds it. Vectors are
// cached in cachePath and reused while the chunk contents are unchanged.
func LoadCorpus(ctx context.Context, embedder embeddings.Embedder, corpusPath, cachePath string) (*Corpus, error) {
	chunks, err := parser.ReadChunks(corpusPath)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("corpus %s is empty", corpusPath)
	}

	if cachePath != "" {
		vectors, err := readCache(cachePath, chunks)
		switch {
		case err == nil:
			log.Info().Str("file", cachePath).Int("chunks", len(chunks)).Msg("Loaded cached embeddings")
			return NewCorpus(chunks, vectors)
		case errors.Is(err, os.ErrNotExist):
		default:
			log.Warn().Err(err).Str("file", cachePath).Msg("Ignoring embeddings cache")
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = corpusText(c)
	}
	log.Info().Int("chunks", len(texts)).Msg("Embedding corpus")
	vectors, err := embedding.EmbedTexts(ctx, embedder, texts)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		cache := make([]cachedEmbedding, len(chunks))
		for i := range chunks {
			cache[i] = cachedEmbedding{Content: chunks[i].Content, Embedding: vectors[i]}
		}
		if err := helper.WriteJSON(cachePath, cache); err != nil {
			log.Warn().Err(err).Str("file", cachePath).Msg("Failed to write embeddings cache")
		}
	}
	return NewCorpus(chunks, vectors)
}

// corpusText is the text embedded for a chunk: "<title>: <chunk>".
func corpusText(c models.Chunk) string {
	if c.Title == "" {
		return c.Content
	}
	return c.Title + ": " + c.Content
}

func readCache(path string, chunks []models.Chunk) ([][]float32, error) {
	var cache []cachedEmbedding
	if err := helper.ReadJSON(path, &cache); err != nil {
		return nil, err
	}
	if len(cache) != len(chunks) {
		return nil, fmt.Errorf("cache has %d entries, corpus has %d", len(cache), len(chunks))
	}
	vectors := make([][]float32, len(cache))
	for i, c := range cache {
		if c.Content != chunks[i].Content {
			return nil, fmt.Errorf("cache entry %d does not match corpus", i)
		}
		vectors[i] = c.Embedding
	}
	return vectors, nil
}

func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.chunks)
}

func (c *Corpus) Search(query []float32, k int) ([]models.SearchResult, error) {
	if c == nil {
		return nil, errors.New("no corpus loaded")
	}
	matches, err := similarity.TopK(query, c.vectors, k)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(matches))
	for _, m := range matches {
		chunk := c.chunks[m.Index]
		results = append(results, models.SearchResult{
			ID:         chunk.ID,
			Content:    chunk.Content,
			Title:      chunk.Title,
			PageNumber: chunk.PageNumber,
			Score:      m.Score,
		})
	}
	return results, nil
}
