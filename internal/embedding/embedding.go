package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"instrit/internal/config"
	"instrit/internal/helper"
	"instrit/internal/models"
)

var ErrNoEmbeddings = errors.New("no embeddings generated")

// Progress is satisfied by *progressbar.ProgressBar.
type Progress interface {
	Add(n int) error
}

// NewEmbedder creates the embedder for the configured provider. The ollama
// provider posts {model, prompt} to /api/embeddings.
func NewEmbedder(cfg config.LLMConfig) (embeddings.Embedder, error) {
	log.Debug().Str("provider", cfg.Provider).Str("base_url", cfg.BaseURL).Str("model", cfg.Model).Msg("Creating embedder")

	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		llm, err := ollama.New(
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return newEmbedder(llm)
	case "openai":
		llm, err := openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithEmbeddingModel(cfg.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return newEmbedder(llm)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

func newEmbedder(client embeddings.EmbedderClient) (embeddings.Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// NewProgressBar renders embedding progress on w.
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}

// GenerateEmbeddings embeds every chunk one call at a time. A chunk whose
// call fails is logged and skipped; ErrNoEmbeddings is returned only when
// nothing could be embedded.
func GenerateEmbeddings(ctx context.Context, embedder embeddings.Embedder, filename string, chunks []models.Chunk, progress Progress) ([]models.ChunkEmbedding, error) {
	if len(chunks) == 0 {
		log.Info().Msg("No chunks to embed")
		return nil, nil
	}

	var chunkEmbeddings []models.ChunkEmbedding
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return chunkEmbeddings, err
		}
		vector, err := embedder.EmbedQuery(ctx, chunk.Content)
		if progress != nil {
			_ = progress.Add(1)
		}
		if err != nil {
			log.Warn().Err(err).Str("chunk", chunk.ID).Msgf("Failed to generate embedding for chunk %d/%d", i+1, len(chunks))
			continue
		}
		chunkEmbeddings = append(chunkEmbeddings, models.ChunkEmbedding{
			Chunk:          chunk,
			Embedding:      vector,
			SourceFilename: filename,
		})
	}

	if len(chunkEmbeddings) == 0 {
		return nil, ErrNoEmbeddings
	}
	if skipped := len(chunks) - len(chunkEmbeddings); skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("total", len(chunks)).Msg("Some chunks were not embedded")
	}
	return chunkEmbeddings, nil
}

// EmbedSections embeds the text of each section and carries the section as
// the point payload. Sections with a missing or repeated metadata id get a
// fresh UUID so their points stay distinct. Failed sections are skipped as
// in GenerateEmbeddings.
func EmbedSections(ctx context.Context, embedder embeddings.Embedder, sections []models.Section, progress Progress) ([]models.ChunkEmbedding, error) {
	if len(sections) == 0 {
		log.Info().Msg("No sections to embed")
		return nil, nil
	}

	seen := make(map[string]bool, len(sections))
	var embedded []models.ChunkEmbedding
	for i := range sections {
		if err := ctx.Err(); err != nil {
			return embedded, err
		}
		s := &sections[i]
		if s.Metadata.ID == "" || seen[s.Metadata.ID] {
			id, err := helper.GenerateUUID()
			if err != nil {
				return nil, err
			}
			if s.Metadata.ID != "" {
				log.Warn().Str("id", s.Metadata.ID).Int("section", i).Msg("Duplicate section id, assigning a new one")
			}
			s.Metadata.ID = id
		}
		seen[s.Metadata.ID] = true

		vector, err := embedder.EmbedQuery(ctx, s.Content.Text)
		if progress != nil {
			_ = progress.Add(1)
		}
		if err != nil {
			log.Warn().Err(err).Str("section", s.Metadata.ID).Msgf("Failed to generate embedding for section %d/%d", i+1, len(sections))
			continue
		}
		embedded = append(embedded, models.ChunkEmbedding{
			Chunk: models.Chunk{
				ID:      s.Metadata.ID,
				Content: s.Content.Text,
				Title:   s.Metadata.Title,
			},
			Embedding:      vector,
			SourceFilename: s.Metadata.Source.FileName,
			Payload:        s.Payload(),
		})
	}

	if len(embedded) == 0 {
		return nil, ErrNoEmbeddings
	}
	return embedded, nil
}

// EmbedTexts embeds all texts and fails on the first error.
func EmbedTexts(ctx context.Context, embedder embeddings.Embedder, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, t := range texts {
		v, err := embedder.EmbedQuery(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}
