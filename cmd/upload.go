package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/embeddings"

	"instrit/internal/embedding"
	"instrit/internal/helper"
	"instrit/internal/llmservice"
	"instrit/internal/models"
	"instrit/internal/parser"
	"instrit/internal/semantic"
)

const uploadBatchSize = 64

var (
	uploadRecreate bool
	uploadSituate  bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file.json>...",
	Short: "Embed chunk or section JSON files and store them",
	Long: `Embeds every chunk (from extract) or section (from structure) and upserts
it into the configured vector store. Point ids are derived from title and
chunk id, so uploading a file again replaces its points.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolVar(&uploadRecreate, "recreate", false, "delete the collection before uploading")
	uploadCmd.Flags().BoolVar(&uploadSituate, "situate", false, "prefix chunks with model written document context")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	store, err := newStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	if uploadRecreate {
		if err := store.DeleteCollection(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to delete collection")
		}
	}
	if _, err := store.EnsureCollection(ctx); err != nil {
		return err
	}

	var structurer *semantic.Structurer
	if uploadSituate {
		llm, err := newChatModel()
		if err != nil {
			return err
		}
		structurer = semantic.NewStructurer(llm, llmservice.SamplingOptions(cfg.Sampling)...)
	}

	for _, file := range args {
		items, err := embedFile(ctx, embedder, structurer, file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		for start := 0; start < len(items); start += uploadBatchSize {
			end := min(start+uploadBatchSize, len(items))
			if err := store.Upsert(ctx, items[start:end]); err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
		}
		log.Info().Str("file", file).Int("points", len(items)).Str("collection", cfg.VectorStore.Collection).Msg("Uploaded")
	}

	count, err := store.Count(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("count", count).Msg("Collection size")
	return nil
}

func embedFile(ctx context.Context, embedder embeddings.Embedder, structurer *semantic.Structurer, file string) ([]models.ChunkEmbedding, error) {
	sections, err := isSectionFile(file)
	if err != nil {
		return nil, err
	}
	if sections {
		secs, err := parser.ReadSections(file)
		if err != nil {
			return nil, err
		}
		bar := embedding.NewProgressBar(os.Stderr, len(secs), "Embedding sections")
		return embedding.EmbedSections(ctx, embedder, secs, bar)
	}

	chunks, err := parser.ReadChunks(file)
	if err != nil {
		return nil, err
	}
	if structurer != nil {
		if err := situateChunks(ctx, structurer, chunks); err != nil {
			return nil, err
		}
	}
	bar := embedding.NewProgressBar(os.Stderr, len(chunks), "Embedding chunks")
	return embedding.GenerateEmbeddings(ctx, embedder, helper.BaseName(file), chunks, bar)
}

// situateChunks prefixes each chunk with a short context written from the
// whole document.
func situateChunks(ctx context.Context, structurer *semantic.Structurer, chunks []models.Chunk) error {
	var doc bytes.Buffer
	for _, c := range chunks {
		doc.WriteString(c.Content)
		doc.WriteByte('\n')
	}
	for i := range chunks {
		situated, err := structurer.Situate(ctx, doc.String(), chunks[i].Content)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", chunks[i].ID, err)
		}
		chunks[i].Content = situated + models.ContextSeparator + chunks[i].Content
	}
	return nil
}

// isSectionFile reports whether file holds sections rather than chunks.
func isSectionFile(file string) (bool, error) {
	var records []map[string]json.RawMessage
	if err := helper.ReadJSON(file, &records); err != nil {
		return false, err
	}
	if len(records) == 0 {
		return false, nil
	}
	_, ok := records[0]["metadata"]
	return ok, nil
}
