package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"instrit/internal/llmservice"
	"instrit/internal/models"
	"instrit/internal/vectorstore"
)

// Retriever embeds a question and looks it up in the vector store.
type Retriever struct {
	embedder embeddings.Embedder
	store    vectorstore.Store
}

func NewRetriever(embedder embeddings.Embedder, store vectorstore.Store) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]models.SearchResult, error) {
	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	results, err := r.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search store: %w", err)
	}
	log.Debug().Str("query", query).Int("results", len(results)).Msg("Retrieved documents")
	return results, nil
}

// JoinContents joins result contents with newlines, the context block of
// the answer prompt.
func JoinContents(results []models.SearchResult) string {
	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Content)
	}
	return strings.Join(contents, "\n")
}

// RAG answers single questions from the documents, without memory.
type RAG struct {
	retriever *Retriever
	llm       llms.Model
	topK      int
	language  string
	opts      []llms.CallOption
}

func NewRAG(retriever *Retriever, llm llms.Model, topK int, language string, opts ...llms.CallOption) *RAG {
	return &RAG{retriever: retriever, llm: llm, topK: topK, language: language, opts: opts}
}

func (r *RAG) Query(ctx context.Context, query string) (*models.PromptResponse, error) {
	results, err := r.retriever.Retrieve(ctx, query, r.topK)
	if err != nil {
		return nil, err
	}
	source := JoinContents(results)

	prompt := fmt.Sprintf(models.RAGPromptTemplate, "", source, query, r.language)
	answer, err := llmservice.Prompt(ctx, r.llm, prompt, r.opts...)
	if err != nil {
		return nil, err
	}
	return &models.PromptResponse{
		Query:         query,
		Source:        source,
		Content:       answer,
		UsedRetrieval: true,
	}, nil
}
