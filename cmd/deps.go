package main

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"

	"instrit/internal/embedding"
	"instrit/internal/llmservice"
	"instrit/internal/rag"
	"instrit/internal/translator"
	"instrit/internal/vectorstore"
)

func newEmbedder() (embeddings.Embedder, error) {
	e, err := embedding.NewEmbedder(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return e, nil
}

func newChatModel() (llms.Model, error) {
	if err := cfg.RequireLLMKey(); err != nil {
		return nil, err
	}
	return llmservice.NewChatModel(cfg.LLM, cfg.Sampling)
}

func newTranslator(llm llms.Model) (translator.Translator, error) {
	return translator.New(cfg.Translator, llm)
}

func newStore() (vectorstore.Store, error) {
	s, err := vectorstore.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.VectorStore.Type, err)
	}
	return s, nil
}

// newRetriever opens the store; the caller closes it.
func newRetriever() (*rag.Retriever, vectorstore.Store, error) {
	embedder, err := newEmbedder()
	if err != nil {
		return nil, nil, err
	}
	store, err := newStore()
	if err != nil {
		return nil, nil, err
	}
	return rag.NewRetriever(embedder, store), store, nil
}
