package models

import "fmt"

// Chunk represents a parsed chunk with metadata. The JSON shape is the
// chunk file format written by the extract command.
type Chunk struct {
	ID         string `json:"chunk-id"`
	Content    string `json:"chunk"`
	Title      string `json:"title"`
	PageNumber int    `json:"page-number"`
	Index      int    `json:"-"`
}

// ChunkID formats the "<page0>-<idx>" identifier from a 1-based page number
// and a 0-based chunk index within that page.
func ChunkID(pageNumber, index int) string {
	return fmt.Sprintf("%d-%d", pageNumber-1, index)
}

type ChunkEmbedding struct {
	Chunk
	Embedding      []float32      `json:"embedding"`
	SourceFilename string         `json:"source_filename,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
}

type SearchResult struct {
	ID         string  `json:"id"`
	Content    string  `json:"content"`
	Title      string  `json:"title"`
	PageNumber int     `json:"page_number"`
	Score      float64 `json:"score"`
}

type PromptResponse struct {
	Query         string `json:"query"`
	Source        string `json:"source"`
	Content       string `json:"content"`
	UsedRetrieval bool   `json:"used_retrieval"`
}

// ChatTurn is one message of a conversation, in the OpenAI chat shape.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
