package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"

	"instrit/internal/config"
	"instrit/internal/models"
)

const (
	defaultChunkSize    = 500
	defaultChunkOverlap = 50
)

type Chunker interface {
	Split(text string) ([]string, error)
}

// NewChunker picks the chunker named by cfg.ChunkStrategy.
func NewChunker(cfg config.RAGConfig) (Chunker, error) {
	size, overlap := cfg.ChunkSize, cfg.ChunkOverlap
	if size <= 0 {
		size, overlap = defaultChunkSize, defaultChunkOverlap
	}
	switch cfg.ChunkStrategy {
	case "", "sentence":
		return SentenceChunker{Limit: size}, nil
	case "window":
		return WindowChunker{MaxChars: size, OverlapChars: overlap}, nil
	case "token":
		return TokenChunker{ChunkSize: size, ChunkOverlap: overlap}, nil
	default:
		return nil, fmt.Errorf("unknown chunk strategy %q", cfg.ChunkStrategy)
	}
}

// SentenceChunker packs whole sentences into chunks of at most Limit
// characters. A single sentence longer than Limit becomes its own chunk.
type SentenceChunker struct {
	Limit int
}

func (c SentenceChunker) Split(text string) ([]string, error) {
	if c.Limit <= 0 {
		return nil, fmt.Errorf("sentence chunker limit must be positive, got %d", c.Limit)
	}

	var (
		chunks  []string
		current []string
		size    int
	)
	flush := func() {
		if chunk := strings.TrimSpace(strings.Join(current, " ")); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current, size = nil, 0
	}

	for _, sentence := range SplitSentences(text) {
		n := utf8.RuneCountInString(sentence)
		sep := 0
		if len(current) > 0 {
			sep = 1
		}
		if size+sep+n > c.Limit && len(current) > 0 {
			flush()
			sep = 0
		}
		current = append(current, sentence)
		size += sep + n
	}
	flush()
	return chunks, nil
}

// SplitSentences cuts text after '.', '!' or '?' when followed by spaces.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?", runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && runes[j] == ' ' {
			j++
		}
		if j == i+1 {
			continue
		}
		sentences = append(sentences, string(runes[start:i+1]))
		start = j
		i = j - 1
	}
	if start < len(runes) {
		if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

// WindowChunker cuts fixed windows of MaxChars runes that overlap by
// OverlapChars, preferring to end a window on a space, newline or period.
type WindowChunker struct {
	MaxChars     int
	OverlapChars int
}

func (c WindowChunker) Split(text string) ([]string, error) {
	return chunkContent(text, c.MaxChars, c.OverlapChars), nil
}

func chunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(strings.TrimSpace(content))
	contentLen := len(runes)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		// look for a clean break within the last 10% of the window
		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if unicode.IsSpace(runes[i]) || runes[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= contentLen {
			break
		}
		next := end - overlapChars
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// TokenChunker splits on tiktoken token counts. The encoding is fetched on
// first use.
type TokenChunker struct {
	ChunkSize    int
	ChunkOverlap int
}

func (c TokenChunker) Split(text string) ([]string, error) {
	splitter := textsplitter.NewTokenSplitter(
		textsplitter.WithChunkSize(c.ChunkSize),
		textsplitter.WithChunkOverlap(c.ChunkOverlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("token split failed: %w", err)
	}
	return chunks, nil
}

// ChunkDocument cleans every page and splits it into chunk records titled
// after the document.
func ChunkDocument(title string, pages []Page, chunker Chunker) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, page := range pages {
		cleaned := CleanPageText(page.Text)
		if cleaned == "" {
			continue
		}
		parts, err := chunker.Split(cleaned)
		if err != nil {
			return nil, fmt.Errorf("failed to chunk page %d of %s: %w", page.Number, title, err)
		}
		for idx, part := range parts {
			chunks = append(chunks, models.Chunk{
				ID:         models.ChunkID(page.Number, idx),
				Content:    part,
				Title:      title,
				PageNumber: page.Number,
				Index:      idx,
			})
		}
	}
	return chunks, nil
}
