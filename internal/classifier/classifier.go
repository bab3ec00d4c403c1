// Package classifier decides whether a question needs document retrieval.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"instrit/internal/llmservice"
	"instrit/internal/models"
)

type Classifier struct {
	llm llms.Model
}

func New(llm llms.Model) *Classifier {
	return &Classifier{llm: llm}
}

// Classify asks the model for a single y/n token. It reports true when the
// question should be answered from the documents.
func (c *Classifier) Classify(ctx context.Context, query string) (bool, error) {
	prompt := fmt.Sprintf(models.ClassificationPromptTemplate, query)
	answer, err := llmservice.Prompt(ctx, c.llm, prompt,
		llms.WithMaxTokens(2),
		llms.WithTemperature(0),
	)
	if err != nil {
		return false, fmt.Errorf("failed to classify query: %w", err)
	}
	decision, ok := ParseDecision(answer)
	if !ok {
		log.Warn().Str("answer", answer).Msg("Unexpected classification answer, using chat mode")
	}
	log.Debug().Str("query", query).Bool("rag", decision).Msg("Classified query")
	return decision, nil
}

// ParseDecision reads the first letter of the answer. ok is false when it is
// neither y nor n; the decision is then false.
func ParseDecision(answer string) (decision bool, ok bool) {
	answer = strings.TrimLeftFunc(answer, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	if answer == "" {
		return false, false
	}
	switch unicode.ToLower([]rune(answer)[0]) {
	case 'y':
		return true, true
	case 'n':
		return false, true
	default:
		return false, false
	}
}
