// Package semantic uses the chat model to turn raw pages into titled
// sections and to write the short texts stored next to them.
package semantic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"instrit/internal/helper"
	"instrit/internal/llmservice"
	"instrit/internal/models"
)

var (
	ErrInvalidJSON = errors.New("model did not return valid section JSON")

	codeFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
)

const defaultMaxAttempts = 3

type Structurer struct {
	llm         llms.Model
	opts        []llms.CallOption
	MaxAttempts int
	now         func() time.Time
}

func NewStructurer(llm llms.Model, opts ...llms.CallOption) *Structurer {
	return &Structurer{llm: llm, opts: opts, MaxAttempts: defaultMaxAttempts, now: time.Now}
}

// StructurePage splits one page into sections. Invalid model output is
// retried up to MaxAttempts times before ErrInvalidJSON is returned.
func (s *Structurer) StructurePage(ctx context.Context, fileName string, pageNumber int, text string) ([]models.Section, error) {
	turns := []models.ChatTurn{
		{Role: models.RoleSystem, Content: models.StructurePrompt},
		{Role: models.RoleUser, Content: text},
	}
	attempts := max(s.MaxAttempts, 1)

	var sections []models.Section
	for attempt := 1; ; attempt++ {
		answer, err := llmservice.Generate(ctx, s.llm, turns, s.opts...)
		if err != nil {
			return nil, err
		}
		sections, err = ParseSections(answer)
		if err == nil {
			break
		}
		log.Warn().Err(err).Str("file", fileName).Int("page", pageNumber).Int("attempt", attempt).Msg("Retrying page structuring")
		if attempt >= attempts {
			return nil, fmt.Errorf("%s page %d after %d attempts: %w", fileName, pageNumber, attempts, ErrInvalidJSON)
		}
	}

	createdAt := s.now().UTC().Format(time.RFC3339)
	for i := range sections {
		sec := &sections[i]
		id, err := helper.GenerateUUID()
		if err != nil {
			return nil, err
		}
		sec.Metadata.ID = id
		sec.Metadata.Source.FileName = fileName
		sec.Metadata.Source.PageNumber = strconv.Itoa(pageNumber)
		sec.Metadata.CreatedAt = createdAt
		if sec.Content.Summary == "" && sec.Content.Text != "" {
			summary, err := s.Summarize(ctx, sec.Content.Text)
			if err != nil {
				log.Warn().Err(err).Str("title", sec.Metadata.Title).Msg("Failed to summarize section")
				continue
			}
			sec.Content.Summary = summary
		}
	}
	return sections, nil
}

func (s *Structurer) Summarize(ctx context.Context, text string) (string, error) {
	return llmservice.Prompt(ctx, s.llm, fmt.Sprintf(models.SummaryPromptTemplate, text), s.opts...)
}

// Situate returns a short context placing chunk within document, used to
// prefix chunks before embedding.
func (s *Structurer) Situate(ctx context.Context, document, chunk string) (string, error) {
	return llmservice.Prompt(ctx, s.llm, fmt.Sprintf(models.ContextPromptTemplate, document, chunk), s.opts...)
}

// ParseSections decodes the model answer. A single object is accepted as a
// one element array. Sections without text are dropped.
func ParseSections(answer string) ([]models.Section, error) {
	raw := ExtractJSON(answer)
	if raw == "" {
		return nil, ErrInvalidJSON
	}

	var sections []models.Section
	if strings.HasPrefix(raw, "{") {
		var one models.Section
		if err := json.Unmarshal([]byte(raw), &one); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		sections = []models.Section{one}
	} else if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	out := sections[:0]
	for _, sec := range sections {
		if strings.TrimSpace(sec.Content.Text) != "" {
			out = append(out, sec)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no sections with text", ErrInvalidJSON)
	}
	return out, nil
}

// ExtractJSON strips think blocks and code fences and returns the outermost
// JSON array or object in s, or "" when there is none.
func ExtractJSON(s string) string {
	s = llmservice.StripThink(s)
	if m := codeFence.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return ""
	}
	return s[start : end+1]
}
