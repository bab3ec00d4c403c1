// Package translator translates user input and extracted pages to the
// working language.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"instrit/internal/config"
	"instrit/internal/llmservice"
	"instrit/internal/models"
	"instrit/internal/parser"
)

// maxRequestChars keeps each Google request under the endpoint limit.
const maxRequestChars = 4500

type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// New builds the translator selected by cfg.Type. llm is only used by the
// "llm" type and may be nil otherwise.
func New(cfg config.TranslatorConfig, llm llms.Model) (Translator, error) {
	switch cfg.Type {
	case "google":
		return NewGoogle(cfg.BaseURL, cfg.Source, cfg.Target), nil
	case "llm":
		if llm == nil {
			return nil, fmt.Errorf("llm translator needs a chat model")
		}
		return &LLM{llm: llm, language: LanguageName(cfg.Target)}, nil
	case "none", "":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown translator type %q", cfg.Type)
	}
}

type Noop struct{}

func (Noop) Translate(_ context.Context, text string) (string, error) { return text, nil }

// Google calls the public translate_a/single endpoint used by the Google
// Translate web client.
type Google struct {
	baseURL string
	source  string
	target  string
	client  *http.Client
}

func NewGoogle(baseURL, source, target string) *Google {
	if source == "" {
		source = "auto"
	}
	return &Google{
		baseURL: strings.TrimRight(baseURL, "/"),
		source:  source,
		target:  target,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Google) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	batches, err := batchLines(text, maxRequestChars)
	if err != nil {
		return "", err
	}
	out := make([]string, 0, len(batches))
	for _, b := range batches {
		translated, err := g.translateBatch(ctx, b)
		if err != nil {
			return "", err
		}
		out = append(out, translated)
	}
	return strings.Join(out, "\n"), nil
}

func (g *Google) translateBatch(ctx context.Context, text string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", g.source)
	q.Set("tl", g.target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/translate_a/single?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build translate request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call translate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("translate returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload []any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode translate response: %w", err)
	}
	return joinSegments(payload)
}

// joinSegments concatenates the translated segments, the first string of
// every entry in the response's first element.
func joinSegments(payload []any) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("empty translate response")
	}
	segments, ok := payload[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected translate response shape")
	}
	var sb strings.Builder
	for _, s := range segments {
		parts, ok := s.([]any)
		if !ok || len(parts) == 0 {
			continue
		}
		if str, ok := parts[0].(string); ok {
			sb.WriteString(str)
		}
	}
	return sb.String(), nil
}

// batchLines groups lines into batches of at most limit runes. A line
// longer than limit is split on sentence boundaries.
func batchLines(text string, limit int) ([]string, error) {
	var (
		batches []string
		current []string
		size    int
	)
	flush := func() {
		if len(current) > 0 {
			batches = append(batches, strings.Join(current, "\n"))
		}
		current, size = nil, 0
	}
	add := func(line string) {
		n := utf8.RuneCountInString(line)
		if len(current) > 0 && size+1+n > limit {
			flush()
		}
		if len(current) > 0 {
			size++
		}
		current = append(current, line)
		size += n
	}

	for _, line := range strings.Split(text, "\n") {
		if utf8.RuneCountInString(line) <= limit {
			add(line)
			continue
		}
		parts, err := parser.SentenceChunker{Limit: limit}.Split(line)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			add(p)
		}
	}
	flush()
	return batches, nil
}

// LLM translates with the chat model.
type LLM struct {
	llm      llms.Model
	language string
}

func (t *LLM) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	out, err := llmservice.Prompt(ctx, t.llm, fmt.Sprintf(models.TranslatePromptTemplate, t.language, text),
		llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("failed to translate: %w", err)
	}
	log.Debug().Int("chars", len(text)).Str("language", t.language).Msg("Translated text")
	return out, nil
}

var languageNames = map[string]string{
	"en":    "English",
	"pt":    "Portuguese",
	"pt-br": "Portuguese (Brazil)",
	"es":    "Spanish",
	"fr":    "French",
	"de":    "German",
	"it":    "Italian",
}

// LanguageName maps an ISO code to the name used in prompts. Unknown codes
// are returned as is.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
