package llmservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"instrit/internal/config"
	"instrit/internal/models"
)

var (
	ErrEmptyResponse = errors.New("empty response from model")

	thinkTag = regexp.MustCompile(models.ThinkTag)
)

// NewChatModel returns the chat model described by cfg. For the openai
// provider, sampling parameters the openai client does not send are added
// to each request body.
func NewChatModel(cfg config.LLMConfig, sampling config.SamplingConfig) (llms.Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
			openai.WithHTTPClient(&samplingDoer{
				next:     &http.Client{Timeout: 2 * time.Minute},
				sampling: sampling,
			}),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		return llm, nil
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		llm, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return llm, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// SamplingOptions maps the configured sampling parameters to call options.
func SamplingOptions(s config.SamplingConfig) []llms.CallOption {
	opts := []llms.CallOption{
		llms.WithTemperature(s.Temperature),
		llms.WithFrequencyPenalty(s.FrequencyPenalty),
		llms.WithPresencePenalty(s.PresencePenalty),
	}
	if s.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(s.MaxTokens))
	}
	if s.TopP > 0 {
		opts = append(opts, llms.WithTopP(s.TopP))
	}
	if s.TopK > 0 {
		opts = append(opts, llms.WithTopK(s.TopK))
	}
	if s.RepetitionPenalty > 0 {
		opts = append(opts, llms.WithRepetitionPenalty(s.RepetitionPenalty))
	}
	return opts
}

func ToMessages(turns []models.ChatTurn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, llms.TextParts(roleType(t.Role), t.Content))
	}
	return messages
}

func roleType(role string) llms.ChatMessageType {
	switch role {
	case models.RoleSystem:
		return llms.ChatMessageTypeSystem
	case models.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// Generate sends the conversation and returns the first choice with any
// <think> block removed.
func Generate(ctx context.Context, llm llms.Model, turns []models.ChatTurn, opts ...llms.CallOption) (string, error) {
	log.Debug().Int("messages", len(turns)).Msg("Generating content")
	resp, err := llm.GenerateContent(ctx, ToMessages(turns), opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return StripThink(resp.Choices[0].Content), nil
}

// Prompt sends a single user message.
func Prompt(ctx context.Context, llm llms.Model, prompt string, opts ...llms.CallOption) (string, error) {
	return Generate(ctx, llm, []models.ChatTurn{{Role: models.RoleUser, Content: prompt}}, opts...)
}

func StripThink(s string) string {
	return strings.TrimSpace(thinkTag.ReplaceAllString(s, ""))
}
