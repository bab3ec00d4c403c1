package rag

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"

	"instrit/internal/classifier"
	"instrit/internal/config"
	"instrit/internal/helper"
	"instrit/internal/llmservice"
	"instrit/internal/models"
	"instrit/internal/translator"
)

// LoadSystemPrompt reads a {"role", "content"} message from path.
func LoadSystemPrompt(path string) (models.ChatTurn, error) {
	var turn models.ChatTurn
	data, err := os.ReadFile(path)
	if err != nil {
		return turn, fmt.Errorf("failed to read system prompt: %w", err)
	}
	if err := json.Unmarshal(data, &turn); err != nil {
		return turn, fmt.Errorf("failed to parse system prompt %s: %w", path, err)
	}
	if strings.TrimSpace(turn.Content) == "" {
		return turn, fmt.Errorf("system prompt %s has no content", path)
	}
	if turn.Role == "" {
		turn.Role = models.RoleSystem
	}
	return turn, nil
}

type ChatbotDeps struct {
	LLM          llms.Model
	Classifier   *classifier.Classifier
	Retriever    *Retriever
	Translator   translator.Translator
	SystemPrompt models.ChatTurn
	Session      *helper.SessionLog
	Chat         config.ChatConfig
	TopK         int
	CallOptions  []llms.CallOption
}

// Chatbot answers a conversation, deciding per question whether to look
// the answer up in the documents.
type Chatbot struct {
	ChatbotDeps
	memory  *memory.ConversationWindowBuffer
	history []models.ChatTurn
}

func NewChatbot(deps ChatbotDeps) *Chatbot {
	if deps.Translator == nil {
		deps.Translator = translator.Noop{}
	}
	if deps.Chat.WindowSize <= 0 {
		deps.Chat.WindowSize = 5
	}
	return &Chatbot{
		ChatbotDeps: deps,
		memory: memory.NewConversationWindowBuffer(deps.Chat.WindowSize,
			memory.WithHumanPrefix("Human"),
			memory.WithAIPrefix("Assistant"),
		),
	}
}

// Ask answers one user input and records the turn.
func (c *Chatbot) Ask(ctx context.Context, input string) (*models.PromptResponse, error) {
	start := time.Now()

	query, err := c.Translator.Translate(ctx, input)
	if err != nil {
		log.Warn().Err(err).Msg("Translation failed, using original input")
		query = input
	}

	useRAG := c.needsRetrieval(ctx, query)

	chatHistory, err := c.formattedHistory(ctx)
	if err != nil {
		return nil, err
	}

	var prompt, source string
	if useRAG {
		log.Info().Msg("Searching knowledge base for relevant information")
		results, err := c.Retriever.Retrieve(ctx, query, c.TopK)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn().Err(err).Msg("Knowledge base search failed, answering without context")
			results = nil
		}
		if len(results) == 0 {
			log.Info().Msg("No relevant information found in knowledge base")
		} else {
			log.Info().Int("documents", len(results)).Msg("Found relevant information in knowledge base")
		}
		source = JoinContents(results)
		prompt = fmt.Sprintf(models.RAGPromptTemplate, chatHistory, source, query, c.Chat.Language)
	} else {
		log.Info().Msg("Using conversation mode without database search")
		prompt = fmt.Sprintf(models.ChatPromptTemplate, chatHistory, query, c.Chat.Language)
	}

	userTurn := models.ChatTurn{Role: models.RoleUser, Content: prompt}
	answer, err := llmservice.Generate(ctx, c.LLM, c.messages(userTurn), c.CallOptions...)
	if err != nil {
		return nil, err
	}

	if err := c.memory.SaveContext(ctx, map[string]any{"input": query}, map[string]any{"output": answer}); err != nil {
		return nil, fmt.Errorf("failed to save memory: %w", err)
	}
	c.history = append(c.history, userTurn, models.ChatTurn{Role: models.RoleAssistant, Content: answer})

	if c.Session != nil {
		if err := c.Session.Record(input, answer, time.Since(start)); err != nil {
			log.Warn().Err(err).Msg("Failed to write session log")
		}
	}

	return &models.PromptResponse{
		Query:         query,
		Source:        source,
		Content:       answer,
		UsedRetrieval: useRAG,
	}, nil
}

func (c *Chatbot) needsRetrieval(ctx context.Context, query string) bool {
	if c.Retriever == nil || c.Classifier == nil {
		return false
	}
	useRAG, err := c.Classifier.Classify(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("Classification failed, using conversation mode")
		return false
	}
	return useRAG
}

func (c *Chatbot) formattedHistory(ctx context.Context) (string, error) {
	vars, err := c.memory.LoadMemoryVariables(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to load memory: %w", err)
	}
	s, _ := vars[c.memory.MemoryKey].(string)
	return s, nil
}

// messages is the system prompt, the last window of turns and next.
func (c *Chatbot) messages(next models.ChatTurn) []models.ChatTurn {
	recent := c.history
	if limit := 2 * c.Chat.WindowSize; len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	out := make([]models.ChatTurn, 0, len(recent)+2)
	out = append(out, c.SystemPrompt)
	out = append(out, recent...)
	return append(out, next)
}

// History returns the system prompt followed by every turn so far.
func (c *Chatbot) History() []models.ChatTurn {
	out := make([]models.ChatTurn, 0, len(c.history)+1)
	out = append(out, c.SystemPrompt)
	return append(out, c.history...)
}

func (c *Chatbot) IsExit(input string) bool {
	input = strings.ToLower(strings.TrimSpace(input))
	for _, w := range c.Chat.ExitWords {
		if input == strings.ToLower(w) {
			return true
		}
	}
	return false
}

// Run reads questions from in until an exit word or EOF. "/json" prints
// the conversation so far.
func (c *Chatbot) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, "Você: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case c.IsExit(input):
			fmt.Fprintln(out, "Conversa encerrada.")
			return nil
		case strings.EqualFold(input, "/json"):
			data, err := json.MarshalIndent(c.History(), "", "    ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			continue
		}

		resp, err := c.Ask(ctx, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Error().Err(err).Msg("Failed to answer")
			fmt.Fprintf(out, "Assistente: [erro] %v\n", err)
			continue
		}
		fmt.Fprintln(out, "Assistente:", resp.Content)
	}
}
