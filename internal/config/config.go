package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrMissingKey = errors.New("missing api key")

type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   LLMConfig         `yaml:"embedding"`
	Sampling    SamplingConfig    `yaml:"sampling"`
	RAG         RAGConfig         `yaml:"rag"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Database    DatabaseConfig    `yaml:"database"`
	Translator  TranslatorConfig  `yaml:"translator"`
	Chat        ChatConfig        `yaml:"chat"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// LLMConfig describes one model endpoint. Provider is "ollama" or "openai";
// openai covers any OpenAI compatible API such as OpenRouter.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type SamplingConfig struct {
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	TopP              float64 `yaml:"top_p"`
	TopK              int     `yaml:"top_k"`
	FrequencyPenalty  float64 `yaml:"frequency_penalty"`
	PresencePenalty   float64 `yaml:"presence_penalty"`
	RepetitionPenalty float64 `yaml:"repetition_penalty"`
}

type RAGConfig struct {
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	ChunkStrategy string `yaml:"chunk_strategy"`
	TopK          int    `yaml:"top_k"`
	InputDir      string `yaml:"input_dir"`
	OutputDir     string `yaml:"output_dir"`
}

type VectorStoreConfig struct {
	Type       string        `yaml:"type"`
	Collection string        `yaml:"collection"`
	VectorSize int           `yaml:"vector_size"`
	Qdrant     QdrantConfig  `yaml:"qdrant"`
	Chromem    ChromemConfig `yaml:"chromem"`
}

type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

type ChromemConfig struct {
	Path          string `yaml:"path"`
	InMemory      bool   `yaml:"in_memory"`
	Compress      bool   `yaml:"compress"`
	EncryptionKey string `yaml:"encryption_key"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Driver   string `yaml:"driver"`
	Debug    bool   `yaml:"debug"`
}

type TranslatorConfig struct {
	Type    string `yaml:"type"`
	Source  string `yaml:"source"`
	Target  string `yaml:"target"`
	BaseURL string `yaml:"base_url"`
}

type ChatConfig struct {
	SystemPromptPath string   `yaml:"system_prompt_path"`
	WindowSize       int      `yaml:"window_size"`
	Language         string   `yaml:"language"`
	ExitWords        []string `yaml:"exit_words"`
	SessionLogPath   string   `yaml:"session_log_path"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	CorpusPath     string `yaml:"corpus_path"`
	EmbeddingsPath string `yaml:"embeddings_path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			BaseURL:  "https://openrouter.ai/api/v1",
			Model:    "meta-llama/llama-3.2-3b-instruct:free",
		},
		Embedding: LLMConfig{
			Provider: "ollama",
			BaseURL:  "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		Sampling: SamplingConfig{
			MaxTokens:         600,
			Temperature:       0.3,
			TopP:              1,
			TopK:              0,
			FrequencyPenalty:  0.5,
			PresencePenalty:   0.5,
			RepetitionPenalty: 1.10,
		},
		RAG: RAGConfig{
			ChunkSize:     500,
			ChunkOverlap:  50,
			ChunkStrategy: "sentence",
			TopK:          3,
			InputDir:      "input_files",
			OutputDir:     "output_files",
		},
		VectorStore: VectorStoreConfig{
			Type:       "qdrant",
			Collection: "chatbot",
			VectorSize: 768,
			Qdrant: QdrantConfig{
				URL:         "http://localhost:6333",
				TimeoutSecs: 15,
			},
			Chromem: ChromemConfig{
				Path: "./chromemdb",
			},
		},
		Database: DatabaseConfig{
			Driver: "pgdriver",
		},
		Translator: TranslatorConfig{
			Type:    "google",
			Source:  "auto",
			Target:  "en",
			BaseURL: "https://translate.googleapis.com",
		},
		Chat: ChatConfig{
			SystemPromptPath: "system_prompt.json",
			WindowSize:       5,
			Language:         "Portuguese (Brazil)",
			ExitWords:        []string{"sair", "fechar", "close", "exit", "quit"},
			SessionLogPath:   "log/interaction_log.txt",
		},
		Server: ServerConfig{
			Addr:           ":8000",
			CorpusPath:     "output_files/chunks.json",
			EmbeddingsPath: "chunks_data.json",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig overlays the YAML file at path on DefaultConfig and applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment variables the pipeline
// scripts read from .env.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *float64) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
			return
		}
		*dst = f
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
			return
		}
		*dst = n
	}

	str("OPENROUTER_KEY", &c.LLM.Key)
	str("OPENROUTER_URL", &c.LLM.BaseURL)
	// the scripts' .env holds the full completions endpoint
	c.LLM.BaseURL = strings.TrimSuffix(strings.TrimSuffix(c.LLM.BaseURL, "/"), "/chat/completions")
	str("MODEL", &c.LLM.Model)
	integer("MAX_TOKENS", &c.Sampling.MaxTokens)
	num("TEMPERATURE", &c.Sampling.Temperature)
	num("TOP_P", &c.Sampling.TopP)
	integer("TOP_K", &c.Sampling.TopK)
	num("FREQUENCY_PENALTY", &c.Sampling.FrequencyPenalty)
	num("PRESENCE_PENALTY", &c.Sampling.PresencePenalty)
	num("REPETITION_PENALTY", &c.Sampling.RepetitionPenalty)
	str("QDRANT_URL", &c.VectorStore.Qdrant.URL)
	str("QDRANT_KEY", &c.VectorStore.Qdrant.APIKey)
	str("NOMIC_MODEL", &c.Embedding.Model)
	str("OLLAMA_HOST", &c.Embedding.BaseURL)
	str("SUPABASE_DSN", &c.Database.DSN)
	str("SUPABASE_PASSWORD", &c.Database.Password)

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	switch c.VectorStore.Type {
	case "qdrant", "chromem", "pgvector":
	default:
		return fmt.Errorf("unknown vector store type %q", c.VectorStore.Type)
	}
	switch c.Translator.Type {
	case "google", "llm", "none":
	default:
		return fmt.Errorf("unknown translator type %q", c.Translator.Type)
	}
	switch c.RAG.ChunkStrategy {
	case "sentence", "window", "token":
	default:
		return fmt.Errorf("unknown chunk strategy %q", c.RAG.ChunkStrategy)
	}
	switch strings.ToLower(c.Embedding.Provider) {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size), got %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.VectorStore.VectorSize <= 0 {
		return fmt.Errorf("vector_store.vector_size must be positive, got %d", c.VectorStore.VectorSize)
	}
	if c.Chat.WindowSize <= 0 {
		return fmt.Errorf("chat.window_size must be positive, got %d", c.Chat.WindowSize)
	}
	return nil
}

// RequireLLMKey is checked by commands that talk to the chat API.
func (c *Config) RequireLLMKey() error {
	if c.LLM.Key == "" {
		return fmt.Errorf("%w: set OPENROUTER_KEY or llm.key", ErrMissingKey)
	}
	return nil
}
