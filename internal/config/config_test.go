package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "meta-llama/llama-3.2-3b-instruct:free", cfg.LLM.Model)
	assert.Equal(t, 600, cfg.Sampling.MaxTokens)
	assert.InDelta(t, 0.3, cfg.Sampling.Temperature, 1e-9)
	assert.InDelta(t, 1.10, cfg.Sampling.RepetitionPenalty, 1e-9)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.VectorStore.VectorSize)
	assert.Equal(t, 5, cfg.Chat.WindowSize)
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "qdrant", cfg.VectorStore.Type)
}

func TestLoadConfig_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
rag:
  chunk_size: 800
  chunk_strategy: window
vector_store:
  type: chromem
  collection: manuals
chat:
  window_size: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, "window", cfg.RAG.ChunkStrategy)
	assert.Equal(t, "chromem", cfg.VectorStore.Type)
	assert.Equal(t, "manuals", cfg.VectorStore.Collection)
	assert.Equal(t, 3, cfg.Chat.WindowSize)
	// untouched fields keep defaults
	assert.Equal(t, 3, cfg.RAG.TopK)
	assert.Equal(t, 768, cfg.VectorStore.VectorSize)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rag: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"OPENROUTER_KEY":     "sk-test",
		"MODEL":              "other/model",
		"MAX_TOKENS":         "128",
		"TEMPERATURE":        "0.9",
		"TOP_K":              "40",
		"REPETITION_PENALTY": "1.2",
		"QDRANT_KEY":         "qk",
		"QDRANT_URL":         "https://qdrant.example:6333",
		"NOMIC_MODEL":        "nomic-embed-text:v1.5",
		"EMPTY_IS_IGNORED":   "",
	}))
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLM.Key)
	assert.Equal(t, "other/model", cfg.LLM.Model)
	assert.Equal(t, 128, cfg.Sampling.MaxTokens)
	assert.InDelta(t, 0.9, cfg.Sampling.Temperature, 1e-9)
	assert.Equal(t, 40, cfg.Sampling.TopK)
	assert.InDelta(t, 1.2, cfg.Sampling.RepetitionPenalty, 1e-9)
	assert.Equal(t, "qk", cfg.VectorStore.Qdrant.APIKey)
	assert.Equal(t, "https://qdrant.example:6333", cfg.VectorStore.Qdrant.URL)
	assert.Equal(t, "nomic-embed-text:v1.5", cfg.Embedding.Model)
}

func TestApplyEnv_OpenRouterURL(t *testing.T) {
	for _, url := range []string{
		"https://openrouter.ai/api/v1/chat/completions",
		"https://openrouter.ai/api/v1/chat/completions/",
		"https://openrouter.ai/api/v1",
	} {
		cfg := DefaultConfig()
		require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{"OPENROUTER_URL": url})))
		assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL, url)
	}
}

func TestApplyEnv_BadNumber(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"TEMPERATURE": "hot",
		"MAX_TOKENS":  "lots",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEMPERATURE")
	assert.Contains(t, err.Error(), "MAX_TOKENS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"store type", func(c *Config) { c.VectorStore.Type = "faiss" }},
		{"translator", func(c *Config) { c.Translator.Type = "deepl" }},
		{"chunk strategy", func(c *Config) { c.RAG.ChunkStrategy = "paragraph" }},
		{"embedding provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
		{"chunk size", func(c *Config) { c.RAG.ChunkSize = 0 }},
		{"overlap", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }},
		{"top k", func(c *Config) { c.RAG.TopK = 0 }},
		{"vector size", func(c *Config) { c.VectorStore.VectorSize = -1 }},
		{"window", func(c *Config) { c.Chat.WindowSize = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRequireLLMKey(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorIs(t, cfg.RequireLLMKey(), ErrMissingKey)

	cfg.LLM.Key = "k"
	assert.NoError(t, cfg.RequireLLMKey())
}
