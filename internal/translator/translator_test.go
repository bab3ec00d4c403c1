package translator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"

	"instrit/internal/config"
)

func TestGoogleTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "auto", q.Get("sl"))
		assert.Equal(t, "en", q.Get("tl"))
		assert.Equal(t, "Qual óleo usar? Obrigado.", q.Get("q"))
		_, _ = w.Write([]byte(`[[["Which oil to use? ","Qual óleo usar? ",null,null,10],["Thank you.","Obrigado.",null,null,10]],null,"pt"]`))
	}))
	defer srv.Close()

	g := NewGoogle(srv.URL+"/", "", "en")
	out, err := g.Translate(context.Background(), "Qual óleo usar? Obrigado.")
	require.NoError(t, err)
	assert.Equal(t, "Which oil to use? Thank you.", out)
}

func TestGoogleTranslateError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGoogle(srv.URL, "auto", "en").Translate(context.Background(), "olá")
	assert.ErrorContains(t, err, "429")
}

func TestGoogleTranslateBlank(t *testing.T) {
	out, err := NewGoogle("http://127.0.0.1:1", "auto", "en").Translate(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, "  ", out)
}

func TestJoinSegmentsBadShape(t *testing.T) {
	_, err := joinSegments(nil)
	assert.Error(t, err)
	_, err = joinSegments([]any{"x"})
	assert.Error(t, err)
}

func TestBatchLines(t *testing.T) {
	batches, err := batchLines("aaaa\nbbbb\ncc", 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa\nbbbb", "cc"}, batches)

	long := strings.Repeat("word ", 3) + "end. " + strings.Repeat("x", 6) + "."
	batches, err = batchLines(long, 20)
	require.NoError(t, err)
	for _, b := range batches {
		assert.LessOrEqual(t, len([]rune(b)), 20)
	}
	assert.Equal(t, []string{"word word word end.", "xxxxxx."}, batches)
}

func TestLLMTranslate(t *testing.T) {
	tr, err := New(config.TranslatorConfig{Type: "llm", Target: "en"}, fake.NewFakeLLM([]string{"Good morning"}))
	require.NoError(t, err)
	out, err := tr.Translate(context.Background(), "Bom dia")
	require.NoError(t, err)
	assert.Equal(t, "Good morning", out)
}

func TestNew(t *testing.T) {
	tr, err := New(config.TranslatorConfig{Type: "none"}, nil)
	require.NoError(t, err)
	out, _ := tr.Translate(context.Background(), "olá")
	assert.Equal(t, "olá", out)

	_, err = New(config.TranslatorConfig{Type: "llm"}, nil)
	assert.Error(t, err)

	_, err = New(config.TranslatorConfig{Type: "deepl"}, nil)
	assert.Error(t, err)

	tr, err = New(config.DefaultConfig().Translator, nil)
	require.NoError(t, err)
	assert.IsType(t, &Google{}, tr)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", LanguageName("EN"))
	assert.Equal(t, "Portuguese (Brazil)", LanguageName("pt-BR"))
	assert.Equal(t, "nl", LanguageName("nl"))
}
