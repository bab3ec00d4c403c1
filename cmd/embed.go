package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/embeddings"

	"instrit/internal/translator"
)

var embedLimit int

var embedCmd = &cobra.Command{
	Use:   "embed [text]",
	Short: "Embed a question and print the vector search request",
	Long: `Translates the question, embeds it and prints the vector followed by the
JSON body of a vector search with that vector. Without an argument, questions
are read from stdin until "sair".`,
	RunE: runEmbed,
}

func init() {
	rootCmd.AddCommand(embedCmd)
	embedCmd.Flags().IntVarP(&embedLimit, "limit", "k", 0, "search limit in the printed request (default from config)")
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

func runEmbed(cmd *cobra.Command, args []string) error {
	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	tr, err := newTranslator(nil)
	if err != nil {
		log.Warn().Err(err).Msg("Translator unavailable, embedding questions as typed")
		tr = translator.Noop{}
	}
	limit := embedLimit
	if limit <= 0 {
		limit = cfg.RAG.TopK
	}

	if len(args) > 0 {
		return embedQuestion(cmd.Context(), os.Stdout, embedder, tr, strings.Join(args, " "), limit)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Digite uma pergunta para gerar o embedding (ou 'sair' para encerrar): ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(q, "sair") {
			fmt.Println("Saindo...")
			return nil
		}
		if q == "" {
			continue
		}
		if err := embedQuestion(cmd.Context(), os.Stdout, embedder, tr, q, limit); err != nil {
			fmt.Fprintf(os.Stderr, "Erro ao gerar embedding: %v\n", err)
		}
	}
}

func embedQuestion(ctx context.Context, w io.Writer, embedder embeddings.Embedder, tr translator.Translator, question string, limit int) error {
	translated, err := tr.Translate(ctx, question)
	if err != nil {
		return err
	}
	vec, err := embedder.EmbedQuery(ctx, translated)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(searchRequest{Vector: vec, Limit: limit, WithPayload: true}, "", "    ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Embedding gerado com sucesso!")
	fmt.Fprintln(w, string(raw))
	fmt.Fprintln(w, "Código JSON para busca:")
	fmt.Fprintln(w, string(body))
	return nil
}
