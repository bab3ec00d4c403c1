package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"instrit/internal/llmservice"
	"instrit/internal/rag"
)

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Answer one question from the documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	llm, err := newChatModel()
	if err != nil {
		return err
	}
	retriever, store, err := newRetriever()
	if err != nil {
		return err
	}
	defer store.Close()

	tr, err := newTranslator(llm)
	if err != nil {
		return err
	}
	query, err := tr.Translate(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}

	r := rag.NewRAG(retriever, llm, cfg.RAG.TopK, cfg.Chat.Language, llmservice.SamplingOptions(cfg.Sampling)...)
	response, err := r.Query(ctx, query)
	if err != nil {
		return err
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
	return nil
}
