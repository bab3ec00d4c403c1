package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"instrit/internal/classifier"
	"instrit/internal/helper"
	"instrit/internal/llmservice"
	"instrit/internal/rag"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive assistant",
	Long: `Starts the assistant. Each question is translated, classified and answered
either from the documents or from general knowledge. Type /json to print the
conversation, or sair/fechar/close/exit/quit to leave.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	llm, err := newChatModel()
	if err != nil {
		return err
	}
	systemPrompt, err := rag.LoadSystemPrompt(cfg.Chat.SystemPromptPath)
	if err != nil {
		return err
	}
	tr, err := newTranslator(llm)
	if err != nil {
		return err
	}
	retriever, store, err := newRetriever()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	session, err := helper.NewSessionLog(cfg.Chat.SessionLogPath)
	if err != nil {
		return err
	}

	bot := rag.NewChatbot(rag.ChatbotDeps{
		LLM:          llm,
		Classifier:   classifier.New(llm),
		Retriever:    retriever,
		Translator:   tr,
		SystemPrompt: systemPrompt,
		Session:      session,
		Chat:         cfg.Chat,
		TopK:         cfg.RAG.TopK,
		CallOptions:  llmservice.SamplingOptions(cfg.Sampling),
	})

	log.Info().Str("model", cfg.LLM.Model).Str("store", cfg.VectorStore.Type).Msg("Chatbot initialized and ready")
	return bot.Run(cmd.Context(), os.Stdin, os.Stdout)
}
