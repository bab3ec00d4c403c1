package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"instrit/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the similarity API",
	Long: `Loads the chunk corpus, embeds it (reusing the embeddings cache when the
corpus is unchanged) and serves:

  POST /similarities  {"queries": [...], "passages": [...]} -> {"scores": [[...]]}
  POST /query         {"question": "..."} -> top matches from the corpus
  GET  /health`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := newEmbedder()
	if err != nil {
		return err
	}
	corpus, err := server.LoadCorpus(ctx, embedder, cfg.Server.CorpusPath, cfg.Server.EmbeddingsPath)
	if err != nil {
		return err
	}
	s := server.New(firstNonEmpty(serveAddr, cfg.Server.Addr), embedder, corpus, cfg.RAG.TopK)
	return s.Run(ctx)
}
