package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"instrit/internal/config"
	"instrit/internal/helper"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "instrit",
	Short: "Instrit - document assistant for industrial machinery manuals",
	Long: `Instrit turns machinery manuals into a searchable knowledge base and
answers questions about them.

Example usage:
  instrit extract --input input_files            # PDF pages -> chunk JSON
  instrit upload output_files/*.json             # embed and store chunks
  instrit query "Which oil does the lathe use?"  # one-shot answer
  instrit chat                                   # interactive assistant`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		helper.SetupLogger(cfg.Log.Level, cfg.Log.JSON)
		log.Debug().Str("config", cfgFile).Str("store", cfg.VectorStore.Type).Msg("Loaded config")
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./configs/config.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file with API keys")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
