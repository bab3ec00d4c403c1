package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tmc/langchaingo/llms"

	"instrit/internal/parser"
)

var (
	translateFile   string
	translateOutput string
	translateTarget string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text or a document to the working language",
	Long: `Translates the argument text, or every page of --file, with the configured
translator. Pages are separated by blank lines in the output.`,
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().StringVarP(&translateFile, "file", "f", "", "document to translate")
	translateCmd.Flags().StringVarP(&translateOutput, "output", "o", "", "write the translation to this file")
	translateCmd.Flags().StringVar(&translateTarget, "target", "", "target language code (default from config)")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	if translateFile == "" && len(args) == 0 {
		return fmt.Errorf("give text to translate or --file")
	}
	if translateTarget != "" {
		cfg.Translator.Target = translateTarget
	}

	var texts []string
	if translateFile != "" {
		pages, err := parser.ExtractPages(translateFile)
		if err != nil {
			return err
		}
		for _, p := range pages {
			texts = append(texts, p.Text)
		}
	} else {
		texts = []string{strings.Join(args, " ")}
	}

	var llm llms.Model
	if cfg.Translator.Type == "llm" {
		var err error
		if llm, err = newChatModel(); err != nil {
			return err
		}
	}
	tr, err := newTranslator(llm)
	if err != nil {
		return err
	}

	out := make([]string, 0, len(texts))
	for i, t := range texts {
		translated, err := tr.Translate(cmd.Context(), t)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		out = append(out, translated)
	}
	result := strings.Join(out, "\n\n")

	if translateOutput == "" {
		fmt.Println(result)
		return nil
	}
	if err := os.WriteFile(translateOutput, []byte(result+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", translateOutput, err)
	}
	log.Info().Str("output", translateOutput).Int("pages", len(out)).Msg("Wrote translation")
	return nil
}
