package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"instrit/internal/helper"
	"instrit/internal/llmservice"
	"instrit/internal/models"
	"instrit/internal/parser"
	"instrit/internal/semantic"
)

var (
	structureOutput   string
	structureAttempts int
)

var structureCmd = &cobra.Command{
	Use:   "structure <file>...",
	Short: "Turn document pages into titled section JSON",
	Long: `Splits every page into sections with title, tags, summary and
surrounding context, written to <name>_sections.json. Markdown files are
split on their headings; other documents are structured by the chat model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStructure,
}

func init() {
	rootCmd.AddCommand(structureCmd)
	structureCmd.Flags().StringVarP(&structureOutput, "output", "o", "", "output folder (default from config)")
	structureCmd.Flags().IntVar(&structureAttempts, "attempts", 3, "model attempts per page before giving up")
}

func runStructure(cmd *cobra.Command, args []string) error {
	output := firstNonEmpty(structureOutput, cfg.RAG.OutputDir)
	if err := helper.CreateFolder(output); err != nil {
		return err
	}

	var structurer *semantic.Structurer
	for _, file := range args {
		pages, err := parser.ExtractPages(file)
		if err != nil {
			return err
		}
		name := filepath.Base(file)

		var sections []models.Section
		if strings.EqualFold(filepath.Ext(file), ".md") {
			for _, p := range pages {
				secs, err := parser.ToSections(name, p.Number, parser.ParseSections(p.Text), time.Now())
				if err != nil {
					return err
				}
				sections = append(sections, secs...)
			}
		} else {
			if structurer == nil {
				llm, err := newChatModel()
				if err != nil {
					return err
				}
				structurer = semantic.NewStructurer(llm, llmservice.SamplingOptions(cfg.Sampling)...)
				structurer.MaxAttempts = structureAttempts
			}
			for _, p := range pages {
				text := parser.CleanPageText(p.Text)
				if text == "" {
					continue
				}
				secs, err := structurer.StructurePage(cmd.Context(), name, p.Number, text)
				if err != nil {
					log.Error().Err(err).Str("file", name).Int("page", p.Number).Msg("Skipping page")
					continue
				}
				log.Info().Str("file", name).Int("page", p.Number).Int("sections", len(secs)).Msg("Structured page")
				sections = append(sections, secs...)
			}
		}

		out := filepath.Join(output, helper.BaseName(file)+"_sections.json")
		if err := parser.WriteSections(out, sections); err != nil {
			return err
		}
		log.Info().Str("output", out).Int("sections", len(sections)).Msg("Wrote sections")
	}
	return nil
}
