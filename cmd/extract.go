package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"instrit/internal/helper"
	"instrit/internal/parser"
)

var (
	extractInput    string
	extractOutput   string
	extractMarkdown bool
	extractKeep     bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract, clean and chunk documents into chunk JSON files",
	Long: `Reads every supported document in the input folder (or the given files),
removes page markers and stray characters, splits each page into chunks and
writes <name>.json to the output folder. The output folder is cleared first
unless --keep is set.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractInput, "input", "i", "", "input folder (default from config)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output folder (default from config)")
	extractCmd.Flags().BoolVar(&extractMarkdown, "markdown", false, "also write <name>.md")
	extractCmd.Flags().BoolVar(&extractKeep, "keep", false, "do not clear the output folder")
}

func runExtract(cmd *cobra.Command, args []string) error {
	input := firstNonEmpty(extractInput, cfg.RAG.InputDir)
	output := firstNonEmpty(extractOutput, cfg.RAG.OutputDir)

	files := args
	if len(files) == 0 {
		var err error
		files, err = listDocuments(input)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		log.Info().Str("folder", input).Msg("No documents found")
		return nil
	}

	if err := helper.CreateFolder(output); err != nil {
		return err
	}
	if !extractKeep {
		if err := helper.ClearFolder(output); err != nil {
			return err
		}
	}

	chunker, err := parser.NewChunker(cfg.RAG)
	if err != nil {
		return err
	}

	var failed int
	for _, file := range files {
		if err := extractFile(file, output, chunker); err != nil {
			log.Error().Err(err).Str("file", file).Msg("Failed to extract document")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(files))
	}
	return nil
}

func extractFile(file, output string, chunker parser.Chunker) error {
	pages, err := parser.ExtractPages(file)
	if err != nil {
		return err
	}

	title := helper.BaseName(file)
	chunks, err := parser.ChunkDocument(title, pages, chunker)
	if err != nil {
		return err
	}

	out := filepath.Join(output, title+".json")
	if err := parser.WriteChunks(out, chunks); err != nil {
		return err
	}
	if extractMarkdown {
		if err := parser.WriteMarkdown(filepath.Join(output, title+".md"), title, chunks); err != nil {
			return err
		}
	}
	log.Info().Str("file", file).Int("pages", len(pages)).Int("chunks", len(chunks)).Str("output", out).Msg("Extracted document")
	return nil
}

// listDocuments returns the supported files directly inside dir.
func listDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !parser.SupportedExt(filepath.Ext(e.Name())) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
