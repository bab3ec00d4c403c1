package parser

import (
	"fmt"
	"os"
	"strings"

	"instrit/internal/helper"
	"instrit/internal/models"
)

func WriteChunks(path string, chunks []models.Chunk) error {
	if chunks == nil {
		chunks = []models.Chunk{}
	}
	return helper.WriteJSON(path, chunks)
}

// ReadChunks loads a chunk file and restores each chunk's index from its id.
func ReadChunks(path string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	if err := helper.ReadJSON(path, &chunks); err != nil {
		return nil, err
	}
	for i := range chunks {
		var page0, idx int
		if _, err := fmt.Sscanf(chunks[i].ID, "%d-%d", &page0, &idx); err == nil {
			chunks[i].Index = idx
		}
	}
	return chunks, nil
}

// WriteMarkdown renders chunks grouped by page for human review.
func WriteMarkdown(path, title string, chunks []models.Chunk) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", title)
	page := 0
	for _, c := range chunks {
		if c.PageNumber != page {
			page = c.PageNumber
			fmt.Fprintf(&b, "\n## Page %d\n", page)
		}
		fmt.Fprintf(&b, "\n<!-- chunk %s -->\n%s\n", c.ID, c.Content)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write markdown %s: %w", path, err)
	}
	return nil
}

func WriteSections(path string, sections []models.Section) error {
	if sections == nil {
		sections = []models.Section{}
	}
	return helper.WriteJSON(path, sections)
}

func ReadSections(path string) ([]models.Section, error) {
	var sections []models.Section
	if err := helper.ReadJSON(path, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}
