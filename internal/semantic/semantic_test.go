package semantic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"
)

const sectionJSON = `[
  {"metadata": {"id": "", "source": {"file_name": "", "page_number": ""}, "title": "Lubrication", "tags": ["oil", "lathe"], "created_at": ""},
   "content": {"text": "Use ISO VG 68 oil.", "summary": "Oil grade."},
   "context": {"preceding_text": "", "following_text": "Cleaning"}},
  {"metadata": {"title": "Cleaning"}, "content": {"text": "Clean the bed daily."}, "context": {}}
]`

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `[1,2]`, ExtractJSON("<think>[no]</think>Here you go: ```json\n[1,2]\n``` done"))
	assert.Equal(t, `{"a":1}`, ExtractJSON(`Result: {"a":1}.`))
	assert.Equal(t, `[{"a":[1]}]`, ExtractJSON(`[{"a":[1]}]`))
	assert.Equal(t, "", ExtractJSON("no json here"))
}

func TestParseSections(t *testing.T) {
	sections, err := ParseSections(sectionJSON)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Lubrication", sections[0].Metadata.Title)
	assert.Equal(t, []string{"oil", "lathe"}, sections[0].Metadata.Tags)
	assert.Equal(t, "Cleaning", sections[0].Context.FollowingText)

	one, err := ParseSections(`{"metadata":{"title":"T"},"content":{"text":"body"}}`)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	_, err = ParseSections(`[{"metadata":{"title":"T"},"content":{"text":" "}}]`)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = ParseSections(`[{"metadata": }]`)
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestStructurePage(t *testing.T) {
	llm := fake.NewFakeLLM([]string{"sorry, not json", sectionJSON, "Daily cleaning of the bed."})
	s := NewStructurer(llm)
	s.now = func() time.Time { return time.Date(2024, 11, 5, 10, 0, 0, 0, time.UTC) }

	sections, err := s.StructurePage(context.Background(), "manual.pdf", 4, "page text")
	require.NoError(t, err)
	require.Len(t, sections, 2)

	for _, sec := range sections {
		assert.NotEmpty(t, sec.Metadata.ID)
		assert.Equal(t, "manual.pdf", sec.Metadata.Source.FileName)
		assert.Equal(t, "4", sec.Metadata.Source.PageNumber)
		assert.Equal(t, "2024-11-05T10:00:00Z", sec.Metadata.CreatedAt)
	}
	assert.NotEqual(t, sections[0].Metadata.ID, sections[1].Metadata.ID)
	assert.Equal(t, "Oil grade.", sections[0].Content.Summary)
	assert.Equal(t, "Daily cleaning of the bed.", sections[1].Content.Summary)
}

func TestStructurePageGivesUp(t *testing.T) {
	s := NewStructurer(fake.NewFakeLLM([]string{"nope"}))
	s.MaxAttempts = 2

	_, err := s.StructurePage(context.Background(), "manual.pdf", 1, "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidJSON))
	assert.Contains(t, err.Error(), "after 2 attempts")
}

func TestStructurePageModelError(t *testing.T) {
	_, err := NewStructurer(fake.NewFakeLLM(nil)).StructurePage(context.Background(), "m", 1, "t")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidJSON))
}

func TestSituate(t *testing.T) {
	s := NewStructurer(fake.NewFakeLLM([]string{"<think>x</think>This chunk covers oil grades."}))
	out, err := s.Situate(context.Background(), "whole doc", "chunk")
	require.NoError(t, err)
	assert.Equal(t, "This chunk covers oil grades.", out)
}
