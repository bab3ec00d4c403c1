package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"instrit/internal/helper"
	"instrit/internal/models"
)

// MarkdownSection is a title and the body text that follows it.
type MarkdownSection struct {
	Title string
	Text  string
}

type sectionParserState struct {
	title  string
	body   []string
	result []MarkdownSection
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ParseSections splits markdown into sections. A heading or a paragraph
// made only of bold text opens a new section; everything else is body.
// Text before the first title forms an untitled section.
func ParseSections(source string) []MarkdownSection {
	src := []byte(source)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var state sectionParserState
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if title, ok := sectionTitle(node, src); ok {
			handleTitleChange(&state)
			state.title = title
			continue
		}
		if body := strings.TrimSpace(blockText(node, src)); body != "" {
			state.body = append(state.body, body)
		}
	}
	handleTitleChange(&state)
	return state.result
}

// handleTitleChange stores the pending section if it has a body.
func handleTitleChange(state *sectionParserState) {
	if len(state.body) > 0 {
		state.result = append(state.result, MarkdownSection{
			Title: state.title,
			Text:  strings.Join(state.body, "\n"),
		})
	}
	state.title = ""
	state.body = nil
}

func sectionTitle(node ast.Node, src []byte) (string, bool) {
	switch n := node.(type) {
	case *ast.Heading:
		return strings.TrimSpace(blockText(n, src)), true
	case *ast.Paragraph:
		if n.ChildCount() != 1 {
			return "", false
		}
		if em, ok := n.FirstChild().(*ast.Emphasis); ok && em.Level == 2 {
			return strings.TrimSpace(blockText(em, src)), true
		}
	}
	return "", false
}

func blockText(node ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Kind() == ast.KindParagraph || n.Kind() == ast.KindListItem {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString(" ")
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(whitespaceCollapse(b.String()))
}

// whitespaceCollapse squashes spaces per line but keeps line breaks.
func whitespaceCollapse(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// ToSections turns markdown sections of one page into section records,
// linking each to its neighbours. Tags and summaries are left for the LLM
// structurer.
func ToSections(fileName string, pageNumber int, parts []MarkdownSection, now time.Time) ([]models.Section, error) {
	sections := make([]models.Section, 0, len(parts))
	for i, part := range parts {
		id, err := helper.GenerateUUID()
		if err != nil {
			return nil, err
		}
		s := models.Section{
			Metadata: models.SectionMetadata{
				ID: id,
				Source: models.SectionSource{
					FileName:   fileName,
					PageNumber: strconv.Itoa(pageNumber),
				},
				Title:     part.Title,
				Tags:      []string{},
				CreatedAt: now.UTC().Format(time.RFC3339),
			},
			Content: models.SectionContent{Text: part.Text},
		}
		if i > 0 {
			s.Context.PrecedingText = parts[i-1].Text
		}
		if i < len(parts)-1 {
			s.Context.FollowingText = parts[i+1].Text
		}
		sections = append(sections, s)
	}
	return sections, nil
}
