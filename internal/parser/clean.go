package parser

import (
	"regexp"
	"strings"

	"instrit/internal/models"
)

var (
	pageMarkerRe  = regexp.MustCompile(models.PageMarkerRegex)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	specialCharRe = regexp.MustCompile(models.SpecialCharRegex)
)

// CleanPageText prepares raw page text for chunking. Page markers and any
// character that is not a letter, digit, underscore, whitespace or basic
// punctuation are dropped, then whitespace runs collapse to one space.
func CleanPageText(text string) string {
	text = pageMarkerRe.ReplaceAllString(text, "")
	text = specialCharRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
