package models

// Section is one titled block of a document page, as produced by the
// structure command and uploaded as a vector payload.
type Section struct {
	Metadata SectionMetadata `json:"metadata"`
	Content  SectionContent  `json:"content"`
	Context  SectionContext  `json:"context"`
}

type SectionMetadata struct {
	ID        string        `json:"id"`
	Source    SectionSource `json:"source"`
	Title     string        `json:"title"`
	Tags      []string      `json:"tags"`
	CreatedAt string        `json:"created_at"`
}

// PageNumber is a string because the model is asked to leave it blank and
// the field is filled in afterwards.
type SectionSource struct {
	FileName   string `json:"file_name"`
	PageNumber string `json:"page_number"`
}

type SectionContent struct {
	Text    string `json:"text"`
	Summary string `json:"summary"`
}

type SectionContext struct {
	PrecedingText string `json:"preceding_text"`
	FollowingText string `json:"following_text"`
}

// Payload flattens the section into the point payload stored next to its
// vector.
func (s Section) Payload() map[string]any {
	return map[string]any{
		"title":      s.Metadata.Title,
		"tags":       s.Metadata.Tags,
		"created_at": s.Metadata.CreatedAt,
		"content":    s.Content.Text,
		"summary":    s.Content.Summary,
		"context": map[string]any{
			"preceding_text": s.Context.PrecedingText,
			"following_text": s.Context.FollowingText,
		},
		"file_name":   s.Metadata.Source.FileName,
		"page_number": s.Metadata.Source.PageNumber,
	}
}
