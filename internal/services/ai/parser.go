package ai

import "strings"

// Line markers of the structured generation format.
const (
	DescriptionMarker = "1. Description:"
	TagsMarker        = "2. Tags:"
	CategoryMarker    = "3. Category:"
)

// GeneratedContent holds the parsed fields. A nil field was absent from the
// model output.
type GeneratedContent struct {
	Description *string `json:"description"`
	Tags        *string `json:"tags"`
	Category    *string `json:"category"`
}

// ParseContent extracts the three marked fields from generated text. Only
// lines that begin with a marker are considered; a later line with the same
// marker wins.
func ParseContent(text string) GeneratedContent {
	var content GeneratedContent

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")

		switch {
		case strings.HasPrefix(line, DescriptionMarker):
			content.Description = value(line, DescriptionMarker)
		case strings.HasPrefix(line, TagsMarker):
			content.Tags = value(line, TagsMarker)
		case strings.HasPrefix(line, CategoryMarker):
			content.Category = value(line, CategoryMarker)
		}
	}

	return content
}

func value(line, marker string) *string {
	v := strings.TrimSpace(strings.TrimPrefix(line, marker))
	return &v
}
