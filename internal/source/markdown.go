package source

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	mdCodeBlock    = regexp.MustCompile("(?s)```.*?```")
	mdInlineCode   = regexp.MustCompile("`([^`]+)`")
	mdImage        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s?`)
	mdRule         = regexp.MustCompile(`(?m)^\s*[-*_]{3,}\s*$`)
	mdListMarker   = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdEmphasis     = regexp.MustCompile(`(\*{1,3}|_{2,3})([^*_\n]+)(\*{1,3}|_{2,3})`)
	mdManyNewlines = regexp.MustCompile(`\n{3,}`)
)

// MarkdownReader strips markdown syntax down to prose
type MarkdownReader struct {
	plain *PlainTextReader
}

// NewMarkdownReader creates a markdown reader
func NewMarkdownReader() *MarkdownReader {
	return &MarkdownReader{plain: NewPlainTextReader()}
}

// Name returns the format name
func (m *MarkdownReader) Name() string {
	return "markdown"
}

// CanHandle accepts markdown content types and .md files
func (m *MarkdownReader) CanHandle(path, contentType string) bool {
	switch baseType(contentType) {
	case "text/markdown", "text/x-markdown":
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// Text removes formatting while keeping link text, so "[Smith v Jones](url)"
// still reads as a case name. Numbered list markers are kept because a line
// may legitimately open with a report volume.
func (m *MarkdownReader) Text(content []byte) (string, error) {
	text, err := m.plain.Text(content)
	if err != nil {
		return "", err
	}

	text = mdCodeBlock.ReplaceAllString(text, "")
	text = mdInlineCode.ReplaceAllString(text, "$1")
	text = mdImage.ReplaceAllString(text, "")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdBlockquote.ReplaceAllString(text, "")
	text = mdRule.ReplaceAllString(text, "")
	text = mdListMarker.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "$2")
	text = mdManyNewlines.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}
