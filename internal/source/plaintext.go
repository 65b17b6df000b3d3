package source

import (
	"strings"
	"unicode/utf8"
)

// PlainTextReader passes text through with line endings normalised
type PlainTextReader struct{}

// NewPlainTextReader creates a plain text reader
func NewPlainTextReader() *PlainTextReader {
	return &PlainTextReader{}
}

// Name returns the format name
func (p *PlainTextReader) Name() string {
	return "plaintext"
}

// CanHandle accepts any text/* document
func (p *PlainTextReader) CanHandle(path, contentType string) bool {
	return strings.HasPrefix(baseType(contentType), "text/")
}

// Text strips a byte order mark, normalises line endings and replaces invalid UTF-8
func (p *PlainTextReader) Text(content []byte) (string, error) {
	text := strings.TrimPrefix(string(content), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	return text, nil
}
