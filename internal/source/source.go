// Package source turns documents into the plain text that citation
// extraction runs over.
package source

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Reader converts one document format to plain text
type Reader interface {
	// Name returns the format name
	Name() string

	// CanHandle reports whether the reader understands a document with this
	// path and content type; either may be empty
	CanHandle(path, contentType string) bool

	// Text returns the document's readable text
	Text(content []byte) (string, error)
}

// Registry picks a Reader per document, falling back to plain text
type Registry struct {
	readers  []Reader
	fallback Reader
}

// NewRegistry creates a registry with the built-in readers
func NewRegistry() *Registry {
	r := &Registry{fallback: NewPlainTextReader()}
	r.Register(NewHTMLReader())
	r.Register(NewMarkdownReader())
	return r
}

// Register adds a reader ahead of the fallback
func (r *Registry) Register(reader Reader) {
	r.readers = append(r.readers, reader)
}

// Find returns the first reader that can handle the document
func (r *Registry) Find(path, contentType string) Reader {
	for _, reader := range r.readers {
		if reader.CanHandle(path, contentType) {
			return reader
		}
	}
	return r.fallback
}

// Text converts content using the reader chosen for path and contentType.
// Without either hint the content itself is sniffed.
func (r *Registry) Text(path, contentType string, content []byte) (string, error) {
	if contentType == "" {
		contentType = detectContentType(path, content)
	}
	reader := r.Find(path, contentType)
	text, err := reader.Text(content)
	if err != nil {
		return "", fmt.Errorf("read %s as %s: %w", displayName(path), reader.Name(), err)
	}
	return text, nil
}

// LoadFile reads the file at path and returns its text
func (r *Registry) LoadFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return r.Text(path, "", content)
}

// ReadAll reads a whole stream, such as stdin, as one document
func (r *Registry) ReadAll(in io.Reader) (string, error) {
	content, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return r.Text("", "", content)
}

// Join concatenates text blobs with a blank line between them, skipping
// blank blobs, so no citation can span two sources
func Join(texts ...string) string {
	parts := make([]string, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func detectContentType(path string, content []byte) string {
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		switch ext {
		case ".md", ".markdown":
			return "text/markdown"
		}
		if ct := mime.TypeByExtension(ext); ct != "" {
			return ct
		}
	}
	return http.DetectContentType(bytes.TrimLeft(content, " \t\r\n"))
}

func displayName(path string) string {
	if path == "" {
		return "input"
	}
	return path
}

// baseType strips parameters such as charset
func baseType(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
