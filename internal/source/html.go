package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	htmlBlankLines = regexp.MustCompile(`\n{3,}`)
	htmlSpaceRuns  = regexp.MustCompile(`[\s\x{00A0}]+`)
)

// Elements whose text is never visible
var invisibleElements = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"iframe": true, "template": true, "svg": true,
}

// Elements that start a new paragraph
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "aside": true, "nav": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "blockquote": true, "pre": true,
	"hr": true, "center": true, "form": true, "fieldset": true,
}

// HTMLReader extracts the visible text of an HTML page, keeping paragraph
// boundaries as blank lines
type HTMLReader struct{}

// NewHTMLReader creates an HTML reader
func NewHTMLReader() *HTMLReader {
	return &HTMLReader{}
}

// Name returns the format name
func (h *HTMLReader) Name() string {
	return "html"
}

// CanHandle accepts HTML content types and .html/.htm files
func (h *HTMLReader) CanHandle(path, contentType string) bool {
	switch baseType(contentType) {
	case "text/html", "application/xhtml+xml":
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".html" || ext == ".htm" || ext == ".xhtml"
}

// Text returns the page's visible text, preferring the main content area
// when the page marks one
func (h *HTMLReader) Text(content []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := findFirst(doc, isMainContent)
	if root == nil {
		root = doc
	}

	var buf strings.Builder
	visibleText(root, &buf)
	return tidyText(buf.String()), nil
}

// isMainContent matches the element holding a page's primary content
func isMainContent(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch {
	case n.Data == "main", n.Data == "article":
		return true
	case attr(n, "role") == "main":
		return true
	case hasClass(n, "judgment-body"):
		return true
	}
	return false
}

// visibleText writes text nodes in document order, skipping invisible
// elements and marking block boundaries with blank lines
func visibleText(n *html.Node, buf *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		// source line breaks are insignificant in HTML
		buf.WriteString(htmlSpaceRuns.ReplaceAllString(n.Data, " "))
		return
	case html.ElementNode:
		if invisibleElements[n.Data] {
			return
		}
		switch {
		case n.Data == "br":
			buf.WriteString("\n")
			return
		case n.Data == "td" || n.Data == "th":
			buf.WriteString(" ")
		case blockElements[n.Data]:
			buf.WriteString("\n\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, buf)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		buf.WriteString("\n\n")
	}
}

// tidyText collapses horizontal whitespace, trims every line and keeps at
// most one blank line between paragraphs
func tidyText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(htmlSpaceRuns.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = htmlBlankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
