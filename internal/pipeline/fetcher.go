package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/source"
)

// StdinInput names standard input among document inputs
const StdinInput = "-"

// JudgmentFetcher downloads judgment pages; *resolve.Client satisfies it
type JudgmentFetcher interface {
	FetchJudgment(ctx context.Context, rawURL string) (*model.FetchedJudgment, error)
}

// Fetcher turns document inputs (file paths, judgment URLs or stdin) into text
type Fetcher struct {
	registry *source.Registry
	web      JudgmentFetcher
	stdin    io.Reader
}

// NewFetcher creates a fetcher. web may be nil when URLs are not accepted.
func NewFetcher(registry *source.Registry, web JudgmentFetcher, stdin io.Reader) *Fetcher {
	return &Fetcher{
		registry: registry,
		web:      web,
		stdin:    stdin,
	}
}

// FetchResult is the text of one input
type FetchResult struct {
	Input   string
	Subject string
	Text    string
}

// Fetch reads one input
func (f *Fetcher) Fetch(ctx context.Context, input string) (*FetchResult, error) {
	switch {
	case input == StdinInput:
		text, err := f.registry.ReadAll(f.stdin)
		if err != nil {
			return nil, err
		}
		return &FetchResult{Input: input, Subject: "stdin", Text: text}, nil

	case isURL(input):
		return f.fetchURL(ctx, input)

	default:
		text, err := f.registry.LoadFile(input)
		if err != nil {
			return nil, err
		}
		return &FetchResult{Input: input, Subject: filepath.Base(input), Text: text}, nil
	}
}

// FetchAll reads every input in order. An input that cannot be read fails
// the whole call, since a silently skipped document would under-report.
func (f *Fetcher) FetchAll(ctx context.Context, inputs []string) ([]*FetchResult, error) {
	results := make([]*FetchResult, 0, len(inputs))
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := f.Fetch(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", input, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (f *Fetcher) fetchURL(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.web == nil {
		return nil, fmt.Errorf("fetching URLs is not enabled")
	}

	judgment, err := f.web.FetchJudgment(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if !judgment.OK {
		return nil, fmt.Errorf("fetch %s: page not available", rawURL)
	}

	text, err := f.registry.Text(urlPath(rawURL), judgment.ContentType, []byte(judgment.Content))
	if err != nil {
		return nil, err
	}

	subject := extractSubject(rawURL)
	if judgment.Title != nil {
		subject = *judgment.Title
	}
	return &FetchResult{Input: rawURL, Subject: subject, Text: text}, nil
}

func isURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

func urlPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Path
}

// extractSubject extracts a human-readable subject from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	// BAILII and Find Case Law paths read as court/year/number
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if idx := strings.LastIndex(s, "."); idx > 0 {
			segments[i] = s[:idx]
		}
	}
	if len(segments) >= 3 && segments[1] == "cases" {
		segments = segments[2:]
	}
	return strings.Join(segments, " ")
}
