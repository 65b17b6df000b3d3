package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/citecheck/internal/extract"
)

// LoadFunc reads a document into plain text
type LoadFunc func(path string) (string, error)

// ScreenJob checks one document for citations
type ScreenJob struct {
	Path string
	Load LoadFunc
}

// Execute loads the document and runs the cheap citation pre-screen
func (j *ScreenJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &ScreenResult{Path: j.Path, Error: err}
	}

	text, err := j.Load(j.Path)
	if err != nil {
		return &ScreenResult{Path: j.Path, Error: fmt.Errorf("load %s: %w", j.Path, err)}
	}
	return &ScreenResult{
		Path:         j.Path,
		HasCitations: extract.ContainsCitations(text),
	}
}

// ScreenResult represents the result of a screen job
type ScreenResult struct {
	Path         string
	HasCitations bool
	Error        error
}

// GetError returns the error from the screen result
func (r *ScreenResult) GetError() error {
	return r.Error
}

// Screener pre-screens many documents concurrently
type Screener struct {
	load        LoadFunc
	concurrency int
}

// NewScreener creates a screener reading documents with load
func NewScreener(load LoadFunc, concurrency int) *Screener {
	return &Screener{
		load:        load,
		concurrency: concurrency,
	}
}

// ScreenPaths screens each path and returns results in input order
func (s *Screener) ScreenPaths(ctx context.Context, paths []string) []*ScreenResult {
	if len(paths) == 0 {
		return []*ScreenResult{}
	}

	jobs := make([]Job, len(paths))
	for i, path := range paths {
		jobs[i] = &ScreenJob{Path: path, Load: s.load}
	}

	results := NewPool(s.concurrency).Run(ctx, jobs)

	screened := make([]*ScreenResult, len(results))
	for i, result := range results {
		if result == nil {
			screened[i] = &ScreenResult{Path: paths[i], Error: fmt.Errorf("skipped: %w", context.Cause(ctx))}
			continue
		}
		screened[i] = result.(*ScreenResult)
	}
	return screened
}

// ScreenList reads document paths from a list file and screens them
func (s *Screener) ScreenList(ctx context.Context, listPath string) ([]*ScreenResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}
	return s.ScreenPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths from a file (one per line)
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
