// Package pipeline wires document loading, extraction, verification and
// reporting into single calls for the CLI and the HTTP server.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/extract"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/resolve"
	"github.com/ppiankov/citecheck/internal/score"
	"github.com/ppiankov/citecheck/internal/source"
	"github.com/ppiankov/citecheck/internal/verify"
)

// Pipeline orchestrates the complete check of a set of documents
type Pipeline struct {
	fetcher  *Fetcher
	resolver resolve.Resolver
	scorer   *score.Scorer
	renderer *Renderer
}

// NewPipeline creates a pipeline around fetcher and resolver
func NewPipeline(cfg *model.Config, fetcher *Fetcher, resolver resolve.Resolver) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		resolver: resolver,
		scorer:   score.NewScorer(),
		renderer: NewRenderer(cfg.Output.IncludeFooter),
	}
}

// Extraction is the result of reading inputs and extracting citations
type Extraction struct {
	Subject   string
	Text      string
	Citations []model.ExtractedCitation
}

// Extract reads every input and extracts citations from their joined text
func (p *Pipeline) Extract(ctx context.Context, inputs []string) (*Extraction, error) {
	docs, err := p.fetcher.FetchAll(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}

	subjects := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		subjects[i] = d.Subject
		texts[i] = d.Text
	}

	return ExtractText(strings.Join(subjects, ", "), source.Join(texts...)), nil
}

// ExtractText extracts citations from text already in memory
func ExtractText(subject, text string) *Extraction {
	return &Extraction{
		Subject:   subject,
		Text:      text,
		Citations: extract.Extract(text),
	}
}

// Verify looks up every citation in order and builds a report. When ctx is
// cancelled the report covers what was settled, and the context error is
// returned alongside it.
func (p *Pipeline) Verify(ctx context.Context, ex *Extraction, onProgress func(model.Progress), opts ...verify.Option) (*model.Report, error) {
	controller := verify.New(ex.Citations, p.resolver, opts...)
	runErr := controller.VerifyAll(ctx, onProgress)
	return p.BuildReport(ex.Subject, controller.Citations()), runErr
}

// BuildReport scores verified citations into a report
func (p *Pipeline) BuildReport(subject string, citations []model.VerifiedCitation) *model.Report {
	if citations == nil {
		citations = []model.VerifiedCitation{}
	}
	return &model.Report{
		Subject:     subject,
		GeneratedAt: time.Now().UTC(),
		Citations:   citations,
		Summary:     p.scorer.Calculate(citations),
		Principles:  model.DefaultPrinciples(),
	}
}

// RenderReport writes the report to the requested outputs, then prints a
// summary to out
func (p *Pipeline) RenderReport(out io.Writer, report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath, out); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose && jsonPath != StdoutPath {
			fmt.Fprintf(out, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath, out); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose && mdPath != StdoutPath {
			fmt.Fprintf(out, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// a report streamed to stdout is the whole output
	if jsonPath != StdoutPath && mdPath != StdoutPath {
		p.renderer.RenderSummary(out, report)
	}
	return nil
}
