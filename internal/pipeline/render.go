package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

// StdoutPath as an output path writes to the summary writer instead of a file
const StdoutPath = "-"

const footer = "citecheck checks that each cited judgment exists in a public source. " +
	"It does not check that the judgment supports the proposition it is cited for."

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON to path, or to stdout for "-"
func (r *Renderer) RenderJSON(report *model.Report, path string, stdout io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeOutput(path, stdout, append(data, '\n'))
}

// RenderMarkdown writes the report as Markdown to path, or to stdout for "-"
func (r *Renderer) RenderMarkdown(report *model.Report, path string, stdout io.Writer) error {
	return writeOutput(path, stdout, []byte(r.Markdown(report)))
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == StdoutPath {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Markdown renders the report for humans
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	s := report.Summary

	fmt.Fprintf(&b, "# Citation check: %s\n\n", report.Subject)
	fmt.Fprintf(&b, "Generated %s\n\n", report.GeneratedAt.Format(time.RFC1123))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Total | Verified | Not found | Errors | Pending | Risk |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %s |\n\n", s.Total, s.Verified, s.NotFound, s.Errors, s.Pending, s.RiskLevel)

	if len(s.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, sig := range s.Signals {
			fmt.Fprintf(&b, "- **%s** `%s`: %s\n", sig.Severity, sig.Type, sig.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Citations\n\n")
	if len(report.Citations) == 0 {
		b.WriteString("No citations found.\n\n")
	}
	for i, c := range report.Citations {
		fmt.Fprintf(&b, "### %d. %s (%s)\n\n", i+1, c.Citation, statusLabel(c.Status))
		if c.CaseName != nil {
			fmt.Fprintf(&b, "- Case name: %s\n", *c.CaseName)
		}
		if c.Error != nil {
			fmt.Fprintf(&b, "- Lookup error: %s\n", *c.Error)
		}
		if c.Resolution != nil {
			for j, cand := range c.Resolution.Candidates {
				label := "Candidate"
				if j == 0 {
					label = "Best match"
				}
				fmt.Fprintf(&b, "- %s: [%s](%s) (%s, confidence %.2f, %s)\n",
					label, candidateTitle(cand), cand.URL, cand.Source, cand.Confidence, cand.ResolutionMethod)
			}
			if len(c.Resolution.AttemptsLog) > 0 {
				b.WriteString("- Attempts:\n")
				for _, line := range c.Resolution.AttemptsLog {
					fmt.Fprintf(&b, "  - %s\n", strings.TrimSpace(line))
				}
			}
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\n_%s_\n", footer)
	}
	return b.String()
}

// RenderSummary prints a short per-citation outcome list
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	s := report.Summary
	fmt.Fprintf(w, "\n%d citation(s): %d verified, %d not found, %d error(s)", s.Total, s.Verified, s.NotFound, s.Errors)
	if s.Pending > 0 {
		fmt.Fprintf(w, ", %d not checked", s.Pending)
	}
	fmt.Fprintf(w, " (risk: %s)\n\n", s.RiskLevel)

	for _, c := range report.Citations {
		line := fmt.Sprintf("  %s %s", statusMark(c.Status), c.Citation)
		if c.CaseName != nil {
			line += " " + *c.CaseName
		}
		switch {
		case c.BestCandidate() != nil:
			line += "\n      " + c.BestCandidate().URL
		case c.Error != nil:
			line += "\n      " + *c.Error
		}
		fmt.Fprintln(w, line)
	}
}

func candidateTitle(c model.ResolvedCandidate) string {
	if c.Title != nil {
		return *c.Title
	}
	return c.URL
}

func statusLabel(s model.VerificationStatus) string {
	switch s {
	case model.StatusVerified:
		return "verified"
	case model.StatusNotFound:
		return "NOT FOUND"
	case model.StatusError:
		return "lookup failed"
	case model.StatusResolving:
		return "checking"
	default:
		return "not checked"
	}
}

func statusMark(s model.VerificationStatus) string {
	switch s {
	case model.StatusVerified:
		return "✓"
	case model.StatusNotFound:
		return "✗"
	case model.StatusError:
		return "!"
	default:
		return "·"
	}
}
