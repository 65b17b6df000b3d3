package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/pipeline"
)

// TextInput is the input schema for the extract and verify tools
type TextInput struct {
	Text    string `json:"text" jsonschema:"the text to scan for UK case citations"`
	Subject string `json:"subject,omitempty" jsonschema:"a short label for the text, shown in reports"`
}

// ExtractOutput is the output schema for the extract tool
type ExtractOutput struct {
	Citations []CitationOutput `json:"citations"`
	Count     int              `json:"count"`
}

// VerifyOutput is the output schema for the verify tool
type VerifyOutput struct {
	Citations []CitationOutput `json:"citations"`
	Total     int              `json:"total"`
	Verified  int              `json:"verified"`
	NotFound  int              `json:"not_found"`
	Errors    int              `json:"errors"`
	RiskLevel string           `json:"risk_level"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// CitationOutput is one citation and, after verification, its outcome
type CitationOutput struct {
	Citation   string  `json:"citation"`
	CaseName   string  `json:"case_name,omitempty"`
	IsNeutral  bool    `json:"is_neutral"`
	Status     string  `json:"status,omitempty"`
	URL        string  `json:"url,omitempty"`
	Title      string  `json:"title,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// ResolveInput is the input schema for the resolve tool
type ResolveInput struct {
	Citation string `json:"citation" jsonschema:"a single UK citation such as [2019] UKSC 41"`
	CaseName string `json:"case_name,omitempty" jsonschema:"the case name, which helps find report citations"`
}

// ResolveOutput is the output schema for the resolve tool
type ResolveOutput struct {
	Status     string            `json:"status"`
	Candidates []CandidateOutput `json:"candidates"`
	Attempts   []string          `json:"attempts"`
}

// CandidateOutput is a possible judgment for a citation
type CandidateOutput struct {
	URL        string  `json:"url"`
	Source     string  `json:"source"`
	Title      string  `json:"title,omitempty"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_citations",
		Description: "List the UK neutral and law report citations in a text, with case names where they can be attributed",
	}, s.handleExtract)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "verify_citations",
		Description: "Check that every UK case citation in a text resolves to a published judgment on BAILII or Find Case Law. " +
			"A not_found citation may be fabricated and must not be relied on.",
	}, s.handleVerify)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_citation",
		Description: "Look up one UK case citation and return candidate judgment URLs with confidence scores",
	}, s.handleResolve)
}

func (s *Server) handleExtract(_ context.Context, _ *mcp.CallToolRequest, input TextInput) (*mcp.CallToolResult, ExtractOutput, error) {
	ex := pipeline.ExtractText(input.Subject, input.Text)

	output := ExtractOutput{
		Citations: make([]CitationOutput, len(ex.Citations)),
		Count:     len(ex.Citations),
	}
	for i, c := range ex.Citations {
		output.Citations[i] = CitationOutput{
			Citation:  c.Citation,
			CaseName:  c.CaseNameOrEmpty(),
			IsNeutral: c.IsNeutral,
		}
	}
	return nil, output, nil
}

func (s *Server) handleVerify(ctx context.Context, _ *mcp.CallToolRequest, input TextInput) (*mcp.CallToolResult, VerifyOutput, error) {
	ex := pipeline.ExtractText(input.Subject, input.Text)

	s.verifyMu.Lock()
	defer s.verifyMu.Unlock()
	report, err := s.pipeline.Verify(ctx, ex, nil)
	if err != nil {
		return nil, VerifyOutput{}, fmt.Errorf("verification stopped: %w", err)
	}

	sum := report.Summary
	output := VerifyOutput{
		Citations: make([]CitationOutput, len(report.Citations)),
		Total:     sum.Total,
		Verified:  sum.Verified,
		NotFound:  sum.NotFound,
		Errors:    sum.Errors,
		RiskLevel: sum.RiskLevel,
	}
	for i, c := range report.Citations {
		output.Citations[i] = verifiedOutput(c)
	}
	for _, sig := range sum.Signals {
		if sig.Severity != model.SeverityInfo {
			output.Warnings = append(output.Warnings, sig.Description)
		}
	}
	return nil, output, nil
}

func (s *Server) handleResolve(ctx context.Context, _ *mcp.CallToolRequest, input ResolveInput) (*mcp.CallToolResult, ResolveOutput, error) {
	citation := strings.Join(strings.Fields(input.Citation), " ")
	if citation == "" {
		return nil, ResolveOutput{}, fmt.Errorf("citation is required")
	}

	s.verifyMu.Lock()
	defer s.verifyMu.Unlock()
	res, err := s.resolver.Resolve(ctx, citation, model.StringPtr(strings.TrimSpace(input.CaseName)))
	if err != nil {
		return nil, ResolveOutput{}, err
	}

	output := ResolveOutput{
		Status:     string(res.Status),
		Candidates: make([]CandidateOutput, len(res.Candidates)),
		Attempts:   res.AttemptsLog,
	}
	for i, c := range res.Candidates {
		output.Candidates[i] = CandidateOutput{
			URL:        c.URL,
			Source:     c.Source,
			Title:      deref(c.Title),
			Confidence: c.Confidence,
			Method:     c.ResolutionMethod,
		}
	}
	if output.Attempts == nil {
		output.Attempts = []string{}
	}
	return nil, output, nil
}

func verifiedOutput(c model.VerifiedCitation) CitationOutput {
	out := CitationOutput{
		Citation:  c.Citation,
		CaseName:  c.CaseNameOrEmpty(),
		IsNeutral: c.IsNeutral,
		Status:    string(c.Status),
		Error:     deref(c.Error),
	}
	if best := c.BestCandidate(); best != nil {
		out.URL = best.URL
		out.Title = deref(best.Title)
		out.Confidence = best.Confidence
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
