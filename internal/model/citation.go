package model

// CitationFamily distinguishes the two recognised citation formats
type CitationFamily string

const (
	FamilyNeutral     CitationFamily = "neutral"     // [2020] UKSC 5
	FamilyTraditional CitationFamily = "traditional" // [1932] AC 562
)

// ExtractedCitation is a single citation found in a text blob.
// Instances are produced once per extraction run and never mutated.
type ExtractedCitation struct {
	Citation   string  `json:"citation"`              // Whitespace-normalised citation text
	CaseName   *string `json:"case_name,omitempty"`   // Best-guess case name, nil when no safe attribution exists
	IsNeutral  bool    `json:"is_neutral"`            // Matched by a neutral citation rule
	SourceText *string `json:"source_text,omitempty"` // Surrounding text window for context
	Rule       string  `json:"rule,omitempty"`        // Court code or report series label that matched
	Offset     int     `json:"offset"`                // Byte offset of the match in the source text
}

// CaseNameOrEmpty returns the attributed case name or ""
func (c ExtractedCitation) CaseNameOrEmpty() string {
	if c.CaseName == nil {
		return ""
	}
	return *c.CaseName
}

// VerificationStatus is the lifecycle state of a citation under verification
type VerificationStatus string

const (
	StatusPending   VerificationStatus = "pending"
	StatusResolving VerificationStatus = "resolving"
	StatusVerified  VerificationStatus = "verified"
	StatusNotFound  VerificationStatus = "not_found"
	StatusError     VerificationStatus = "error"
)

// IsTerminal reports whether a lookup attempt has completed
func (s VerificationStatus) IsTerminal() bool {
	switch s {
	case StatusVerified, StatusNotFound, StatusError:
		return true
	default:
		return false
	}
}

// VerifiedCitation wraps an ExtractedCitation with verification state.
// Resolution is set for Verified and NotFound, Error only for StatusError.
type VerifiedCitation struct {
	ExtractedCitation
	Status     VerificationStatus  `json:"status"`
	Resolution *CitationResolution `json:"resolution,omitempty"`
	Error      *string             `json:"error,omitempty"`
}

// NewVerifiedCitation wraps an extracted citation in the Pending state
func NewVerifiedCitation(c ExtractedCitation) VerifiedCitation {
	return VerifiedCitation{
		ExtractedCitation: c,
		Status:            StatusPending,
	}
}

// BestCandidate returns the highest-ranked candidate, or nil
func (v VerifiedCitation) BestCandidate() *ResolvedCandidate {
	if v.Resolution == nil || len(v.Resolution.Candidates) == 0 {
		return nil
	}
	return &v.Resolution.Candidates[0]
}

// ResolutionStatus is the outcome reported by a resolver
type ResolutionStatus string

const (
	ResolutionResolved     ResolutionStatus = "resolved"
	ResolutionUnresolvable ResolutionStatus = "unresolvable"
)

// CitationResolution is the result of looking a citation up against an
// authoritative case-law source
type CitationResolution struct {
	Citation    string              `json:"citation"`
	CaseName    *string             `json:"case_name,omitempty"`
	Candidates  []ResolvedCandidate `json:"candidates"`
	Status      ResolutionStatus    `json:"status"`
	AttemptsLog []string            `json:"attempts_log"`
}

// ResolvedCandidate is one possible published judgment for a citation
type ResolvedCandidate struct {
	URL              string  `json:"url"`
	Source           string  `json:"source"`          // bailii, find_case_law
	Confidence       float64 `json:"confidence"`      // 0..1
	Title            *string `json:"title,omitempty"` // Page title when known
	ResolutionMethod string  `json:"resolution_method"`
}

// Candidate sources
const (
	SourceBailii      = "bailii"
	SourceFindCaseLaw = "find_case_law"
)

// Progress reports batch verification position (Current is 1-based)
type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Event is emitted after every state transition of a single citation
type Event struct {
	Index    int              `json:"index"`
	Citation VerifiedCitation `json:"citation"`
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
