package model

import "time"

// Report is the output of a verification run
type Report struct {
	Subject     string             `json:"subject"`      // Input description (file names or "stdin")
	GeneratedAt time.Time          `json:"generated_at"` // When the run finished
	Citations   []VerifiedCitation `json:"citations"`
	Summary     Summary            `json:"summary"`
	Principles  Principles         `json:"principles"`
}

// Summary aggregates verification outcomes
type Summary struct {
	Total     int      `json:"total"`
	Verified  int      `json:"verified"`
	NotFound  int      `json:"not_found"`
	Errors    int      `json:"errors"`
	Pending   int      `json:"pending"` // Items never attempted (run cancelled)
	Neutral   int      `json:"neutral"`
	Reports   int      `json:"reports"` // Traditional law report citations
	Signals   []Signal `json:"signals"`
	RiskLevel string   `json:"risk_level"` // "none", "low", "high"
}

// Signal is a diagnostic finding about one citation or the whole run
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Citation    string         `json:"citation,omitempty"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalPossibleFabrication SignalType = "possible_fabrication" // Lookup found nothing
	SignalLookupFailure       SignalType = "lookup_failure"       // Lookup itself failed
	SignalLowConfidence       SignalType = "low_confidence"       // Only weak candidates found
	SignalNameMismatch        SignalType = "name_mismatch"        // Best candidate title shares no party name
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// Principles documents what a report does and does not claim
type Principles struct {
	ExistenceOnly bool `json:"existence_only"` // Checks a judgment exists, not what it holds
	UKOnly        bool `json:"uk_only"`        // Only UK neutral and report citations
}

// DefaultPrinciples returns the standard citecheck principles
func DefaultPrinciples() Principles {
	return Principles{
		ExistenceOnly: true,
		UKOnly:        true,
	}
}
