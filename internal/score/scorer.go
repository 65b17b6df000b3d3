package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/resolve"
)

// lowConfidenceThreshold marks candidates found only by loose searches
const lowConfidenceThreshold = 0.7

// Risk levels
const (
	RiskNone = "none"
	RiskLow  = "low"
	RiskHigh = "high"
)

// Scorer summarises a verification run and flags citations that need a
// human to look at them
type Scorer struct{}

// NewScorer creates a new scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Calculate counts outcomes and generates diagnostic signals
func (s *Scorer) Calculate(citations []model.VerifiedCitation) model.Summary {
	summary := model.Summary{
		Total:   len(citations),
		Signals: []model.Signal{},
	}

	for _, c := range citations {
		if c.IsNeutral {
			summary.Neutral++
		} else {
			summary.Reports++
		}

		switch c.Status {
		case model.StatusVerified:
			summary.Verified++
			summary.Signals = append(summary.Signals, s.candidateSignals(c)...)
		case model.StatusNotFound:
			summary.NotFound++
			summary.Signals = append(summary.Signals, s.fabricationSignal(c))
		case model.StatusError:
			summary.Errors++
			summary.Signals = append(summary.Signals, s.lookupFailureSignal(c))
		default:
			summary.Pending++
		}
	}

	summary.RiskLevel = s.determineRisk(summary)
	return summary
}

// fabricationSignal flags a citation no source could find
func (s *Scorer) fabricationSignal(c model.VerifiedCitation) model.Signal {
	attempts := 0
	if c.Resolution != nil {
		attempts = len(c.Resolution.AttemptsLog)
	}
	return model.Signal{
		Type:        model.SignalPossibleFabrication,
		Severity:    model.SeverityCritical,
		Citation:    c.Citation,
		Description: fmt.Sprintf("%s was not found in BAILII or Find Case Law", c.Citation),
		Data: map[string]any{
			"case_name": c.CaseNameOrEmpty(),
			"attempts":  attempts,
		},
	}
}

// lookupFailureSignal reports a citation whose lookup never completed. It says
// nothing about whether the citation is real.
func (s *Scorer) lookupFailureSignal(c model.VerifiedCitation) model.Signal {
	reason := "unknown error"
	if c.Error != nil {
		reason = *c.Error
	}
	return model.Signal{
		Type:        model.SignalLookupFailure,
		Severity:    model.SeverityWarning,
		Citation:    c.Citation,
		Description: fmt.Sprintf("Lookup for %s failed: %s", c.Citation, reason),
		Data:        map[string]any{"error": reason},
	}
}

// candidateSignals inspects the best candidate of a verified citation
func (s *Scorer) candidateSignals(c model.VerifiedCitation) []model.Signal {
	best := c.BestCandidate()
	if best == nil {
		return nil
	}

	var signals []model.Signal
	if best.Confidence < lowConfidenceThreshold {
		signals = append(signals, model.Signal{
			Type:        model.SignalLowConfidence,
			Severity:    model.SeverityInfo,
			Citation:    c.Citation,
			Description: fmt.Sprintf("Best match for %s has confidence %.2f", c.Citation, best.Confidence),
			Data: map[string]any{
				"confidence": best.Confidence,
				"method":     best.ResolutionMethod,
				"url":        best.URL,
				"threshold":  lowConfidenceThreshold,
			},
		})
	}

	if mismatch, ok := s.detectNameMismatch(c.CaseNameOrEmpty(), best); ok {
		signals = append(signals, mismatch)
		signals[len(signals)-1].Citation = c.Citation
	}
	return signals
}

// detectNameMismatch flags a candidate whose title shares no party name with
// the case name given in the text, a common sign of a misattributed citation
func (s *Scorer) detectNameMismatch(caseName string, best *model.ResolvedCandidate) (model.Signal, bool) {
	if caseName == "" || best.Title == nil {
		return model.Signal{}, false
	}

	terms := resolve.PartySearchTerms(caseName)
	if len(terms) == 0 {
		return model.Signal{}, false
	}

	title := strings.ToLower(*best.Title)
	for _, term := range terms {
		if strings.Contains(title, term) {
			return model.Signal{}, false
		}
	}

	return model.Signal{
		Type:        model.SignalNameMismatch,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("%q does not appear in the title of the matched judgment %q", caseName, *best.Title),
		Data: map[string]any{
			"case_name": caseName,
			"title":     *best.Title,
			"terms":     terms,
		},
	}, true
}

// determineRisk rates how much of the document needs manual checking
func (s *Scorer) determineRisk(summary model.Summary) string {
	risk := RiskNone
	for _, signal := range summary.Signals {
		switch signal.Severity {
		case model.SeverityCritical:
			return RiskHigh
		case model.SeverityWarning:
			risk = RiskLow
		}
	}
	if summary.Pending > 0 {
		risk = RiskLow
	}
	return risk
}
