package extract

import (
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// contextWindow is how many characters either side of a citation are kept as source text
const contextWindow = 50

// Extract finds every UK case citation in text. Results are deduplicated by
// normalised citation string, keeping the first match in rule priority order.
// Text without citations yields an empty, non-nil slice.
func Extract(text string) []model.ExtractedCitation {
	results := make([]model.ExtractedCitation, 0)
	if strings.TrimSpace(text) == "" {
		return results
	}

	// Citation casing is part of legal correctness, so the set is case-sensitive
	seen := make(map[string]bool)

	for _, m := range FindMatches(text) {
		normalized := Normalize(m.Text)
		if seen[normalized] {
			continue
		}
		seen[normalized] = true

		citation := model.ExtractedCitation{
			Citation:   normalized,
			IsNeutral:  m.Rule.Family == model.FamilyNeutral,
			SourceText: model.StringPtr(sourceText(text, m)),
			Rule:       m.Rule.Label,
			Offset:     m.Start,
		}
		if name, ok := CaseName(text, m.Start); ok {
			citation.CaseName = &name
		}

		results = append(results, citation)
	}

	return results
}

// ContainsCitations reports whether text holds at least one citation.
// It stops at the first match and builds no results, for cheap pre-screening.
func ContainsCitations(text string) bool {
	for _, rule := range neutralRules {
		if rule.MatchString(text) {
			return true
		}
	}
	for _, rule := range traditionalRules {
		if rule.MatchString(text) {
			return true
		}
	}
	return false
}

// sourceText returns the match with up to contextWindow characters either side
func sourceText(text string, m Match) string {
	before := runeWindowBefore(text, m.Start, contextWindow)
	after := runeWindowAfter(text, m.End, contextWindow)
	return strings.TrimSpace(before + m.Text + after)
}
