package resolve

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/citecheck/internal/model"
)

const (
	yearMatchBoost   = 0.20
	maxConfidence    = 0.95
	wrongYearPenalty = 0.3
)

var (
	citationYearPattern = regexp.MustCompile(`\[(\d{4})\]`)
	urlYearPattern      = regexp.MustCompile(`/(\d{4})/`)

	// "Smith v Jones [2020] UKSC 5" keeps its name when passed as one string
	leadingNamePattern = regexp.MustCompile(`^(.*?)\s*\[\d{4}\]`)
)

// Words too common in case titles to narrow a search
var searchStopWords = map[string]bool{
	"v": true, "and": true, "the": true, "of": true, "for": true, "in": true,
	"on": true, "a": true, "an": true, "r": true, "re": true, "plc": true,
	"ltd": true, "limited": true, "inc": true, "llc": true, "llp": true,
	"council": true, "borough": true, "county": true, "city": true,
	"district": true, "secretary": true, "state": true, "home": true,
	"department": true, "commissioner": true, "others": true, "ors": true,
}

// PartySearchTerms reduces a case name to distinctive lowercase search words
func PartySearchTerms(name string) []string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if len([]rune(w)) >= 3 && !searchStopWords[w] {
			terms = append(terms, w)
		}
	}
	return terms
}

func citationYear(citation string) string {
	if m := citationYearPattern.FindStringSubmatch(citation); m != nil {
		return m[1]
	}
	return ""
}

// nameFromCitation recovers a case name written in front of the citation
func nameFromCitation(citation string) string {
	m := leadingNamePattern.FindStringSubmatch(citation)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	if len(name) <= 2 {
		return ""
	}
	return name
}

// adjustForYear boosts candidates whose URL carries the citation year,
// penalises those carrying a different one, then sorts best first
func adjustForYear(candidates []model.ResolvedCandidate, citation string) {
	year := citationYear(citation)
	if year == "" {
		return
	}

	for i := range candidates {
		c := &candidates[i]
		if strings.Contains(c.URL, "/"+year+"/") {
			c.Confidence = min(c.Confidence+yearMatchBoost, maxConfidence)
			continue
		}
		if m := urlYearPattern.FindStringSubmatch(c.URL); m != nil && m[1] != year {
			c.Confidence *= wrongYearPenalty
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
}
