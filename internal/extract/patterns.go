package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// Token separators inside a citation: spaces, tabs and NBSP, with at most one
// line break so a blank line never joins two references.
const (
	ws  = `[ \t\x{00A0}]`
	sep = `(?:` + ws + `+(?:\r?\n` + ws + `*)?|\r?\n` + ws + `*)`

	yearPrefix = `\[(\d{4})\]` + sep
	division   = `(?:` + sep + `\([A-Za-z]+\))?`
	volume     = `(?:\d+` + sep + `)?`
)

// Rule is a labelled citation pattern belonging to one family
type Rule struct {
	Label   string
	Family  model.CitationFamily
	pattern *regexp.Regexp
}

// Match is a single rule match with byte offsets into the source text
type Match struct {
	Rule  *Rule
	Text  string
	Start int
	End   int
}

// neutralRule builds "[YYYY] CODE N" where code tokens may be split by separators
func neutralRule(label string, withDivision bool) *Rule {
	code := strings.Join(strings.Fields(label), sep)
	expr := `(?i)` + yearPrefix + code + sep + `(\d+)`
	if withDivision {
		expr += division
	}
	return &Rule{
		Label:   label,
		Family:  model.FamilyNeutral,
		pattern: regexp.MustCompile(expr),
	}
}

// reportRule builds "[YYYY] [vol] SERIES page"
func reportRule(label, series string) *Rule {
	return &Rule{
		Label:   label,
		Family:  model.FamilyTraditional,
		pattern: regexp.MustCompile(`(?i)` + yearPrefix + volume + series + sep + `\d+`),
	}
}

// Neutral rules run before traditional ones; order within a family is significant
var neutralRules = []*Rule{
	neutralRule("UKSC", false),
	neutralRule("UKHL", false),
	neutralRule("UKPC", false),
	neutralRule("EWCA Civ", false),
	neutralRule("EWCA Crim", false),
	neutralRule("EWHC", true), // [2023] EWHC 1234 (Ch)
	neutralRule("EWCOP", false),
	neutralRule("EWFC", false),
	neutralRule("UKUT", true),
	neutralRule("UKFTT", true),
	neutralRule("UKEAT", false),
}

var traditionalRules = []*Rule{
	reportRule("AC", `AC`),
	reportRule("QB", `QB`),
	reportRule("KB", `KB`),
	reportRule("WLR", `WLR`),
	reportRule("All ER", `All`+ws+`*ER`),
	reportRule("Ch", `Ch`),
	reportRule("Fam", `Fam`),
	reportRule("ICR", `ICR`),
	reportRule("IRLR", `IRLR`),
	reportRule("FLR", `FLR`),
	reportRule("BCLC", `BCLC`),
	reportRule("BCC", `BCC`),
	reportRule("Lloyd's Rep", `Lloyd['’]`+ws+`*s`+sep+`Rep`),
	reportRule("P&CR", `P`+ws+`*&`+ws+`*CR`),
	reportRule("HLR", `HLR`),
	reportRule("CMLR", `CMLR`),
}

// Rules returns every rule in application order
func Rules() []*Rule {
	rules := make([]*Rule, 0, len(neutralRules)+len(traditionalRules))
	rules = append(rules, neutralRules...)
	return append(rules, traditionalRules...)
}

// FindAll returns the rule's non-overlapping matches in text order
func (r *Rule) FindAll(text string) []Match {
	locs := r.pattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, Match{
			Rule:  r,
			Text:  text[loc[0]:loc[1]],
			Start: loc[0],
			End:   loc[1],
		})
	}
	return matches
}

// MatchString reports whether the rule matches anywhere in text
func (r *Rule) MatchString(text string) bool {
	return r.pattern.MatchString(text)
}

// FindMatches runs every rule over text: neutral family first, then
// traditional, each rule left to right
func FindMatches(text string) []Match {
	var matches []Match
	for _, rule := range Rules() {
		matches = append(matches, rule.FindAll(text)...)
	}
	return matches
}

// Normalize collapses internal whitespace to single spaces
func Normalize(citation string) string {
	return strings.Join(strings.Fields(citation), " ")
}
