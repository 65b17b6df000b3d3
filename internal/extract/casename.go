package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// attributionWindow is how many characters before a citation are searched for a case name
	attributionWindow = 300

	minCaseNameLen = 5
	maxCaseNameLen = 200
)

// nameTail matches further words of a party name: capitalised words,
// parentheticals, ampersands and lowercase name connectors
const nameTail = `(?:\s+(?:[A-Z][A-Za-z'’\-&()]*|&|\([^)]*\)|of|the|for|and|de|van|von|du|la|le|el))*$`

var (
	// R v Adams, R (Miller) v Secretary of State
	crownCasePattern = regexp.MustCompile(`\bR\s*(?:\([^)]+\)\s*)?v\.?\s+[A-Z][A-Za-z'’\-]+` + nameTail)

	// Re Smith, In re Smith
	inReCasePattern = regexp.MustCompile(`\b(?:In\s+[Rr]e|Re)\s+[A-Z][A-Za-z'’\-]+` + nameTail)

	// " v " or " v. " between parties
	versusPattern = regexp.MustCompile(`\s+v\.?\s+`)
)

var nameConnectors = map[string]bool{
	"of": true, "the": true, "for": true, "and": true,
	"de": true, "van": true, "von": true, "du": true,
	"la": true, "le": true, "el": true,
}

var proseConnectors = map[string]bool{
	"of": true, "the": true, "for": true, "and": true,
}

var legalSuffixes = map[string]bool{
	"ltd": true, "limited": true, "plc": true, "llp": true,
	"inc": true, "corp": true, "llc": true, "council": true,
	"borough": true, "nhs": true, "cic": true, "ors": true,
}

var punctuationStripper = strings.NewReplacer(",", "", ";", "", ":", "", "(", "", ")", "")

// tokenClass classifies a word during the backward walk over party 1
type tokenClass int

const (
	tokenOther tokenClass = iota
	tokenUpper
	tokenSuffix
	tokenAmpersand
	tokenConnector
)

func classifyToken(word string) tokenClass {
	bare := punctuationStripper.Replace(word)
	switch {
	case bare == "&":
		return tokenAmpersand
	case legalSuffixes[strings.ToLower(bare)]:
		return tokenSuffix
	case startsUpper(bare):
		return tokenUpper
	case nameConnectors[strings.ToLower(bare)]:
		return tokenConnector
	default:
		return tokenOther
	}
}

// CaseName returns the most plausible case name immediately preceding the
// citation that starts at byte offset start. It favours returning nothing
// over guessing when the preceding text is ambiguous.
func CaseName(text string, start int) (string, bool) {
	if start <= 0 || start > len(text) {
		return "", false
	}

	before := strings.TrimRight(runeWindowBefore(text, start, attributionWindow), ",;: \t\r\n")
	before = strings.TrimSpace(before)
	if before == "" {
		return "", false
	}

	if m := crownCasePattern.FindString(before); m != "" {
		return strings.TrimSpace(m), true
	}
	if m := inReCasePattern.FindString(before); m != "" {
		return strings.TrimSpace(m), true
	}
	return partiesCaseName(before)
}

// partiesCaseName handles the general "Party A v Party B" form
func partiesCaseName(before string) (string, bool) {
	locs := versusPattern.FindAllStringIndex(before, -1)
	if len(locs) == 0 {
		return "", false
	}
	last := locs[len(locs)-1]

	party2 := strings.Join(strings.Fields(before[last[1]:]), " ")
	if party2 == "" || !startsUpper(party2) {
		return "", false
	}

	words := strings.Fields(before[:last[0]])
	startIdx := len(words)
walk:
	for i := len(words) - 1; i >= 0; i-- {
		switch classifyToken(words[i]) {
		case tokenUpper, tokenSuffix, tokenAmpersand:
			startIdx = i
		case tokenConnector:
			// connectors only bridge words already accepted into the name
			if startIdx != i+1 {
				break walk
			}
			startIdx = i
		default:
			break walk
		}
	}

	// a name never opens with a prose connector ("of Smith"), though "van Gend" may
	for startIdx < len(words) && proseConnectors[words[startIdx]] {
		startIdx++
	}

	party1 := strings.Join(words[startIdx:], " ")
	if party1 == "" || !strings.ContainsFunc(party1, unicode.IsUpper) {
		return "", false
	}

	name := party1 + " v " + party2
	if n := utf8.RuneCountInString(name); n < minCaseNameLen || n > maxCaseNameLen {
		return "", false
	}
	return name, true
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// runeWindowBefore returns up to n characters of text ending at byte offset end
func runeWindowBefore(text string, end, n int) string {
	start := end
	for i := 0; i < n && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	return text[start:end]
}

// runeWindowAfter returns up to n characters of text starting at byte offset start
func runeWindowAfter(text string, start, n int) string {
	end := start
	for i := 0; i < n && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
