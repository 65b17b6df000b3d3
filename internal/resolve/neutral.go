package resolve

import (
	"regexp"
	"strings"
)

// neutralCourt maps a neutral citation code to its path on each source
type neutralCourt struct {
	code       string
	bailiiPath string
	fclPath    string
}

var neutralCourts = []neutralCourt{
	{"UKSC", "uk/cases/UKSC", "uksc"},
	{"UKHL", "uk/cases/UKHL", "ukhl"},
	{"UKPC", "uk/cases/UKPC", "ukpc"},
	{"EWCA Civ", "ew/cases/EWCA/Civ", "ewca/civ"},
	{"EWCA Crim", "ew/cases/EWCA/Crim", "ewca/crim"},
	{"EWHC", "ew/cases/EWHC", "ewhc"},
	{"EWCOP", "ew/cases/EWCOP", "ewcop"},
	{"EWFC", "ew/cases/EWFC", "ewfc"},
	{"UKUT", "uk/cases/UKUT", "ukut"},
	{"UKFTT", "uk/cases/UKFTT", "ukftt"},
	{"UKEAT", "uk/cases/UKEAT", "eat"},
}

var neutralCitationPattern = regexp.MustCompile(
	`(?i)^\[(\d{4})\]\s+(UKSC|UKHL|UKPC|EWCA\s+Civ|EWCA\s+Crim|EWHC|EWCOP|EWFC|UKUT|UKFTT|UKEAT)\s+(\d+)(?:\s+\(([A-Za-z]+)\))?`,
)

// NeutralCitation is a parsed "[YYYY] COURT N (Division)" citation
type NeutralCitation struct {
	Year     string
	Court    string
	Number   string
	Division string
}

// ParseNeutral parses a normalised neutral citation
func ParseNeutral(citation string) (NeutralCitation, bool) {
	m := neutralCitationPattern.FindStringSubmatch(strings.TrimSpace(citation))
	if m == nil {
		return NeutralCitation{}, false
	}
	return NeutralCitation{
		Year:     m[1],
		Court:    strings.ToUpper(strings.Join(strings.Fields(m[2]), " ")),
		Number:   m[3],
		Division: m[4],
	}, true
}

func (n NeutralCitation) court() (neutralCourt, bool) {
	for _, c := range neutralCourts {
		if strings.EqualFold(c.code, n.Court) {
			return c, true
		}
	}
	return neutralCourt{}, false
}

// BailiiURL builds the BAILII page address, e.g.
// https://www.bailii.org/ew/cases/EWHC/Ch/2020/1.html for "[2020] EWHC 1 (Ch)"
func (n NeutralCitation) BailiiURL(base string) string {
	c, ok := n.court()
	if !ok {
		return ""
	}
	path := c.bailiiPath
	if n.Division != "" {
		path += "/" + bailiiDivision(n.Division)
	}
	return strings.TrimRight(base, "/") + "/" + path + "/" + n.Year + "/" + n.Number + ".html"
}

// FindCaseLawURL builds the Find Case Law address, e.g.
// https://caselaw.nationalarchives.gov.uk/ewhc/ch/2020/1 for "[2020] EWHC 1 (Ch)"
func (n NeutralCitation) FindCaseLawURL(base string) string {
	c, ok := n.court()
	if !ok {
		return ""
	}
	path := c.fclPath
	if n.Division != "" {
		path += "/" + strings.ToLower(n.Division)
	}
	return strings.TrimRight(base, "/") + "/" + path + "/" + n.Year + "/" + n.Number
}

// BAILII capitalises division folders: Ch, QB, Admin, TCC, IAC
func bailiiDivision(div string) string {
	switch upper := strings.ToUpper(div); upper {
	case "QB", "KB", "TCC", "IPEC", "IAC", "AAC", "LC", "TC", "GRC", "SCCO":
		return upper
	default:
		return strings.ToUpper(div[:1]) + strings.ToLower(div[1:])
	}
}
