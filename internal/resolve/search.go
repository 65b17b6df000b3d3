package resolve

import (
	"context"
	"encoding/xml"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/citecheck/internal/model"
)

const (
	methodNeutralBailii  = "neutral_citation_bailii"
	methodNeutralFCL     = "neutral_citation_fcl"
	methodCitationFinder = "bailii_citation_finder"
	methodTitleSearch    = "bailii_title_search"
	methodAtomSearch     = "fcl_atom_search"
	methodFullText       = "bailii_fulltext_search"
)

const (
	titleSearchMask = "uk/cases+ew/cases+scot/cases+nie/cases+ie/cases"
	fullTextMask    = "uk/cases+ew/cases+scot/cases+nie/cases"
	minLinkTitleLen = 5
)

var (
	bailiiCasePath     = regexp.MustCompile(`^/(?:[a-z]{2}|scot|nie)/cases/[^"]+\.html$`)
	totalResultsMarker = regexp.MustCompile(`Total results:\s*(\d+)`)
)

var navigationLinks = map[string]bool{
	"next": true, "previous": true, "back": true, "home": true,
}

// findByCitation asks BAILII's citation finder, which redirects known citations to the judgment
func (r *HTTPResolver) findByCitation(ctx context.Context, l *lookup, citation string) *model.ResolvedCandidate {
	finder := r.bailiiBase + "/cgi-bin/find_by_citation.cgi?citation=" + url.QueryEscape(citation)

	resp, err := l.get(ctx, finder, false)
	if err != nil {
		return nil
	}
	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
	default:
		return nil
	}

	location := resp.Header.Get("Location")
	switch {
	case strings.HasPrefix(location, "/"):
		location = r.bailiiBase + location
	case strings.HasPrefix(location, "http"):
	default:
		return nil
	}

	return &model.ResolvedCandidate{
		URL:              location,
		Source:           model.SourceBailii,
		Confidence:       0.95,
		ResolutionMethod: methodCitationFinder,
	}
}

// searchBailiiTitles runs a BAILII case title search for terms
func (r *HTTPResolver) searchBailiiTitles(ctx context.Context, l *lookup, terms []string) []model.ResolvedCandidate {
	query := r.bailiiBase + "/cgi-bin/lucy_search_1.cgi?querytitle=" + joinEscaped(terms, "+") +
		"&mask_path=" + titleSearchMask

	doc, ok := r.fetchHTML(ctx, l, query)
	if !ok {
		return nil
	}

	if m := totalResultsMarker.FindStringSubmatch(nodeText(doc)); m == nil {
		return nil
	} else if n, _ := strconv.Atoi(m[1]); n == 0 {
		return nil
	}

	links := bailiiCaseLinks(doc)
	var results []model.ResolvedCandidate
	for _, link := range links {
		if len([]rune(link.text)) < minLinkTitleLen || navigationLinks[strings.ToLower(link.text)] {
			continue
		}
		results = appendUnique(results, model.ResolvedCandidate{
			URL:              r.bailiiBase + link.path,
			Source:           model.SourceBailii,
			Confidence:       0.80,
			Title:            model.StringPtr(link.text),
			ResolutionMethod: methodTitleSearch,
		})
		if len(results) >= r.maxCandidates {
			return results
		}
	}

	// result pages without usable link text still point at the right judgments
	if len(results) == 0 {
		for _, link := range links {
			results = appendUnique(results, model.ResolvedCandidate{
				URL:              r.bailiiBase + link.path,
				Source:           model.SourceBailii,
				Confidence:       0.70,
				ResolutionMethod: methodTitleSearch,
			})
			if len(results) >= r.maxCandidates {
				break
			}
		}
	}
	return results
}

// searchBailiiFullText runs a boolean AND full-text search over BAILII
func (r *HTTPResolver) searchBailiiFullText(ctx context.Context, l *lookup, query string) []model.ResolvedCandidate {
	search := r.bailiiBase + "/cgi-bin/lucy_search_1.cgi?query=" + joinEscaped(strings.Fields(query), "+AND+") +
		"&mask_path=" + fullTextMask + "&method=boolean&sort=rank"

	doc, ok := r.fetchHTML(ctx, l, search)
	if !ok {
		return nil
	}

	var results []model.ResolvedCandidate
	for _, link := range bailiiCaseLinks(doc) {
		results = appendUnique(results, model.ResolvedCandidate{
			URL:              r.bailiiBase + link.path,
			Source:           model.SourceBailii,
			Confidence:       0.60,
			ResolutionMethod: methodFullText,
		})
		if len(results) >= r.maxCandidates {
			break
		}
	}
	return results
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title string     `xml:"title"`
	ID    string     `xml:"id"`
	Links []atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// searchFindCaseLaw queries the Find Case Law Atom feed
func (r *HTTPResolver) searchFindCaseLaw(ctx context.Context, l *lookup, query string) []model.ResolvedCandidate {
	feedURL := r.fclBase + "/atom.xml?query=" + url.QueryEscape(query) + "&per_page=" + strconv.Itoa(r.maxCandidates)

	resp, err := l.get(ctx, feedURL, true)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil
	}

	var feed atomFeed
	if err := xml.Unmarshal([]byte(resp.Body), &feed); err != nil {
		l.logf("  → Unreadable FCL feed: %v", err)
		return nil
	}

	var results []model.ResolvedCandidate
	for _, entry := range feed.Entries {
		caseURL := r.entryURL(entry)
		if caseURL == "" {
			continue
		}
		results = appendUnique(results, model.ResolvedCandidate{
			URL:              caseURL,
			Source:           model.SourceFindCaseLaw,
			Confidence:       0.75,
			Title:            model.StringPtr(strings.Join(strings.Fields(entry.Title), " ")),
			ResolutionMethod: methodAtomSearch,
		})
		if len(results) >= r.maxCandidates {
			break
		}
	}
	return results
}

// entryURL prefers the judgment's HTML link, then any link on the source, then the entry id
func (r *HTTPResolver) entryURL(entry atomEntry) string {
	onSource := func(u string) bool { return strings.HasPrefix(u, r.fclBase+"/") }

	fallback := ""
	for _, link := range entry.Links {
		if !onSource(link.Href) {
			continue
		}
		if link.Type == "" || strings.HasPrefix(link.Type, "text/html") {
			return link.Href
		}
		if fallback == "" {
			fallback = link.Href
		}
	}
	if fallback != "" {
		return fallback
	}
	if id := strings.TrimSpace(entry.ID); onSource(id) {
		return id
	}
	return ""
}

func (r *HTTPResolver) fetchHTML(ctx context.Context, l *lookup, rawURL string) (*html.Node, bool) {
	resp, err := l.get(ctx, rawURL, true)
	if err != nil || resp.StatusCode != http.StatusOK {
		return nil, false
	}
	doc, err := html.Parse(strings.NewReader(resp.Body))
	if err != nil {
		return nil, false
	}
	return doc, true
}

type caseLink struct {
	path string
	text string
}

// bailiiCaseLinks lists links to BAILII judgment pages in document order
func bailiiCaseLinks(doc *html.Node) []caseLink {
	var links []caseLink
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" && bailiiCasePath.MatchString(attr.Val) {
					links = append(links, caseLink{path: attr.Val, text: nodeText(n)})
					break
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

// nodeText returns the whitespace-collapsed text under n
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func joinEscaped(terms []string, sep string) string {
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = url.QueryEscape(t)
	}
	return strings.Join(escaped, sep)
}

// appendUnique appends c unless a candidate with the same URL is present
func appendUnique(candidates []model.ResolvedCandidate, c model.ResolvedCandidate) []model.ResolvedCandidate {
	for _, existing := range candidates {
		if existing.URL == c.URL {
			return candidates
		}
	}
	return append(candidates, c)
}
