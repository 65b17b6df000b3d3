package resolve

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ppiankov/citecheck/internal/logger"
	"github.com/ppiankov/citecheck/internal/model"
)

// HTTPResolver resolves citations against BAILII and Find Case Law, trying
// cheap exact strategies before wider searches and stopping at the first
// strategy that yields candidates.
type HTTPResolver struct {
	client        *Client
	bailiiBase    string
	fclBase       string
	maxCandidates int
}

// NewHTTPResolver creates a resolver from configuration
func NewHTTPResolver(cfg *model.Config) *HTTPResolver {
	maxCandidates := cfg.Resolver.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	return &HTTPResolver{
		client:        NewClient(cfg),
		bailiiBase:    strings.TrimRight(cfg.Resolver.BailiiBaseURL, "/"),
		fclBase:       strings.TrimRight(cfg.Resolver.FindCaseLawBaseURL, "/"),
		maxCandidates: maxCandidates,
	}
}

// Client exposes the underlying HTTP client for URL checks and judgment fetches
func (r *HTTPResolver) Client() *Client {
	return r.client
}

// lookup tracks one resolution attempt
type lookup struct {
	client   *Client
	log      []string
	requests int
	failures int
	lastErr  error
}

func (l *lookup) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.log = append(l.log, msg)
	logger.Debug("%s", strings.TrimSpace(msg))
}

// record counts a request, treating transport errors and server-side failures alike
func (l *lookup) record(status int, err error) {
	l.requests++
	switch {
	case err != nil:
		l.failures++
		l.lastErr = err
	case status >= 500 || status == http.StatusTooManyRequests:
		l.failures++
		l.lastErr = fmt.Errorf("server returned %d", status)
	}
}

func (l *lookup) get(ctx context.Context, rawURL string, followRedirects bool) (*Response, error) {
	resp, err := l.client.get(ctx, rawURL, followRedirects)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	l.record(status, err)
	if err != nil {
		logger.Warn("request failed: %v", err)
	}
	return resp, err
}

func (l *lookup) check(ctx context.Context, rawURL string) model.URLCheckResult {
	result, err := l.client.CheckURL(ctx, rawURL)
	l.record(result.StatusCode, err)
	return result
}

// allFailed reports whether every request failed, so no answer was ever received
func (l *lookup) allFailed() bool {
	return l.requests > 0 && l.failures == l.requests
}

// Resolve runs the strategy cascade for one citation
func (r *HTTPResolver) Resolve(ctx context.Context, citation string, caseName *string) (*model.CitationResolution, error) {
	l := &lookup{client: r.client}

	name := ""
	if caseName != nil {
		name = strings.TrimSpace(*caseName)
	}
	if name == "" {
		name = nameFromCitation(citation)
	}

	var candidates []model.ResolvedCandidate
	finish := func() (*model.CitationResolution, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(candidates) == 0 && l.allFailed() {
			return nil, fmt.Errorf("resolve %s: %w: %w", citation, ErrAllRequestsFailed, l.lastErr)
		}
		status := model.ResolutionUnresolvable
		if len(candidates) > 0 {
			status = model.ResolutionResolved
		}
		return &model.CitationResolution{
			Citation:    citation,
			CaseName:    model.StringPtr(name),
			Candidates:  candidates,
			Status:      status,
			AttemptsLog: l.log,
		}, nil
	}
	merge := func(found []model.ResolvedCandidate) {
		for _, c := range found {
			candidates = appendUnique(candidates, c)
		}
	}

	// Strategy 1: construct the judgment address from a neutral citation
	if neutral, ok := ParseNeutral(citation); ok {
		l.logf("Strategy 1: Neutral citation matched (%s)", neutral.Court)

		for _, direct := range []struct {
			url, source, method string
			confidence          float64
		}{
			{neutral.BailiiURL(r.bailiiBase), model.SourceBailii, methodNeutralBailii, 0.95},
			{neutral.FindCaseLawURL(r.fclBase), model.SourceFindCaseLaw, methodNeutralFCL, 0.90},
		} {
			check := l.check(ctx, direct.url)
			if !check.Exists {
				l.logf("  → %s URL not found: %s", sourceLabel(direct.source), direct.url)
				continue
			}
			candidates = append(candidates, model.ResolvedCandidate{
				URL:              direct.url,
				Source:           direct.source,
				Confidence:       direct.confidence,
				Title:            check.Title,
				ResolutionMethod: direct.method,
			})
			l.logf("  → %s URL verified: %s", sourceLabel(direct.source), direct.url)
		}
		if len(candidates) > 0 || ctx.Err() != nil {
			return finish()
		}
	}

	// Strategy 2: BAILII's citation finder redirects recognised citations
	l.logf("Strategy 2: BAILII citation finder")
	if found := r.findByCitation(ctx, l, citation); found != nil {
		l.logf("  → Found via redirect: %s", found.URL)
		candidates = append(candidates, *found)
		return finish()
	}
	l.logf("  → No redirect (citation not recognised)")
	if ctx.Err() != nil {
		return finish()
	}

	terms := PartySearchTerms(name)

	// Strategy 3: BAILII case title search by party names
	if len(terms) > 0 {
		l.logf("Strategy 3: BAILII title search for: %s", strings.Join(terms, " "))
		if found := r.searchBailiiTitles(ctx, l, terms); len(found) > 0 {
			l.logf("  → Found %d result(s)", len(found))
			merge(found)
			return finish()
		}
		l.logf("  → No title search results")
		if ctx.Err() != nil {
			return finish()
		}
	}

	// Strategy 4: Find Case Law search by party names
	if len(terms) > 0 {
		query := strings.Join(terms, " ")
		l.logf("Strategy 4: FCL Atom search for: %s", query)
		if found := r.searchFindCaseLaw(ctx, l, query); len(found) > 0 {
			l.logf("  → Found %d FCL result(s)", len(found))
			merge(found)
			return finish()
		}
		l.logf("  → No FCL results")
		if ctx.Err() != nil {
			return finish()
		}
	}

	// Strategy 4b: without a name the citation text is the only handle
	if name == "" {
		l.logf("Strategy 4b: FCL search by citation text")
		if found := r.searchFindCaseLaw(ctx, l, citation); len(found) > 0 {
			l.logf("  → Found %d FCL result(s)", len(found))
			merge(found)
			adjustForYear(candidates, citation)
			return finish()
		}
		l.logf("  → No FCL results")
		if ctx.Err() != nil {
			return finish()
		}
	}

	// Strategy 5: BAILII full-text search, the widest net
	query := citation
	if len(terms) > 0 {
		query = strings.Join(terms, " ")
		if year := citationYear(citation); year != "" {
			query += " " + year
		}
	}
	l.logf("Strategy 5: BAILII full-text search for: %s", query)
	if found := r.searchBailiiFullText(ctx, l, query); len(found) > 0 {
		l.logf("  → Found %d full-text result(s)", len(found))
		merge(found)
	} else {
		l.logf("  → No full-text results")
	}

	adjustForYear(candidates, citation)
	return finish()
}

// SearchBailii runs a BAILII case title search for free text
func (r *HTTPResolver) SearchBailii(ctx context.Context, query string) ([]model.ResolvedCandidate, error) {
	l := &lookup{client: r.client}
	found := r.searchBailiiTitles(ctx, l, strings.Fields(query))
	return searchOutcome(ctx, l, found)
}

// SearchFindCaseLaw runs a Find Case Law feed search for free text
func (r *HTTPResolver) SearchFindCaseLaw(ctx context.Context, query string) ([]model.ResolvedCandidate, error) {
	l := &lookup{client: r.client}
	found := r.searchFindCaseLaw(ctx, l, query)
	return searchOutcome(ctx, l, found)
}

func searchOutcome(ctx context.Context, l *lookup, found []model.ResolvedCandidate) ([]model.ResolvedCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.allFailed() {
		return nil, fmt.Errorf("search: %w: %w", ErrAllRequestsFailed, l.lastErr)
	}
	if found == nil {
		found = []model.ResolvedCandidate{}
	}
	return found, nil
}

func sourceLabel(source string) string {
	if source == model.SourceFindCaseLaw {
		return "FCL"
	}
	return "BAILII"
}
