package resolve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/ppiankov/citecheck/internal/model"
)

func strPtr(s string) *string { return &s }

func atomFeedXML(entries ...string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Search results</title>` + strings.Join(entries, "") + `</feed>`
}

func atomEntryXML(title, htmlURL, xmlURL string) string {
	return fmt.Sprintf(`<entry><title>%s</title>
<link rel="alternate" type="application/akn+xml" href="%s"/>
<link rel="alternate" href="%s"/>
<id>%s</id></entry>`, title, xmlURL, htmlURL, htmlURL)
}

func TestResolve_NeutralDirectURLs(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/uk/cases/UKSC/2020/5.html" {
			_, _ = w.Write([]byte(bailiiJudgment("Smith v Jones [2020] UKSC 5")))
			return
		}
		http.NotFound(w, r)
	})
	fcl := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/uksc/2020/5" {
			_, _ = w.Write([]byte(fclJudgment("Smith v Jones - Find Case Law")))
			return
		}
		http.NotFound(w, r)
	})
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[2020] UKSC 5", strPtr("Smith v Jones"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if res.Status != model.ResolutionResolved {
		t.Fatalf("expected resolved, got %s", res.Status)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}

	b := res.Candidates[0]
	if b.URL != bailii.URL+"/uk/cases/UKSC/2020/5.html" || b.Source != model.SourceBailii ||
		b.Confidence != 0.95 || b.ResolutionMethod != "neutral_citation_bailii" {
		t.Errorf("unexpected BAILII candidate %+v", b)
	}
	if b.Title == nil || *b.Title != "Smith v Jones [2020] UKSC 5" {
		t.Errorf("expected BAILII title, got %v", b.Title)
	}

	f := res.Candidates[1]
	if f.URL != fcl.URL+"/uksc/2020/5" || f.Source != model.SourceFindCaseLaw ||
		f.Confidence != 0.90 || f.ResolutionMethod != "neutral_citation_fcl" {
		t.Errorf("unexpected FCL candidate %+v", f)
	}

	if !logContains(res.AttemptsLog, "Strategy 1: Neutral citation matched (UKSC)") {
		t.Errorf("expected strategy 1 in log: %v", res.AttemptsLog)
	}
	if logContains(res.AttemptsLog, "Strategy 2") {
		t.Error("expected the cascade to stop after strategy 1")
	}
	if res.CaseName == nil || *res.CaseName != "Smith v Jones" {
		t.Errorf("expected case name to be echoed, got %v", res.CaseName)
	}
}

func TestResolve_CitationFinderRedirect(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cgi-bin/find_by_citation.cgi" {
			if r.URL.Query().Get("citation") != "[1932] AC 562" {
				t.Errorf("unexpected citation query %q", r.URL.Query().Get("citation"))
			}
			w.Header().Set("Location", "/uk/cases/UKHL/1932/100.html")
			w.WriteHeader(http.StatusFound)
			return
		}
		t.Errorf("unexpected request %s", r.URL)
		http.NotFound(w, r)
	})
	fcl := newFakeSource(t, notFound)
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[1932] AC 562", strPtr("Donoghue v Stevenson"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Status != model.ResolutionResolved || len(res.Candidates) != 1 {
		t.Fatalf("expected one resolved candidate, got %+v", res)
	}

	c := res.Candidates[0]
	if c.URL != bailii.URL+"/uk/cases/UKHL/1932/100.html" || c.Confidence != 0.95 || c.ResolutionMethod != "bailii_citation_finder" {
		t.Errorf("unexpected candidate %+v", c)
	}
	if logContains(res.AttemptsLog, "Strategy 1") {
		t.Error("expected no direct URL attempt for a report citation")
	}
	if len(fcl.Requests()) != 0 {
		t.Errorf("expected no FCL requests, got %v", fcl.Requests())
	}
}

func TestResolve_TitleSearch(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cgi-bin/find_by_citation.cgi":
			_, _ = w.Write([]byte("<html>Citation not recognised</html>"))
		case r.URL.Path == "/cgi-bin/lucy_search_1.cgi" && r.URL.Query().Get("querytitle") != "":
			if got := r.URL.Query().Get("querytitle"); got != "donoghue stevenson" {
				t.Errorf("unexpected title query %q", got)
			}
			if got := r.URL.Query().Get("mask_path"); got != "uk/cases ew/cases scot/cases nie/cases ie/cases" {
				t.Errorf("unexpected mask path %q", got)
			}
			_, _ = w.Write([]byte(`<html><body><p>Total results: <b>3</b></p><ol>
<li><a href="/uk/cases/UKHL/1932/100.html">Donoghue v Stevenson [1932] UKHL 100 (26 May 1932)</a></li>
<li><a href="/scot/cases/ScotCS/1931/1.html"><i>M'Alister (or Donoghue) v Stevenson</i></a></li>
<li><a href="/uk/cases/UKHL/1932/101.html">Next</a></li>
</ol></body></html>`))
		default:
			t.Errorf("unexpected request %s", r.URL)
			http.NotFound(w, r)
		}
	})
	fcl := newFakeSource(t, notFound)
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[1932] AC 562", strPtr("Donoghue v Stevenson"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates (navigation link skipped), got %+v", res.Candidates)
	}

	first := res.Candidates[0]
	if first.URL != bailii.URL+"/uk/cases/UKHL/1932/100.html" || first.Confidence != 0.80 ||
		first.ResolutionMethod != "bailii_title_search" {
		t.Errorf("unexpected first candidate %+v", first)
	}
	if first.Title == nil || *first.Title != "Donoghue v Stevenson [1932] UKHL 100 (26 May 1932)" {
		t.Errorf("unexpected title %v", first.Title)
	}
	if second := res.Candidates[1]; second.Title == nil || *second.Title != "M'Alister (or Donoghue) v Stevenson" {
		t.Errorf("expected nested link text as title, got %v", second.Title)
	}
	if !logContains(res.AttemptsLog, "Strategy 3: BAILII title search for: donoghue stevenson") {
		t.Errorf("expected strategy 3 in log: %v", res.AttemptsLog)
	}
}

func TestResolve_TitleSearchWithoutLinkText(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("querytitle") != "" {
			_, _ = w.Write([]byte(`<p>Total results: 2</p>
<a href="/ew/cases/EWCA/Civ/2003/320.html">1</a>
<a href="/ew/cases/EWCA/Civ/2003/320.html">2</a>
<a href="/ew/cases/EWHC/QB/2002/9.html"><img src="x.gif"></a>`))
			return
		}
		_, _ = w.Write([]byte("no match"))
	})
	fcl := newFakeSource(t, notFound)
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[2003] 1 WLR 1", strPtr("Clegg v Olle Andersson"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 deduplicated candidates, got %+v", res.Candidates)
	}
	for _, c := range res.Candidates {
		if c.Confidence != 0.70 || c.Title != nil {
			t.Errorf("expected untitled 0.70 candidate, got %+v", c)
		}
	}
}

func TestResolve_TitleSearchNoResults(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		// links on a page reporting zero results are site navigation
		_, _ = w.Write([]byte(`<p>Total results: 0</p><a href="/uk/cases/UKSC/2020/1.html">Recent judgment here</a>`))
	})
	fcl := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(atomFeedXML()))
	})
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[2019] 2 All ER 1", strPtr("Fabricated v Imaginary"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !logContains(res.AttemptsLog, "No title search results") {
		t.Errorf("expected empty title search in log: %v", res.AttemptsLog)
	}
}

func TestResolve_FindCaseLawSearch(t *testing.T) {
	var fclURL string
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>Total results: 0</p>"))
	})
	fcl := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/atom.xml" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("query"); got != "patel mirza" {
			t.Errorf("unexpected FCL query %q", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "5" {
			t.Errorf("unexpected per_page %q", got)
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomFeedXML(
			atomEntryXML("Patel v Mirza &amp; Another", fclURL+"/uksc/2016/42", fclURL+"/uksc/2016/42/data.xml"),
			`<entry><title>Elsewhere</title><link href="https://example.com/x"/><id>urn:x</id></entry>`,
		)))
	})
	fclURL = fcl.URL
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[2016] 3 WLR 399", strPtr("Patel v Mirza"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %+v", res.Candidates)
	}

	c := res.Candidates[0]
	if c.URL != fcl.URL+"/uksc/2016/42" || c.Source != model.SourceFindCaseLaw ||
		c.Confidence != 0.75 || c.ResolutionMethod != "fcl_atom_search" {
		t.Errorf("unexpected candidate %+v", c)
	}
	if c.Title == nil || *c.Title != "Patel v Mirza & Another" {
		t.Errorf("unexpected title %v", c.Title)
	}
	if logContains(res.AttemptsLog, "Strategy 5") {
		t.Error("expected the cascade to stop after strategy 4")
	}
}

func TestResolve_FindCaseLawByCitationText(t *testing.T) {
	var fclURL string
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("querytitle") != "" {
			t.Error("expected no title search without a case name")
		}
		_, _ = w.Write([]byte("nothing"))
	})
	fcl := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/atom.xml" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("query"); got != "[2020] UKSC 5" {
			t.Errorf("expected citation text query, got %q", got)
		}
		_, _ = w.Write([]byte(atomFeedXML(
			atomEntryXML("Older case", fclURL+"/ewca/civ/2019/3", fclURL+"/ewca/civ/2019/3/data.xml"),
			atomEntryXML("Right case", fclURL+"/uksc/2020/5", fclURL+"/uksc/2020/5/data.xml"),
		)))
	})
	fclURL = fcl.URL
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[2020] UKSC 5", nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !logContains(res.AttemptsLog, "Strategy 4b") {
		t.Errorf("expected strategy 4b in log: %v", res.AttemptsLog)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", res.Candidates)
	}

	if res.Candidates[0].URL != fcl.URL+"/uksc/2020/5" || math.Abs(res.Candidates[0].Confidence-0.95) > 1e-9 {
		t.Errorf("expected year-matching candidate first at 0.95, got %+v", res.Candidates[0])
	}
	if math.Abs(res.Candidates[1].Confidence-0.225) > 1e-9 {
		t.Errorf("expected wrong-year candidate penalised to 0.225, got %+v", res.Candidates[1])
	}
	if res.CaseName != nil {
		t.Errorf("expected no case name, got %q", *res.CaseName)
	}
}

func TestResolve_FullTextSearch(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("querytitle") != "":
			_, _ = w.Write([]byte("<p>Total results: 0</p>"))
		case q.Get("query") != "":
			if got := q.Get("query"); got != "clegg olle andersson AND 2003" && got != "clegg AND olle AND andersson AND 2003" {
				t.Errorf("unexpected full-text query %q", got)
			}
			if q.Get("method") != "boolean" || q.Get("sort") != "rank" {
				t.Errorf("unexpected search options %v", q)
			}
			_, _ = w.Write([]byte(`<a href="/ew/cases/EWCA/Civ/2002/1.html">x</a>
<a href="/ew/cases/EWCA/Civ/2003/320.html">y</a>
<a href="/ew/cases/EWCA/Civ/2003/320.html">y again</a>
<a href="/about.html">about</a>`))
		default:
			_, _ = w.Write([]byte("nothing"))
		}
	})
	fcl := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(atomFeedXML()))
	})
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[2003] 1 All ER 1", strPtr("Clegg v Olle Andersson"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", res.Candidates)
	}
	if res.Candidates[0].URL != bailii.URL+"/ew/cases/EWCA/Civ/2003/320.html" {
		t.Errorf("expected year match ranked first, got %+v", res.Candidates[0])
	}
	if math.Abs(res.Candidates[0].Confidence-0.80) > 1e-9 || res.Candidates[0].ResolutionMethod != "bailii_fulltext_search" {
		t.Errorf("unexpected top candidate %+v", res.Candidates[0])
	}
	if math.Abs(res.Candidates[1].Confidence-0.18) > 1e-9 {
		t.Errorf("expected wrong-year candidate at 0.18, got %+v", res.Candidates[1])
	}
	if !logContains(res.AttemptsLog, "Strategy 5: BAILII full-text search for: clegg olle andersson 2003") {
		t.Errorf("expected strategy 5 in log: %v", res.AttemptsLog)
	}
}

func TestResolve_Unresolvable(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("querytitle") != "" {
			_, _ = w.Write([]byte("<p>Total results: 0</p>"))
			return
		}
		if r.URL.Query().Get("query") != "" {
			_, _ = w.Write([]byte("<p>No documents found</p>"))
			return
		}
		http.NotFound(w, r)
	})
	fcl := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/atom.xml" {
			_, _ = w.Write([]byte(atomFeedXML()))
			return
		}
		http.NotFound(w, r)
	})
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "[2021] UKSC 999", strPtr("Fabricated v Imaginary"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Status != model.ResolutionUnresolvable {
		t.Errorf("expected unresolvable, got %s", res.Status)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("expected no candidates, got %+v", res.Candidates)
	}
	for _, want := range []string{"Strategy 1", "Strategy 2", "Strategy 3", "Strategy 4:", "Strategy 5", "No full-text results"} {
		if !logContains(res.AttemptsLog, want) {
			t.Errorf("expected %q in attempts log: %v", want, res.AttemptsLog)
		}
	}
	if logContains(res.AttemptsLog, "Strategy 4b") {
		t.Error("expected 4b to be skipped when a case name is known")
	}
}

func TestResolve_AllRequestsFailed(t *testing.T) {
	down := newFakeSource(t, notFound)
	down.Close()
	resolver := NewHTTPResolver(testConfig(down.URL, down.URL))

	res, err := resolver.Resolve(context.Background(), "[2020] UKSC 5", strPtr("Smith v Jones"))
	if err == nil {
		t.Fatalf("expected an error when no source is reachable, got %+v", res)
	}
	if !errors.Is(err, ErrAllRequestsFailed) {
		t.Errorf("expected ErrAllRequestsFailed, got %v", err)
	}
}

func TestResolve_ServerErrorsAreFailures(t *testing.T) {
	broken := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	resolver := NewHTTPResolver(testConfig(broken.URL, broken.URL))

	_, err := resolver.Resolve(context.Background(), "[1932] AC 562", nil)
	if !errors.Is(err, ErrAllRequestsFailed) {
		t.Errorf("expected ErrAllRequestsFailed, got %v", err)
	}
}

func TestResolve_DomainNotAllowed(t *testing.T) {
	bailii := newFakeSource(t, notFound)
	cfg := testConfig(bailii.URL, bailii.URL)
	cfg.HTTP.AllowedDomains = []string{"bailii.org"}
	resolver := NewHTTPResolver(cfg)

	_, err := resolver.Resolve(context.Background(), "[2020] UKSC 5", nil)
	if !errors.Is(err, ErrDomainNotAllowed) || !errors.Is(err, ErrAllRequestsFailed) {
		t.Errorf("expected domain refusal to surface, got %v", err)
	}
	if len(bailii.Requests()) != 0 {
		t.Errorf("expected no requests to a disallowed host, got %v", bailii.Requests())
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	bailii := newFakeSource(t, notFound)
	resolver := NewHTTPResolver(testConfig(bailii.URL, bailii.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := resolver.Resolve(ctx, "[2020] UKSC 5", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestResolve_NameFromCitationText(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("querytitle"); got != "" && got != "caparo industries dickman" {
			t.Errorf("unexpected title query %q", got)
		}
		_, _ = w.Write([]byte("<p>Total results: 0</p>"))
	})
	fcl := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(atomFeedXML()))
	})
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	res, err := resolver.Resolve(context.Background(), "Caparo Industries plc v Dickman [1990] 2 AC 605", nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.CaseName == nil || *res.CaseName != "Caparo Industries plc v Dickman" {
		t.Errorf("expected case name recovered from citation text, got %v", res.CaseName)
	}
	if !bailii.requested("/cgi-bin/lucy_search_1.cgi?querytitle=") {
		t.Errorf("expected a title search, got %v", bailii.Requests())
	}
}

func TestSearchBailiiAndFindCaseLaw(t *testing.T) {
	var fclURL string
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>Total results: 1</p><a href="/uk/cases/UKSC/2016/42.html">Patel v Mirza [2016] UKSC 42</a>`))
	})
	fcl := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(atomFeedXML(atomEntryXML("Patel v Mirza", fclURL+"/uksc/2016/42", fclURL+"/uksc/2016/42/data.xml"))))
	})
	fclURL = fcl.URL
	resolver := NewHTTPResolver(testConfig(bailii.URL, fcl.URL))

	found, err := resolver.SearchBailii(context.Background(), "patel mirza")
	if err != nil || len(found) != 1 || found[0].Source != model.SourceBailii {
		t.Errorf("unexpected BAILII search result %+v (%v)", found, err)
	}

	found, err = resolver.SearchFindCaseLaw(context.Background(), "patel mirza")
	if err != nil || len(found) != 1 || found[0].Source != model.SourceFindCaseLaw {
		t.Errorf("unexpected FCL search result %+v (%v)", found, err)
	}

	down := newFakeSource(t, notFound)
	down.Close()
	offline := NewHTTPResolver(testConfig(down.URL, down.URL))
	if _, err := offline.SearchFindCaseLaw(context.Background(), "patel"); !errors.Is(err, ErrAllRequestsFailed) {
		t.Errorf("expected ErrAllRequestsFailed, got %v", err)
	}
}
