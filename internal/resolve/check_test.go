package resolve

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

func TestHasJudgmentContent(t *testing.T) {
	longBailii := bailiiJudgment("Smith v Jones")

	tests := []struct {
		name     string
		source   string
		url      string
		body     string
		expected bool
	}{
		{"bailii judgment", model.SourceBailii, "https://www.bailii.org/uk/cases/UKSC/2020/5.html", longBailii, true},
		{"bailii error page", model.SourceBailii, "https://www.bailii.org/x.html", "<title>Page Not Found</title>" + longBailii, false},
		{"bailii too short", model.SourceBailii, "https://www.bailii.org/x.html", "<p>judgment court appeal</p>", false},
		{"bailii no legal words", model.SourceBailii, "https://www.bailii.org/x.html", strings.Repeat("lorem ipsum ", 400), false},
		{"bailii error phrase late in page", model.SourceBailii, "https://www.bailii.org/x.html", longBailii + "page not found", true},
		{"fcl judgment", model.SourceFindCaseLaw, "https://caselaw.nationalarchives.gov.uk/uksc/2020/5", fclJudgment("Smith v Jones"), true},
		{"fcl not found", model.SourceFindCaseLaw, "https://caselaw.nationalarchives.gov.uk/uksc/2020/5", "<h1>Page not found</h1>" + fclJudgment("x"), false},
		{"fcl too short", model.SourceFindCaseLaw, "https://caselaw.nationalarchives.gov.uk/uksc/2020/5", "<p>Judgment</p>", false},
		{"fcl akoma ntoso", model.SourceFindCaseLaw, "https://caselaw.nationalarchives.gov.uk/uksc/2020/5/data.xml", "<akomaNtoso><judgment/></akomaNtoso>", true},
		{"fcl xml without judgment", model.SourceFindCaseLaw, "https://caselaw.nationalarchives.gov.uk/uksc/2020/5/data.xml", "<error>missing</error>", false},
		{"other source", "", "https://www.legislation.gov.uk/ukpga/2015/15", "short", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasJudgmentContent(tt.source, tt.url, tt.body); got != tt.expected {
				t.Errorf("hasJudgmentContent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		body     string
		expected string
	}{
		{"<html><head><title>Smith v Jones [2020] UKSC 5 (12 March 2020)</title></head></html>", "Smith v Jones [2020] UKSC 5 (12 March 2020)"},
		{"<title>\n  Caparo &amp; Dickman\n</title>", "Caparo & Dickman"},
		{"<html><body>no title</body></html>", ""},
		{strings.Repeat(" ", 6000) + "<title>too late</title>", ""},
	}
	for _, tt := range tests {
		if got := extractTitle(tt.body); got != tt.expected {
			t.Errorf("extractTitle() = %q, want %q", got, tt.expected)
		}
	}
}

func TestSourceFor(t *testing.T) {
	c := NewClient(model.DefaultConfig())

	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.bailii.org/uk/cases/UKSC/2020/5.html", model.SourceBailii},
		{"https://bailii.org/uk/cases/UKSC/2020/5.html", model.SourceBailii},
		{"https://caselaw.nationalarchives.gov.uk/uksc/2020/5", model.SourceFindCaseLaw},
		{"https://www.legislation.gov.uk/ukpga/2015/15", ""},
		{"::bad", ""},
	}
	for _, tt := range tests {
		if got := c.SourceFor(tt.url); got != tt.expected {
			t.Errorf("SourceFor(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}

func TestClient_CheckURLs(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uk/cases/UKSC/2020/5.html":
			_, _ = w.Write([]byte(bailiiJudgment("Smith v Jones")))
		case "/uk/cases/UKSC/2020/6.html":
			_, _ = w.Write([]byte("<html><title>Error 404</title>Sorry</html>"))
		default:
			http.NotFound(w, r)
		}
	})
	c := NewClient(testConfig(bailii.URL, "http://127.0.0.1:1"))

	results, err := c.CheckURLs(context.Background(), []string{
		bailii.URL + "/uk/cases/UKSC/2020/5.html",
		bailii.URL + "/uk/cases/UKSC/2020/6.html",
		bailii.URL + "/uk/cases/UKSC/2020/7.html",
		"https://example.com/judgment",
	})
	if err != nil {
		t.Fatalf("CheckURLs failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	if !results[0].Exists || results[0].Title == nil || *results[0].Title != "Smith v Jones" {
		t.Errorf("expected real judgment with title, got %+v", results[0])
	}
	if results[1].Exists || results[1].StatusCode != http.StatusNotFound {
		t.Errorf("expected soft 404 to be reported as 404, got %+v", results[1])
	}
	if results[2].Exists || results[2].StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %+v", results[2])
	}
	if results[3].Exists || results[3].StatusCode != http.StatusForbidden {
		t.Errorf("expected disallowed domain to be reported as 403, got %+v", results[3])
	}
}

func TestClient_FetchJudgment(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(bailiiJudgment("Donoghue v Stevenson")))
	})
	c := NewClient(testConfig(bailii.URL, ""))

	judgment, err := c.FetchJudgment(context.Background(), bailii.URL+"/uk/cases/UKHL/1932/100.html")
	if err != nil {
		t.Fatalf("FetchJudgment failed: %v", err)
	}
	if !judgment.OK {
		t.Error("expected OK judgment")
	}
	if judgment.Title == nil || *judgment.Title != "Donoghue v Stevenson" {
		t.Errorf("unexpected title %v", judgment.Title)
	}
	if !strings.HasPrefix(judgment.ContentType, "text/html") {
		t.Errorf("unexpected content type %q", judgment.ContentType)
	}
	if !strings.Contains(judgment.Content, "appellant") {
		t.Error("expected judgment content")
	}

	_, err = c.FetchJudgment(context.Background(), "https://example.com/judgment")
	if !errors.Is(err, ErrDomainNotAllowed) {
		t.Errorf("expected ErrDomainNotAllowed, got %v", err)
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var attempts atomic.Int32
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	c := NewClient(testConfig(bailii.URL, ""))

	resp, err := c.Get(context.Background(), bailii.URL+"/anything")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK || attempts.Load() != 3 {
		t.Errorf("expected success on third attempt, got %d after %d attempts", resp.StatusCode, attempts.Load())
	}
}

func TestClient_BackoffStopsOnCancel(t *testing.T) {
	var attempts atomic.Int32
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c := NewClient(testConfig(bailii.URL, ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the backoff never elapses, so only cancellation can end the wait
	fetchSleepFunc = func(time.Duration) <-chan time.Time {
		cancel()
		return make(chan time.Time)
	}
	t.Cleanup(func() { fetchSleepFunc = noWait })

	resp, err := c.Get(ctx, bailii.URL+"/slow")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got resp=%v err=%v", resp, err)
	}
	if attempts.Load() != 1 {
		t.Errorf("expected no attempts after cancellation, got %d", attempts.Load())
	}
}

func TestClient_DoesNotRetryNotFound(t *testing.T) {
	var attempts atomic.Int32
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.NotFound(w, r)
	})
	c := NewClient(testConfig(bailii.URL, ""))

	resp, err := c.Get(context.Background(), bailii.URL+"/missing")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound || attempts.Load() != 1 {
		t.Errorf("expected a single 404, got %d after %d attempts", resp.StatusCode, attempts.Load())
	}
}

func TestClient_GetNoRedirect(t *testing.T) {
	bailii := newFakeSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/target", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("target"))
	})
	c := NewClient(testConfig(bailii.URL, ""))

	resp, err := c.GetNoRedirect(context.Background(), bailii.URL+"/start")
	if err != nil {
		t.Fatalf("GetNoRedirect failed: %v", err)
	}
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/target" {
		t.Errorf("expected raw redirect, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, err = c.Get(context.Background(), bailii.URL+"/start")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if resp.Body != "target" || !strings.HasSuffix(resp.FinalURL, "/target") {
		t.Errorf("expected redirect to be followed, got %q at %s", resp.Body, resp.FinalURL)
	}
}

func TestIsRetryableNetworkError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{errors.New("dial tcp: connection refused"), true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("Client.Timeout exceeded while awaiting headers"), true},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{errors.New("tls: bad certificate"), false},
	}
	for _, tt := range tests {
		if got := isRetryableNetworkError(tt.err); got != tt.expected {
			t.Errorf("isRetryableNetworkError(%v) = %v, want %v", tt.err, got, tt.expected)
		}
	}
}
