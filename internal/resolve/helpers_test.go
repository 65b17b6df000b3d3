package resolve

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

func init() {
	// Disable retry sleep in all tests for fast execution
	fetchSleepFunc = noWait
}

func noWait(time.Duration) <-chan time.Time {
	ch := make(chan time.Time)
	close(ch)
	return ch
}

func testConfig(bailiiURL, fclURL string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.AllowedDomains = []string{"127.0.0.1"}
	cfg.HTTP.RespectRobots = false
	cfg.RateLimiting.RequestsPerSecond = 0
	cfg.Resolver.BailiiBaseURL = bailiiURL
	cfg.Resolver.FindCaseLawBaseURL = fclURL
	return cfg
}

// bailiiJudgment renders a page that passes BAILII content checks
func bailiiJudgment(title string) string {
	body := strings.Repeat("<p>The appellant appealed. The court held that the respondent must pay. Judgment of the Justice.</p>\n", 40)
	return fmt.Sprintf("<html><head><title>%s</title></head><body>%s</body></html>", title, body)
}

// fclJudgment renders a page that passes Find Case Law content checks
func fclJudgment(title string) string {
	body := strings.Repeat("<p>Judgment handed down remotely by circulation to the parties.</p>\n", 100)
	return fmt.Sprintf("<html><head><title>%s</title></head><body>%s</body></html>", title, body)
}

// fakeSource is a test server recording the requests it receives
type fakeSource struct {
	*httptest.Server
	mu       sync.Mutex
	requests []string
}

func newFakeSource(t *testing.T, handler http.HandlerFunc) *fakeSource {
	t.Helper()
	f := &fakeSource{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.URL.RequestURI())
		f.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSource) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func (f *fakeSource) requested(prefix string) bool {
	for _, r := range f.Requests() {
		if strings.HasPrefix(r, prefix) {
			return true
		}
	}
	return false
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.NotFound(w, r)
}

func logContains(log []string, substr string) bool {
	for _, line := range log {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}
