package netutil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestAllowlist_Allows(t *testing.T) {
	allow := NewAllowlist([]string{"bailii.org", " caselaw.nationalarchives.gov.uk ", ".legislation.gov.uk", ""})

	tests := []struct {
		url      string
		expected bool
	}{
		{"https://www.bailii.org/uk/cases/UKSC/2020/5.html", true},
		{"https://bailii.org/uk/cases/UKSC/2020/5.html", true},
		{"https://caselaw.nationalarchives.gov.uk/uksc/2020/5", true},
		{"https://www.legislation.gov.uk/ukpga/2015/15", true},
		{"https://WWW.BAILII.ORG/", true},
		{"https://evilbailii.org/", false},
		{"https://bailii.org.evil.com/", false},
		{"ftp://www.bailii.org/", false},
		{"not a url", false},
		{"::invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := allow.Allows(tt.url); got != tt.expected {
				t.Errorf("Allows(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}

	if len(allow.Domains()) != 3 {
		t.Errorf("Expected 3 domains after normalisation, got %v", allow.Domains())
	}
}

func TestRobotsChecker_Allowed(t *testing.T) {
	var robotsFetches atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			robotsFetches.Add(1)
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /cgi-bin/\n")
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "citecheck/0.1 (+https://example.com)")
	ctx := context.Background()

	allowed, err := checker.Allowed(ctx, server.URL+"/uk/cases/UKSC/2020/5.html")
	if err != nil {
		t.Fatalf("Allowed failed: %v", err)
	}
	if !allowed {
		t.Error("Expected case page to be allowed")
	}

	allowed, err = checker.Allowed(ctx, server.URL+"/cgi-bin/lucy_search_1.cgi?query=smith")
	if err != nil {
		t.Fatalf("Allowed failed: %v", err)
	}
	if allowed {
		t.Error("Expected cgi-bin to be disallowed")
	}

	if robotsFetches.Load() != 1 {
		t.Errorf("Expected robots.txt to be fetched once, got %d", robotsFetches.Load())
	}
}

func TestRobotsChecker_MissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	checker := NewRobotsChecker(server.Client(), "citecheck")
	allowed, err := checker.Allowed(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("Allowed failed: %v", err)
	}
	if !allowed {
		t.Error("Expected missing robots.txt to allow everything")
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := []struct {
		ua       string
		expected string
	}{
		{"citecheck/0.1 (+https://github.com/ppiankov/citecheck)", "citecheck"},
		{"Mozilla/5.0 (X11)", "Mozilla"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUserAgent(tt.ua); got != tt.expected {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", tt.ua, got, tt.expected)
		}
	}
}

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3128", "bailii.org")

	req, _ := http.NewRequest(http.MethodGet, "https://caselaw.nationalarchives.gov.uk/uksc/2020/5", nil)
	u, err := proxy(req)
	if err != nil || u == nil || u.Host != "secure.local:3128" {
		t.Errorf("Expected https proxy, got %v (%v)", u, err)
	}

	req, _ = http.NewRequest(http.MethodGet, "http://caselaw.nationalarchives.gov.uk/", nil)
	u, err = proxy(req)
	if err != nil || u == nil || u.Host != "proxy.local:3128" {
		t.Errorf("Expected http proxy, got %v (%v)", u, err)
	}

	req, _ = http.NewRequest(http.MethodGet, "https://www.bailii.org/", nil)
	u, err = proxy(req)
	if err != nil || u != nil {
		t.Errorf("Expected no_proxy bypass, got %v (%v)", u, err)
	}
}
