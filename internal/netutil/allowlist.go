package netutil

import (
	"net/url"
	"strings"
)

// Allowlist restricts outbound lookups to known case-law hosts.
// A domain also admits its subdomains (bailii.org admits www.bailii.org).
type Allowlist struct {
	domains []string
}

// NewAllowlist creates an allowlist from bare domain names
func NewAllowlist(domains []string) *Allowlist {
	normalized := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, ".")
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &Allowlist{domains: normalized}
}

// Allows reports whether rawURL is an http(s) URL on an allowed host
func (a *Allowlist) Allows(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false
	}

	for _, d := range a.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Domains returns the configured domains
func (a *Allowlist) Domains() []string {
	return append([]string(nil), a.domains...)
}
