package resolve

import (
	"net/url"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// sourceHost ties a configured base URL to the source it serves
type sourceHost struct {
	source string
	host   string // host[:port] of the base URL
	domain string // hostname without a leading "www."
}

func newSourceHosts(cfg model.ResolverConfig) []sourceHost {
	var hosts []sourceHost
	for _, s := range []struct{ source, base string }{
		{model.SourceBailii, cfg.BailiiBaseURL},
		{model.SourceFindCaseLaw, cfg.FindCaseLawBaseURL},
	} {
		parsed, err := url.Parse(s.base)
		if err != nil || parsed.Host == "" {
			continue
		}
		hosts = append(hosts, sourceHost{
			source: s.source,
			host:   strings.ToLower(parsed.Host),
			domain: strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www."),
		})
	}
	return hosts
}

// SourceFor names the case-law source serving rawURL, or "" when unknown
func (c *Client) SourceFor(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	hostname := strings.ToLower(parsed.Hostname())

	for _, s := range c.sources {
		if host == s.host {
			return s.source
		}
	}
	for _, s := range c.sources {
		if hostname == s.domain || strings.HasSuffix(hostname, "."+s.domain) {
			return s.source
		}
	}
	return ""
}
