package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/logger"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/netutil"
	"github.com/ppiankov/citecheck/internal/worker"
)

const fetchMaxRetries = 3

// fetchSleepFunc times the wait between retries (injectable for tests)
var fetchSleepFunc = time.After

// Client performs polite GET requests against allowlisted case-law hosts
type Client struct {
	follow    *http.Client
	direct    *http.Client
	userAgent string
	maxBytes  int64
	allow     *netutil.Allowlist
	limiter   *worker.Limiter
	robots    *netutil.RobotsChecker
	sources   []sourceHost
}

// NewClient creates a client from the HTTP and rate limiting configuration
func NewClient(cfg *model.Config) *Client {
	transport := &http.Transport{
		Proxy: netutil.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
	}
	maxRedirects := cfg.HTTP.MaxRedirects

	follow := &http.Client{
		Timeout:   cfg.HTTP.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	// the citation finder answers with a redirect that must be read, not followed
	direct := &http.Client{
		Timeout:   cfg.HTTP.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	c := &Client{
		follow:    follow,
		direct:    direct,
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
		allow:     netutil.NewAllowlist(cfg.HTTP.AllowedDomains),
		limiter:   worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		sources:   newSourceHosts(cfg.Resolver),
	}
	for host, rps := range cfg.RateLimiting.Hosts {
		c.limiter.SetHostRate(host, rps, cfg.RateLimiting.BurstSize)
	}
	if cfg.HTTP.RespectRobots {
		c.robots = netutil.NewRobotsChecker(follow, cfg.HTTP.UserAgent)
	}
	return c
}

// Response is a fully read HTTP response
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        string
	FinalURL    string
	ContentType string
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get fetches rawURL following redirects
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.get(ctx, rawURL, true)
}

// GetNoRedirect fetches rawURL and returns any redirect response as is
func (c *Client) GetNoRedirect(ctx context.Context, rawURL string) (*Response, error) {
	return c.get(ctx, rawURL, false)
}

func (c *Client) get(ctx context.Context, rawURL string, followRedirects bool) (*Response, error) {
	if !c.allow.Allows(rawURL) {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrDomainNotAllowed)
	}

	if c.robots != nil {
		allowed, err := c.robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("check robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowedByRobots)
		}
	}

	httpClient := c.follow
	if !followRedirects {
		httpClient = c.direct
	}

	var resp *Response
	var err error
	for attempt := 0; attempt < fetchMaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		resp, err = c.fetchOnce(ctx, httpClient, rawURL)
		if !isRetryable(resp, err) || ctx.Err() != nil {
			break
		}
		if attempt < fetchMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			logger.Debug("retrying %s in %s", rawURL, backoff)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("retry %s: %w", rawURL, ctx.Err())
			case <-fetchSleepFunc(backoff):
			}
		}
	}
	return resp, err
}

func (c *Client) fetchOnce(ctx context.Context, httpClient *http.Client, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/atom+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	logger.Debug("GET %s -> %d (%d bytes)", rawURL, resp.StatusCode, len(body))

	return &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        string(body),
		FinalURL:    resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// isRetryable returns true for transient failures
func isRetryable(resp *Response, err error) bool {
	if err != nil {
		return isRetryableNetworkError(err)
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// isRetryableNetworkError checks errors for transient network failures
func isRetryableNetworkError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
