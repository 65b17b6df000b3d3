package model

import "time"

// Config is the complete citecheck configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Resolver     ResolverConfig     `yaml:"resolver" mapstructure:"resolver"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
}

// HTTPConfig controls outbound lookups
type HTTPConfig struct {
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent      string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRedirects   int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	RespectRobots  bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy      string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy        string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	AllowedDomains []string      `yaml:"allowed_domains" mapstructure:"allowed_domains"`
}

// RateLimitingConfig is applied per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// Hosts overrides RequestsPerSecond for individual hosts
	Hosts map[string]float64 `yaml:"hosts,omitempty" mapstructure:"hosts"`
}

// CacheConfig controls the resolution cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend   string        `yaml:"backend" mapstructure:"backend"` // files or sqlite
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ResolverConfig points the HTTP resolver at its sources
type ResolverConfig struct {
	BailiiBaseURL      string `yaml:"bailii_base_url" mapstructure:"bailii_base_url"`
	FindCaseLawBaseURL string `yaml:"find_case_law_base_url" mapstructure:"find_case_law_base_url"`
	MaxCandidates      int    `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// ConcurrencyConfig applies to document screening only; verification is always sequential
type ConcurrencyConfig struct {
	ScreenWorkers int `yaml:"screen_workers" mapstructure:"screen_workers"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// ServerConfig controls the HTTP API started by "citecheck serve"
type ServerConfig struct {
	Addr         string `yaml:"addr" mapstructure:"addr"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxCitations int    `yaml:"max_citations" mapstructure:"max_citations"` // Per verify request
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "citecheck/0.1 (+https://github.com/ppiankov/citecheck)",
			MaxBodyBytes:  5_000_000,
			MaxRedirects:  5,
			RespectRobots: false, // lookups are user initiated, not crawls
			AllowedDomains: []string{
				"bailii.org",
				"caselaw.nationalarchives.gov.uk",
				"legislation.gov.uk",
			},
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   "files",
			Dir:       "",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Resolver: ResolverConfig{
			BailiiBaseURL:      "https://www.bailii.org",
			FindCaseLawBaseURL: "https://caselaw.nationalarchives.gov.uk",
			MaxCandidates:      5,
		},
		Concurrency: ConcurrencyConfig{
			ScreenWorkers: 4,
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8787",
			MaxBodyBytes: 2_000_000,
			MaxCitations: 200,
		},
	}
}
