// Package resolve looks citations up against public UK case-law sources.
package resolve

import (
	"context"
	"errors"

	"github.com/ppiankov/citecheck/internal/model"
)

var (
	// ErrDomainNotAllowed is returned for URLs outside the configured allowlist
	ErrDomainNotAllowed = errors.New("domain not allowed")

	// ErrDisallowedByRobots is returned when robots.txt forbids a URL
	ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

	// ErrAllRequestsFailed means no source could be reached, so a negative
	// outcome would say nothing about the citation itself
	ErrAllRequestsFailed = errors.New("all lookup requests failed")
)

// Resolver answers whether a citation resolves to a published judgment.
// Implementations must be safe to call repeatedly for the same citation and
// must describe what they tried in AttemptsLog, even when nothing is found.
// A returned error means the lookup itself failed.
type Resolver interface {
	Resolve(ctx context.Context, citation string, caseName *string) (*model.CitationResolution, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(ctx context.Context, citation string, caseName *string) (*model.CitationResolution, error)

// Resolve calls f
func (f ResolverFunc) Resolve(ctx context.Context, citation string, caseName *string) (*model.CitationResolution, error) {
	return f(ctx, citation, caseName)
}
