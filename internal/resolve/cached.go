package resolve

import (
	"context"
	"encoding/json"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/logger"
	"github.com/ppiankov/citecheck/internal/model"
)

// CachedResolver remembers successful resolutions. Negative outcomes are
// never cached: a judgment missing today may be published tomorrow.
type CachedResolver struct {
	next  Resolver
	cache cache.Cache
}

// NewCachedResolver wraps next with c
func NewCachedResolver(next Resolver, c cache.Cache) *CachedResolver {
	return &CachedResolver{next: next, cache: c}
}

// Resolve answers from the cache when possible, otherwise asks the wrapped resolver
func (r *CachedResolver) Resolve(ctx context.Context, citation string, caseName *string) (*model.CitationResolution, error) {
	name := ""
	if caseName != nil {
		name = *caseName
	}
	key := cache.ResolutionKey(citation, name)

	if data, found := r.cache.Get(key); found {
		var cached model.CitationResolution
		if err := json.Unmarshal(data, &cached); err == nil {
			logger.Debug("cache hit for %s", citation)
			cached.AttemptsLog = append(cached.AttemptsLog, "Answered from cache")
			return &cached, nil
		}
		_ = r.cache.Delete(key)
	}

	resolution, err := r.next.Resolve(ctx, citation, caseName)
	if err != nil {
		return nil, err
	}

	if resolution.Status == model.ResolutionResolved {
		if data, err := json.Marshal(resolution); err == nil {
			if err := r.cache.Set(key, data, 0); err != nil {
				logger.Warn("cache write failed for %s: %v", citation, err)
			}
		}
	}
	return resolution, nil
}
