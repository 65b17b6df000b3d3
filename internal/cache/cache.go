package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

const keyPrefix = "citecheck:v1:"

// Cache stores opaque values by key
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// ResolutionKey derives the cache key for a lookup of citation under caseName
func ResolutionKey(citation, caseName string) string {
	hash := sha256.Sum256([]byte(citation + "|" + caseName))
	return keyPrefix + hex.EncodeToString(hash[:])
}

// DefaultDir returns the per-user directory for on-disk entries
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}
	return filepath.Join(base, "citecheck"), nil
}

// Persistent backends
const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
)

// New builds the cache described by cfg: memory in front of a persistent
// backend. Callers should Close the result when done.
func New(cfg model.CacheConfig) (*LayeredCache, error) {
	dir := cfg.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}

	var persistent Cache
	switch cfg.Backend {
	case "", BackendFiles:
		persistent = NewDiskCache(dir, cfg.DiskTTL)
	case BackendSQLite:
		db, err := NewSQLiteCache(dir, cfg.DiskTTL)
		if err != nil {
			return nil, err
		}
		persistent = db
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	return NewLayeredCache(NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), persistent), nil
}

// closeIfCloser closes c when it holds resources
func closeIfCloser(c Cache) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
