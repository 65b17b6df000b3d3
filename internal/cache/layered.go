package cache

import (
	"errors"
	"time"
)

// LayeredCache reads through a fast layer in front of a persistent one
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache combines memory and disk layers
func NewLayeredCache(memory, disk Cache) *LayeredCache {
	return &LayeredCache{
		memory: memory,
		disk:   disk,
	}
}

// Get checks memory first, then disk, promoting disk hits
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores value in both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes key from both layers
func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear empties both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}

// Pruner is implemented by backends that can drop expired entries in bulk
type Pruner interface {
	Prune() (int64, error)
}

// Prune drops expired entries from both layers, counting those removed
// from the persistent one
func (c *LayeredCache) Prune() (int64, error) {
	if p, ok := c.memory.(Pruner); ok {
		if _, err := p.Prune(); err != nil {
			return 0, err
		}
	}
	if p, ok := c.disk.(Pruner); ok {
		return p.Prune()
	}
	return 0, nil
}

// Close releases resources held by either layer
func (c *LayeredCache) Close() error {
	return errors.Join(closeIfCloser(c.memory), closeIfCloser(c.disk))
}
