// Package cache keeps recently resolved shorters in memory.
//
// A nil *ShorterCache is valid and behaves as a disabled cache, so callers
// never need to check whether caching is configured.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/axellelanca/linkshorter/internal/models"
)

// ShorterCache is a path -> shorter cache with per-entry expiration.
type ShorterCache struct {
	items *gocache.Cache
	ttl   time.Duration
}

// New returns a cache holding entries for at most ttl. A non-positive ttl
// disables caching and returns nil.
func New(ttl time.Duration) *ShorterCache {
	if ttl <= 0 {
		return nil
	}
	return &ShorterCache{
		items: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

// Get returns a copy of the cached shorter for path.
func (c *ShorterCache) Get(path string) (models.Shorter, bool) {
	if c == nil {
		return models.Shorter{}, false
	}
	v, ok := c.items.Get(path)
	if !ok {
		return models.Shorter{}, false
	}
	return v.(models.Shorter), true
}

// Set caches s until the configured ttl or its own expiry, whichever comes
// first. Shorters that are already expired or carry an unreadable expiry are
// not cached.
func (c *ShorterCache) Set(s models.Shorter) {
	if c == nil {
		return
	}
	d := c.ttl
	if left, ok := s.TTL.Remaining(); ok {
		if left <= 0 {
			return
		}
		if left < d {
			d = left
		}
	}
	c.items.Set(s.Path, s, d)
}

// Invalidate drops the entry for path.
func (c *ShorterCache) Invalidate(path string) {
	if c == nil {
		return
	}
	c.items.Delete(path)
}

// Len reports the number of entries, including ones not yet evicted.
func (c *ShorterCache) Len() int {
	if c == nil {
		return 0
	}
	return c.items.ItemCount()
}
