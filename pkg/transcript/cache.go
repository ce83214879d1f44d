package transcript

import (
	"sync"
	"time"
)

// Cache is a mutex-guarded, content-addressed in-memory cache keyed by
// (video-id, language, variant). Owned exclusively by the Acquirer; it
// is a performance artifact, never the source of truth.
type Cache struct {
	mu      sync.RWMutex
	entries map[CacheKey]CacheEntry
	cap     int
	now     func() time.Time
}

// NewCache builds an empty cache. cap<=0 means unbounded (pruned only
// by TTL).
func NewCache(cap int) *Cache {
	return &Cache{
		entries: make(map[CacheKey]CacheEntry),
		cap:     cap,
		now:     time.Now,
	}
}

func (c *Cache) Get(key CacheKey) (CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return CacheEntry{}, false
	}
	if c.now().Sub(e.CachedAt) > CacheTTL {
		return CacheEntry{}, false
	}
	return e, true
}

func (c *Cache) Set(key CacheKey, text, sourceLanguage string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = CacheEntry{
		Text:           text,
		SourceLanguage: sourceLanguage,
		CachedAt:       c.now(),
	}
	c.evictIfOverCap()
}

// PruneExpired removes every entry older than CacheTTL.
func (c *Cache) PruneExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.CachedAt) > CacheTTL {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// evictIfOverCap drops the oldest entries once the cache exceeds its
// configured capacity. Caller must hold c.mu.
func (c *Cache) evictIfOverCap() {
	if c.cap <= 0 || len(c.entries) <= c.cap {
		return
	}
	var oldestKey CacheKey
	var oldestAt time.Time
	first := true
	for k, e := range c.entries {
		if first || e.CachedAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.CachedAt
			first = false
		}
	}
	delete(c.entries, oldestKey)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
