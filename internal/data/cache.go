package data

import (
	"os"
	"sync"
	"time"
)

// TickCache is an in-memory cache of loaded tick files keyed by path. The API
// re-reads the same CSVs for every sweep request; callers must hand each run
// its own copy of the cached slice, since replay sorts its input in place.
type TickCache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
}

type cacheEntry struct {
	result    LoadResult
	expiresAt time.Time
}

var globalCache *TickCache
var cacheOnce sync.Once

// GetCache returns the process-wide cache, or nil when ENABLE_TICK_CACHE is
// not set. TTL comes from TICK_CACHE_TTL (default 1h).
func GetCache() *TickCache {
	if os.Getenv("ENABLE_TICK_CACHE") != "true" {
		return nil
	}
	cacheOnce.Do(func() {
		ttl := 1 * time.Hour
		if raw := os.Getenv("TICK_CACHE_TTL"); raw != "" {
			if parsed, err := time.ParseDuration(raw); err == nil {
				ttl = parsed
			}
		}
		globalCache = &TickCache{
			store: make(map[string]*cacheEntry),
			ttl:   ttl,
		}
		go globalCache.cleanup()
	})
	return globalCache
}

// Get retrieves a cached load if present and not expired. Nil receivers are
// legal so callers can use GetCache().Get(...) unconditionally.
func (c *TickCache) Get(path string) (LoadResult, bool) {
	if c == nil {
		return LoadResult{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.store[path]
	if !ok || time.Now().After(entry.expiresAt) {
		return LoadResult{}, false
	}
	return entry.result, true
}

func (c *TickCache) Set(path string, res LoadResult) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[path] = &cacheEntry{
		result:    res,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *TickCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]*cacheEntry)
}

func (c *TickCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for path, entry := range c.store {
			if now.After(entry.expiresAt) {
				delete(c.store, path)
			}
		}
		c.mu.Unlock()
	}
}
