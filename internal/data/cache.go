package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"dca-backtest/internal/model"
)

type cacheEntry struct {
	ticks     []model.Tick
	expiresAt time.Time
}

// TickCache keeps parsed tick streams in memory so that repeated API runs
// over the same file skip parsing. Entries are keyed by path, size and
// modification time, so an edited file is never served stale.
//
// Cached slices are shared between callers and must be treated as read-only.
type TickCache struct {
	mu    sync.RWMutex
	store map[string]*cacheEntry
	ttl   time.Duration
}

var globalCache *TickCache
var cacheOnce sync.Once

// GetCache returns the global cache instance if caching is enabled.
// Returns nil if caching is disabled (ENABLE_TICK_CACHE != "true").
func GetCache() *TickCache {
	if os.Getenv("ENABLE_TICK_CACHE") != "true" {
		return nil
	}

	cacheOnce.Do(func() {
		ttl := 1 * time.Hour
		if ttlStr := os.Getenv("TICK_CACHE_TTL"); ttlStr != "" {
			if parsed, err := time.ParseDuration(ttlStr); err == nil {
				ttl = parsed
			}
		}
		globalCache = NewTickCache(ttl)
		go globalCache.cleanup()
	})

	return globalCache
}

func NewTickCache(ttl time.Duration) *TickCache {
	return &TickCache{
		store: make(map[string]*cacheEntry),
		ttl:   ttl,
	}
}

// Get retrieves cached ticks if available and not expired.
func (c *TickCache) Get(key string) ([]model.Tick, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.ticks, true
}

func (c *TickCache) Set(key string, ticks []model.Tick) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = &cacheEntry{
		ticks:     ticks,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *TickCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *TickCache) Clear() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string]*cacheEntry)
}

func (c *TickCache) evictExpired(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, entry := range c.store {
		if now.After(entry.expiresAt) {
			delete(c.store, key)
		}
	}
}

// cleanup periodically removes expired entries
func (c *TickCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for now := range ticker.C {
		c.evictExpired(now)
	}
}

// CacheKey identifies one version of a tick file.
func CacheKey(path string, info os.FileInfo, sampleMS int64) string {
	keyStr := fmt.Sprintf("%s:%d:%d:%d", path, info.Size(), info.ModTime().UnixNano(), sampleMS)
	hash := sha256.Sum256([]byte(keyStr))
	return hex.EncodeToString(hash[:])
}

// LoadTicksCached is LoadTicks followed by SampleTicks, going through cache
// when it is non-nil.
func LoadTicksCached(cache *TickCache, path string, sampleMS int64) ([]model.Tick, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	key := CacheKey(path, info, sampleMS)
	if ticks, ok := cache.Get(key); ok {
		return ticks, nil
	}
	ticks, err := LoadTicks(path)
	if err != nil {
		return nil, err
	}
	ticks = SampleTicks(ticks, sampleMS)
	cache.Set(key, ticks)
	return ticks, nil
}
