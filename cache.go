package logofy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

const (
	// DefaultCacheTTL is how long a resolution stays cached. Logos rarely change.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultCacheEntries bounds MemoryCache.
	DefaultCacheEntries = 4096
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemoryCache is an in-process Cache with a TTL and a bounded entry count.
// Values are stored JSON-encoded, so Get always hands out a fresh copy.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryCache returns a MemoryCache. Zero ttl or maxEntries use the defaults.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Key joins prefix and value.
func (c *MemoryCache) Key(prefix, value string) string {
	return prefix + ":" + value
}

// Get decodes the entry for key into dest. Expired entries are misses.
func (c *MemoryCache) Get(_ context.Context, key string, dest any) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expires) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		slog.Debug("logofy: memory cache decode failed", "key", key, "error", err.Error())
		return false
	}
	return true
}

// Set stores value under key, evicting the entry closest to expiry when full.
func (c *MemoryCache) Set(_ context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Debug("logofy: memory cache encode failed", "key", key, "error", err.Error())
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = memoryEntry{data: data, expires: c.now().Add(c.ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) evictLocked() {
	now := c.now()
	var victim string
	var oldest time.Time
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			return
		}
		if victim == "" || e.expires.Before(oldest) {
			victim, oldest = k, e.expires
		}
	}
	delete(c.entries, victim)
}
