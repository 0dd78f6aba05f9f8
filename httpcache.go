package logofy

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// defaultHTTPCacheEntries bounds the number of provider responses kept.
const defaultHTTPCacheEntries = 1024

type cachedResponse struct {
	result       DownloadResult
	etag         string
	lastModified string
	expires      time.Time
}

// httpCache keeps provider responses keyed by URL and honours Cache-Control
// max-age, no-cache and no-store plus ETag / Last-Modified revalidation.
// A nil *httpCache is valid and caches nothing.
type httpCache struct {
	mu      sync.Mutex
	entries map[string]*cachedResponse
	max     int
	now     func() time.Time
}

func newHTTPCache(maxEntries int) *httpCache {
	if maxEntries <= 0 {
		maxEntries = defaultHTTPCacheEntries
	}
	return &httpCache{
		entries: make(map[string]*cachedResponse),
		max:     maxEntries,
		now:     time.Now,
	}
}

// fresh returns a stored response that is still within its max-age.
func (c *httpCache) fresh(url string) (*DownloadResult, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	r := e.result
	return &r, true
}

// addValidators sets If-None-Match / If-Modified-Since for a stale entry.
func (c *httpCache) addValidators(url string, req *http.Request) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok {
		return
	}
	if e.etag != "" {
		req.Header.Set("If-None-Match", e.etag)
	}
	if e.lastModified != "" {
		req.Header.Set("If-Modified-Since", e.lastModified)
	}
}

// revalidated handles a 304: the stored body is reused and its freshness
// refreshed from the new headers.
func (c *httpCache) revalidated(url string, h http.Header) (*DownloadResult, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if maxAge, store := parseCacheControl(h.Get("Cache-Control")); store {
		e.expires = c.now().Add(maxAge)
	}
	if etag := h.Get("ETag"); etag != "" {
		e.etag = etag
	}
	r := e.result
	return &r, true
}

// store records a 200 response when the provider allows it and gave us a
// way to reuse it (a max-age or a validator).
func (c *httpCache) store(url string, h http.Header, r *DownloadResult) {
	if c == nil || r == nil {
		return
	}
	maxAge, ok := parseCacheControl(h.Get("Cache-Control"))
	if !ok {
		return
	}
	etag := h.Get("ETag")
	lastModified := h.Get("Last-Modified")
	if maxAge <= 0 && etag == "" && lastModified == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[url]; !exists && len(c.entries) >= c.max {
		c.evictLocked()
	}
	c.entries[url] = &cachedResponse{
		result:       *r,
		etag:         etag,
		lastModified: lastModified,
		expires:      c.now().Add(maxAge),
	}
}

// evictLocked drops the entry closest to expiry.
func (c *httpCache) evictLocked() {
	var victim string
	var oldest time.Time
	for k, e := range c.entries {
		if victim == "" || e.expires.Before(oldest) {
			victim, oldest = k, e.expires
		}
	}
	delete(c.entries, victim)
}

// parseCacheControl returns the max-age and whether the response may be
// stored at all. no-cache stores with zero freshness (always revalidate).
func parseCacheControl(v string) (time.Duration, bool) {
	var maxAge time.Duration
	noCache := false
	for _, directive := range strings.Split(v, ",") {
		directive = strings.ToLower(strings.TrimSpace(directive))
		switch {
		case directive == "no-store":
			return 0, false
		case directive == "no-cache":
			noCache = true
		case strings.HasPrefix(directive, "max-age="):
			n, err := strconv.Atoi(strings.Trim(strings.TrimPrefix(directive, "max-age="), `"`))
			if err == nil && n > 0 {
				maxAge = time.Duration(n) * time.Second
			}
		}
	}
	if noCache {
		return 0, true
	}
	return maxAge, true
}
