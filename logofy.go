// Package logofy resolves a company logo for an email address or domain.
//
// Candidates from several public logo/favicon services are fetched
// concurrently, decoded, scored by pixel heuristics, and the best one above
// the acceptance threshold wins. When nothing qualifies the caller renders a
// synthetic initials avatar (see Avatar).
package logofy

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const (
	// DefaultProbeTimeout bounds a single candidate fetch+decode.
	DefaultProbeTimeout = 5 * time.Second
	// DefaultMaxConcurrency is the number of probes in flight per batch.
	DefaultMaxConcurrency = 8
	// DefaultMaxBytes caps an image response body.
	DefaultMaxBytes = 512 * 1024

	// maxRedirects bounds provider redirect chains (Google favicons hop to gstatic).
	maxRedirects = 5
)

// Cache abstracts key-value caching of resolution results (Redis, in-memory, etc.)
type Cache interface {
	Key(prefix, value string) string
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any)
}

// Config holds all dependencies injected by the consumer.
type Config struct {
	Cache         Cache        // optional: result cache (nil = no caching)
	StealthClient *http.Client // optional: TLS-fingerprinted client tried first
	HTTPClient    *http.Client // optional: default http client (nil = redirect-capped client)
	UserAgent     string       // default: "Mozilla/5.0 (compatible; go-logofy/1.0)"

	ProbeTimeout   time.Duration // per-candidate timeout (default: 5s)
	MaxConcurrency int           // probes in flight per batch (default: 8)
	MaxBytes       int64         // max image body size (default: 512KB)

	// Policy holds the scoring constants. Zero value = DefaultPolicy().
	Policy ScoringPolicy

	// ExtraGenericDomains are additional consumer mail domains to treat as generic.
	ExtraGenericDomains []string

	// DisableBreakers turns off the per-provider circuit breakers.
	DisableBreakers bool

	// DisableHTTPCache turns off Cache-Control/ETag handling of provider responses.
	DisableHTTPCache bool

	// Optional callbacks for metrics/logging.
	OnProbe func(ProbeResult)
	OnPanic func(tag string, r any)
}

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (compatible; go-logofy/1.0)"
	}
	if c.HTTPClient == nil {
		c.HTTPClient = defaultHTTPClient()
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.Policy.isZero() {
		c.Policy = DefaultPolicy()
	}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
}
