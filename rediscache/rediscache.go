// Package rediscache implements logofy.Cache on Redis so resolutions are
// shared between processes.
package rediscache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// DefaultTTL matches logofy.DefaultCacheTTL.
const DefaultTTL = 24 * time.Hour

// Cache stores JSON-encoded values in Redis with a fixed TTL. Redis errors
// are logged and reported as misses; the resolver then probes normally.
type Cache struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

// New returns a Cache. namespace prefixes every key ("" = "logofy").
func New(client *redis.Client, namespace string, ttl time.Duration) *Cache {
	if namespace == "" {
		namespace = "logofy"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, namespace: namespace, ttl: ttl}
}

// Key builds "{namespace}:{prefix}:{value}".
func (c *Cache) Key(prefix, value string) string {
	return c.namespace + ":" + prefix + ":" + value
}

// Get decodes the JSON stored under key into dest.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		slog.Warn("logofy: redis get failed", "key", key, "error", err.Error())
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		slog.Warn("logofy: redis value decode failed", "key", key, "error", err.Error())
		return false
	}
	return true
}

// Set stores value under key as JSON with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("logofy: redis value encode failed", "key", key, "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("logofy: redis set failed", "key", key, "error", err.Error())
	}
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
