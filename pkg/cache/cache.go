// Package cache stores serialized resolutions keyed by descriptor content
// and platform.
//
// Backends:
//   - [FileCache]: JSON envelopes under the XDG cache directory (CLI)
//   - [LRUCache]: bounded in-process cache (API server)
//   - [RedisCache]: shared cache for several API replicas
//   - [NullCache]: caching disabled
//
// All backends are safe for concurrent use.
package cache

import (
	"context"
	"time"
)

// TTLResolution is how long a cached lock stays valid. Resolutions are a
// pure function of their key, so the TTL only bounds disk and memory use.
const TTLResolution = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the backend.
	Close() error
}
