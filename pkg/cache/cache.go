// Package cache stores Reference Source answers and rendered artifacts
// between runs.
//
// Values are opaque byte slices addressed by string keys built with a
// [Keyer]. Backends:
//   - [FileCache]: one JSON file per entry under the user cache directory
//   - [RedisCache]: a shared Redis instance
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: stores nothing
//
// Trees themselves are never cached; they are rebuilt from cached references
// on every run.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiration.
//
// Get reports a miss with ok=false and a nil error. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}
