// Package cache provides the domain interface for TTL-based cache storage.
package cache

import (
	"context"
	"reflect"
	"time"
)

// Cache defines the interface for key-value cache storage with expiration.
// Implementations may be MongoDB-backed, in-memory, or any other backend.
type Cache interface {
	// Get retrieves a cached value by key.
	// Returns the value, whether a live entry was found, and any error.
	// An expired or missing entry is a miss, never an error.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores a value with the given key and options, replacing any
	// existing entry for the key.
	Set(ctx context.Context, key string, value any, opts SetOptions) error

	// Delete removes a cached entry by key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if a live entry exists for the key.
	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes all entries from the cache.
	Clear(ctx context.Context) error
}

// SetOptions configures how a value is stored in the cache.
type SetOptions struct {
	// TTL is the time-to-live for the entry. Zero means the store's
	// default TTL applies. A negative TTL writes the entry already
	// expired, which forces the expiry timestamp into the past.
	TTL time.Duration
}

// Stats provides cache statistics.
type Stats struct {
	// Hits is the number of cache hits.
	Hits int64
	// Misses is the number of cache misses.
	Misses int64
	// Size is the current number of entries (-1 if not tracked).
	Size int64
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int64
}

// StatsProvider is an optional interface for caches that support statistics.
type StatsProvider interface {
	// Stats returns current cache statistics.
	Stats() Stats
}

// IsCacheableValue reports whether a value is worth storing in the cache.
// Only the "no value" sentinels are rejected: a nil interface and typed
// nil pointers, maps, slices, functions, and channels. Zero values such
// as 0, "" and false are cacheable.
func IsCacheableValue(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return !rv.IsNil()
	}

	return true
}
