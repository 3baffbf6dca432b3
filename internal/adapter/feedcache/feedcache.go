// Package feedcache provides a last-value TTL cache shared by the upstream
// feed adapters. Each feed is polled on the resolution cycle but refreshed at
// its own cadence; between refreshes the last fetched value is served.
package feedcache

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/subject-tracker/internal/domain"
)

// FetchFunc retrieves a fresh value from upstream.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Cache memoizes a single value with a TTL. A fetch error while a previous
// value is held serves the stale value instead of failing; a fetch error with
// nothing held propagates.
type Cache[T any] struct {
	ttl   time.Duration
	fetch FetchFunc[T]

	mu        sync.Mutex
	value     T
	fetchedAt time.Time
	valid     bool
}

// New creates a cache around a fetch function.
func New[T any](ttl time.Duration, fetch FetchFunc[T]) *Cache[T] {
	return &Cache[T]{ttl: ttl, fetch: fetch}
}

// Get returns the cached value, refreshing from upstream when the TTL has
// elapsed.
func (c *Cache[T]) Get(ctx context.Context) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := domain.Now()
	if c.valid && now.Sub(c.fetchedAt) <= c.ttl {
		return c.value, nil
	}

	value, err := c.fetch(ctx)
	if err != nil {
		if c.valid {
			return c.value, nil
		}
		var zero T
		return zero, err
	}

	c.value = value
	c.fetchedAt = now
	c.valid = true
	return value, nil
}

// Invalidate discards the cached value so the next Get hits upstream. Used by
// the diagnostic trace endpoint to force a fresh resolution.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
}
