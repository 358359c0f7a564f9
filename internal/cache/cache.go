// Package cache provides the availability cache injected into the API and the
// watch runner.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a venue answer is served without re-checking.
const DefaultTTL = 30 * time.Minute

// DefaultSize bounds the number of cached queries.
const DefaultSize = 4096

// Store is the get/put capability handlers depend on.
type Store[V any] interface {
	Get(key string) (V, bool)
	Put(key string, v V)
	GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, bool, error)
	Invalidate(key string)
	Len() int
}

// Cache is an expiring LRU with request collapsing: concurrent misses for the
// same key share one fetch.
type Cache[V any] struct {
	lru   *expirable.LRU[string, V]
	group singleflight.Group
}

// New creates a cache holding up to size entries for ttl each.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

// Key builds the cache key of an availability query.
func Key(campgroundID, start, end string, adults, kids int) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d", campgroundID, start, end, adults, kids)
}

func (c *Cache[V]) Get(key string) (V, bool) { return c.lru.Get(key) }

func (c *Cache[V]) Put(key string, v V) { c.lru.Add(key, v) }

// Invalidate removes a specific key from the cache.
func (c *Cache[V]) Invalidate(key string) { c.lru.Remove(key) }

// Len reports the number of live entries.
func (c *Cache[V]) Len() int { return c.lru.Len() }

// GetOrFetch returns the cached value or runs fetch once for all concurrent
// callers of the same key. Successful fetches are stored. The boolean reports
// a cache hit.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, true, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		// detached so one caller giving up does not fail the others
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return v, err
		}
		c.lru.Add(key, v)
		return v, nil
	})
	select {
	case r := <-ch:
		v, _ := r.Val.(V)
		return v, false, r.Err
	case <-ctx.Done():
		var zero V
		return zero, false, context.Cause(ctx)
	}
}
