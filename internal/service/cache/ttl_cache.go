package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when a caller passes a non-positive TTL.
const DefaultTTL = time.Hour

type entry struct {
	v   any
	exp time.Time
}

// TTLCache memoizes derived results (region listings, price slices,
// statistics, forecasts) in process. It owns its entries exclusively;
// callers treat returned values as immutable snapshots.
//
// Concurrent callers missing the same key may both compute; the last write
// wins, which is fine because equivalent inputs produce equivalent results.
type TTLCache struct {
	mu sync.RWMutex
	m  map[string]entry
}

// NewTTLCache creates an empty cache.
func NewTTLCache() *TTLCache {
	return &TTLCache{m: make(map[string]entry)}
}

// Get returns a live entry.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

// Set stores a value with the given TTL.
func (c *TTLCache) Set(key string, v any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	c.m[key] = entry{v: v, exp: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Invalidate drops every entry whose key starts with prefix. Used for
// selective per-region invalidation.
func (c *TTLCache) Invalidate(prefix string) {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

// Reset drops everything. Called on full data reload.
func (c *TTLCache) Reset() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// GetOrCompute returns the cached value for key or computes and stores a
// fresh one. bypass skips the read so the caller gets a recomputed value;
// the fresh result still replaces the stored entry. The second return
// reports whether the value came from cache.
func GetOrCompute[T any](c *TTLCache, key string, ttl time.Duration, bypass bool, fn func() (T, error)) (T, bool, error) {
	if !bypass {
		if v, ok := c.Get(key); ok {
			if typed, ok2 := v.(T); ok2 {
				return typed, true, nil
			}
		}
	}

	fresh, err := fn()
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.Set(key, fresh, ttl)
	return fresh, false, nil
}
