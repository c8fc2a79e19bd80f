// Package cache provides the TTL memoizer that sits in front of the
// remote ledger and payroll calls.
package cache

import (
	"context"
	"sync"
	"time"
)

// TTL is a thread-safe memoizing cache with per-cache expiry and a
// bounded entry count. Keys identify a remote call plus its arguments
// (connection identity, account-code set, year set); values are whatever
// the fetch produced. It exists to avoid redundant remote calls between
// requests, not to provide correctness guarantees.
type TTL[V any] struct {
	mu         sync.Mutex
	entries    map[string]ttlEntry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type ttlEntry[V any] struct {
	value   V
	expires time.Time
}

// NewTTL builds a cache. maxEntries <= 0 means unbounded.
func NewTTL[V any](ttl time.Duration, maxEntries int) *TTL[V] {
	return &TTL[V]{
		entries:    make(map[string]ttlEntry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value for key when present and unexpired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expires) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key. When the cache is full, expired entries
// are evicted first; if still full the oldest entry goes.
func (c *TTL[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = ttlEntry[V]{value: value, expires: c.now().Add(c.ttl)}
}

// GetOrFetch returns the cached value or runs fetch and caches its
// result. A fetch error is returned as-is and nothing is cached, so the
// next call retries.
func (c *TTL[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Invalidate drops one key.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Flush drops everything.
func (c *TTL[V]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]ttlEntry[V])
}

// Len reports the current entry count, expired entries included.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[V]) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey = k
			oldest = e.expires
		}
	}
	delete(c.entries, oldestKey)
}
