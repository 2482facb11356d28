// Package cache provides a small in-memory TTL cache used to absorb
// webhook redelivery bursts without a storage round-trip.
package cache

import (
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache stores values in-memory with per-entry TTLs. It is not a
// store of record; a miss always falls through to the database.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]cacheEntry[V]
	maxSize int
}

// NewTTLCache constructs a TTLCache bounded to maxSize entries. When
// full, expired entries are pruned before new ones are admitted; a
// still-full cache drops the write.
func NewTTLCache[K comparable, V any](maxSize int) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		items:   make(map[K]cacheEntry[V]),
		maxSize: maxSize,
	}
}

// Get returns a cached value if it exists and has not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return zero, false
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.Delete(key)
		return zero, false
	}
	return entry.value, true
}

// Set stores a value with the provided TTL. A ttl of zero or less
// never expires.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	now := time.Now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxSize > 0 && len(c.items) >= c.maxSize {
		if _, exists := c.items[key]; !exists {
			c.pruneLocked(now)
			if len(c.items) >= c.maxSize {
				return
			}
		}
	}
	c.items[key] = cacheEntry[V]{value: value, expiresAt: expiresAt}
}

// Delete removes a cached entry.
func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) pruneLocked(now time.Time) {
	for key, entry := range c.items {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(c.items, key)
		}
	}
}
