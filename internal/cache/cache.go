// Package cache provides a generic in-process TTL cache with bounded size.
// It only saves provider round-trips; nothing correctness-critical lives here.
package cache

import (
	"context"
	"sync"
	"time"
)

// Config tunes a cache instance.
type Config struct {
	DefaultTTL time.Duration
	MaxItems   int
}

// entry is one cached value with its bookkeeping.
type entry[T any] struct {
	value        T
	expiresAt    time.Time // zero = no expiry
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  int64
	tags         []string
}

// Counters is the observability snapshot.
type Counters struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
	Items       int   `json:"items"`
}

// HitRatio returns hits / (hits + misses), 0 when idle.
func (c Counters) HitRatio() float64 {
	total := c.Hits + c.Misses
	if total == 0 {
		return 0
	}
	return float64(c.Hits) / float64(total)
}

// Cache is a concurrency-safe TTL cache. When MaxItems is exceeded, the entry
// with the lowest (accessCount, lastAccessed) composite score is evicted.
type Cache[T any] struct {
	cfg Config

	mu       sync.Mutex
	entries  map[string]*entry[T]
	counters Counters
}

// New creates an empty cache.
func New[T any](cfg Config) *Cache[T] {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1000
	}
	return &Cache[T]{
		cfg:     cfg,
		entries: make(map[string]*entry[T]),
	}
}

// SetOptions override per-entry defaults.
type SetOptions struct {
	TTL  time.Duration
	Tags []string
}

// Set stores value under key, evicting one cold entry first if full.
func (c *Cache[T]) Set(key string, value T, opts ...SetOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := c.cfg.DefaultTTL
	var tags []string
	if len(opts) > 0 {
		if opts[0].TTL > 0 {
			ttl = opts[0].TTL
		}
		tags = opts[0].Tags
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.cfg.MaxItems {
		c.evictColdest()
	}

	now := time.Now()
	e := &entry[T]{
		value:        value,
		createdAt:    now,
		lastAccessed: now,
		tags:         tags,
	}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	c.entries[key] = e
}

// Get returns the cached value. A TTL-expired entry is removed, counted as an
// expiration and reported as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		c.counters.Misses++
		return zero, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		c.counters.Expirations++
		c.counters.Misses++
		return zero, false
	}

	e.lastAccessed = time.Now()
	e.accessCount++
	c.counters.Hits++
	return e.value, true
}

// Has reports presence without touching access bookkeeping.
func (c *Cache[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	return e.expiresAt.IsZero() || time.Now().Before(e.expiresAt)
}

// Delete removes one key.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// DeleteByTag removes every entry carrying the tag.
func (c *Cache[T]) DeleteByTag(tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.entries {
		for _, t := range e.tags {
			if t == tag {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	return removed
}

// Clear drops every entry.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[T])
}

// Cleanup sweeps TTL-expired entries and returns how many were dropped.
func (c *Cache[T]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, key)
			c.counters.Expirations++
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps on a timer until the context ends, keeping expiry work
// off the request path.
func (c *Cache[T]) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Counters returns the observability snapshot.
func (c *Cache[T]) Counters() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.counters
	snap.Items = len(c.entries)
	return snap
}

// evictColdest drops the entry with the lowest access count, breaking ties by
// oldest last access. Caller holds the lock.
func (c *Cache[T]) evictColdest() {
	var victim string
	var victimEntry *entry[T]
	for key, e := range c.entries {
		if victimEntry == nil ||
			e.accessCount < victimEntry.accessCount ||
			(e.accessCount == victimEntry.accessCount && e.lastAccessed.Before(victimEntry.lastAccessed)) {
			victim = key
			victimEntry = e
		}
	}
	if victimEntry != nil {
		delete(c.entries, victim)
		c.counters.Evictions++
	}
}
