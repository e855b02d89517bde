// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

// Package cache provides a bounded in-memory TTL cache with per-prefix
// default lifetimes. It memoizes directory queries and full recommendation
// responses so repeated articles don't re-hit the upstream directory.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Key namespace prefixes. Each prefix carries its own default TTL so
// callers don't have to repeat lifetime policy at every call site.
const (
	PrefixSearch         = "search:"
	PrefixBrowse         = "browse:"
	PrefixNonprofit      = "nonprofit:"
	PrefixRecommendation = "recommendation:"
)

// Default TTLs by prefix. Directory listings change slowly; full
// recommendation responses are kept short so ranking policy changes and
// fresh trust signals surface quickly.
const (
	DefaultSearchTTL         = 6 * time.Hour
	DefaultBrowseTTL         = 6 * time.Hour
	DefaultNonprofitTTL      = 24 * time.Hour
	DefaultRecommendationTTL = 1 * time.Hour
)

// Entry represents a cached item with expiration.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Stats is a read-only snapshot of cache performance counters.
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	HitRate   float64 `json:"hit_rate"`
}

// Config holds cache construction parameters. Zero values select defaults.
type Config struct {
	// MaxEntries bounds the cache size. When full, the oldest-inserted
	// entry is evicted. Default: 1000.
	MaxEntries int

	// DefaultTTL applies to keys whose prefix has no specific TTL.
	// Default: 1h.
	DefaultTTL time.Duration

	// SweepInterval is how often the background sweep removes expired
	// entries regardless of access patterns. Default: 5m.
	SweepInterval time.Duration
}

// Cache is a thread-safe in-memory TTL cache with bounded capacity.
//
// Eviction is oldest-inserted-first, not true LRU: an entry's position in
// the eviction queue is fixed at insert time and is not refreshed by reads.
// This matches the intended memoization semantics (entries are cheap to
// recompute; the bound exists to cap memory, not to optimize hit rate).
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	order      []string // insertion order; stale keys skipped at eviction
	maxEntries int
	defaultTTL time.Duration
	prefixTTLs map[string]time.Duration

	statsMu   sync.Mutex
	hits      int64
	misses    int64
	evictions int64

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts its background sweep goroutine.
// Call Stop to terminate the sweeper when the cache is no longer needed.
func New(cfg Config) *Cache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 1 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}

	c := &Cache{
		entries:    make(map[string]Entry),
		maxEntries: cfg.MaxEntries,
		defaultTTL: cfg.DefaultTTL,
		prefixTTLs: map[string]time.Duration{
			PrefixSearch:         DefaultSearchTTL,
			PrefixBrowse:         DefaultBrowseTTL,
			PrefixNonprofit:      DefaultNonprofitTTL,
			PrefixRecommendation: DefaultRecommendationTTL,
		},
		stop: make(chan struct{}),
	}

	go c.sweepLoop(cfg.SweepInterval)

	return c
}

// Get retrieves a value by key. Returns (nil, false) when the key is absent
// or expired; expired entries are removed on access. Every call increments
// either the hit or the miss counter.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have
		// refreshed the entry between the two lock acquisitions.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.ExpiresAt) {
			delete(c.entries, key)
			c.recordEviction()
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores a value using the default TTL for the key's prefix.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttlFor(key))
}

// SetWithTTL stores a value with an explicit TTL, overriding prefix defaults.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
		c.order = append(c.order, key)
	}

	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}
}

// Delete removes a specific cache entry by key.
// Safe to call with non-existent keys.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	_, existed := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if existed {
		c.recordEviction()
	}
}

// Clear removes all entries in a single operation.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := int64(len(c.entries))
	c.entries = make(map[string]Entry)
	c.order = nil
	c.mu.Unlock()

	c.statsMu.Lock()
	c.evictions += evicted
	c.statsMu.Unlock()
}

// GetStats returns a snapshot of cache counters.
func (c *Cache) GetStats() Stats {
	c.mu.RLock()
	size := len(c.entries)
	c.mu.RUnlock()

	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	s := Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      size,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total) * 100.0
	}
	return s
}

// Stop terminates the background sweep goroutine. Idempotent.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// ttlFor returns the default TTL for a key based on its namespace prefix.
func (c *Cache) ttlFor(key string) time.Duration {
	for prefix, ttl := range c.prefixTTLs {
		if strings.HasPrefix(key, prefix) {
			return ttl
		}
	}
	return c.defaultTTL
}

// evictOldestLocked removes the oldest-inserted live entry.
// Must be called with mu held.
func (c *Cache) evictOldestLocked() {
	for len(c.order) > 0 {
		key := c.order[0]
		c.order = c.order[1:]
		if _, ok := c.entries[key]; ok {
			delete(c.entries, key)
			c.recordEviction()
			return
		}
		// Key was deleted or overwritten out of band; skip.
	}
}

// sweepLoop periodically removes expired entries to bound memory even for
// keys that are never re-queried.
func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes all expired entries and compacts the eviction queue.
func (c *Cache) sweep() {
	now := time.Now()
	c.mu.Lock()

	evicted := int64(0)
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}

	// Drop queue slots for keys no longer present so the slice doesn't
	// grow unbounded across churn.
	if evicted > 0 {
		live := c.order[:0]
		for _, key := range c.order {
			if _, ok := c.entries[key]; ok {
				live = append(live, key)
			}
		}
		c.order = live
	}
	c.mu.Unlock()

	c.statsMu.Lock()
	c.evictions += evicted
	c.statsMu.Unlock()
}

func (c *Cache) recordHit() {
	c.statsMu.Lock()
	c.hits++
	c.statsMu.Unlock()
}

func (c *Cache) recordMiss() {
	c.statsMu.Lock()
	c.misses++
	c.statsMu.Unlock()
}

func (c *Cache) recordEviction() {
	c.statsMu.Lock()
	c.evictions++
	c.statsMu.Unlock()
}
