// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package cache

import (
	"fmt"
	"testing"
	"time"
)

func newTestCache(t *testing.T, cfg Config) *Cache {
	t.Helper()
	c := New(cfg)
	t.Cleanup(c.Stop)
	return c
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t, Config{})

	c.Set("recommendation:abc", "value1")

	got, ok := c.Get("recommendation:abc")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got != "value1" {
		t.Errorf("got %v, want value1", got)
	}

	if _, ok := c.Get("recommendation:missing"); ok {
		t.Error("expected miss for absent key")
	}
}

func TestExpiration(t *testing.T) {
	c := newTestCache(t, Config{})

	c.SetWithTTL("k", "v", 10*time.Millisecond)

	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after expiry")
	}
	if got := c.GetStats().Size; got != 0 {
		t.Errorf("expired entry not removed on access, size = %d", got)
	}
}

func TestPrefixTTLs(t *testing.T) {
	c := newTestCache(t, Config{DefaultTTL: time.Minute})

	tests := []struct {
		key  string
		want time.Duration
	}{
		{PrefixSearch + "x", DefaultSearchTTL},
		{PrefixBrowse + "x", DefaultBrowseTTL},
		{PrefixNonprofit + "x", DefaultNonprofitTTL},
		{PrefixRecommendation + "x", DefaultRecommendationTTL},
		{"other:x", time.Minute},
	}

	for _, tt := range tests {
		if got := c.ttlFor(tt.key); got != tt.want {
			t.Errorf("ttlFor(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestEvictionOldestInserted(t *testing.T) {
	c := newTestCache(t, Config{MaxEntries: 3})

	c.Set("k1", 1)
	c.Set("k2", 2)
	c.Set("k3", 3)

	// Reading k1 must not protect it; eviction order is insertion order,
	// not recency of use.
	if _, ok := c.Get("k1"); !ok {
		t.Fatal("expected hit for k1")
	}

	c.Set("k4", 4)

	if _, ok := c.Get("k1"); ok {
		t.Error("k1 should have been evicted as oldest-inserted")
	}
	for _, key := range []string{"k2", "k3", "k4"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s unexpectedly evicted", key)
		}
	}
	if got := c.GetStats().Size; got != 3 {
		t.Errorf("size = %d, want 3", got)
	}
}

func TestCapacityNeverExceeded(t *testing.T) {
	c := newTestCache(t, Config{MaxEntries: 10})

	for i := 0; i < 100; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}

	if got := c.GetStats().Size; got > 10 {
		t.Errorf("size = %d, exceeds capacity 10", got)
	}
}

func TestOverwriteDoesNotGrow(t *testing.T) {
	c := newTestCache(t, Config{MaxEntries: 5})

	for i := 0; i < 20; i++ {
		c.Set("same-key", i)
	}

	if got := c.GetStats().Size; got != 1 {
		t.Errorf("size = %d, want 1", got)
	}
	got, ok := c.Get("same-key")
	if !ok || got != 19 {
		t.Errorf("got %v, want 19", got)
	}
}

func TestDelete(t *testing.T) {
	c := newTestCache(t, Config{})

	c.Set("k", "v")
	c.Delete("k")

	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}

	// Deleting an absent key is a no-op.
	c.Delete("never-existed")
}

func TestClear(t *testing.T) {
	c := newTestCache(t, Config{})

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if got := c.GetStats().Size; got != 0 {
		t.Errorf("size = %d after clear, want 0", got)
	}
	if got := c.GetStats().Evictions; got != 2 {
		t.Errorf("evictions = %d after clear, want 2", got)
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(t, Config{})

	c.Set("k", "v")
	c.Get("k")      // hit
	c.Get("absent") // miss
	c.Get("k")      // hit

	stats := c.GetStats()
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("misses = %d, want 1", stats.Misses)
	}
	wantRate := 2.0 / 3.0 * 100.0
	if diff := stats.HitRate - wantRate; diff > 0.01 || diff < -0.01 {
		t.Errorf("hit rate = %.2f, want %.2f", stats.HitRate, wantRate)
	}
}

func TestSweepRemovesExpired(t *testing.T) {
	c := newTestCache(t, Config{SweepInterval: 10 * time.Millisecond})

	c.SetWithTTL("short", "v", 5*time.Millisecond)
	c.SetWithTTL("long", "v", time.Hour)

	time.Sleep(40 * time.Millisecond)

	if got := c.GetStats().Size; got != 1 {
		t.Errorf("size = %d after sweep, want 1", got)
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("live entry removed by sweep")
	}
}

func TestStopIdempotent(t *testing.T) {
	c := New(Config{})
	c.Stop()
	c.Stop()
}
