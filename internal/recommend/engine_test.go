// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/causeway-app/causeway/internal/cache"
)

func newTestEngine(t *testing.T, cfg *Config, dir DirectoryClient, providers []TrustProvider) *Engine {
	t.Helper()
	store := cache.New(cache.Config{})
	t.Cleanup(store.Stop)

	engine, err := NewEngine(cfg, store, dir, providers, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return engine
}

func wildfireDirectory(n int) *fakeDirectory {
	pool := make([]NonprofitCandidate, n)
	for i := range pool {
		c := richCandidate(fmt.Sprintf("org-%02d", i), "Paradise, California", "wildfires")
		c.PrimaryCategory = fmt.Sprintf("cat-%d", i) // distinct so diversity never prunes
		pool[i] = c
	}
	return &fakeDirectory{
		browse: map[string][]NonprofitCandidate{"wildfires": pool},
	}
}

func wildfireRequest() Request {
	return Request{
		ArticleText: "A fast-moving wildfire forced evacuations across the town overnight.",
		Entities: ArticleEntities{
			Geography:    Geography{Country: "United States", Region: "California", City: "Paradise"},
			DisasterType: "wildfire",
		},
		Causes: []string{"wildfires"},
	}
}

func TestNewEngineValidation(t *testing.T) {
	store := cache.New(cache.Config{})
	t.Cleanup(store.Stop)

	if _, err := NewEngine(nil, store, nil, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for nil directory")
	}
	if _, err := NewEngine(nil, nil, &fakeDirectory{}, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for nil store")
	}

	bad := DefaultConfig()
	bad.Weights.Geo = 0.9
	if _, err := NewEngine(bad, store, &fakeDirectory{}, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for weights not summing to 1.0")
	}
}

func TestRecommendReturnsRankedResults(t *testing.T) {
	engine := newTestEngine(t, nil, wildfireDirectory(15), nil)

	resp, err := engine.Recommend(context.Background(), wildfireRequest())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	want := DefaultConfig().Limits.DefaultTopN
	if len(resp.Nonprofits) != want {
		t.Errorf("results = %d, want default top N %d", len(resp.Nonprofits), want)
	}
	for _, n := range resp.Nonprofits {
		if n.GeoTier != TierLocal {
			t.Errorf("%s tier = %v, want tier1", n.Slug, n.GeoTier)
		}
		if len(n.Reasons) == 0 {
			t.Errorf("%s has no reasons", n.Slug)
		}
	}
}

func TestRecommendTopNClamping(t *testing.T) {
	engine := newTestEngine(t, nil, wildfireDirectory(30), nil)

	tests := []struct {
		topN int
		want int
	}{
		{0, DefaultConfig().Limits.DefaultTopN},
		{3, 3},
		{500, DefaultConfig().Limits.MaxTopN},
	}

	for _, tt := range tests {
		req := wildfireRequest()
		req.TopN = tt.topN
		resp, err := engine.Recommend(context.Background(), req)
		if err != nil {
			t.Fatalf("Recommend(topN=%d) error: %v", tt.topN, err)
		}
		if len(resp.Nonprofits) != tt.want {
			t.Errorf("topN=%d: results = %d, want %d", tt.topN, len(resp.Nonprofits), tt.want)
		}
	}
}

func TestRecommendCacheHit(t *testing.T) {
	dir := wildfireDirectory(10)
	engine := newTestEngine(t, nil, dir, nil)

	req := wildfireRequest()
	req.Debug = true

	first, err := engine.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("first Recommend() error: %v", err)
	}
	if first.Debug.CacheHit {
		t.Error("first call should be a miss")
	}

	browseCallsAfterFirst := len(dir.browseCalls)

	second, err := engine.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("second Recommend() error: %v", err)
	}
	if !second.Debug.CacheHit {
		t.Error("second call should be a cache hit")
	}
	if len(dir.browseCalls) != browseCallsAfterFirst {
		t.Error("cache hit should not touch the directory")
	}

	metrics := engine.GetMetrics()
	if metrics.CacheHits != 1 || metrics.CacheMisses != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", metrics.CacheHits, metrics.CacheMisses)
	}
}

func TestRecommendCacheSharedAcrossTopN(t *testing.T) {
	dir := wildfireDirectory(20)
	engine := newTestEngine(t, nil, dir, nil)

	req := wildfireRequest()
	req.TopN = 5
	if _, err := engine.Recommend(context.Background(), req); err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	calls := len(dir.browseCalls)

	// A different TopN reuses the cached full ranking.
	req.TopN = 15
	resp, err := engine.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if len(resp.Nonprofits) != 15 {
		t.Errorf("results = %d, want 15", len(resp.Nonprofits))
	}
	if len(dir.browseCalls) != calls {
		t.Error("different TopN should share the cache entry")
	}
}

func TestRecommendPermutedCausesShareCacheEntry(t *testing.T) {
	dir := &fakeDirectory{
		browse: map[string][]NonprofitCandidate{
			"wildfires":   {richCandidate("a", "Paradise, California", "wildfires")},
			"environment": {richCandidate("b", "Chico, California", "environment")},
		},
	}
	engine := newTestEngine(t, nil, dir, nil)

	req := wildfireRequest()
	req.Causes = []string{"wildfires", "environment"}
	if _, err := engine.Recommend(context.Background(), req); err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	calls := len(dir.browseCalls)

	req.Causes = []string{"environment", "wildfires"}
	if _, err := engine.Recommend(context.Background(), req); err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if len(dir.browseCalls) != calls {
		t.Error("permuted causes should hit the same cache entry")
	}
}

func TestRecommendCancelledContextNeverCaches(t *testing.T) {
	engine := newTestEngine(t, nil, wildfireDirectory(5), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Recommend(ctx, wildfireRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("Recommend() error = %v, want context.Canceled", err)
	}
	if stats := engine.CacheStats(); stats.Size != 0 {
		t.Errorf("cache size = %d after cancelled run, want 0", stats.Size)
	}
}

func TestRecommendDebugInfo(t *testing.T) {
	engine := newTestEngine(t, nil, wildfireDirectory(8), nil)

	req := wildfireRequest()
	req.Debug = true
	resp, err := engine.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}

	if resp.Debug == nil {
		t.Fatal("debug info missing")
	}
	if resp.Debug.PoolSize != 8 {
		t.Errorf("pool size = %d, want 8", resp.Debug.PoolSize)
	}
	if len(resp.Debug.CausesUsed) != 1 || resp.Debug.CausesUsed[0] != "wildfires" {
		t.Errorf("causes used = %v", resp.Debug.CausesUsed)
	}
	if len(resp.Debug.TermsUsed) == 0 {
		t.Error("terms used is empty")
	}

	req.Debug = false
	plain, err := engine.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if plain.Debug != nil {
		t.Error("debug info present without debug flag")
	}
}

func TestClearCache(t *testing.T) {
	engine := newTestEngine(t, nil, wildfireDirectory(5), nil)

	if _, err := engine.Recommend(context.Background(), wildfireRequest()); err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if engine.CacheStats().Size == 0 {
		t.Fatal("expected cached entry before clear")
	}

	engine.ClearCache()
	if got := engine.CacheStats().Size; got != 0 {
		t.Errorf("cache size = %d after clear, want 0", got)
	}
}

func TestResponseSliceIsACopy(t *testing.T) {
	engine := newTestEngine(t, nil, wildfireDirectory(5), nil)

	first, err := engine.Recommend(context.Background(), wildfireRequest())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	first.Nonprofits[0].Name = "mutated"

	second, err := engine.Recommend(context.Background(), wildfireRequest())
	if err != nil {
		t.Fatalf("Recommend() error: %v", err)
	}
	if second.Nonprofits[0].Name == "mutated" {
		t.Error("caller mutation leaked into the cached ranking")
	}
}
