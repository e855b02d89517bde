// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package services

import (
	"context"
	"time"

	"github.com/causeway-app/causeway/internal/cache"
	"github.com/causeway-app/causeway/internal/metrics"
)

// CacheStatsService periodically mirrors cache counters into Prometheus.
// The cache tracks cumulative totals; this service publishes the deltas
// since its last tick so the Prometheus counters stay monotonic.
type CacheStatsService struct {
	store    *cache.Cache
	interval time.Duration

	lastHits   int64
	lastMisses int64
}

// NewCacheStatsService creates the reporter. Interval defaults to 15s.
func NewCacheStatsService(store *cache.Cache, interval time.Duration) *CacheStatsService {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &CacheStatsService{
		store:    store,
		interval: interval,
	}
}

// Serve implements suture.Service.
func (s *CacheStatsService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.publish()
		}
	}
}

// publish pushes current cache counters to the Prometheus collectors.
func (s *CacheStatsService) publish() {
	stats := s.store.GetStats()

	if delta := stats.Hits - s.lastHits; delta > 0 {
		metrics.CacheHits.Add(float64(delta))
		s.lastHits = stats.Hits
	}
	if delta := stats.Misses - s.lastMisses; delta > 0 {
		metrics.CacheMisses.Add(float64(delta))
		s.lastMisses = stats.Misses
	}
	metrics.CacheSize.Set(float64(stats.Size))
}

// String returns the service name for supervisor logs.
func (s *CacheStatsService) String() string {
	return "cache-stats-reporter"
}
