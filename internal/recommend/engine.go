// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

// Package recommend implements the nonprofit recommendation engine:
// candidate generation against an external directory, a deterministic
// multi-factor reranking policy, and response memoization.
//
// The Engine is the single entry point; Generator and Reranker are
// independent and individually testable. Data flows one way: article
// context -> candidate pool -> ranked results -> cached response.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/causeway-app/causeway/internal/cache"
)

var errDirectoryNotConfigured = errors.New("directory client not configured")

// Engine orchestrates the recommendation pipeline. It is safe for
// concurrent use; each request is independent and idempotent given the
// same cache state and upstream data.
type Engine struct {
	config    *Config
	logger    zerolog.Logger
	store     *cache.Cache
	generator *Generator
	reranker  *Reranker

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
}

// cachedRecommendation is the full pipeline output stored in the cache.
// The top-N slice happens per call against this full list, so different
// TopN values share one entry.
type cachedRecommendation struct {
	Result     *RerankResult
	CausesUsed []string
	TermsUsed  []string
	PoolSize   int
}

// EngineMetrics contains engine counters for observability.
type EngineMetrics struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Errors      int64 `json:"errors"`
}

// NewEngine creates the recommendation engine. The directory client is
// required; trust providers are optional (nil or empty means every
// candidate ranks with unknown trust). Dependencies are injected here
// rather than held as package state.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, store *cache.Cache, directory DirectoryClient, providers []TrustProvider, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("cache store is required")
	}
	if directory == nil {
		return nil, errDirectoryNotConfigured
	}

	engineLogger := logger.With().Str("component", "recommend").Logger()

	return &Engine{
		config:    cfg,
		logger:    engineLogger,
		store:     store,
		generator: NewGenerator(directory, cfg.Generator, engineLogger),
		reranker:  NewReranker(cfg, providers, engineLogger),
	}, nil
}

// Recommend produces the ranked nonprofit list for an article.
//
// On a cache hit the stored full ranking is sliced to the requested top N
// per call. On a miss the pipeline runs Generator then Reranker and caches
// the full output. A context cancelled mid-pipeline returns the context
// error and never caches partial results.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	topN := e.clampTopN(req.TopN)
	key := e.recommendationKey(req)

	if e.config.Cache.Enabled {
		if value, ok := e.store.Get(key); ok {
			if cached, valid := value.(*cachedRecommendation); valid {
				e.cacheHits.Add(1)
				e.logger.Debug().Str("key", key).Msg("recommendation cache hit")
				return e.buildResponse(req, cached, topN, true, start), nil
			}
			// Unexpected type: treat as a cold cache, never as an error.
			e.store.Delete(key)
		}
		e.cacheMisses.Add(1)
	}

	pool, err := e.generator.Generate(ctx, req.Entities, req.Causes)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("generate candidates: %w", err)
	}

	result := e.reranker.Rerank(ctx, pool.Candidates, req.Entities, req.Causes, req.ArticleText)

	// Discard rather than cache anything assembled under a cancelled
	// context; a truncated pool must not poison the cache.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cached := &cachedRecommendation{
		Result:     result,
		CausesUsed: pool.CausesUsed,
		TermsUsed:  pool.TermsUsed,
		PoolSize:   len(pool.Candidates),
	}

	if e.config.Cache.Enabled {
		e.store.SetWithTTL(key, cached, e.config.Cache.TTL)
	}

	e.logger.Debug().
		Int("pool", cached.PoolSize).
		Int("ranked", len(result.Ranked)).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("recommendation complete")

	return e.buildResponse(req, cached, topN, false, start), nil
}

// CacheStats exposes cache counters for operational introspection.
func (e *Engine) CacheStats() cache.Stats {
	return e.store.GetStats()
}

// ClearCache removes all cached entries.
func (e *Engine) ClearCache() {
	e.store.Clear()
	e.logger.Info().Msg("cache cleared")
}

// GetMetrics returns engine counters.
func (e *Engine) GetMetrics() EngineMetrics {
	return EngineMetrics{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
		Errors:      e.errorCount.Load(),
	}
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// clampTopN applies default and maximum result-count limits.
func (e *Engine) clampTopN(topN int) int {
	if topN <= 0 {
		return e.config.Limits.DefaultTopN
	}
	if topN > e.config.Limits.MaxTopN {
		return e.config.Limits.MaxTopN
	}
	return topN
}

// recommendationKey derives the cache key from the logical request
// parameters; causes are sorted inside the key builder so permuted inputs
// share an entry.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) recommendationKey(req Request) string {
	geo := req.Entities.Geography
	return cache.RecommendationKey(req.ArticleText, geo.Country, geo.Region, geo.City, req.Causes)
}

// buildResponse slices the full ranking to top N and attaches debug
// diagnostics when requested. The cached slice is copied, never aliased,
// so callers can't mutate the cache.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(req Request, cached *cachedRecommendation, topN int, cacheHit bool, start time.Time) *Response {
	ranked := cached.Result.Ranked
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	nonprofits := make([]NonprofitRanked, len(ranked))
	copy(nonprofits, ranked)

	resp := &Response{Nonprofits: nonprofits}
	if req.Debug {
		resp.Debug = &DebugInfo{
			CausesUsed:           cached.CausesUsed,
			TermsUsed:            cached.TermsUsed,
			PoolSize:             cached.PoolSize,
			GeoTierCounts:        cached.Result.GeoTierCounts,
			Excluded:             cached.Result.Excluded,
			TrustCoveragePercent: cached.Result.TrustCoveragePercent,
			CacheHit:             cacheHit,
			LatencyMS:            time.Since(start).Milliseconds(),
		}
	}
	return resp
}
