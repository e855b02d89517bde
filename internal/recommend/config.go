// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package recommend

import (
	"fmt"
	"math"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the contribution of each scoring component.
	// The policy is geography primary, cause secondary, trust tiebreaker,
	// quality minor; weights must sum to 1.0.
	Weights ScoreWeights `json:"weights"`

	// Generator contains candidate-generation parameters.
	Generator GeneratorConfig `json:"generator"`

	// Rerank contains reranking parameters.
	Rerank RerankConfig `json:"rerank"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains response-caching parameters.
	Cache CacheConfig `json:"cache"`
}

// ScoreWeights defines the fixed weighted sum producing the total score.
type ScoreWeights struct {
	// Geo is the geography weight (primary factor).
	Geo float64 `json:"geo"`

	// Cause is the cause-alignment weight (secondary factor).
	Cause float64 `json:"cause"`

	// Trust is the trust-score weight (tiebreaker).
	Trust float64 `json:"trust"`

	// Quality is the metadata-quality weight (minor signal).
	Quality float64 `json:"quality"`
}

// GeneratorConfig contains candidate-generation parameters.
type GeneratorConfig struct {
	// MaxBrowseCauses is how many causes to browse. Default: 3.
	MaxBrowseCauses int `json:"max_browse_causes"`

	// MaxSearchTerms is how many search terms to issue. Default: 5.
	MaxSearchTerms int `json:"max_search_terms"`

	// Take is the per-query result count. Default: 50.
	Take int `json:"take"`

	// PoolCap is the hard cap on the merged pool. Default: 200.
	PoolCap int `json:"pool_cap"`

	// MaxInFlight bounds concurrent directory calls. Default: 6.
	MaxInFlight int `json:"max_in_flight"`
}

// RerankConfig contains reranking parameters.
type RerankConfig struct {
	// MaxResults is the diversified list length. Default: 20.
	MaxResults int `json:"max_results"`

	// MaxPerCategory caps repetitions of a primary category before
	// backfill. Default: 2.
	MaxPerCategory int `json:"max_per_category"`

	// MinAcceptedForCauseGate is how many candidates must already be
	// accepted before a zero cause score excludes a candidate; keeps
	// small pools intact. Default: 5.
	MinAcceptedForCauseGate int `json:"min_accepted_for_cause_gate"`

	// CauseTieEpsilon is the window within which cause scores are treated
	// as tied and trust decides. Default: 0.1.
	CauseTieEpsilon float64 `json:"cause_tie_epsilon"`

	// TrustConcurrency bounds parallel trust-provider calls. Default: 8.
	TrustConcurrency int `json:"trust_concurrency"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultTopN is the result count when the request doesn't specify
	// one. Default: 10.
	DefaultTopN int `json:"default_top_n"`

	// MaxTopN is the hard cap on requested results. Default: 20.
	MaxTopN int `json:"max_top_n"`
}

// CacheConfig contains response-caching parameters.
type CacheConfig struct {
	// Enabled toggles memoization of full recommendation responses.
	Enabled bool `json:"enabled"`

	// TTL is the recommendation-response lifetime. Default: 1h.
	TTL time.Duration `json:"ttl"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: ScoreWeights{
			Geo:     0.40,
			Cause:   0.35,
			Trust:   0.15,
			Quality: 0.10,
		},
		Generator: GeneratorConfig{
			MaxBrowseCauses: 3,
			MaxSearchTerms:  5,
			Take:            50,
			PoolCap:         200,
			MaxInFlight:     6,
		},
		Rerank: RerankConfig{
			MaxResults:              20,
			MaxPerCategory:          2,
			MinAcceptedForCauseGate: 5,
			CauseTieEpsilon:         0.1,
			TrustConcurrency:        8,
		},
		Limits: LimitsConfig{
			DefaultTopN: 10,
			MaxTopN:     20,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     1 * time.Hour,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	sum := c.Weights.Geo + c.Weights.Cause + c.Weights.Trust + c.Weights.Quality
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("score weights must sum to 1.0, got %.4f", sum)
	}
	if c.Weights.Geo < 0 || c.Weights.Cause < 0 || c.Weights.Trust < 0 || c.Weights.Quality < 0 {
		return fmt.Errorf("score weights must be non-negative")
	}
	if c.Generator.Take <= 0 {
		return fmt.Errorf("generator take must be positive, got %d", c.Generator.Take)
	}
	if c.Generator.PoolCap <= 0 {
		return fmt.Errorf("generator pool cap must be positive, got %d", c.Generator.PoolCap)
	}
	if c.Generator.MaxInFlight <= 0 {
		return fmt.Errorf("generator max in-flight must be positive, got %d", c.Generator.MaxInFlight)
	}
	if c.Rerank.MaxResults <= 0 {
		return fmt.Errorf("rerank max results must be positive, got %d", c.Rerank.MaxResults)
	}
	if c.Rerank.MaxPerCategory <= 0 {
		return fmt.Errorf("rerank max per category must be positive, got %d", c.Rerank.MaxPerCategory)
	}
	if c.Rerank.TrustConcurrency <= 0 {
		return fmt.Errorf("rerank trust concurrency must be positive, got %d", c.Rerank.TrustConcurrency)
	}
	if c.Limits.DefaultTopN <= 0 || c.Limits.MaxTopN <= 0 {
		return fmt.Errorf("top-n limits must be positive")
	}
	if c.Limits.DefaultTopN > c.Limits.MaxTopN {
		return fmt.Errorf("default top-n %d exceeds max %d", c.Limits.DefaultTopN, c.Limits.MaxTopN)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
