// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

// Package metrics provides Prometheus instrumentation for Causeway:
// recommendation request latency, cache efficiency, directory client
// outcomes, and circuit breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "causeway_recommendation_requests_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"outcome"}, // "ok", "error", "cache_hit"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "causeway_recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationPoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "causeway_recommendation_pool_size",
			Help:    "Candidate pool size per recommendation run",
			Buckets: []float64{0, 10, 25, 50, 100, 150, 200},
		},
	)

	// Cache metrics
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "causeway_cache_hits_total",
			Help: "Total cache hits across all namespaces",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "causeway_cache_misses_total",
			Help: "Total cache misses across all namespaces",
		},
	)

	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "causeway_cache_entries",
			Help: "Current number of cache entries",
		},
	)

	// Directory client metrics
	DirectoryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "causeway_directory_requests_total",
			Help: "Directory API requests by operation and result",
		},
		[]string{"operation", "result"}, // operation: "browse", "search", "details"
	)

	DirectoryRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "causeway_directory_request_duration_seconds",
			Help:    "Directory API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Trust provider metrics
	TrustProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "causeway_trust_provider_requests_total",
			Help: "Trust provider lookups by provider and result",
		},
		[]string{"provider", "result"},
	)

	// Circuit breaker metrics (shared by directory and trust clients)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "causeway_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "causeway_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// HTTP API metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "causeway_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
