// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

// Package api exposes the recommendation engine over HTTP. It owns the
// chi router, request validation, rate limiting, and the JSON error
// contract; all domain logic stays in internal/recommend.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/causeway-app/causeway/internal/config"
	"github.com/causeway-app/causeway/internal/recommend"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler *Handler
	cfg     config.ServerConfig
	logger  zerolog.Logger
}

// NewRouter creates the API router.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(engine *recommend.Engine, cfg config.ServerConfig, logger zerolog.Logger) *Router {
	return &Router{
		handler: NewHandler(engine, logger),
		cfg:     cfg,
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// Setup builds the full route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(Recovery(router.logger))
	r.Use(MetricsMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health and metrics stay outside the API rate limit so probes and
	// scrapers cannot be starved by recommendation traffic.
	r.Get("/api/v1/health", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		if router.cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow))
		}

		r.Post("/", router.handler.Recommend)
		r.Get("/cache/stats", router.handler.CacheStats)
		r.Delete("/cache", router.handler.ClearCache)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	return r
}
