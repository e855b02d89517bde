// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

// Package main is the entry point for the Causeway server.
//
// Causeway recommends vetted nonprofits for crisis news articles. Given
// the structured facts extracted from an article (location, disaster
// type, affected population, cause areas), it gathers candidate
// organizations from an external nonprofit directory, ranks them with a
// deterministic multi-factor policy, and serves the result over a JSON
// API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (env > file > defaults)
//  2. Logging: global zerolog logger
//  3. Cache: in-memory TTL cache shared by the directory client and engine
//  4. Directory client: rate-limited, circuit-broken Every.org-style API
//  5. Trust provider (optional): external vetting signal source
//  6. Engine: candidate generation and reranking pipeline
//  7. HTTP server: chi router under a suture supervision tree
//
// # Configuration
//
// Settings come from CAUSEWAY_-prefixed environment variables, an
// optional config.yaml, and built-in defaults. Common variables:
//
//	export CAUSEWAY_DIRECTORY_BASE_URL=https://partners.every.org/v0.2
//	export CAUSEWAY_DIRECTORY_API_KEY=your-partner-key
//	export CAUSEWAY_SERVER_PORT=8487
//	export CAUSEWAY_TRUST_ENABLED=true
//	export CAUSEWAY_TRUST_BASE_URL=https://api.charityapi.org
//	export CAUSEWAY_TRUST_API_KEY=your-vetting-key
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests within the configured
// shutdown timeout, and stops the cache sweeper.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/causeway-app/causeway/internal/api"
	"github.com/causeway-app/causeway/internal/cache"
	"github.com/causeway-app/causeway/internal/config"
	"github.com/causeway-app/causeway/internal/directory"
	"github.com/causeway-app/causeway/internal/logging"
	"github.com/causeway-app/causeway/internal/recommend"
	"github.com/causeway-app/causeway/internal/supervisor"
	"github.com/causeway-app/causeway/internal/supervisor/services"
	"github.com/causeway-app/causeway/internal/trust"
)

func main() {
	if err := run(); err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

// run wires the application and blocks until shutdown. Separated from
// main so deferred cleanup runs before the process exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.Logger()

	logger.Info().
		Str("version", api.Version).
		Str("addr", cfg.Server.Addr()).
		Msg("starting causeway")

	store := cache.New(cache.Config{
		MaxEntries:    cfg.Cache.MaxEntries,
		DefaultTTL:    cfg.Cache.DefaultTTL,
		SweepInterval: cfg.Cache.SweepInterval,
	})
	defer store.Stop()

	dir, err := directory.NewClient(directory.Config{
		BaseURL:       cfg.Directory.BaseURL,
		APIKey:        cfg.Directory.APIKey,
		Timeout:       cfg.Directory.Timeout,
		RatePerSecond: cfg.Directory.RatePerSecond,
		Burst:         cfg.Directory.Burst,
	}, store, logger)
	if err != nil {
		return fmt.Errorf("create directory client: %w", err)
	}

	providers, err := buildTrustProviders(cfg, logger)
	if err != nil {
		return fmt.Errorf("create trust provider: %w", err)
	}

	engine, err := recommend.NewEngine(engineConfig(cfg), store, dir, providers, logger)
	if err != nil {
		return fmt.Errorf("create recommendation engine: %w", err)
	}

	router := api.NewRouter(engine, cfg.Server, logger)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.AddInfraService(services.NewCacheStatsService(store, 0))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Msg("causeway ready")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	logger.Info().Msg("causeway stopped")
	return nil
}

// buildTrustProviders assembles the trust provider chain from config.
// Returns nil when the external provider is disabled; the engine treats
// that as unknown trust for every candidate.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func buildTrustProviders(cfg *config.Config, logger zerolog.Logger) ([]recommend.TrustProvider, error) {
	if !cfg.Trust.Enabled {
		return nil, nil
	}

	client, err := trust.NewClient(trust.Config{
		Name:          cfg.Trust.Name,
		BaseURL:       cfg.Trust.BaseURL,
		APIKey:        cfg.Trust.APIKey,
		Timeout:       cfg.Trust.Timeout,
		RatePerSecond: cfg.Trust.RatePerSecond,
		Burst:         cfg.Trust.Burst,
	}, logger)
	if err != nil {
		return nil, err
	}
	return []recommend.TrustProvider{client}, nil
}

// engineConfig maps the flat service config onto the engine's config.
func engineConfig(cfg *config.Config) *recommend.Config {
	ec := recommend.DefaultConfig()
	ec.Weights.Geo = cfg.Recommend.GeoWeight
	ec.Weights.Cause = cfg.Recommend.CauseWeight
	ec.Weights.Trust = cfg.Recommend.TrustWeight
	ec.Weights.Quality = cfg.Recommend.QualityWeight
	ec.Generator.MaxBrowseCauses = cfg.Recommend.MaxBrowseCauses
	ec.Generator.MaxSearchTerms = cfg.Recommend.MaxSearchTerms
	ec.Generator.Take = cfg.Recommend.QueryTake
	ec.Generator.PoolCap = cfg.Recommend.PoolCap
	ec.Generator.MaxInFlight = cfg.Recommend.MaxInFlight
	ec.Rerank.MaxResults = cfg.Recommend.MaxResults
	ec.Rerank.MaxPerCategory = cfg.Recommend.MaxPerCategory
	ec.Limits.DefaultTopN = cfg.Recommend.DefaultTopN
	ec.Limits.MaxTopN = cfg.Recommend.MaxTopN
	ec.Cache.Enabled = cfg.Recommend.CacheEnabled
	ec.Cache.TTL = cfg.Recommend.CacheTTL
	return ec
}
