// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

// Package config defines the service configuration and its layered loader.
// Precedence: environment variables > YAML config file > built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Directory DirectoryConfig `koanf:"directory"`
	Trust     TrustConfig     `koanf:"trust"` // Optional: external vetting signals
	Cache     CacheConfig     `koanf:"cache"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`   // Requests per window per client IP
	RateLimitWindow time.Duration `koanf:"rate_limit_window"` // Rate limit window
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DirectoryConfig configures the external nonprofit directory client.
type DirectoryConfig struct {
	BaseURL       string        `koanf:"base_url"`
	APIKey        string        `koanf:"api_key"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
}

// TrustConfig configures the optional external trust/vetting provider.
type TrustConfig struct {
	Enabled       bool          `koanf:"enabled"` // Master toggle; disabled means unknown trust for everyone
	Name          string        `koanf:"name"`
	BaseURL       string        `koanf:"base_url"`
	APIKey        string        `koanf:"api_key"`
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Burst         int           `koanf:"burst"`
}

// CacheConfig configures the in-memory TTL cache.
type CacheConfig struct {
	MaxEntries    int           `koanf:"max_entries"`
	DefaultTTL    time.Duration `koanf:"default_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// RecommendConfig configures the recommendation pipeline.
type RecommendConfig struct {
	GeoWeight     float64 `koanf:"geo_weight"`
	CauseWeight   float64 `koanf:"cause_weight"`
	TrustWeight   float64 `koanf:"trust_weight"`
	QualityWeight float64 `koanf:"quality_weight"`

	MaxBrowseCauses int `koanf:"max_browse_causes"`
	MaxSearchTerms  int `koanf:"max_search_terms"`
	QueryTake       int `koanf:"query_take"`
	PoolCap         int `koanf:"pool_cap"`
	MaxInFlight     int `koanf:"max_in_flight"`

	MaxResults     int `koanf:"max_results"`
	MaxPerCategory int `koanf:"max_per_category"`
	DefaultTopN    int `koanf:"default_top_n"`
	MaxTopN        int `koanf:"max_top_n"`

	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for internally inconsistent or
// unusable values. Called after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Directory.BaseURL == "" {
		return fmt.Errorf("directory.base_url is required")
	}
	if c.Trust.Enabled && c.Trust.BaseURL == "" {
		return fmt.Errorf("trust.base_url is required when trust.enabled is true")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.DefaultTTL <= 0 {
		return fmt.Errorf("cache.default_ttl must be positive, got %s", c.Cache.DefaultTTL)
	}

	weightSum := c.Recommend.GeoWeight + c.Recommend.CauseWeight +
		c.Recommend.TrustWeight + c.Recommend.QualityWeight
	if diff := weightSum - 1.0; diff > 1e-9 || diff < -1e-9 {
		return fmt.Errorf("recommend score weights must sum to 1.0, got %.4f", weightSum)
	}

	if c.Recommend.DefaultTopN <= 0 {
		return fmt.Errorf("recommend.default_top_n must be positive, got %d", c.Recommend.DefaultTopN)
	}
	if c.Recommend.MaxTopN < c.Recommend.DefaultTopN {
		return fmt.Errorf("recommend.max_top_n (%d) must be >= recommend.default_top_n (%d)",
			c.Recommend.MaxTopN, c.Recommend.DefaultTopN)
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "":
	default:
		return fmt.Errorf("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console", "":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
