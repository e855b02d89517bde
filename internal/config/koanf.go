// Causeway - Nonprofit Recommendations for Crisis News
// Copyright 2026 Causeway Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/causeway-app/causeway

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/causeway/config.yaml",
	"/etc/causeway/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix scopes which environment variables the loader reads.
const envPrefix = "CAUSEWAY_"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8487,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Directory: DirectoryConfig{
			BaseURL:       "https://partners.every.org/v0.2",
			APIKey:        "",
			Timeout:       5 * time.Second,
			RatePerSecond: 8,
			Burst:         8,
		},
		Trust: TrustConfig{
			Enabled:       false, // Opt-in; without it every candidate ranks as unknown trust
			Name:          "charityapi",
			BaseURL:       "",
			APIKey:        "",
			Timeout:       3 * time.Second,
			RatePerSecond: 20,
			Burst:         20,
		},
		Cache: CacheConfig{
			MaxEntries:    1000,
			DefaultTTL:    time.Hour,
			SweepInterval: 5 * time.Minute,
		},
		Recommend: RecommendConfig{
			GeoWeight:       0.40,
			CauseWeight:     0.35,
			TrustWeight:     0.15,
			QualityWeight:   0.10,
			MaxBrowseCauses: 3,
			MaxSearchTerms:  5,
			QueryTake:       50,
			PoolCap:         200,
			MaxInFlight:     6,
			MaxResults:      20,
			MaxPerCategory:  2,
			DefaultTopN:     10,
			MaxTopN:         20,
			CacheEnabled:    true,
			CacheTTL:        time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: CAUSEWAY_-prefixed, highest priority
//
// Precedence is ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// CAUSEWAY_SERVER_PORT -> server.port
	// CAUSEWAY_DIRECTORY_API_KEY -> directory.api_key
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when they arrive as env var strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices; YAML-sourced slices pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// sectionPrefixes are the env var name segments that map to top-level
// config sections. The first matching segment becomes the section; the
// remainder becomes the key.
var sectionPrefixes = []string{
	"server",
	"directory",
	"trust",
	"cache",
	"recommend",
	"logging",
}

// envTransformFunc maps CAUSEWAY_-prefixed env var names to koanf paths.
//
// Examples:
//   - CAUSEWAY_SERVER_PORT -> server.port
//   - CAUSEWAY_SERVER_RATE_LIMIT_REQS -> server.rate_limit_reqs
//   - CAUSEWAY_DIRECTORY_API_KEY -> directory.api_key
//   - CAUSEWAY_RECOMMEND_MAX_TOP_N -> recommend.max_top_n
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	for _, section := range sectionPrefixes {
		prefix := section + "_"
		if strings.HasPrefix(key, prefix) {
			return section + "." + strings.TrimPrefix(key, prefix)
		}
	}

	// Unrecognized variables map nowhere so unrelated CAUSEWAY_ vars
	// cannot corrupt the config tree.
	return ""
}
