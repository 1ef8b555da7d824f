// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package config defines the OpenSlot configuration model and its layered
// Koanf v2 loader (defaults, optional YAML file, environment variables).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the OpenSlot server and engine.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
	Database DatabaseConfig `koanf:"database"`
	Engine   EngineConfig   `koanf:"engine"`
	AI       AIConfig       `koanf:"ai"`
	Research ResearchConfig `koanf:"research"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig configures the DuckDB-backed event store. An empty Path
// selects the in-memory store.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	SeedDemoData bool   `koanf:"seed_demo_data"`
}

// EngineConfig configures the conflict scoring engine.
type EngineConfig struct {
	// DedupThreshold is the weighted-similarity threshold above which a pair
	// of records is merged. In (0,1].
	DedupThreshold float64 `koanf:"dedup_threshold"`

	// DedupCacheSize bounds the pairwise-similarity LRU.
	DedupCacheSize int `koanf:"dedup_cache_size"`

	// MaxComparisons caps the number of competing events receiving full
	// scoring per date; the remainder contribute a flat per-event amount.
	MaxComparisons int `koanf:"max_comparisons"`

	// MaxConcurrentDates bounds the number of candidate dates scored in
	// parallel within one analysis.
	MaxConcurrentDates int `koanf:"max_concurrent_dates"`

	// MaxCandidateDates caps the size of the requested date range.
	MaxCandidateDates int `koanf:"max_candidate_dates"`

	// OverlapCacheTTL is the TTL of category-pair overlap predictions.
	OverlapCacheTTL time.Duration `koanf:"overlap_cache_ttl"`

	// OverlapCacheMaxEntries bounds the overlap cache.
	OverlapCacheMaxEntries int `koanf:"overlap_cache_max_entries"`

	// SeasonalCacheTTL is the TTL of seasonal/holiday lookups.
	SeasonalCacheTTL time.Duration `koanf:"seasonal_cache_ttl"`

	// SeasonalCacheMaxEntries bounds the seasonal cache.
	SeasonalCacheMaxEntries int `koanf:"seasonal_cache_max_entries"`

	// StoreTimeout bounds a single event store query.
	StoreTimeout time.Duration `koanf:"store_timeout"`
}

// AIConfig configures the AI overlap backend. When disabled or unconfigured
// the engine uses the rule-based strategy exclusively.
type AIConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`

	// Timeout bounds one batched overlap call. AI calls are on the critical
	// path, so this stays tight.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond rate-limits outgoing AI calls.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// BreakerMaxFailures opens the circuit breaker after this many
	// consecutive failures.
	BreakerMaxFailures int `koanf:"breaker_max_failures"`

	// BreakerCooldown is how long the breaker stays open before probing.
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// ResearchConfig configures the external event research client.
type ResearchConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// Validate checks configuration invariants. It is called by the loader after
// all layers are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Engine.DedupThreshold <= 0 || c.Engine.DedupThreshold > 1 {
		return fmt.Errorf("engine.dedup_threshold must be in (0, 1], got %v", c.Engine.DedupThreshold)
	}
	if c.Engine.MaxComparisons <= 0 {
		return fmt.Errorf("engine.max_comparisons must be positive, got %d", c.Engine.MaxComparisons)
	}
	if c.Engine.MaxConcurrentDates <= 0 {
		return fmt.Errorf("engine.max_concurrent_dates must be positive, got %d", c.Engine.MaxConcurrentDates)
	}
	if c.Engine.MaxCandidateDates <= 0 {
		return fmt.Errorf("engine.max_candidate_dates must be positive, got %d", c.Engine.MaxCandidateDates)
	}
	if c.Engine.OverlapCacheTTL <= 0 {
		return fmt.Errorf("engine.overlap_cache_ttl must be positive, got %v", c.Engine.OverlapCacheTTL)
	}
	if c.Engine.SeasonalCacheTTL <= 0 {
		return fmt.Errorf("engine.seasonal_cache_ttl must be positive, got %v", c.Engine.SeasonalCacheTTL)
	}
	if c.AI.Enabled {
		if c.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if c.AI.Timeout <= 0 {
			return fmt.Errorf("ai.timeout must be positive, got %v", c.AI.Timeout)
		}
	}
	if c.Research.Enabled && c.Research.APIKey == "" {
		return fmt.Errorf("research.api_key is required when research.enabled is true")
	}
	return nil
}
