// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

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

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/openslot/config.yaml",
	"/etc/openslot/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8380,
			Timeout:         60 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:         "", // empty = in-memory store
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			SeedDemoData: false,
		},
		Engine: EngineConfig{
			DedupThreshold:          0.80,
			DedupCacheSize:          10000,
			MaxComparisons:          50,
			MaxConcurrentDates:      8,
			MaxCandidateDates:       92,
			OverlapCacheTTL:         time.Hour,
			OverlapCacheMaxEntries:  5000,
			SeasonalCacheTTL:        30 * time.Minute,
			SeasonalCacheMaxEntries: 2000,
			StoreTimeout:            10 * time.Second,
		},
		AI: AIConfig{
			Enabled:            false, // Rule-based strategy by default - opt-in only
			BaseURL:            "https://generativelanguage.googleapis.com/v1beta",
			APIKey:             "",
			Model:              "gemini-2.0-flash",
			Timeout:            15 * time.Second,
			RequestsPerSecond:  2,
			BreakerMaxFailures: 3,
			BreakerCooldown:    30 * time.Second,
		},
		Research: ResearchConfig{
			Enabled: false,
			BaseURL: "https://api.perplexity.ai",
			APIKey:  "",
			Model:   "sonar",
			Timeout: 20 * time.Second,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//
//  1. Defaults: built-in values from defaultConfig
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional config file
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables
	envProvider := env.Provider("", ".", envTransformFunc)
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

// findConfigFile searches the env override and then the default paths.
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

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive as env strings.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices for
// known slice fields. YAML-sourced slices pass through untouched.
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
			p = strings.TrimSpace(p)
			if p != "" {
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

// envMappings maps environment variable names to config paths.
//
// Examples:
//   - HTTP_PORT         -> server.port
//   - GEMINI_API_KEY    -> ai.api_key
//   - DEDUP_THRESHOLD   -> engine.dedup_threshold
var envMappings = map[string]string{
	"http_host":              "server.host",
	"http_port":              "server.port",
	"http_timeout":           "server.timeout",
	"cors_origins":           "server.cors_origins",
	"rate_limit_reqs":        "server.rate_limit_reqs",
	"rate_limit_window":      "server.rate_limit_window",
	"log_level":              "logging.level",
	"log_format":             "logging.format",
	"log_caller":             "logging.caller",
	"duckdb_path":            "database.path",
	"duckdb_max_memory":      "database.max_memory",
	"duckdb_threads":         "database.threads",
	"seed_demo_data":         "database.seed_demo_data",
	"dedup_threshold":        "engine.dedup_threshold",
	"dedup_cache_size":       "engine.dedup_cache_size",
	"max_comparisons":        "engine.max_comparisons",
	"max_concurrent_dates":   "engine.max_concurrent_dates",
	"max_candidate_dates":    "engine.max_candidate_dates",
	"overlap_cache_ttl":      "engine.overlap_cache_ttl",
	"seasonal_cache_ttl":     "engine.seasonal_cache_ttl",
	"store_timeout":          "engine.store_timeout",
	"ai_enabled":             "ai.enabled",
	"ai_base_url":            "ai.base_url",
	"gemini_api_key":         "ai.api_key",
	"ai_model":               "ai.model",
	"ai_timeout":             "ai.timeout",
	"ai_requests_per_second": "ai.requests_per_second",
	"research_enabled":       "research.enabled",
	"research_base_url":      "research.base_url",
	"perplexity_api_key":     "research.api_key",
	"research_model":         "research.model",
	"research_timeout":       "research.timeout",
}

// envTransformFunc maps environment variable names onto koanf config paths.
// Unknown variables are dropped rather than guessed at.
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
