// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package main is the entry point for the OpenSlot server.
//
// OpenSlot scores candidate event dates by audience conflict: it pulls
// competing events from the configured store, deduplicates cross-source
// records, estimates audience overlap, applies seasonal and holiday
// demand adjustments, and returns ranked date recommendations.
//
// # Startup Order
//
//  1. Configuration: layered Koanf v2 sources (env > config file > defaults)
//  2. Event store: DuckDB when DATABASE_PATH is set, in-memory otherwise
//  3. Pipeline: deduplicator, overlap estimators, seasonal engine, scorer
//  4. Optional backends: AI overlap strategy, online research client
//  5. HTTP server: Chi router with /api/v1 routes and /metrics
//
// # Configuration
//
// All settings come from environment variables (see config.yaml for the
// file equivalents). The common ones:
//
//	export SERVER_PORT=8080
//	export DATABASE_PATH=./data/openslot.db   # omit for in-memory store
//	export AI_ENABLED=true
//	export AI_API_KEY=your-gemini-key
//	export RESEARCH_ENABLED=true
//	export RESEARCH_API_KEY=your-research-key
//	./openslot
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the server stops
// accepting connections, waits up to 10s for in-flight requests, then
// closes the event store.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openslot/openslot/internal/api"
	"github.com/openslot/openslot/internal/cache"
	"github.com/openslot/openslot/internal/config"
	"github.com/openslot/openslot/internal/dedup"
	"github.com/openslot/openslot/internal/engine"
	"github.com/openslot/openslot/internal/eventstore"
	"github.com/openslot/openslot/internal/logging"
	"github.com/openslot/openslot/internal/models"
	"github.com/openslot/openslot/internal/overlap"
	"github.com/openslot/openslot/internal/research"
	"github.com/openslot/openslot/internal/scorer"
	"github.com/openslot/openslot/internal/seasonal"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("version", api.Version).Msg("Starting OpenSlot")

	logger := logging.Logger()

	// Event store: DuckDB when a path is configured, in-memory otherwise
	var store eventstore.Store
	if cfg.Database.Path != "" {
		duck, err := eventstore.NewDuckDBStore(&cfg.Database, logger)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize DuckDB store")
		}
		store = duck
		logging.Info().Str("path", cfg.Database.Path).Msg("DuckDB event store initialized")
	} else {
		var records []models.RawEventRecord
		if cfg.Database.SeedDemoData {
			records = eventstore.DemoRecords()
		}
		store = eventstore.NewMemoryStore(records)
		logging.Info().Bool("demo_data", cfg.Database.SeedDemoData).Msg("In-memory event store initialized")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event store")
		}
	}()

	// Overlap estimators: the rule-based estimator always serves; the AI
	// estimator is offered per request when a backend is configured.
	overlapCache := cache.NewStore(cfg.Engine.OverlapCacheTTL, cfg.Engine.OverlapCacheMaxEntries)
	ruleEstimator := overlap.NewEstimator(overlapCache, nil, logger)

	var aiEstimator *overlap.Estimator
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		aiEstimator = overlap.NewEstimator(overlapCache, overlap.NewAIStrategy(&cfg.AI, logger), logger)
		logging.Info().Str("model", cfg.AI.Model).Msg("AI overlap strategy enabled")
	}

	var researcher *research.Client
	if cfg.Research.Enabled && cfg.Research.APIKey != "" {
		researcher = research.NewClient(&cfg.Research, logger)
		logging.Info().Str("model", cfg.Research.Model).Msg("Online event research enabled")
	}

	eng := engine.New(engine.Options{
		Config:        cfg.Engine,
		Store:         store,
		Research:      researcher,
		Dedup:         dedup.New(dedupConfig(cfg), logger),
		AIEstimator:   aiEstimator,
		RuleEstimator: ruleEstimator,
		Seasonal: seasonal.NewEngine(
			seasonal.NewDefaultRuleSource(),
			cache.NewStore(cfg.Engine.SeasonalCacheTTL, cfg.Engine.SeasonalCacheMaxEntries),
			logger,
		),
		Scorer: scorer.New(cfg.Engine.MaxComparisons, logger),
		Logger: logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(api.NewHandler(eng, store, cfg)),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown incomplete")
	}
	logging.Info().Msg("OpenSlot stopped")
}

func dedupConfig(cfg *config.Config) dedup.Config {
	c := dedup.DefaultConfig()
	if cfg.Engine.DedupThreshold > 0 {
		c.Threshold = cfg.Engine.DedupThreshold
	}
	if cfg.Engine.DedupCacheSize > 0 {
		c.CacheSize = cfg.Engine.DedupCacheSize
	}
	return c
}
