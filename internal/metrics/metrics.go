// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package metrics provides Prometheus instrumentation for the conflict
// scoring engine: analysis latency, per-component cache efficiency, AI
// degradation counts, and API throughput.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Analysis metrics
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "openslot_analysis_duration_seconds",
			Help:    "Duration of full conflict analyses in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	DateScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "openslot_date_scoring_duration_seconds",
			Help:    "Duration of single candidate-date scoring in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openslot_analyses_total",
			Help: "Total number of conflict analyses",
		},
		[]string{"outcome"}, // "ok", "validation_error"
	)

	CandidateDatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openslot_candidate_dates_scored_total",
			Help: "Total number of candidate dates scored",
		},
	)

	// Cache metrics, labeled per cache ("overlap", "seasonal", "dedup")
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openslot_cache_hits_total",
			Help: "Total number of cache hits per cache",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openslot_cache_misses_total",
			Help: "Total number of cache misses per cache",
		},
		[]string{"cache"},
	)

	// Deduplication metrics
	DuplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openslot_duplicates_removed_total",
			Help: "Total number of duplicate event records merged away",
		},
	)

	MalformedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openslot_malformed_records_total",
			Help: "Total number of records excluded from duplicate comparison",
		},
	)

	// AI backend metrics
	AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openslot_ai_requests_total",
			Help: "Total number of AI backend calls",
		},
		[]string{"backend", "outcome"}, // outcome: "ok", "error", "timeout", "breaker_open"
	)

	AIFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openslot_ai_fallbacks_total",
			Help: "Total number of per-event fallbacks to the rule-based strategy",
		},
		[]string{"reason"}, // "missing_id", "parse_error", "call_failed"
	)

	// Event store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openslot_store_query_duration_seconds",
			Help:    "Duration of event store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store"}, // "duckdb", "memory"
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openslot_store_query_errors_total",
			Help: "Total number of event store query errors",
		},
		[]string{"store"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openslot_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openslot_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records an API request with its duration.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordStoreQuery records an event store query with its duration and outcome.
func RecordStoreQuery(store string, duration time.Duration, err error) {
	StoreQueryDuration.WithLabelValues(store).Observe(duration.Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(store).Inc()
	}
}
