// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/openslot/openslot/internal/cache"
	"github.com/openslot/openslot/internal/config"
	"github.com/openslot/openslot/internal/dedup"
	"github.com/openslot/openslot/internal/engine"
	"github.com/openslot/openslot/internal/eventstore"
	"github.com/openslot/openslot/internal/logging"
	"github.com/openslot/openslot/internal/overlap"
	"github.com/openslot/openslot/internal/scorer"
	"github.com/openslot/openslot/internal/seasonal"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Engine: config.EngineConfig{
			DedupThreshold:     0.80,
			DedupCacheSize:     1000,
			MaxComparisons:     50,
			MaxConcurrentDates: 4,
			MaxCandidateDates:  92,
			StoreTimeout:       time.Second,
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := testConfig()
	logger := logging.NewTestLogger(io.Discard)
	store := eventstore.NewMemoryStore(eventstore.DemoRecords())
	eng := engine.New(engine.Options{
		Config:        cfg.Engine,
		Store:         store,
		Dedup:         dedup.New(dedup.DefaultConfig(), logger),
		RuleEstimator: overlap.NewEstimator(cache.NewStore(time.Hour, 1000), nil, logger),
		Seasonal:      seasonal.NewEngine(seasonal.NewDefaultRuleSource(), cache.NewStore(30*time.Minute, 1000), logger),
		Scorer:        scorer.New(50, logger),
		Logger:        logger,
	})

	srv := httptest.NewServer(NewRouter(NewHandler(eng, store, cfg)))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := `{
		"city": "Prague",
		"category": "Technology",
		"subcategory": "AI-ML",
		"expected_attendees": 500,
		"start_date": "2025-11-14T00:00:00Z",
		"end_date": "2025-11-16T00:00:00Z"
	}`
	resp, err := http.Post(srv.URL+"/api/v1/analyze", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /analyze failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("X-Request-ID header missing")
	}

	var envelope struct {
		Success bool                  `json:"success"`
		Data    *engine.AnalyzeResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !envelope.Success {
		t.Error("success = false, want true")
	}
	if envelope.Data == nil {
		t.Fatal("data missing from response")
	}
	if got := len(envelope.Data.RecommendedDates) + len(envelope.Data.HighRiskDates); got != 3 {
		t.Errorf("scored dates = %d, want 3", got)
	}
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing city", `{"category": "Technology", "start_date": "2025-11-14T00:00:00Z", "end_date": "2025-11-16T00:00:00Z"}`},
		{"missing dates", `{"city": "Prague", "category": "Technology"}`},
		{"invalid json", `{"city": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/analyze", "application/json", bytes.NewBufferString(tt.body))
			if err != nil {
				t.Fatalf("POST /analyze failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}

			var envelope APIResponse
			if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if envelope.Success {
				t.Error("success = true, want false")
			}
			if envelope.Error == nil || envelope.Error.Code == "" {
				t.Error("error payload missing")
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope struct {
		Success bool         `json:"success"`
		Data    HealthStatus `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.Status != "healthy" {
		t.Errorf("status = %q, want healthy", envelope.Data.Status)
	}
}

func TestIngestEndpoint(t *testing.T) {
	srv := newTestServer(t)

	body := `[
		{"provider": "bright", "payload": {"id": "b-10", "title": "Pottery Workshop", "tags": ["arts"], "date": "2025-12-01", "city": "Prague"}},
		{"provider": "unknownfeed", "payload": {}}
	]`
	resp, err := http.Post(srv.URL+"/api/v1/events", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /events failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var envelope struct {
		Success bool         `json:"success"`
		Data    IngestResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.Accepted != 1 || envelope.Data.Skipped != 1 {
		t.Errorf("ingest result = %+v, want 1 accepted and 1 skipped", envelope.Data)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
