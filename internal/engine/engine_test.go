// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package engine

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/openslot/openslot/internal/cache"
	"github.com/openslot/openslot/internal/config"
	"github.com/openslot/openslot/internal/dedup"
	"github.com/openslot/openslot/internal/eventstore"
	"github.com/openslot/openslot/internal/logging"
	"github.com/openslot/openslot/internal/models"
	"github.com/openslot/openslot/internal/overlap"
	"github.com/openslot/openslot/internal/scorer"
	"github.com/openslot/openslot/internal/seasonal"
)

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		DedupThreshold:     0.80,
		DedupCacheSize:     1000,
		MaxComparisons:     50,
		MaxConcurrentDates: 4,
		MaxCandidateDates:  92,
		StoreTimeout:       time.Second,
	}
}

func newTestEngine(store eventstore.Store) *Engine {
	logger := logging.NewTestLogger(io.Discard)
	return New(Options{
		Config:        testEngineConfig(),
		Store:         store,
		Dedup:         dedup.New(dedup.DefaultConfig(), logger),
		RuleEstimator: overlap.NewEstimator(cache.NewStore(time.Hour, 1000), nil, logger),
		Seasonal:      seasonal.NewEngine(seasonal.NewDefaultRuleSource(), cache.NewStore(30*time.Minute, 1000), logger),
		Scorer:        scorer.New(50, logger),
		Logger:        logger,
	})
}

func nov(d int) time.Time {
	return time.Date(2025, time.November, d, 0, 0, 0, 0, time.UTC)
}

func TestAnalyzeConflictsEndToEnd(t *testing.T) {
	engine := newTestEngine(eventstore.NewMemoryStore(eventstore.DemoRecords()))

	result, err := engine.AnalyzeConflicts(context.Background(), AnalyzeRequest{
		City:              "Prague",
		Category:          "Technology",
		Subcategory:       "AI-ML",
		ExpectedAttendees: 500,
		StartDate:         nov(14),
		EndDate:           nov(16),
	})
	if err != nil {
		t.Fatalf("AnalyzeConflicts failed: %v", err)
	}

	total := len(result.RecommendedDates) + len(result.HighRiskDates)
	if total != 3 {
		t.Fatalf("scored %d dates, want 3", total)
	}
	if result.AnalysisDate.IsZero() {
		t.Error("AnalysisDate not set")
	}

	// The three demo "Tech Conference 2025" records merge into one event.
	conferences := 0
	for _, ev := range result.AllEvents {
		if ev.Title == "Tech Conference 2025" {
			conferences++
			if len(ev.Sources) != 3 {
				t.Errorf("merged conference should carry 3 sources, got %v", ev.Sources)
			}
		}
	}
	if conferences != 1 {
		t.Errorf("demo duplicates should collapse to one canonical event, got %d", conferences)
	}

	// Nov 15 hosts the merged conference; it must score above Nov 14.
	byDate := map[string]models.CandidateDateResult{}
	for _, r := range append(result.RecommendedDates, result.HighRiskDates...) {
		byDate[r.Date.Format("2006-01-02")] = r
	}
	if byDate["2025-11-15"].ConflictScore <= byDate["2025-11-14"].ConflictScore {
		t.Errorf("conference day score %.2f should exceed quieter day %.2f",
			byDate["2025-11-15"].ConflictScore, byDate["2025-11-14"].ConflictScore)
	}
}

func TestAnalyzeConflictsValidation(t *testing.T) {
	engine := newTestEngine(eventstore.NewMemoryStore(nil))
	ctx := context.Background()

	tests := []struct {
		name string
		req  AnalyzeRequest
	}{
		{"missing city", AnalyzeRequest{Category: "Technology", StartDate: nov(14), EndDate: nov(16)}},
		{"missing category", AnalyzeRequest{City: "Prague", StartDate: nov(14), EndDate: nov(16)}},
		{"missing dates", AnalyzeRequest{City: "Prague", Category: "Technology"}},
		{"end before start", AnalyzeRequest{City: "Prague", Category: "Technology", StartDate: nov(16), EndDate: nov(14)}},
		{"oversized range", AnalyzeRequest{City: "Prague", Category: "Technology",
			StartDate: nov(1), EndDate: nov(1).AddDate(1, 0, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.AnalyzeConflicts(ctx, tt.req); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestAnalyzeConflictsEmptyDate(t *testing.T) {
	engine := newTestEngine(eventstore.NewMemoryStore(nil))

	result, err := engine.AnalyzeConflicts(context.Background(), AnalyzeRequest{
		City:      "Prague",
		Category:  "Technology",
		StartDate: nov(3),
		EndDate:   nov(3),
	})
	if err != nil {
		t.Fatalf("AnalyzeConflicts failed: %v", err)
	}

	if len(result.RecommendedDates) != 1 || len(result.HighRiskDates) != 0 {
		t.Fatalf("want 1 recommended date, got %d/%d", len(result.RecommendedDates), len(result.HighRiskDates))
	}
	r := result.RecommendedDates[0]
	if r.ConflictScore != 0 {
		t.Errorf("ConflictScore = %.2f, want 0 with no competitors", r.ConflictScore)
	}
	if r.RiskLevel != models.RiskLow {
		t.Errorf("RiskLevel = %s, want Low", r.RiskLevel)
	}
}

type failingStore struct{}

func (failingStore) FetchCompetingEvents(context.Context, eventstore.Query) ([]models.RawEventRecord, error) {
	return nil, errors.New("store unavailable")
}

func (failingStore) Close() error { return nil }

func TestAnalyzeConflictsStoreFailureDegrades(t *testing.T) {
	engine := newTestEngine(failingStore{})

	result, err := engine.AnalyzeConflicts(context.Background(), AnalyzeRequest{
		City:      "Prague",
		Category:  "Technology",
		StartDate: nov(14),
		EndDate:   nov(15),
	})
	if err != nil {
		t.Fatalf("store failure must not fail the analysis: %v", err)
	}

	all := append(result.RecommendedDates, result.HighRiskDates...)
	if len(all) != 2 {
		t.Fatalf("scored %d dates, want 2", len(all))
	}
	for _, r := range all {
		found := false
		for _, d := range r.Degraded {
			if d == DegradedEventStore {
				found = true
			}
		}
		if !found {
			t.Errorf("date %s missing %q degradation marker: %v", r.Date.Format("2006-01-02"), DegradedEventStore, r.Degraded)
		}
		if r.ConflictScore != 0 {
			t.Errorf("degraded store should yield zero competitors and zero score, got %.2f", r.ConflictScore)
		}
	}
}

func TestAnalyzeConflictsRelevanceFilter(t *testing.T) {
	records := []models.RawEventRecord{
		{
			ID: "small-unrelated", Title: "Neighborhood Chess Evening", Category: "Games",
			Date: nov(15), City: "Prague", ExpectedAttendees: 30, Source: "bright",
		},
		{
			ID: "big-unrelated", Title: "City Marathon", Category: "Sports",
			Date: nov(15), City: "Prague", ExpectedAttendees: 20000, Source: "bright",
		},
	}
	engine := newTestEngine(eventstore.NewMemoryStore(records))
	req := AnalyzeRequest{
		City:      "Prague",
		Category:  "Technology",
		StartDate: nov(15),
		EndDate:   nov(15),
	}
	ctx := context.Background()

	unfiltered, err := engine.AnalyzeConflicts(ctx, req)
	if err != nil {
		t.Fatalf("AnalyzeConflicts failed: %v", err)
	}
	if len(unfiltered.AllEvents) != 2 {
		t.Fatalf("unfiltered run should keep both events, got %d", len(unfiltered.AllEvents))
	}

	req.EnableRelevanceFilter = true
	filtered, err := engine.AnalyzeConflicts(ctx, req)
	if err != nil {
		t.Fatalf("AnalyzeConflicts failed: %v", err)
	}
	if len(filtered.AllEvents) != 1 || filtered.AllEvents[0].Title != "City Marathon" {
		t.Errorf("filter should drop the small unrelated event only, got %+v", filtered.AllEvents)
	}
}

func TestAssemblePartitionPreservesDateOrder(t *testing.T) {
	results := []models.CandidateDateResult{
		{Date: nov(16), RiskLevel: models.RiskHigh},
		{Date: nov(14), RiskLevel: models.RiskLow},
		{Date: nov(15), RiskLevel: models.RiskMedium},
		{Date: nov(13), RiskLevel: models.RiskHigh},
	}

	out := Assemble(results)

	if len(out.RecommendedDates) != 2 || len(out.HighRiskDates) != 2 {
		t.Fatalf("partition sizes %d/%d, want 2/2", len(out.RecommendedDates), len(out.HighRiskDates))
	}
	if !out.RecommendedDates[0].Date.Equal(nov(14)) || !out.RecommendedDates[1].Date.Equal(nov(15)) {
		t.Error("recommended dates out of order")
	}
	if !out.HighRiskDates[0].Date.Equal(nov(13)) || !out.HighRiskDates[1].Date.Equal(nov(16)) {
		t.Error("high-risk dates out of order")
	}
}

func TestAssembleCollectsUniqueEvents(t *testing.T) {
	shared := models.Event{ID: "e1", Title: "Shared"}
	results := []models.CandidateDateResult{
		{Date: nov(14), RiskLevel: models.RiskLow, CompetingEvents: []models.Event{shared}},
		{Date: nov(15), RiskLevel: models.RiskLow, CompetingEvents: []models.Event{shared, {ID: "e2", Title: "Other"}}},
	}

	out := Assemble(results)

	if len(out.AllEvents) != 2 {
		t.Errorf("AllEvents should be a unique union, got %d entries", len(out.AllEvents))
	}
}
