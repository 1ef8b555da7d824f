// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package overlap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/openslot/openslot/internal/cache"
	"github.com/openslot/openslot/internal/logging"
	"github.com/openslot/openslot/internal/models"
)

func testEvent(id, category, subcategory string, date time.Time, attendees int) models.Event {
	return models.Event{
		ID:                id,
		Title:             "Event " + id,
		Category:          category,
		Subcategory:       subcategory,
		Date:              date,
		City:              "Prague",
		ExpectedAttendees: attendees,
	}
}

func newTestEstimator(primary Strategy) *Estimator {
	store := cache.NewStore(time.Hour, 1000)
	return NewEstimator(store, primary, logging.NewTestLogger(io.Discard))
}

func TestPredictOverlapCeiling(t *testing.T) {
	estimator := newTestEstimator(nil)
	day := time.Date(2025, time.October, 10, 0, 0, 0, 0, time.UTC)

	planned := testEvent("p", "Technology", "AI/ML", day, 5000)
	competing := testEvent("c", "Technology", "AI/ML", day, 50000)

	pred := estimator.PredictOverlap(context.Background(), planned, competing)

	if pred.OverlapScore > OverlapCeiling {
		t.Errorf("OverlapScore = %.4f, must never exceed %.2f", pred.OverlapScore, OverlapCeiling)
	}
}

func TestPredictOverlapSameNicheSameDayMajorEvent(t *testing.T) {
	estimator := newTestEstimator(nil)
	day := time.Date(2025, time.October, 10, 0, 0, 0, 0, time.UTC)

	planned := testEvent("p", "Technology", "AI-ML", day, 500)
	competing := testEvent("c", "Technology", "AI-ML", day, 15000)

	pred := estimator.PredictOverlap(context.Background(), planned, competing)

	if pred.OverlapScore < 0.90 || pred.OverlapScore > 0.95 {
		t.Errorf("same-niche same-day major-event overlap = %.4f, want in [0.90, 0.95]", pred.OverlapScore)
	}
}

func TestPredictOverlapMonotonicTemporalDecay(t *testing.T) {
	estimator := newTestEstimator(nil)
	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	planned := testEvent("p", "Music", "", base, 1000)

	gaps := []int{0, 2, 5, 20, 60, 120}
	var prev float64 = 1.0

	for _, gap := range gaps {
		competing := testEvent(fmt.Sprintf("c%d", gap), "Music", "", base.AddDate(0, 0, gap), 1000)
		pred := estimator.PredictOverlap(context.Background(), planned, competing)
		if pred.OverlapScore > prev {
			t.Errorf("overlap at gap %d days = %.4f, exceeds closer gap's %.4f", gap, pred.OverlapScore, prev)
		}
		prev = pred.OverlapScore
	}
}

func TestPredictOverlapTierOrdering(t *testing.T) {
	estimator := newTestEstimator(nil)
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	far := day.AddDate(0, 6, 0)
	planned := testEvent("p", "Technology", "", day, 0)

	exact := estimator.PredictOverlap(context.Background(), planned, testEvent("a", "Technology", "", far, 0))
	related := estimator.PredictOverlap(context.Background(), planned, testEvent("b", "Business", "", far, 0))
	unrelated := estimator.PredictOverlap(context.Background(), planned, testEvent("c", "Sports", "", far, 0))

	if !(exact.OverlapScore > related.OverlapScore && related.OverlapScore > unrelated.OverlapScore) {
		t.Errorf("tier ordering violated: exact %.2f, related %.2f, unrelated %.2f",
			exact.OverlapScore, related.OverlapScore, unrelated.OverlapScore)
	}
}

func TestPredictOverlapBatchCoversEveryID(t *testing.T) {
	estimator := newTestEstimator(nil)
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	planned := testEvent("p", "Technology", "", day, 0)

	competing := []models.Event{
		testEvent("a", "Technology", "", day, 100),
		testEvent("b", "Music", "", day, 0),
		testEvent("c", "", "", day, 0),
	}

	out := estimator.PredictOverlapBatch(context.Background(), planned, competing)

	if len(out) != len(competing) {
		t.Fatalf("got %d predictions for %d inputs", len(out), len(competing))
	}
	for _, ev := range competing {
		if _, ok := out[ev.ID]; !ok {
			t.Errorf("missing prediction for id %q", ev.ID)
		}
	}
}

// partialStrategy returns AI-style predictions only for the ids it knows.
type partialStrategy struct {
	predictions map[string]models.OverlapPrediction
	err         error
	calls       int
}

func (s *partialStrategy) Name() string { return "partial" }

func (s *partialStrategy) EstimateBatch(_ context.Context, _ models.Event, _ []models.Event) (map[string]models.OverlapPrediction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.predictions, nil
}

func TestPredictOverlapBatchPerIDFallback(t *testing.T) {
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	primary := &partialStrategy{
		predictions: map[string]models.OverlapPrediction{
			"a": {OverlapScore: 0.42, Confidence: 0.9, Reasoning: []string{"model output"}},
		},
	}
	estimator := newTestEstimator(primary)
	planned := testEvent("p", "Technology", "", day, 0)

	out := estimator.PredictOverlapBatch(context.Background(), planned, []models.Event{
		testEvent("a", "Sports", "", day.AddDate(0, 6, 0), 0),
		testEvent("b", "Sports", "AI/ML", day.AddDate(0, 6, 0), 0),
	})

	if got := out["a"].OverlapScore; got != 0.42 {
		t.Errorf("id a should use the primary estimate, got %.2f", got)
	}
	// id b was omitted by the primary: rule-based unrelated-tier estimate.
	if got := out["b"].OverlapScore; got != baseUnrelated {
		t.Errorf("id b should fall back to rules (%.2f), got %.2f", baseUnrelated, got)
	}
}

func TestPredictOverlapBatchWholeBatchFallbackOnError(t *testing.T) {
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	primary := &partialStrategy{err: errors.New("backend down")}
	estimator := newTestEstimator(primary)
	planned := testEvent("p", "Technology", "", day, 0)

	out := estimator.PredictOverlapBatch(context.Background(), planned, []models.Event{
		testEvent("a", "Technology", "", day.AddDate(0, 6, 0), 0),
	})

	if len(out) != 1 {
		t.Fatalf("got %d predictions, want 1", len(out))
	}
	if got := out["a"].OverlapScore; got != baseExact {
		t.Errorf("failed primary should degrade to rule-based exact tier %.2f, got %.2f", baseExact, got)
	}
}

func TestPredictOverlapCacheIsDateIndependent(t *testing.T) {
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	primary := &partialStrategy{predictions: map[string]models.OverlapPrediction{}}
	estimator := newTestEstimator(primary)
	planned := testEvent("p", "Music", "", day, 0)
	ctx := context.Background()

	estimator.PredictOverlap(ctx, planned, testEvent("a", "Music", "", day, 0))
	// Same category pair, different id and date: must be a cache hit, so the
	// primary strategy is not consulted again.
	estimator.PredictOverlap(ctx, planned, testEvent("b", "Music", "", day.AddDate(0, 2, 0), 0))

	if primary.calls != 1 {
		t.Errorf("primary called %d times, want 1 (second lookup should hit the pair cache)", primary.calls)
	}
}

func TestPredictOverlapBoostsAppliedAfterCacheRead(t *testing.T) {
	estimator := newTestEstimator(nil)
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	planned := testEvent("p", "Music", "", day, 0)
	ctx := context.Background()

	near := estimator.PredictOverlap(ctx, planned, testEvent("a", "Music", "", day, 0))
	far := estimator.PredictOverlap(ctx, planned, testEvent("b", "Music", "", day.AddDate(0, 6, 0), 0))

	if near.OverlapScore <= far.OverlapScore {
		t.Errorf("same-day score %.4f should exceed far-date score %.4f despite shared cache entry",
			near.OverlapScore, far.OverlapScore)
	}
}

func TestPredictOverlapTimingReasoning(t *testing.T) {
	estimator := newTestEstimator(nil)
	day := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	planned := testEvent("p", "Music", "", day, 0)
	ctx := context.Background()

	pred := estimator.PredictOverlap(ctx, planned, testEvent("a", "Music", "", day, 0))

	timing := 0
	for _, line := range pred.Reasoning {
		if strings.Contains(strings.ToLower(line), "same day") {
			timing++
		}
	}
	if timing != 1 {
		t.Errorf("want exactly one timing line for a same-day pair, got %d in %v", timing, pred.Reasoning)
	}

	// Repeat: the cached base must not have accumulated the timing line.
	again := estimator.PredictOverlap(ctx, planned, testEvent("b", "Music", "", day, 0))
	timing = 0
	for _, line := range again.Reasoning {
		if strings.Contains(strings.ToLower(line), "same day") {
			timing++
		}
	}
	if timing != 1 {
		t.Errorf("timing line duplicated on cached base: %v", again.Reasoning)
	}
}

func TestTemporalBoostLadder(t *testing.T) {
	tests := []struct {
		days int
		want float64
	}{
		{0, 0.18},
		{1, 0.13},
		{3, 0.13},
		{4, 0.08},
		{7, 0.08},
		{8, 0.04},
		{30, 0.04},
		{31, 0.01},
		{90, 0.01},
		{91, 0},
	}
	for _, tt := range tests {
		if got := temporalBoost(tt.days); got != tt.want {
			t.Errorf("temporalBoost(%d) = %.2f, want %.2f", tt.days, got, tt.want)
		}
	}
}

func TestSignificanceBoostLadder(t *testing.T) {
	tests := []struct {
		attendees int
		want      float64
	}{
		{0, 0},
		{99, 0},
		{100, 0.03},
		{999, 0.03},
		{1000, 0.08},
		{9999, 0.08},
		{10000, 0.13},
		{250000, 0.13},
	}
	for _, tt := range tests {
		if got := significanceBoost(tt.attendees); got != tt.want {
			t.Errorf("significanceBoost(%d) = %.2f, want %.2f", tt.attendees, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	preds := map[string]models.OverlapPrediction{
		"a": {OverlapScore: 0.9},
		"b": {OverlapScore: 0.5},
		"c": {OverlapScore: 0.1},
	}

	s := Summarize(preds)

	if s.MaxOverlap != 0.9 {
		t.Errorf("MaxOverlap = %.2f, want 0.9", s.MaxOverlap)
	}
	if s.HighOverlapCount != 2 {
		t.Errorf("HighOverlapCount = %d, want 2", s.HighOverlapCount)
	}
	want := (0.9 + 0.5 + 0.1) / 3
	if diff := s.AverageOverlap - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("AverageOverlap = %.4f, want %.4f", s.AverageOverlap, want)
	}

	empty := Summarize(nil)
	if empty.AverageOverlap != 0 || empty.MaxOverlap != 0 || empty.HighOverlapCount != 0 {
		t.Errorf("empty summary should be zero, got %+v", empty)
	}
}
