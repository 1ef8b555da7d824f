// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package seasonal

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/openslot/openslot/internal/cache"
	"github.com/openslot/openslot/internal/logging"
	"github.com/openslot/openslot/internal/models"
)

func newTestEngine(t *testing.T, rules RuleSource) *Engine {
	t.Helper()
	store := cache.NewStore(30*time.Minute, 100)
	return NewEngine(rules, store, logging.NewTestLogger(io.Discard))
}

type failingRuleSource struct{}

func (failingRuleSource) SeasonalRules(context.Context, string, string, time.Month) ([]SeasonalRule, error) {
	return nil, errors.New("backend unavailable")
}

func (failingRuleSource) HolidayRules(context.Context, string, time.Time) ([]HolidayRule, error) {
	return nil, errors.New("backend unavailable")
}

func TestGetSeasonalMultiplierDefaults(t *testing.T) {
	engine := newTestEngine(t, NewDefaultRuleSource())
	ctx := context.Background()

	december := time.Date(2025, time.December, 10, 0, 0, 0, 0, time.UTC)
	july := time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)

	dec := engine.GetSeasonalMultiplier(ctx, december, "Technology", "", "Prague")
	jul := engine.GetSeasonalMultiplier(ctx, july, "Technology", "", "Prague")

	if dec.Multiplier <= jul.Multiplier {
		t.Errorf("December Technology multiplier %.2f should exceed July %.2f", dec.Multiplier, jul.Multiplier)
	}
	if dec.DataSource != "rules" {
		t.Errorf("DataSource = %q, want rules", dec.DataSource)
	}
	if dec.DemandLevel != models.ClassifyDemand(dec.Multiplier) {
		t.Errorf("DemandLevel %q does not match multiplier %.2f", dec.DemandLevel, dec.Multiplier)
	}
	if dec.Reasoning == "" {
		t.Error("expected non-empty reasoning from curated rules")
	}
}

func TestGetSeasonalMultiplierSubcategoryPreferred(t *testing.T) {
	engine := newTestEngine(t, NewDefaultRuleSource())
	ctx := context.Background()

	october := time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC)

	base := engine.GetSeasonalMultiplier(ctx, october, "Technology", "", "Berlin")
	sub := engine.GetSeasonalMultiplier(ctx, october, "Technology", "AI-ML", "Berlin")

	if sub.Multiplier <= base.Multiplier {
		t.Errorf("subcategory multiplier %.2f should exceed category-level %.2f", sub.Multiplier, base.Multiplier)
	}
}

func TestGetSeasonalMultiplierUnknownCategory(t *testing.T) {
	engine := newTestEngine(t, NewDefaultRuleSource())

	m := engine.GetSeasonalMultiplier(context.Background(), time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), "Quilting", "", "Prague")

	if m.Multiplier != 1.0 {
		t.Errorf("Multiplier = %.2f, want neutral 1.0", m.Multiplier)
	}
	if m.DemandLevel != models.DemandMedium {
		t.Errorf("DemandLevel = %q, want medium", m.DemandLevel)
	}
	if m.Confidence != 0.3 {
		t.Errorf("Confidence = %.2f, want 0.3", m.Confidence)
	}
	if m.DataSource != "default" {
		t.Errorf("DataSource = %q, want default", m.DataSource)
	}
}

func TestGetSeasonalMultiplierSourceFailure(t *testing.T) {
	engine := newTestEngine(t, failingRuleSource{})

	m := engine.GetSeasonalMultiplier(context.Background(), time.Now(), "Technology", "", "Prague")

	if m.Multiplier != 1.0 || m.DataSource != "default" {
		t.Errorf("failing source should yield neutral default, got %+v", m)
	}
}

func TestGetSeasonalMultiplierCached(t *testing.T) {
	store := cache.NewStore(30*time.Minute, 100)
	engine := NewEngine(NewDefaultRuleSource(), store, logging.NewTestLogger(io.Discard))
	ctx := context.Background()

	date := time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC)
	first := engine.GetSeasonalMultiplier(ctx, date, "Music", "", "Prague")

	// Same month, different day: month-granular key must hit the cache.
	other := time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC)
	second := engine.GetSeasonalMultiplier(ctx, other, "Music", "", "Prague")

	if first != second {
		t.Errorf("same-month lookups differ: %+v vs %+v", first, second)
	}
	stats := store.GetStats()
	if stats.Hits == 0 {
		t.Error("expected a cache hit for the second same-month lookup")
	}
}

func TestGetHolidayImpactChristmas(t *testing.T) {
	engine := newTestEngine(t, NewDefaultRuleSource())

	// Dec 24 falls inside both the Christmas and New Year tables' windows
	// only for Christmas; verify multiplicative combine with a single rule.
	impact := engine.GetHolidayImpact(context.Background(), time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC), "Technology", "", "Prague")

	if impact.Multiplier < 2.0 {
		t.Errorf("Christmas eve multiplier = %.2f, want >= 2.0", impact.Multiplier)
	}
	if impact.TotalImpact != models.ImpactCritical {
		t.Errorf("TotalImpact = %q, want critical", impact.TotalImpact)
	}
	if len(impact.AffectedHolidays) == 0 {
		t.Fatal("expected affected holidays")
	}
	found := false
	for _, h := range impact.AffectedHolidays {
		if h.Name == "Christmas" {
			found = true
		}
	}
	if !found {
		t.Errorf("Christmas missing from affected holidays: %+v", impact.AffectedHolidays)
	}
}

func TestGetHolidayImpactNoHoliday(t *testing.T) {
	engine := newTestEngine(t, NewDefaultRuleSource())

	impact := engine.GetHolidayImpact(context.Background(), time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC), "Technology", "", "Prague")

	if impact.Multiplier != 1.0 {
		t.Errorf("Multiplier = %.2f, want 1.0", impact.Multiplier)
	}
	if impact.TotalImpact != models.ImpactNone {
		t.Errorf("TotalImpact = %q, want none", impact.TotalImpact)
	}
	if len(impact.AffectedHolidays) != 0 {
		t.Errorf("unexpected holidays: %+v", impact.AffectedHolidays)
	}
}

func TestGetHolidayImpactCategoryFilter(t *testing.T) {
	rules := []HolidayRule{
		{
			Name:       "Oktoberfest",
			Region:     "Munich",
			Month:      time.September,
			Day:        25,
			DaysBefore: 5,
			DaysAfter:  5,
			Multiplier: 1.8,
			Categories: []string{"Food & Drink", "Music"},
			Reasoning:  "major regional festival",
		},
	}
	engine := newTestEngine(t, NewStaticRuleSource(nil, rules))
	ctx := context.Background()
	date := time.Date(2025, time.September, 26, 0, 0, 0, 0, time.UTC)

	food := engine.GetHolidayImpact(ctx, date, "Food & Drink", "", "Munich")
	if food.Multiplier != 1.8 {
		t.Errorf("Food & Drink multiplier = %.2f, want 1.8", food.Multiplier)
	}

	tech := engine.GetHolidayImpact(ctx, date, "Technology", "", "Munich")
	if tech.Multiplier != 1.0 {
		t.Errorf("Technology multiplier = %.2f, want 1.0 (rule is category-limited)", tech.Multiplier)
	}
}

func TestGetHolidayImpactMultiplicativeCombine(t *testing.T) {
	rules := []HolidayRule{
		{Name: "A", Region: "*", Month: time.June, Day: 10, DaysBefore: 2, DaysAfter: 2, Multiplier: 1.5, Reasoning: "a"},
		{Name: "B", Region: "*", Month: time.June, Day: 11, DaysBefore: 2, DaysAfter: 2, Multiplier: 1.2, Reasoning: "b"},
	}
	engine := newTestEngine(t, NewStaticRuleSource(nil, rules))

	impact := engine.GetHolidayImpact(context.Background(), time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), "Music", "", "Prague")

	want := 1.5 * 1.2
	if diff := impact.Multiplier - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Multiplier = %.4f, want %.4f", impact.Multiplier, want)
	}
	if impact.TotalImpact != models.ImpactModerate {
		t.Errorf("TotalImpact = %q, want moderate (max of individual severities)", impact.TotalImpact)
	}
	if impact.ImpactWindow.DaysBefore != 2 || impact.ImpactWindow.DaysAfter != 2 {
		t.Errorf("ImpactWindow = %+v, want widest contributing window", impact.ImpactWindow)
	}
}

func TestGetSeasonalDemandCurve(t *testing.T) {
	engine := newTestEngine(t, NewDefaultRuleSource())

	curve := engine.GetSeasonalDemandCurve(context.Background(), "Music", "", "Prague")

	for i, m := range curve {
		if m.Multiplier <= 0 {
			t.Errorf("month %d multiplier = %.2f, want > 0", i+1, m.Multiplier)
		}
	}
	// July peaks over January for music.
	if curve[6].Multiplier <= curve[0].Multiplier {
		t.Errorf("July %.2f should exceed January %.2f for Music", curve[6].Multiplier, curve[0].Multiplier)
	}
}
