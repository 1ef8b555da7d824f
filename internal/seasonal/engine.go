// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package seasonal

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/openslot/openslot/internal/cache"
	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/models"
)

// Engine answers seasonal-multiplier and holiday-impact queries with
// read-through caching. It is safe for concurrent use.
type Engine struct {
	rules  RuleSource
	cache  *cache.Store
	logger zerolog.Logger
}

// NewEngine creates a seasonal engine over the given rule source and cache
// store. The store's TTL and entry bound govern both lookup caches.
func NewEngine(rules RuleSource, store *cache.Store, logger zerolog.Logger) *Engine {
	return &Engine{
		rules:  rules,
		cache:  store,
		logger: logger.With().Str("component", "seasonal").Logger(),
	}
}

// neutralMultiplier is returned when no rule matches or the rule source
// fails. The reduced confidence signals the default to downstream scoring.
func neutralMultiplier(reason string) models.SeasonalMultiplier {
	return models.SeasonalMultiplier{
		Multiplier:  1.0,
		DemandLevel: models.DemandMedium,
		Confidence:  0.3,
		Reasoning:   reason,
		DataSource:  "default",
	}
}

// seasonalKeyParams is the cache key tuple for seasonal lookups. The key is
// month-granular: every date in a month shares one entry.
type seasonalKeyParams struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Region      string `json:"region"`
	Month       int    `json:"month"`
}

// GetSeasonalMultiplier returns the demand multiplier for a date's month,
// preferring an exact subcategory rule over a category-level rule. Rule
// source failures and missing rules both degrade to the neutral default.
func (e *Engine) GetSeasonalMultiplier(ctx context.Context, date time.Time, category, subcategory, region string) models.SeasonalMultiplier {
	key := cache.GenerateKey("seasonal", seasonalKeyParams{
		Category:    strings.ToLower(category),
		Subcategory: strings.ToLower(subcategory),
		Region:      strings.ToLower(region),
		Month:       int(date.Month()),
	})

	if cached, ok := e.cache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("seasonal").Inc()
		if m, ok := cached.(models.SeasonalMultiplier); ok {
			return m
		}
	}
	metrics.CacheMisses.WithLabelValues("seasonal").Inc()

	m := e.lookupSeasonal(ctx, date.Month(), category, subcategory, region)
	e.cache.Set(key, m)
	return m
}

// lookupSeasonal queries the rule source and picks the most specific match.
func (e *Engine) lookupSeasonal(ctx context.Context, month time.Month, category, subcategory, region string) models.SeasonalMultiplier {
	rules, err := e.rules.SeasonalRules(ctx, category, region, month)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("category", category).
			Str("region", region).
			Msg("seasonal rule lookup failed, using neutral default")
		return neutralMultiplier("no seasonal data available")
	}

	var categoryLevel *SeasonalRule
	var subcategoryLevel *SeasonalRule

	for i := range rules {
		r := &rules[i]
		switch {
		case subcategory != "" && strings.EqualFold(r.Subcategory, subcategory):
			subcategoryLevel = r
		case r.Subcategory == "":
			if categoryLevel == nil {
				categoryLevel = r
			}
		}
	}

	rule := subcategoryLevel
	if rule == nil {
		rule = categoryLevel
	}
	if rule == nil {
		return neutralMultiplier("no seasonal rule for this category and month")
	}

	return models.SeasonalMultiplier{
		Multiplier:  clampMultiplier(rule.Multiplier),
		DemandLevel: models.ClassifyDemand(rule.Multiplier),
		Confidence:  rule.Confidence,
		Reasoning:   rule.Reasoning,
		DataSource:  "rules",
	}
}

// clampMultiplier bounds a seasonal multiplier to the documented [0.1, 3.0]
// range.
func clampMultiplier(m float64) float64 {
	if m < 0.1 {
		return 0.1
	}
	if m > 3.0 {
		return 3.0
	}
	return m
}

// holidayKeyParams is the cache key tuple for holiday lookups, date-granular.
type holidayKeyParams struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Region      string `json:"region"`
	Date        string `json:"date"`
}

// GetHolidayImpact aggregates every holiday rule whose impact window contains
// the date for the given category and region. Individual multipliers combine
// multiplicatively; totalImpact is the maximum severity among contributors.
func (e *Engine) GetHolidayImpact(ctx context.Context, date time.Time, category, subcategory, region string) models.HolidayImpact {
	key := cache.GenerateKey("holiday", holidayKeyParams{
		Category:    strings.ToLower(category),
		Subcategory: strings.ToLower(subcategory),
		Region:      strings.ToLower(region),
		Date:        date.Format("2006-01-02"),
	})

	if cached, ok := e.cache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("seasonal").Inc()
		if impact, ok := cached.(models.HolidayImpact); ok {
			return impact
		}
	}
	metrics.CacheMisses.WithLabelValues("seasonal").Inc()

	impact := e.lookupHoliday(ctx, date, category, region)
	e.cache.Set(key, impact)
	return impact
}

// noImpact is the neutral holiday impact.
func noImpact() models.HolidayImpact {
	return models.HolidayImpact{
		Multiplier:  1.0,
		TotalImpact: models.ImpactNone,
	}
}

func (e *Engine) lookupHoliday(ctx context.Context, date time.Time, category, region string) models.HolidayImpact {
	rules, err := e.rules.HolidayRules(ctx, region, date)
	if err != nil {
		e.logger.Warn().Err(err).
			Str("region", region).
			Msg("holiday rule lookup failed, using neutral default")
		return noImpact()
	}

	impact := noImpact()
	for i := range rules {
		r := &rules[i]
		if !r.AppliesTo(category) {
			continue
		}

		impact.Multiplier *= r.Multiplier
		impact.TotalImpact = models.MaxImpact(impact.TotalImpact, r.Severity())
		impact.AffectedHolidays = append(impact.AffectedHolidays, models.HolidayConflict{
			Name:       r.Name,
			Multiplier: r.Multiplier,
			Severity:   r.Severity(),
			Reasoning:  r.Reasoning,
		})
		if r.DaysBefore > impact.ImpactWindow.DaysBefore {
			impact.ImpactWindow.DaysBefore = r.DaysBefore
		}
		if r.DaysAfter > impact.ImpactWindow.DaysAfter {
			impact.ImpactWindow.DaysAfter = r.DaysAfter
		}
	}

	return impact
}

// GetSeasonalDemandCurve returns the 12-month demand curve for a category in
// a region. The reference year only anchors month arithmetic; rules are
// month-keyed.
func (e *Engine) GetSeasonalDemandCurve(ctx context.Context, category, subcategory, region string) [12]models.SeasonalMultiplier {
	var curve [12]models.SeasonalMultiplier
	ref := time.Date(time.Now().Year(), time.January, 15, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		curve[i] = e.GetSeasonalMultiplier(ctx, ref.AddDate(0, i, 0), category, subcategory, region)
	}

	return curve
}
