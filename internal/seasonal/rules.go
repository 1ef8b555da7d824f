// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package seasonal

import (
	"context"
	"strings"
	"time"

	"github.com/openslot/openslot/internal/models"
)

// SeasonalRule defines the demand multiplier for a category (optionally a
// subcategory) in a region and month. Region "*" matches every region.
type SeasonalRule struct {
	Category    string
	Subcategory string
	Region      string
	Month       time.Month
	Multiplier  float64
	Confidence  float64
	Reasoning   string
}

// HolidayRule defines a holiday or cultural event and its impact window.
// Categories limits the rule to specific event categories; empty means all.
type HolidayRule struct {
	Name       string
	Region     string
	Month      time.Month
	Day        int
	DaysBefore int
	DaysAfter  int
	Multiplier float64
	Categories []string
	Reasoning  string
}

// Severity buckets the rule's individual multiplier.
func (r *HolidayRule) Severity() models.ImpactLevel {
	switch {
	case r.Multiplier >= 2.0:
		return models.ImpactCritical
	case r.Multiplier >= 1.6:
		return models.ImpactHigh
	case r.Multiplier >= 1.3:
		return models.ImpactModerate
	case r.Multiplier > 1.0:
		return models.ImpactLow
	default:
		return models.ImpactNone
	}
}

// AppliesTo reports whether the rule covers the given category.
func (r *HolidayRule) AppliesTo(category string) bool {
	if len(r.Categories) == 0 {
		return true
	}
	for _, c := range r.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// Contains reports whether the rule's impact window contains the date.
func (r *HolidayRule) Contains(date time.Time) bool {
	holiday := time.Date(date.Year(), r.Month, r.Day, 0, 0, 0, 0, time.UTC)
	start := holiday.AddDate(0, 0, -r.DaysBefore)
	end := holiday.AddDate(0, 0, r.DaysAfter)

	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	return !day.Before(start) && !day.After(end)
}

// RuleSource supplies seasonal and holiday rules. Absence of a matching rule
// is an expected case and yields empty slices, not an error; errors are
// reserved for failing backends and degrade the lookup to neutral defaults.
type RuleSource interface {
	// SeasonalRules returns the rules matching a category, region and month.
	// Both an exact-subcategory rule and a category-level rule may match.
	SeasonalRules(ctx context.Context, category, region string, month time.Month) ([]SeasonalRule, error)

	// HolidayRules returns the holiday rules for a region whose impact
	// window contains the date.
	HolidayRules(ctx context.Context, region string, date time.Time) ([]HolidayRule, error)
}

// StaticRuleSource is an in-memory RuleSource backed by curated rule tables.
type StaticRuleSource struct {
	seasonal []SeasonalRule
	holidays []HolidayRule
}

// NewStaticRuleSource creates a rule source over the given tables.
func NewStaticRuleSource(seasonal []SeasonalRule, holidays []HolidayRule) *StaticRuleSource {
	return &StaticRuleSource{seasonal: seasonal, holidays: holidays}
}

// NewDefaultRuleSource creates a rule source with the curated default tables.
func NewDefaultRuleSource() *StaticRuleSource {
	return NewStaticRuleSource(defaultSeasonalRules(), defaultHolidayRules())
}

// SeasonalRules implements RuleSource.
func (s *StaticRuleSource) SeasonalRules(_ context.Context, category, region string, month time.Month) ([]SeasonalRule, error) {
	var out []SeasonalRule
	for _, r := range s.seasonal {
		if r.Month != month {
			continue
		}
		if !strings.EqualFold(r.Category, category) {
			continue
		}
		if r.Region != "*" && !strings.EqualFold(r.Region, region) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// HolidayRules implements RuleSource.
func (s *StaticRuleSource) HolidayRules(_ context.Context, region string, date time.Time) ([]HolidayRule, error) {
	var out []HolidayRule
	for _, r := range s.holidays {
		if r.Region != "*" && !strings.EqualFold(r.Region, region) {
			continue
		}
		if r.Contains(date) {
			out = append(out, r)
		}
	}
	return out, nil
}

// defaultSeasonalRules is the curated base table. Multipliers express how
// crowded the event calendar for a category typically is in a month relative
// to its yearly average.
func defaultSeasonalRules() []SeasonalRule {
	type curve struct {
		category   string
		confidence float64
		months     [12]float64
		reasoning  [12]string
	}

	curves := []curve{
		{
			category:   "Technology",
			confidence: 0.8,
			//       Jan  Feb  Mar  Apr  May  Jun  Jul  Aug  Sep  Oct  Nov  Dec
			months: [12]float64{0.9, 1.0, 1.2, 1.3, 1.4, 1.1, 0.8, 0.8, 1.6, 1.7, 1.5, 1.8},
			reasoning: [12]string{
				"post-holiday lull", "conference season ramping up", "spring conference season",
				"spring conference season", "spring conference season peak", "early-summer slowdown",
				"summer vacation period", "summer vacation period", "autumn conference season",
				"autumn conference season peak", "year-end product launches",
				"Christmas period corporate events and year-end launches",
			},
		},
		{
			category:   "Music",
			confidence: 0.8,
			months:     [12]float64{0.7, 0.8, 1.0, 1.2, 1.5, 1.9, 2.1, 2.0, 1.4, 1.1, 0.9, 1.3},
			reasoning: [12]string{
				"winter off-season", "winter off-season", "spring tours starting",
				"spring tour season", "festival season starting", "summer festival season",
				"summer festival season peak", "summer festival season", "autumn tour season",
				"autumn tour season", "pre-holiday lull", "holiday concert season",
			},
		},
		{
			category:   "Sports",
			confidence: 0.7,
			months:     [12]float64{1.0, 1.1, 1.2, 1.3, 1.4, 1.3, 1.1, 1.2, 1.4, 1.3, 1.2, 0.9},
			reasoning: [12]string{
				"indoor season", "indoor season", "spring leagues starting", "spring season",
				"spring season peak", "early summer events", "mid-summer break", "late summer events",
				"autumn season", "autumn season", "late autumn season", "winter break",
			},
		},
		{
			category:   "Food & Drink",
			confidence: 0.7,
			months:     [12]float64{0.8, 0.9, 1.0, 1.2, 1.4, 1.5, 1.5, 1.4, 1.6, 1.5, 1.1, 1.7},
			reasoning: [12]string{
				"post-holiday lull", "winter season", "spring openings", "spring food events",
				"outdoor dining season", "summer food festivals", "summer food festivals",
				"summer food festivals", "harvest festival season", "harvest festival season",
				"pre-holiday period", "Christmas market season",
			},
		},
		{
			category:   "Business",
			confidence: 0.75,
			months:     [12]float64{1.2, 1.3, 1.4, 1.3, 1.2, 1.0, 0.7, 0.7, 1.5, 1.6, 1.4, 0.8},
			reasoning: [12]string{
				"Q1 planning events", "Q1 networking season", "spring summit season",
				"spring summit season", "late spring events", "early summer slowdown",
				"summer vacation period", "summer vacation period", "autumn summit season",
				"autumn summit season peak", "year-end business events", "holiday wind-down",
			},
		},
		{
			category:   "Arts",
			confidence: 0.7,
			months:     [12]float64{1.0, 1.1, 1.2, 1.2, 1.3, 1.2, 1.0, 1.0, 1.3, 1.4, 1.3, 1.5},
			reasoning: [12]string{
				"winter exhibitions", "winter exhibitions", "spring openings", "spring season",
				"gallery night season", "summer exhibitions", "summer season", "summer season",
				"autumn openings", "autumn season peak", "pre-holiday exhibitions",
				"holiday season exhibitions",
			},
		},
	}

	var rules []SeasonalRule
	for _, c := range curves {
		for i, mult := range c.months {
			rules = append(rules, SeasonalRule{
				Category:   c.category,
				Region:     "*",
				Month:      time.Month(i + 1),
				Multiplier: mult,
				Confidence: c.confidence,
				Reasoning:  c.reasoning[i],
			})
		}
	}

	// Subcategory refinements override the category-level curve.
	rules = append(rules,
		SeasonalRule{
			Category: "Music", Subcategory: "Festivals", Region: "*", Month: time.July,
			Multiplier: 2.4, Confidence: 0.85,
			Reasoning: "peak open-air festival month",
		},
		SeasonalRule{
			Category: "Music", Subcategory: "Festivals", Region: "*", Month: time.August,
			Multiplier: 2.3, Confidence: 0.85,
			Reasoning: "peak open-air festival month",
		},
		SeasonalRule{
			Category: "Technology", Subcategory: "AI-ML", Region: "*", Month: time.October,
			Multiplier: 1.9, Confidence: 0.8,
			Reasoning: "dense autumn AI conference calendar",
		},
	)

	return rules
}

// defaultHolidayRules is the curated holiday table for the supported regions.
func defaultHolidayRules() []HolidayRule {
	return []HolidayRule{
		{
			Name: "Christmas", Region: "*", Month: time.December, Day: 25,
			DaysBefore: 7, DaysAfter: 3, Multiplier: 2.0,
			Reasoning: "audiences travel and attend family gatherings around Christmas",
		},
		{
			Name: "New Year's Eve", Region: "*", Month: time.December, Day: 31,
			DaysBefore: 1, DaysAfter: 1, Multiplier: 1.7,
			Reasoning: "competing celebrations and venue scarcity around New Year",
		},
		{
			Name: "New Year's Day", Region: "*", Month: time.January, Day: 1,
			DaysBefore: 0, DaysAfter: 1, Multiplier: 1.4,
			Reasoning: "low turnout immediately after New Year celebrations",
		},
		{
			Name: "Independence Day", Region: "US", Month: time.July, Day: 4,
			DaysBefore: 1, DaysAfter: 1, Multiplier: 1.6,
			Reasoning: "national holiday with widespread travel and public events",
		},
		{
			Name: "Thanksgiving", Region: "US", Month: time.November, Day: 27,
			DaysBefore: 2, DaysAfter: 2, Multiplier: 1.8,
			Reasoning: "family travel dominates the Thanksgiving window",
		},
		{
			Name: "Czech Statehood Day", Region: "CZ", Month: time.September, Day: 28,
			DaysBefore: 0, DaysAfter: 0, Multiplier: 1.3,
			Reasoning: "public holiday reduces weekday event attendance",
		},
		{
			Name: "Velvet Revolution Day", Region: "CZ", Month: time.November, Day: 17,
			DaysBefore: 0, DaysAfter: 0, Multiplier: 1.3,
			Reasoning: "public holiday with commemorative events",
		},
		{
			Name: "German Unity Day", Region: "DE", Month: time.October, Day: 3,
			DaysBefore: 0, DaysAfter: 0, Multiplier: 1.3,
			Reasoning: "public holiday reduces weekday event attendance",
		},
		{
			Name: "Oktoberfest", Region: "DE", Month: time.September, Day: 20,
			DaysBefore: 0, DaysAfter: 14, Multiplier: 1.9,
			Categories: []string{"Food & Drink", "Music"},
			Reasoning:  "Oktoberfest absorbs food and music audiences",
		},
		{
			Name: "Christmas Markets", Region: "DE", Month: time.December, Day: 10,
			DaysBefore: 14, DaysAfter: 12, Multiplier: 1.5,
			Categories: []string{"Food & Drink", "Arts"},
			Reasoning:  "Christmas markets compete for food and arts audiences",
		},
	}
}
