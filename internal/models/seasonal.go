// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package models

// DemandLevel classifies a seasonal multiplier into a coarse demand bucket.
type DemandLevel string

const (
	DemandVeryLow  DemandLevel = "very_low"
	DemandLow      DemandLevel = "low"
	DemandMedium   DemandLevel = "medium"
	DemandHigh     DemandLevel = "high"
	DemandVeryHigh DemandLevel = "very_high"
)

// ClassifyDemand maps a seasonal multiplier onto the fixed demand ladder.
func ClassifyDemand(multiplier float64) DemandLevel {
	switch {
	case multiplier >= 2.0:
		return DemandVeryHigh
	case multiplier >= 1.5:
		return DemandHigh
	case multiplier >= 1.0:
		return DemandMedium
	case multiplier >= 0.7:
		return DemandLow
	default:
		return DemandVeryLow
	}
}

// SeasonalMultiplier is the seasonal demand factor for a
// (category, subcategory, region, month) tuple.
type SeasonalMultiplier struct {
	// Multiplier is the demand factor, in [0.1, 3.0].
	Multiplier float64 `json:"multiplier"`

	// DemandLevel is the coarse classification of the multiplier.
	DemandLevel DemandLevel `json:"demand_level"`

	// Confidence is the rule's confidence, in [0,1]. The neutral default
	// carries 0.3.
	Confidence float64 `json:"confidence"`

	// Reasoning explains where the multiplier came from.
	Reasoning string `json:"reasoning"`

	// DataSource identifies the rule source ("rules", "default").
	DataSource string `json:"data_source"`
}

// ImpactLevel classifies holiday impact severity.
type ImpactLevel string

const (
	ImpactNone     ImpactLevel = "none"
	ImpactLow      ImpactLevel = "low"
	ImpactModerate ImpactLevel = "moderate"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// rank orders impact levels from none to critical.
func (l ImpactLevel) rank() int {
	switch l {
	case ImpactLow:
		return 1
	case ImpactModerate:
		return 2
	case ImpactHigh:
		return 3
	case ImpactCritical:
		return 4
	default:
		return 0
	}
}

// AtLeast reports whether l is at or above the given severity.
func (l ImpactLevel) AtLeast(other ImpactLevel) bool {
	return l.rank() >= other.rank()
}

// MaxImpact returns the more severe of two impact levels.
func MaxImpact(a, b ImpactLevel) ImpactLevel {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// HolidayConflict is one holiday or cultural event whose impact window
// contains the target date.
type HolidayConflict struct {
	// Name is the holiday name (e.g. "Christmas").
	Name string `json:"name"`

	// Multiplier is the holiday's individual impact factor, >= 1.0.
	Multiplier float64 `json:"multiplier"`

	// Severity is the holiday's individual severity bucket.
	Severity ImpactLevel `json:"severity"`

	// Reasoning explains the impact for this holiday and category.
	Reasoning string `json:"reasoning"`
}

// ImpactWindow is the day range a holiday affects around its date.
type ImpactWindow struct {
	DaysBefore int `json:"days_before"`
	DaysAfter  int `json:"days_after"`
}

// HolidayImpact aggregates every holiday rule affecting a specific calendar
// date. Individual multipliers combine multiplicatively, never by summing.
type HolidayImpact struct {
	// Multiplier is the combined impact factor, >= 1.0.
	Multiplier float64 `json:"multiplier"`

	// AffectedHolidays lists the contributing holidays.
	AffectedHolidays []HolidayConflict `json:"affected_holidays"`

	// TotalImpact is the maximum severity among contributing holidays.
	TotalImpact ImpactLevel `json:"total_impact"`

	// ImpactWindow is the widest window among contributing holidays.
	ImpactWindow ImpactWindow `json:"impact_window"`
}

// SeasonalFactors bundles the date-level multipliers attached to a candidate
// date result.
type SeasonalFactors struct {
	Seasonal SeasonalMultiplier `json:"seasonal"`
	Holiday  HolidayImpact      `json:"holiday"`
}
