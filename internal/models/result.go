// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package models

import "time"

// ScoreCap bounds the conflict score. No single contributor may push the
// running total past the cap, and the final seasonally adjusted score is
// capped again at the same value.
const ScoreCap = 100.0

// RiskLevel is the tri-level risk classification of a candidate date.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Tier orders risk levels so monotonicity can be asserted: Low < Medium < High.
func (r RiskLevel) Tier() int {
	switch r {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 0
	}
}

// CandidateDateResult is the scored outcome for one candidate date. Instances
// are immutable once produced and are the unit returned to the caller.
type CandidateDateResult struct {
	// Date is the candidate start date.
	Date time.Time `json:"date"`

	// EndDate is the candidate end date for multi-day planned events.
	EndDate *time.Time `json:"end_date,omitempty"`

	// ConflictScore is the bounded conflict score, in [0, ScoreCap].
	ConflictScore float64 `json:"conflict_score"`

	// RiskLevel classifies the score on the fixed risk ladder.
	RiskLevel RiskLevel `json:"risk_level"`

	// CompetingEvents are the deduplicated competing events considered.
	CompetingEvents []Event `json:"competing_events"`

	// Reasons are human-readable scoring explanations in priority order.
	Reasons []string `json:"reasons"`

	// SeasonalFactors are the date-level multipliers applied to the score.
	SeasonalFactors SeasonalFactors `json:"seasonal_factors"`

	// AudienceOverlapSummary aggregates overlap predictions for the date.
	AudienceOverlapSummary OverlapSummary `json:"audience_overlap_summary"`

	// Degraded lists sub-operations that fell back to defaults for this date
	// (e.g. "seasonal_lookup", "event_store"). Empty on a clean run.
	Degraded []string `json:"degraded,omitempty"`
}
