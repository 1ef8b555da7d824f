// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package models

// OverlapFactors break the overlap estimate into interpretable components.
// Each factor is in [0,1].
type OverlapFactors struct {
	// DemographicSimilarity estimates how alike the two audiences are in age,
	// profession, and locale.
	DemographicSimilarity float64 `json:"demographic_similarity"`

	// InterestAlignment estimates topical interest overlap.
	InterestAlignment float64 `json:"interest_alignment"`

	// BehaviorPatterns estimates attendance-behavior overlap (weekday vs
	// weekend attendance, ticket price tolerance).
	BehaviorPatterns float64 `json:"behavior_patterns"`

	// HistoricalPreference estimates overlap from historical co-attendance of
	// similar event pairs.
	HistoricalPreference float64 `json:"historical_preference"`
}

// OverlapPrediction is the estimated audience overlap between a planned event
// and one competing event.
//
// Cached predictions hold the category-level base estimate only; temporal
// proximity and significance boosts are applied after every cache read
// because they depend on the specific date pairing, never on the category
// pairing. OverlapScore never exceeds 0.95.
type OverlapPrediction struct {
	// OverlapScore is the estimated shared-audience fraction, in [0, 0.95].
	OverlapScore float64 `json:"overlap_score"`

	// Confidence is the estimator's confidence in the score, in [0,1].
	Confidence float64 `json:"confidence"`

	// Factors is the per-component breakdown of the estimate.
	Factors OverlapFactors `json:"factors"`

	// Reasoning is an ordered list of short human-readable sentences
	// explaining the estimate.
	Reasoning []string `json:"reasoning"`
}

// OverlapSummary aggregates the overlap predictions for one candidate date.
type OverlapSummary struct {
	// AverageOverlap is the mean overlap score across competing events.
	AverageOverlap float64 `json:"average_overlap"`

	// MaxOverlap is the highest overlap score across competing events.
	MaxOverlap float64 `json:"max_overlap"`

	// HighOverlapCount is the number of competing events with overlap >= 0.5.
	HighOverlapCount int `json:"high_overlap_count"`
}
