// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package overlap

import (
	"context"

	"github.com/openslot/openslot/internal/models"
)

// Strategy produces category-level base overlap predictions for a planned
// event against a batch of competing events.
//
// A strategy may return predictions for only a subset of the competing event
// ids; the estimator fills the gaps from the rule-based fallback. Returned
// predictions are base estimates: no temporal or significance adjustment.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// EstimateBatch returns base predictions keyed by competing event id.
	EstimateBatch(ctx context.Context, planned models.Event, competing []models.Event) (map[string]models.OverlapPrediction, error)
}

// RuleStrategy derives overlap from the static category-relationship table.
// It never fails and serves as the unconditional fallback.
type RuleStrategy struct{}

// NewRuleStrategy creates the rule-based strategy.
func NewRuleStrategy() *RuleStrategy {
	return &RuleStrategy{}
}

// Name implements Strategy.
func (s *RuleStrategy) Name() string { return "rules" }

// EstimateBatch implements Strategy. It produces a prediction for every
// competing event id and never returns an error.
func (s *RuleStrategy) EstimateBatch(_ context.Context, planned models.Event, competing []models.Event) (map[string]models.OverlapPrediction, error) {
	out := make(map[string]models.OverlapPrediction, len(competing))
	for i := range competing {
		out[competing[i].ID] = s.estimate(planned, &competing[i])
	}
	return out, nil
}

// Estimate returns the rule-based base prediction for a single pair.
func (s *RuleStrategy) Estimate(planned models.Event, competing *models.Event) models.OverlapPrediction {
	return s.estimate(planned, competing)
}

func (s *RuleStrategy) estimate(planned models.Event, competing *models.Event) models.OverlapPrediction {
	score, tier, sameSub := BaseOverlap(planned.Category, planned.Subcategory, competing.Category, competing.Subcategory)

	var reasoning []string
	var confidence float64

	switch {
	case sameSub:
		reasoning = append(reasoning, "Both events target the same "+planned.Category+" / "+planned.Subcategory+" audience")
		confidence = 0.75
	case tier == TierExact:
		reasoning = append(reasoning, "Both events are in the "+planned.Category+" category")
		confidence = 0.70
	case tier == TierRelated:
		reasoning = append(reasoning, planned.Category+" and "+competing.Category+" audiences partially overlap")
		confidence = 0.60
	default:
		reasoning = append(reasoning, "Unrelated categories with minimal shared audience")
		confidence = 0.50
	}

	return models.OverlapPrediction{
		OverlapScore: score,
		Confidence:   confidence,
		Factors:      factorsForTier(score, tier, sameSub),
		Reasoning:    reasoning,
	}
}

// factorsForTier derives a deterministic factor breakdown from the base
// score. Interest alignment leads for same-niche pairs; behavior patterns
// stay conservative because the table knows nothing about attendance habits.
func factorsForTier(score float64, tier Tier, sameSubcategory bool) models.OverlapFactors {
	f := models.OverlapFactors{
		DemographicSimilarity: score,
		InterestAlignment:     score,
		BehaviorPatterns:      score * 0.8,
		HistoricalPreference:  score * 0.9,
	}

	if sameSubcategory {
		f.InterestAlignment = clamp01(score + 0.15)
	} else if tier == TierExact {
		f.InterestAlignment = clamp01(score + 0.08)
	}

	return f
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
