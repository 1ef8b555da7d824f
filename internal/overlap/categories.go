// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package overlap

import "strings"

// Tier classifies how strongly two event categories compete for the same
// audience.
type Tier int

const (
	TierUnrelated Tier = iota
	TierRelated
	TierExact
)

// String returns the tier name for logging and reasoning text.
func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierRelated:
		return "related"
	default:
		return "unrelated"
	}
}

// relatedCategories holds the curated category pairs whose audiences
// partially overlap despite differing taxonomies. Keys are normalized,
// alphabetically ordered pairs.
var relatedCategories = map[[2]string]struct{}{
	pairKey("business", "technology"):    {},
	pairKey("education", "technology"):   {},
	pairKey("arts", "music"):             {},
	pairKey("food & drink", "music"):     {},
	pairKey("arts", "food & drink"):      {},
	pairKey("community", "food & drink"): {},
	pairKey("health", "sports"):          {},
	pairKey("music", "nightlife"):        {},
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// RelationshipTier returns the competition tier for a category pair.
func RelationshipTier(category1, category2 string) Tier {
	c1 := strings.ToLower(strings.TrimSpace(category1))
	c2 := strings.ToLower(strings.TrimSpace(category2))

	if c1 == "" || c2 == "" {
		return TierUnrelated
	}
	if c1 == c2 {
		return TierExact
	}
	if _, ok := relatedCategories[pairKey(c1, c2)]; ok {
		return TierRelated
	}
	return TierUnrelated
}

// Base overlap per tier. An exact-category pair with equal subcategories
// additionally receives subcategoryBoost, landing same-niche pairs at 0.62
// before date-specific adjustments.
const (
	baseExact        = 0.50
	baseRelated      = 0.30
	baseUnrelated    = 0.10
	subcategoryBoost = 0.12
)

// BaseOverlap returns the category-level base overlap for a pair, before any
// temporal or significance adjustment.
func BaseOverlap(category1, subcategory1, category2, subcategory2 string) (score float64, tier Tier, sameSubcategory bool) {
	tier = RelationshipTier(category1, category2)

	switch tier {
	case TierExact:
		score = baseExact
	case TierRelated:
		score = baseRelated
	default:
		score = baseUnrelated
	}

	if tier == TierExact && subcategory1 != "" &&
		strings.EqualFold(strings.TrimSpace(subcategory1), strings.TrimSpace(subcategory2)) {
		score += subcategoryBoost
		sameSubcategory = true
	}

	return score, tier, sameSubcategory
}
