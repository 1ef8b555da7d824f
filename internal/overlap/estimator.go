// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package overlap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/openslot/openslot/internal/cache"
	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/models"
)

// OverlapCeiling is the hard upper bound on any overlap score. The estimator
// never claims certainty about shared audiences.
const OverlapCeiling = 0.95

// Temporal-proximity boosts by minimum gap between the two events' spans.
const (
	boostSameDay  = 0.18
	boostWithin3  = 0.13
	boostWithin7  = 0.08
	boostWithin30 = 0.04
	boostWithin90 = 0.01
)

// Significance boosts by the competing event's expected attendance.
const (
	boostMajorEvent  = 0.13 // >= 10,000
	boostLargeEvent  = 0.08 // >= 1,000
	boostMediumEvent = 0.03 // >= 100
)

// Estimator produces final overlap predictions: a cached category-level base
// from the active strategy plus per-call temporal and significance boosts.
type Estimator struct {
	store    *cache.Store
	primary  Strategy
	fallback *RuleStrategy
	logger   zerolog.Logger
}

// NewEstimator creates an estimator. primary may be nil, in which case the
// rule-based strategy serves every request directly.
func NewEstimator(store *cache.Store, primary Strategy, logger zerolog.Logger) *Estimator {
	return &Estimator{
		store:    store,
		primary:  primary,
		fallback: NewRuleStrategy(),
		logger:   logger.With().Str("component", "overlap").Logger(),
	}
}

// pairKeyParams is the cache key tuple. Dates are deliberately excluded: the
// cache stores the category-level relationship and date-specific boosts are
// recomputed on every call.
type pairKeyParams struct {
	Category1    string `json:"category1"`
	Subcategory1 string `json:"subcategory1"`
	Category2    string `json:"category2"`
	Subcategory2 string `json:"subcategory2"`
}

func pairCacheKey(planned models.Event, competing *models.Event) string {
	return cache.GenerateKey("overlap", pairKeyParams{
		Category1:    strings.ToLower(planned.Category),
		Subcategory1: strings.ToLower(planned.Subcategory),
		Category2:    strings.ToLower(competing.Category),
		Subcategory2: strings.ToLower(competing.Subcategory),
	})
}

// PredictOverlap estimates the audience overlap for a single pair.
func (e *Estimator) PredictOverlap(ctx context.Context, planned models.Event, competing models.Event) models.OverlapPrediction {
	batch := e.PredictOverlapBatch(ctx, planned, []models.Event{competing})
	return batch[competing.ID]
}

// PredictOverlapBatch estimates overlap for every competing event. The
// result map always contains an entry per input id: cache hits are reused,
// misses go to the primary strategy in one batched call, and any id the
// primary omits or fails on degrades to the rule-based estimate.
func (e *Estimator) PredictOverlapBatch(ctx context.Context, planned models.Event, competing []models.Event) map[string]models.OverlapPrediction {
	out := make(map[string]models.OverlapPrediction, len(competing))
	if len(competing) == 0 {
		return out
	}

	bases := make(map[string]models.OverlapPrediction, len(competing))
	var misses []models.Event

	for i := range competing {
		key := pairCacheKey(planned, &competing[i])
		if cached, ok := e.store.Get(key); ok {
			if pred, ok := cached.(models.OverlapPrediction); ok {
				metrics.CacheHits.WithLabelValues("overlap").Inc()
				bases[competing[i].ID] = pred
				continue
			}
		}
		metrics.CacheMisses.WithLabelValues("overlap").Inc()
		misses = append(misses, competing[i])
	}

	if len(misses) > 0 {
		e.estimateMisses(ctx, planned, misses, bases)
	}

	for i := range competing {
		ev := &competing[i]
		base, ok := bases[ev.ID]
		if !ok {
			// Unreachable in practice; the rule fallback covers every id.
			base = e.fallback.Estimate(planned, ev)
		}
		out[ev.ID] = e.adjust(base, planned, ev)
	}

	return out
}

// estimateMisses fills bases for uncached events via the primary strategy
// with per-id rule fallback, and upserts the fresh base estimates into the
// cache. Later writes win, which is safe because entries are idempotent per
// category pair.
func (e *Estimator) estimateMisses(ctx context.Context, planned models.Event, misses []models.Event, bases map[string]models.OverlapPrediction) {
	var primary map[string]models.OverlapPrediction

	if e.primary != nil {
		var err error
		primary, err = e.primary.EstimateBatch(ctx, planned, misses)
		if err != nil {
			reason := "call_failed"
			if errors.Is(err, ErrUnparseable) {
				reason = "parse_error"
			}
			metrics.AIFallbacksTotal.WithLabelValues(reason).Add(float64(len(misses)))
			e.logger.Warn().Err(err).
				Str("strategy", e.primary.Name()).
				Int("batch_size", len(misses)).
				Msg("primary overlap strategy failed, falling back to rules")
			primary = nil
		}
	}

	for i := range misses {
		ev := &misses[i]
		base, ok := primary[ev.ID]
		if !ok {
			if e.primary != nil && primary != nil {
				metrics.AIFallbacksTotal.WithLabelValues("missing_id").Inc()
			}
			base = e.fallback.Estimate(planned, ev)
		}
		bases[ev.ID] = base
		e.store.Set(pairCacheKey(planned, ev), base)
	}
}

// adjust applies the date-specific boosts to a base prediction and enforces
// the overlap ceiling. The base's reasoning slice is never mutated since it
// may be shared with the cache.
func (e *Estimator) adjust(base models.OverlapPrediction, planned models.Event, competing *models.Event) models.OverlapPrediction {
	pStart, pEnd := planned.Span()
	cStart, cEnd := competing.Span()
	daysBetween := models.DaysBetweenSpans(pStart, pEnd, cStart, cEnd)

	temporal := temporalBoost(daysBetween)
	significance := significanceBoost(competing.ExpectedAttendees)

	score := base.OverlapScore + temporal + significance
	if score > OverlapCeiling {
		score = OverlapCeiling
	}

	reasoning := base.Reasoning
	if daysBetween <= 7 && !mentionsTiming(reasoning) {
		reasoning = append(reasoning[:len(reasoning):len(reasoning)], timingSentence(daysBetween))
	}

	adjusted := base
	adjusted.OverlapScore = score
	adjusted.Reasoning = reasoning
	return adjusted
}

// temporalBoost returns the proximity boost for the minimum gap in days
// between the two events' date spans.
func temporalBoost(daysBetween int) float64 {
	switch {
	case daysBetween == 0:
		return boostSameDay
	case daysBetween <= 3:
		return boostWithin3
	case daysBetween <= 7:
		return boostWithin7
	case daysBetween <= 30:
		return boostWithin30
	case daysBetween <= 90:
		return boostWithin90
	default:
		return 0
	}
}

// significanceBoost returns the boost for the competing event's expected
// attendance.
func significanceBoost(attendees int) float64 {
	switch {
	case attendees >= 10000:
		return boostMajorEvent
	case attendees >= 1000:
		return boostLargeEvent
	case attendees >= 100:
		return boostMediumEvent
	default:
		return 0
	}
}

// mentionsTiming reports whether any reasoning line already talks about the
// date pairing, so the timing sentence is added at most once.
func mentionsTiming(reasoning []string) bool {
	for _, line := range reasoning {
		l := strings.ToLower(line)
		if strings.Contains(l, "same day") || strings.Contains(l, "days apart") ||
			strings.Contains(l, "timing") || strings.Contains(l, "scheduled") {
			return true
		}
	}
	return false
}

func timingSentence(daysBetween int) string {
	if daysBetween == 0 {
		return "Events are scheduled on the same day, so attendees must choose between them"
	}
	return fmt.Sprintf("Events are only %d days apart, competing for the same audience window", daysBetween)
}

// Summarize aggregates a batch of predictions for one candidate date.
func Summarize(predictions map[string]models.OverlapPrediction) models.OverlapSummary {
	var s models.OverlapSummary
	if len(predictions) == 0 {
		return s
	}

	var total float64
	for _, p := range predictions {
		total += p.OverlapScore
		if p.OverlapScore > s.MaxOverlap {
			s.MaxOverlap = p.OverlapScore
		}
		if p.OverlapScore >= 0.5 {
			s.HighOverlapCount++
		}
	}
	s.AverageOverlap = total / float64(len(predictions))
	return s
}
