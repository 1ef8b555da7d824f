// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package scorer

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/openslot/openslot/internal/models"
	"github.com/openslot/openslot/internal/overlap"
)

// Per-event scoring constants. The flat base marks that a competing event
// exists at all; the tier points carry the category-conflict weight; the
// presence bonuses are cheap proxies for a real, promoted event.
const (
	perEventBase = 8.0

	tierExactPoints     = 15.0
	tierRelatedPoints   = 8.0
	tierUnrelatedPoints = 1.0

	venueBonus       = 2.0
	imageBonus       = 2.0
	descriptionBonus = 2.0

	// overlapWeight converts an overlap prediction in [0, 0.95] into score
	// points for the pair.
	overlapWeight = 20.0

	// tailContribution is the flat per-event contribution for events past
	// the maxComparisons cutoff.
	tailContribution = 2.0

	// minDescriptionLen is the shortest description that earns the bonus.
	minDescriptionLen = 50

	// dominantShare is the fraction of the pre-cap total above which a
	// single competing event is called out in the reasons.
	dominantShare = 0.25
)

// Attendee-scale multipliers for the planned event's expected attendance.
// The larger threshold wins; the two never compound.
const (
	largeEventScale = 1.05 // > 1,000 expected attendees
	majorEventScale = 1.10 // > 10,000 expected attendees
)

// Risk ladder thresholds on the final score.
const (
	mediumRiskThreshold = 30.0
	highRiskThreshold   = 60.0
)

// Scorer computes conflict scores for candidate dates.
type Scorer struct {
	maxComparisons int
	logger         zerolog.Logger
}

// New creates a scorer. maxComparisons bounds how many competing events get
// full per-event scoring; the rest contribute a flat amount each.
func New(maxComparisons int, logger zerolog.Logger) *Scorer {
	if maxComparisons <= 0 {
		maxComparisons = 50
	}
	return &Scorer{
		maxComparisons: maxComparisons,
		logger:         logger.With().Str("component", "scorer").Logger(),
	}
}

// Input carries everything one candidate date's scoring needs.
type Input struct {
	Date            time.Time
	EndDate         *time.Time
	Planned         models.Event
	CompetingEvents []models.Event
	Overlaps        map[string]models.OverlapPrediction
	Seasonal        models.SeasonalMultiplier
	Holiday         models.HolidayImpact
}

// contribution tracks one fully scored competing event for reason building.
type contribution struct {
	event  *models.Event
	points float64
}

// Score produces the bounded conflict score, risk tier, and reasons for one
// candidate date. A date with no competing events scores zero and classifies
// Low regardless of seasonal factors.
func (s *Scorer) Score(in Input) models.CandidateDateResult {
	result := models.CandidateDateResult{
		Date:            in.Date,
		EndDate:         in.EndDate,
		CompetingEvents: in.CompetingEvents,
		SeasonalFactors: models.SeasonalFactors{
			Seasonal: in.Seasonal,
			Holiday:  in.Holiday,
		},
		AudienceOverlapSummary: overlap.Summarize(in.Overlaps),
	}

	if len(in.CompetingEvents) == 0 {
		result.RiskLevel = models.RiskLow
		result.Reasons = []string{"No competing events found for this date"}
		return result
	}

	ranked := rankBySignificance(in.CompetingEvents)

	scored := ranked
	var tail []models.Event
	if len(ranked) > s.maxComparisons {
		scored = ranked[:s.maxComparisons]
		tail = ranked[s.maxComparisons:]
	}

	var total float64
	contributions := make([]contribution, 0, len(scored))

	for i := range scored {
		pts := s.eventContribution(&in.Planned, &scored[i], in.Overlaps)
		if pts > models.ScoreCap {
			pts = models.ScoreCap
		}
		contributions = append(contributions, contribution{event: &scored[i], points: pts})
		total += pts
	}
	total += float64(len(tail)) * tailContribution

	total *= attendeeScale(in.Planned.ExpectedAttendees)

	if total > models.ScoreCap {
		total = models.ScoreCap
	}

	final := total * in.Seasonal.Multiplier * in.Holiday.Multiplier
	if final > models.ScoreCap {
		final = models.ScoreCap
	}

	result.ConflictScore = final
	result.RiskLevel = ClassifyRisk(final)
	result.Reasons = s.buildReasons(total, contributions, &in)

	return result
}

// eventContribution scores one competing event against the planned event.
func (s *Scorer) eventContribution(planned, competing *models.Event, overlaps map[string]models.OverlapPrediction) float64 {
	pts := perEventBase

	switch overlap.RelationshipTier(planned.Category, competing.Category) {
	case overlap.TierExact:
		pts += tierExactPoints
	case overlap.TierRelated:
		pts += tierRelatedPoints
	default:
		pts += tierUnrelatedPoints
	}

	if competing.Venue != "" {
		pts += venueBonus
	}
	if competing.HasImage {
		pts += imageBonus
	}
	if len(competing.Description) >= minDescriptionLen {
		pts += descriptionBonus
	}

	if pred, ok := overlaps[competing.ID]; ok {
		pts += pred.OverlapScore * overlapWeight
	}

	return pts
}

// attendeeScale returns the planned event's attendance multiplier.
func attendeeScale(expectedAttendees int) float64 {
	switch {
	case expectedAttendees > 10000:
		return majorEventScale
	case expectedAttendees > 1000:
		return largeEventScale
	default:
		return 1.0
	}
}

// ClassifyRisk maps a final score onto the fixed risk ladder. The ladder is
// monotonic: a higher score never yields a lower tier.
func ClassifyRisk(score float64) models.RiskLevel {
	switch {
	case score >= highRiskThreshold:
		return models.RiskHigh
	case score >= mediumRiskThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

// significance ranks a competing event for the maxComparisons cutoff:
// complete, promoted, well-attended events score first.
func significance(e *models.Event) float64 {
	var sig float64
	if e.Venue != "" {
		sig += 2
	}
	if e.HasImage {
		sig += 2
	}
	descLen := len(e.Description)
	if descLen > 500 {
		descLen = 500
	}
	sig += float64(descLen) / 250.0
	sig += float64(e.ExpectedAttendees) / 1000.0
	return sig
}

// rankBySignificance returns the events sorted by significance descending
// without mutating the input slice. Ties keep input order for determinism.
func rankBySignificance(events []models.Event) []models.Event {
	ranked := make([]models.Event, len(events))
	copy(ranked, events)
	sort.SliceStable(ranked, func(i, j int) bool {
		return significance(&ranked[i]) > significance(&ranked[j])
	})
	return ranked
}

// buildReasons lists, in priority order, dominant competing events, holidays
// above moderate impact, and elevated seasonal demand.
func (s *Scorer) buildReasons(preSeasonTotal float64, contributions []contribution, in *Input) []string {
	var reasons []string

	if preSeasonTotal > 0 {
		for _, c := range contributions {
			if c.points/preSeasonTotal > dominantShare {
				reasons = append(reasons, fmt.Sprintf("%q on %s draws heavily on the same audience",
					c.event.Title, c.event.Date.Format("Jan 2")))
			}
		}
	}

	for _, h := range in.Holiday.AffectedHolidays {
		if h.Severity.AtLeast(models.ImpactHigh) {
			reasons = append(reasons, fmt.Sprintf("%s falls within this date's window: %s", h.Name, h.Reasoning))
		}
	}

	if in.Seasonal.DemandLevel == models.DemandHigh || in.Seasonal.DemandLevel == models.DemandVeryHigh {
		reasons = append(reasons, fmt.Sprintf("Seasonal demand is %s for %s events: %s",
			in.Seasonal.DemandLevel, in.Planned.Category, in.Seasonal.Reasoning))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, fmt.Sprintf("%d competing events with limited audience overlap", len(in.CompetingEvents)))
	}

	return reasons
}
