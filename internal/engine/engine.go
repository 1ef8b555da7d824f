// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openslot/openslot/internal/config"
	"github.com/openslot/openslot/internal/dedup"
	"github.com/openslot/openslot/internal/eventstore"
	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/models"
	"github.com/openslot/openslot/internal/overlap"
	"github.com/openslot/openslot/internal/research"
	"github.com/openslot/openslot/internal/scorer"
	"github.com/openslot/openslot/internal/seasonal"
)

// Degradation markers attached to a candidate date when a sub-operation fell
// back to defaults.
const (
	DegradedEventStore = "event_store"
	DegradedResearch   = "research"
)

// Engine runs conflict analyses. All collaborators are injected so tests can
// substitute fakes; the Engine itself holds no mutable state beyond the
// shared read-through caches inside its collaborators.
type Engine struct {
	cfg config.EngineConfig

	store         eventstore.Store
	research      *research.Client
	dedup         *dedup.Deduplicator
	aiEstimator   *overlap.Estimator
	ruleEstimator *overlap.Estimator
	seasonal      *seasonal.Engine
	scorer        *scorer.Scorer
	logger        zerolog.Logger
}

// Options bundles the engine's collaborators.
type Options struct {
	Config   config.EngineConfig
	Store    eventstore.Store
	Research *research.Client // nil disables research supplements
	Dedup    *dedup.Deduplicator
	// AIEstimator serves requests with advanced analysis enabled. Nil falls
	// back to RuleEstimator for every request.
	AIEstimator   *overlap.Estimator
	RuleEstimator *overlap.Estimator
	Seasonal      *seasonal.Engine
	Scorer        *scorer.Scorer
	Logger        zerolog.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	return &Engine{
		cfg:           opts.Config,
		store:         opts.Store,
		research:      opts.Research,
		dedup:         opts.Dedup,
		aiEstimator:   opts.AIEstimator,
		ruleEstimator: opts.RuleEstimator,
		seasonal:      opts.Seasonal,
		scorer:        opts.Scorer,
		logger:        opts.Logger.With().Str("component", "engine").Logger(),
	}
}

// AnalyzeConflicts scores every candidate date in the requested range and
// partitions the results by risk. It rejects only invalid input; external
// failures degrade the affected dates and are reported via their Degraded
// markers.
func (e *Engine) AnalyzeConflicts(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	started := time.Now()

	req.normalize()
	if err := req.validate(e.cfg.MaxCandidateDates); err != nil {
		metrics.AnalysesTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	dates := req.candidateDates()
	e.logger.Info().
		Str("city", req.City).
		Str("category", req.Category).
		Int("candidate_dates", len(dates)).
		Bool("advanced", req.EnableAdvancedAnalysis).
		Msg("starting conflict analysis")

	results := make([]models.CandidateDateResult, len(dates))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.maxConcurrentDates())

	for i, date := range dates {
		wg.Add(1)
		go func(idx int, d time.Time) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = e.scoreDate(ctx, &req, d)
		}(i, date)
	}
	wg.Wait()

	metrics.CandidateDatesScored.Add(float64(len(dates)))
	metrics.AnalysesTotal.WithLabelValues("success").Inc()
	metrics.AnalysisDuration.Observe(time.Since(started).Seconds())

	result := Assemble(results)
	result.AnalysisDate = time.Now().UTC()

	e.logger.Info().
		Int("recommended", len(result.RecommendedDates)).
		Int("high_risk", len(result.HighRiskDates)).
		Dur("elapsed", time.Since(started)).
		Msg("conflict analysis complete")

	return result, nil
}

func (e *Engine) maxConcurrentDates() int {
	if e.cfg.MaxConcurrentDates > 0 {
		return e.cfg.MaxConcurrentDates
	}
	return 8
}

// scoreDate runs the full pipeline for one candidate date. It never fails:
// each degraded sub-operation is recorded on the result instead.
func (e *Engine) scoreDate(ctx context.Context, req *AnalyzeRequest, date time.Time) models.CandidateDateResult {
	started := time.Now()
	defer func() {
		metrics.DateScoringDuration.Observe(time.Since(started).Seconds())
	}()

	planned, endDate := req.plannedEvent(date)
	pStart, pEnd := planned.Span()

	var degraded []string

	records, err := e.fetchRecords(ctx, req, pStart, pEnd)
	if err != nil {
		e.logger.Warn().Err(err).Time("date", date).Msg("event store query failed, scoring without competitors")
		degraded = append(degraded, DegradedEventStore)
		records = nil
	}

	if req.EnableResearch && e.research != nil {
		extra, rerr := e.research.FindEvents(ctx, req.City, pStart, pEnd, req.Category)
		if rerr != nil {
			e.logger.Warn().Err(rerr).Time("date", date).Msg("research supplement failed, continuing without it")
			degraded = append(degraded, DegradedResearch)
		} else {
			records = append(records, extra...)
		}
	}

	dedupResult := e.dedup.Deduplicate(records)
	competing := dedupResult.UniqueEvents

	if req.EnableRelevanceFilter {
		competing = filterRelevant(req.Category, competing)
	}

	// Overlap estimation and seasonal lookups are independent reads; run
	// them concurrently and block on joint completion.
	var (
		overlaps      map[string]models.OverlapPrediction
		seasonalMult  models.SeasonalMultiplier
		holidayImpact models.HolidayImpact
		lookups       sync.WaitGroup
	)

	lookups.Add(2)
	go func() {
		defer lookups.Done()
		overlaps = e.estimator(req).PredictOverlapBatch(ctx, planned, competing)
	}()
	go func() {
		defer lookups.Done()
		seasonalMult = e.seasonal.GetSeasonalMultiplier(ctx, date, req.Category, req.Subcategory, req.Region)
		holidayImpact = e.seasonal.GetHolidayImpact(ctx, date, req.Category, req.Subcategory, req.Region)
	}()
	lookups.Wait()

	result := e.scorer.Score(scorer.Input{
		Date:            date,
		EndDate:         endDate,
		Planned:         planned,
		CompetingEvents: competing,
		Overlaps:        overlaps,
		Seasonal:        seasonalMult,
		Holiday:         holidayImpact,
	})
	result.Degraded = degraded

	return result
}

// fetchRecords queries the event store under the configured timeout.
func (e *Engine) fetchRecords(ctx context.Context, req *AnalyzeRequest, start, end time.Time) ([]models.RawEventRecord, error) {
	if e.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.StoreTimeout)
		defer cancel()
	}

	// Category is left open on purpose: cross-category events still compete
	// for the same audience and the overlap estimator weighs them.
	return e.store.FetchCompetingEvents(ctx, eventstore.Query{
		City:  req.City,
		Start: start,
		End:   end,
	})
}

// estimator picks the overlap estimator for a request. Advanced analysis
// uses the AI-backed estimator when one is configured.
func (e *Engine) estimator(req *AnalyzeRequest) *overlap.Estimator {
	if req.EnableAdvancedAnalysis && e.aiEstimator != nil {
		return e.aiEstimator
	}
	return e.ruleEstimator
}

// filterRelevant drops competing events that are both categorically
// unrelated to the planned event and too small to move the score.
func filterRelevant(category string, events []models.Event) []models.Event {
	filtered := events[:0:0]
	for i := range events {
		if overlap.RelationshipTier(category, events[i].Category) == overlap.TierUnrelated &&
			events[i].ExpectedAttendees < 1000 {
			continue
		}
		filtered = append(filtered, events[i])
	}
	return filtered
}

// Assemble partitions scored dates into recommended (Low and Medium risk)
// and high-risk buckets, preserving date order within each partition, and
// collects the union of competing events across all dates.
func Assemble(results []models.CandidateDateResult) *AnalyzeResult {
	sorted := make([]models.CandidateDateResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := &AnalyzeResult{
		RecommendedDates: []models.CandidateDateResult{},
		HighRiskDates:    []models.CandidateDateResult{},
	}

	seen := make(map[string]struct{})
	for i := range sorted {
		r := sorted[i]
		if r.RiskLevel == models.RiskHigh {
			out.HighRiskDates = append(out.HighRiskDates, r)
		} else {
			out.RecommendedDates = append(out.RecommendedDates, r)
		}
		for j := range r.CompetingEvents {
			ev := r.CompetingEvents[j]
			if _, ok := seen[ev.ID]; ok {
				continue
			}
			seen[ev.ID] = struct{}{}
			out.AllEvents = append(out.AllEvents, ev)
		}
	}

	return out
}
