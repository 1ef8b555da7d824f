// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package engine

import (
	"fmt"
	"time"

	"github.com/openslot/openslot/internal/models"
	"github.com/openslot/openslot/internal/validation"
)

// AnalyzeRequest parameterizes one conflict analysis.
type AnalyzeRequest struct {
	// City is where the planned event takes place.
	City string `json:"city" validate:"required"`

	// Category is the planned event's category.
	Category string `json:"category" validate:"required"`

	// Subcategory refines the category. Optional.
	Subcategory string `json:"subcategory,omitempty"`

	// Region selects the seasonal and holiday rule tables. Defaults to City.
	Region string `json:"region,omitempty"`

	// ExpectedAttendees is the planned event's expected attendance.
	ExpectedAttendees int `json:"expected_attendees" validate:"gte=0"`

	// StartDate and EndDate bound the candidate date range, inclusive.
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`

	// DurationDays is how many days the planned event runs. Defaults to 1.
	DurationDays int `json:"duration_days,omitempty" validate:"gte=0,lte=30"`

	// EnableAdvancedAnalysis turns on the AI overlap strategy when an AI
	// backend is configured. Off, the rule-based strategy serves directly.
	EnableAdvancedAnalysis bool `json:"enable_advanced_analysis,omitempty"`

	// EnableResearch supplements the event store with events discovered by
	// the online research backend when one is configured.
	EnableResearch bool `json:"enable_research,omitempty"`

	// EnableRelevanceFilter drops low-signal competing events (unrelated
	// category and negligible attendance) before scoring.
	EnableRelevanceFilter bool `json:"enable_relevance_filter,omitempty"`
}

// AnalyzeResult is the outcome of one conflict analysis.
type AnalyzeResult struct {
	// RecommendedDates are the Low and Medium risk dates, in date order.
	RecommendedDates []models.CandidateDateResult `json:"recommended_dates"`

	// HighRiskDates are the High risk dates, in date order.
	HighRiskDates []models.CandidateDateResult `json:"high_risk_dates"`

	// AllEvents is the union of deduplicated competing events seen across
	// every candidate date, in first-seen order.
	AllEvents []models.Event `json:"all_events"`

	// AnalysisDate is when the analysis ran.
	AnalysisDate time.Time `json:"analysis_date"`
}

// normalize fills request defaults in place.
func (r *AnalyzeRequest) normalize() {
	if r.Region == "" {
		r.Region = r.City
	}
	if r.DurationDays <= 0 {
		r.DurationDays = 1
	}
	r.StartDate = truncateDay(r.StartDate)
	r.EndDate = truncateDay(r.EndDate)
}

// validate rejects malformed requests before any external call. The date
// range cap is enforced here so an oversized range fails fast instead of
// fanning out hundreds of scoring tasks.
func (r *AnalyzeRequest) validate(maxCandidateDates int) error {
	if verr := validation.ValidateStruct(r); verr != nil {
		return verr
	}
	if r.EndDate.Before(r.StartDate) {
		return fmt.Errorf("end_date %s is before start_date %s",
			r.EndDate.Format("2006-01-02"), r.StartDate.Format("2006-01-02"))
	}
	if n := r.candidateCount(); n > maxCandidateDates {
		return fmt.Errorf("date range spans %d candidate dates, maximum is %d", n, maxCandidateDates)
	}
	return nil
}

// candidateCount is the number of candidate dates in the range, inclusive.
func (r *AnalyzeRequest) candidateCount() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

// candidateDates enumerates one candidate per day across the range.
func (r *AnalyzeRequest) candidateDates() []time.Time {
	n := r.candidateCount()
	dates := make([]time.Time, 0, n)
	for d := r.StartDate; !d.After(r.EndDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// plannedEvent builds the hypothetical planned event for one candidate date.
func (r *AnalyzeRequest) plannedEvent(date time.Time) (models.Event, *time.Time) {
	var endDate *time.Time
	if r.DurationDays > 1 {
		end := date.AddDate(0, 0, r.DurationDays-1)
		endDate = &end
	}

	return models.Event{
		ID:                "planned",
		Title:             "Planned event",
		Category:          r.Category,
		Subcategory:       r.Subcategory,
		Date:              date,
		EndDate:           endDate,
		City:              r.City,
		ExpectedAttendees: r.ExpectedAttendees,
		Sources:           []string{"request"},
	}, endDate
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
