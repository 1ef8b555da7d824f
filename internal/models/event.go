// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package models

import "time"

// Event is the canonical, post-dedup representation of an event. A canonical
// event retains the identifiers of every source record it absorbed.
//
// Invariant: Date <= EndDate whenever EndDate is set.
type Event struct {
	// ID is the canonical event identifier.
	ID string `json:"id"`

	// Title is the event title as reported by the primary source record.
	Title string `json:"title"`

	// Category is the event category (e.g. "Technology", "Music").
	Category string `json:"category"`

	// Subcategory refines the category (e.g. "AI-ML"). Optional.
	Subcategory string `json:"subcategory,omitempty"`

	// Date is the event start date.
	Date time.Time `json:"date"`

	// EndDate is the event end date for multi-day events. Nil for single-day.
	EndDate *time.Time `json:"end_date,omitempty"`

	// City is the city the event takes place in.
	City string `json:"city"`

	// Venue is the venue name. Optional.
	Venue string `json:"venue,omitempty"`

	// ExpectedAttendees is the expected attendee count. Zero when unknown.
	ExpectedAttendees int `json:"expected_attendees,omitempty"`

	// Sources lists the identifiers of the source records merged into this
	// event. A canonical event always has at least one source.
	Sources []string `json:"sources"`

	// HasImage reports whether any source record carried an image. Used as a
	// significance signal.
	HasImage bool `json:"has_image"`

	// Description is the event description. Non-trivial length is used as a
	// significance signal.
	Description string `json:"description,omitempty"`
}

// Span returns the inclusive date span of the event. Single-day events span
// exactly their start date.
func (e *Event) Span() (start, end time.Time) {
	start = e.Date
	end = e.Date
	if e.EndDate != nil && e.EndDate.After(e.Date) {
		end = *e.EndDate
	}
	return start, end
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetweenSpans returns the minimum whole-day gap between two date spans.
// Overlapping spans (including shared days) have a gap of zero.
func DaysBetweenSpans(aStart, aEnd, bStart, bEnd time.Time) int {
	aStart = truncateDay(aStart)
	aEnd = truncateDay(aEnd)
	bStart = truncateDay(bStart)
	bEnd = truncateDay(bEnd)

	switch {
	case aEnd.Before(bStart):
		return int(bStart.Sub(aEnd).Hours() / 24)
	case bEnd.Before(aStart):
		return int(aStart.Sub(bEnd).Hours() / 24)
	default:
		return 0
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RawEventRecord is the pre-dedup unit as returned by a single source. It has
// the same shape as Event but is single-sourced and possibly duplicated
// across sources. Records are created per store query, consumed entirely by
// the deduplicator, and never persisted by the engine.
type RawEventRecord struct {
	// ID is the source-scoped record identifier.
	ID string `json:"id"`

	// Title is the event title as reported by the source.
	Title string `json:"title"`

	// Category is the source-reported category, post provider normalization.
	Category string `json:"category"`

	// Subcategory is the source-reported subcategory. Optional.
	Subcategory string `json:"subcategory,omitempty"`

	// Date is the event start date.
	Date time.Time `json:"date"`

	// EndDate is the event end date for multi-day events. Nil for single-day.
	EndDate *time.Time `json:"end_date,omitempty"`

	// City is the city the event takes place in.
	City string `json:"city"`

	// Venue is the venue name. Optional.
	Venue string `json:"venue,omitempty"`

	// ExpectedAttendees is the expected attendee count. Zero when unknown.
	ExpectedAttendees int `json:"expected_attendees,omitempty"`

	// Source identifies the provider this record came from.
	Source string `json:"source"`

	// HasImage reports whether the source record carried an image.
	HasImage bool `json:"has_image"`

	// Description is the source-reported description. Optional.
	Description string `json:"description,omitempty"`

	// CreatedAt is when the source first published the record. Used as a
	// deterministic tie-break for primary selection.
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the record carries the minimum fields required for
// duplicate comparison. Invalid records bypass merging entirely.
func (r *RawEventRecord) Valid() bool {
	return r.Title != "" && !r.Date.IsZero()
}

// Event converts the raw record into a canonical single-source event.
func (r *RawEventRecord) Event() Event {
	return Event{
		ID:                r.ID,
		Title:             r.Title,
		Category:          r.Category,
		Subcategory:       r.Subcategory,
		Date:              r.Date,
		EndDate:           r.EndDate,
		City:              r.City,
		Venue:             r.Venue,
		ExpectedAttendees: r.ExpectedAttendees,
		Sources:           []string{r.Source},
		HasImage:          r.HasImage,
		Description:       r.Description,
	}
}

// DuplicateMatch pairs a raw record with its similarity to the group primary.
type DuplicateMatch struct {
	// Record is the absorbed duplicate record.
	Record RawEventRecord `json:"record"`

	// Similarity is the pairwise similarity to the primary, in [0,1].
	// Always at or above the configured dedup threshold.
	Similarity float64 `json:"similarity"`
}

// DuplicateGroup is one canonical event plus the source records judged to be
// duplicates of it.
type DuplicateGroup struct {
	// Primary is the canonical event chosen by the completeness heuristic.
	Primary Event `json:"primary"`

	// Duplicates are the absorbed records with their similarities.
	Duplicates []DuplicateMatch `json:"duplicates"`
}
