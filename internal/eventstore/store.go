// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package eventstore

import (
	"context"
	"strings"
	"time"

	"github.com/openslot/openslot/internal/models"
)

// Query selects competing events for one candidate date window.
type Query struct {
	// City filters events by city, case-insensitive. Required.
	City string

	// Start and End bound the date window, inclusive on both ends.
	Start time.Time
	End   time.Time

	// Category filters by category when non-empty. An empty category
	// returns every category, letting the overlap estimator weigh
	// cross-category competition.
	Category string

	// MinAttendees drops events below this expected attendance. Zero keeps
	// everything.
	MinAttendees int
}

// Store fetches raw competing events. Implementations must be safe for
// concurrent use since candidate dates are scored in parallel.
type Store interface {
	// FetchCompetingEvents returns the raw records matching the query.
	FetchCompetingEvents(ctx context.Context, q Query) ([]models.RawEventRecord, error)

	// Close releases the store's resources.
	Close() error
}

// RecordWriter is implemented by stores that accept ingested records.
type RecordWriter interface {
	// InsertRecords upserts normalized records into the store.
	InsertRecords(ctx context.Context, records []models.RawEventRecord) error
}

// matches reports whether a normalized record satisfies the query. Shared by
// the in-memory store and test fixtures; the DuckDB store filters in SQL.
func (q Query) matches(r *models.RawEventRecord) bool {
	if !strings.EqualFold(r.City, q.City) {
		return false
	}
	if q.Category != "" && !strings.EqualFold(r.Category, q.Category) {
		return false
	}
	if r.ExpectedAttendees < q.MinAttendees {
		return false
	}

	start := truncateDay(r.Date)
	end := start
	if r.EndDate != nil && r.EndDate.After(r.Date) {
		end = truncateDay(*r.EndDate)
	}
	if end.Before(truncateDay(q.Start)) || start.After(truncateDay(q.End)) {
		return false
	}

	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
