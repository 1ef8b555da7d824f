// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/models"
)

// MemoryStore is an in-memory Store used when no database path is configured
// and by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []models.RawEventRecord
}

// NewMemoryStore creates an in-memory store with the given records.
func NewMemoryStore(records []models.RawEventRecord) *MemoryStore {
	copied := make([]models.RawEventRecord, len(records))
	copy(copied, records)
	return &MemoryStore{records: copied}
}

// FetchCompetingEvents implements Store.
func (s *MemoryStore) FetchCompetingEvents(_ context.Context, q Query) ([]models.RawEventRecord, error) {
	start := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.RawEventRecord
	for i := range s.records {
		if q.matches(&s.records[i]) {
			out = append(out, s.records[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})

	metrics.StoreQueryDuration.WithLabelValues("memory").Observe(time.Since(start).Seconds())
	return out, nil
}

// Add appends records to the store.
func (s *MemoryStore) Add(records ...models.RawEventRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// InsertRecords implements RecordWriter.
func (s *MemoryStore) InsertRecords(_ context.Context, records []models.RawEventRecord) error {
	s.Add(records...)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// DemoRecords is a small multi-source dataset with intentional duplicates,
// used to seed fresh installs and exercise the pipeline end to end.
func DemoRecords() []models.RawEventRecord {
	end := time.Date(2025, time.November, 16, 0, 0, 0, 0, time.UTC)

	return []models.RawEventRecord{
		{
			ID:                "ticketfolk:tf-1001",
			Title:             "Tech Conference 2025",
			Category:          "Technology",
			Subcategory:       "AI-ML",
			Date:              time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC),
			EndDate:           &end,
			City:              "Prague",
			Venue:             "Prague Congress Centre",
			ExpectedAttendees: 12000,
			Source:            SourceTicketfolk,
			HasImage:          true,
			Description:       "The largest AI and machine learning conference in Central Europe, with two days of talks and workshops.",
			CreatedAt:         time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:                "bright:br-2001",
			Title:             "Tech Conference 2025!",
			Category:          "Technology",
			Date:              time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC),
			City:              "Prague",
			Venue:             "Prague Congress Centre",
			ExpectedAttendees: 9500,
			Source:            SourceBright,
			HasImage:          false,
			CreatedAt:         time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:                "predictcity:pc-3001",
			Title:             "tech conference 2025",
			Category:          "Technology",
			Subcategory:       "AI-ML",
			Date:              time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC),
			City:              "Prague",
			Venue:             "Prague Congress Centre",
			ExpectedAttendees: 11000,
			Source:            SourcePredictCity,
			CreatedAt:         time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:                "ticketfolk:tf-1002",
			Title:             "Prague Autumn Jazz Nights",
			Category:          "Music",
			Subcategory:       "Jazz",
			Date:              time.Date(2025, time.November, 14, 0, 0, 0, 0, time.UTC),
			City:              "Prague",
			Venue:             "Lucerna Music Bar",
			ExpectedAttendees: 800,
			Source:            SourceTicketfolk,
			HasImage:          true,
			Description:       "An evening of contemporary European jazz.",
			CreatedAt:         time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:                "bright:br-2002",
			Title:             "Startup Founders Breakfast",
			Category:          "Business",
			Date:              time.Date(2025, time.November, 15, 0, 0, 0, 0, time.UTC),
			City:              "Prague",
			Venue:             "Impact Hub",
			ExpectedAttendees: 120,
			Source:            SourceBright,
			HasImage:          true,
			Description:       "Monthly networking breakfast for early-stage founders.",
			CreatedAt:         time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:                "predictcity:pc-3002",
			Title:             "Christmas Market Opening",
			Category:          "Food & Drink",
			Date:              time.Date(2025, time.November, 29, 0, 0, 0, 0, time.UTC),
			City:              "Prague",
			Venue:             "Old Town Square",
			ExpectedAttendees: 25000,
			Source:            SourcePredictCity,
			Description:       "Opening day of the Old Town Square Christmas market.",
			CreatedAt:         time.Date(2025, time.October, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}
