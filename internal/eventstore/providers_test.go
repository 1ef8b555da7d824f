// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package eventstore

import (
	"io"
	"testing"
	"time"

	"github.com/openslot/openslot/internal/logging"
)

func TestNormalizeTicketfolk(t *testing.T) {
	r, err := NormalizeTicketfolk(&TicketfolkEvent{
		EventID:        "tf-1",
		Name:           "Tech Conference 2025",
		Classification: "tech",
		Genre:          "AI-ML",
		StartsAt:       "2025-11-15T09:00:00Z",
		EndsAt:         "2025-11-16T18:00:00Z",
		CityName:       "Prague",
		VenueName:      "Congress Centre",
		VenueCapacity:  12000,
		ImageURL:       "https://cdn.example.com/img.jpg",
		Info:           "Two days of talks.",
		PublishedAt:    "2025-06-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("NormalizeTicketfolk failed: %v", err)
	}

	if r.ID != "ticketfolk:tf-1" {
		t.Errorf("ID = %q", r.ID)
	}
	if r.Category != "Technology" {
		t.Errorf("Category = %q, want Technology (normalized from tech)", r.Category)
	}
	if r.EndDate == nil || !r.EndDate.After(r.Date) {
		t.Errorf("EndDate = %v, want after %v", r.EndDate, r.Date)
	}
	if !r.HasImage {
		t.Error("HasImage should be true when image_url is set")
	}
	if r.Source != SourceTicketfolk {
		t.Errorf("Source = %q", r.Source)
	}
}

func TestNormalizeTicketfolkBadDate(t *testing.T) {
	_, err := NormalizeTicketfolk(&TicketfolkEvent{EventID: "tf-2", Name: "X", StartsAt: "not a date"})
	if err == nil {
		t.Fatal("expected error for unparseable start date")
	}
}

func TestNormalizeBright(t *testing.T) {
	r, err := NormalizeBright(&BrightEvent{
		ID:         "br-1",
		Title:      "Jazz Night",
		Tags:       []string{"music", "Jazz"},
		Date:       "2025-11-14",
		City:       "Prague",
		Location:   "Lucerna",
		GoingCount: 300,
		HasPhoto:   true,
	})
	if err != nil {
		t.Fatalf("NormalizeBright failed: %v", err)
	}

	if r.Category != "Music" {
		t.Errorf("Category = %q, want Music (first tag, normalized)", r.Category)
	}
	if r.Subcategory != "Jazz" {
		t.Errorf("Subcategory = %q, want Jazz (second tag)", r.Subcategory)
	}
	if r.EndDate != nil {
		t.Errorf("EndDate = %v, want nil for single-day event", r.EndDate)
	}
	if r.ExpectedAttendees != 300 {
		t.Errorf("ExpectedAttendees = %d", r.ExpectedAttendees)
	}
}

func TestNormalizePredictCity(t *testing.T) {
	start := time.Date(2025, time.November, 29, 10, 0, 0, 0, time.UTC)

	r, err := NormalizePredictCity(&PredictCityEvent{
		UID:               "pc-1",
		Label:             "Christmas Market Opening",
		Category:          "food",
		StartEpoch:        start.Unix(),
		City:              "Prague",
		PredictedAttended: 25000.7,
	})
	if err != nil {
		t.Fatalf("NormalizePredictCity failed: %v", err)
	}

	if !r.Date.Equal(start) {
		t.Errorf("Date = %v, want %v", r.Date, start)
	}
	if r.Category != "Food & Drink" {
		t.Errorf("Category = %q, want Food & Drink", r.Category)
	}
	if r.ExpectedAttendees != 25000 {
		t.Errorf("ExpectedAttendees = %d, want truncated 25000", r.ExpectedAttendees)
	}
}

func TestNormalizePredictCityMissingEpoch(t *testing.T) {
	_, err := NormalizePredictCity(&PredictCityEvent{UID: "pc-2", Label: "X"})
	if err == nil {
		t.Fatal("expected error for missing start_epoch")
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tech", "Technology"},
		{"Technology", "Technology"},
		{"concerts", "Music"},
		{"FOOD AND DRINK", "Food & Drink"},
		{"networking", "Business"},
		{"theatre", "Arts"},
		{"quilting", "Quilting"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCategory(tt.in); got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeBatch(t *testing.T) {
	logger := logging.NewTestLogger(io.Discard)

	payloads := []ProviderPayload{
		{Provider: SourceTicketfolk, Payload: []byte(`{"event_id": "tf-1", "name": "Tech Conference 2025", "classification": "tech", "starts_at": "2025-11-15T09:00:00Z", "city_name": "Prague"}`)},
		{Provider: SourceBright, Payload: []byte(`{"id": "b-9", "title": "Jazz Nights", "tags": ["concerts"], "date": "2025-11-14", "city": "Prague"}`)},
		{Provider: "unknownfeed", Payload: []byte(`{"whatever": true}`)},
		{Provider: SourceBright, Payload: []byte(`{"id": "b-bad", "title": "No Date"}`)},
		{Provider: SourcePredictCity, Payload: []byte(`not json`)},
	}

	records := NormalizeBatch(payloads, logger)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (unknown tag and malformed payloads skipped)", len(records))
	}
	if records[0].Source != SourceTicketfolk || records[1].Source != SourceBright {
		t.Errorf("sources = %s, %s", records[0].Source, records[1].Source)
	}
	if records[1].Category != "Music" {
		t.Errorf("category = %q, want Music", records[1].Category)
	}
}
