// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package eventstore

import (
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/openslot/openslot/internal/models"
)

// Provider source identifiers as stored in the events table.
const (
	SourceTicketfolk  = "ticketfolk"
	SourceBright      = "bright"
	SourcePredictCity = "predictcity"
	SourceResearch    = "research"
)

// TicketfolkEvent is the raw payload shape of the ticketing provider. Dates
// arrive as RFC 3339 strings and attendance as a venue capacity.
type TicketfolkEvent struct {
	EventID        string `json:"event_id"`
	Name           string `json:"name"`
	Classification string `json:"classification"`
	Genre          string `json:"genre"`
	StartsAt       string `json:"starts_at"`
	EndsAt         string `json:"ends_at,omitempty"`
	CityName       string `json:"city_name"`
	VenueName      string `json:"venue_name,omitempty"`
	VenueCapacity  int    `json:"venue_capacity,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	Info           string `json:"info,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
}

// BrightEvent is the raw payload shape of the community-events provider.
// Dates arrive as date-only strings and the category is a free-form tag list.
type BrightEvent struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
	EndDate     string   `json:"end_date,omitempty"`
	City        string   `json:"city"`
	Location    string   `json:"location,omitempty"`
	GoingCount  int      `json:"going_count,omitempty"`
	HasPhoto    bool     `json:"has_photo"`
	Summary     string   `json:"summary,omitempty"`
	CreatedDate string   `json:"created_date,omitempty"`
}

// PredictCityEvent is the raw payload shape of the attendance-prediction
// provider. It already carries unix timestamps and an attendance estimate.
type PredictCityEvent struct {
	UID               string  `json:"uid"`
	Label             string  `json:"label"`
	Category          string  `json:"category"`
	Subcategory       string  `json:"subcategory,omitempty"`
	StartEpoch        int64   `json:"start_epoch"`
	EndEpoch          int64   `json:"end_epoch,omitempty"`
	City              string  `json:"city"`
	Venue             string  `json:"venue,omitempty"`
	PredictedAttended float64 `json:"predicted_attendance,omitempty"`
	Description       string  `json:"description,omitempty"`
	FirstSeenEpoch    int64   `json:"first_seen_epoch,omitempty"`
}

// NormalizeTicketfolk converts a ticketing payload into a canonical record.
func NormalizeTicketfolk(e *TicketfolkEvent) (models.RawEventRecord, error) {
	start, err := time.Parse(time.RFC3339, e.StartsAt)
	if err != nil {
		return models.RawEventRecord{}, fmt.Errorf("ticketfolk event %s: parse starts_at: %w", e.EventID, err)
	}

	r := models.RawEventRecord{
		ID:                SourceTicketfolk + ":" + e.EventID,
		Title:             e.Name,
		Category:          NormalizeCategory(e.Classification),
		Subcategory:       e.Genre,
		Date:              start,
		City:              e.CityName,
		Venue:             e.VenueName,
		ExpectedAttendees: e.VenueCapacity,
		Source:            SourceTicketfolk,
		HasImage:          e.ImageURL != "",
		Description:       e.Info,
	}

	if e.EndsAt != "" {
		if end, err := time.Parse(time.RFC3339, e.EndsAt); err == nil && end.After(start) {
			r.EndDate = &end
		}
	}
	if e.PublishedAt != "" {
		if created, err := time.Parse(time.RFC3339, e.PublishedAt); err == nil {
			r.CreatedAt = created
		}
	}

	return r, nil
}

// NormalizeBright converts a community-events payload into a canonical
// record. The first tag becomes the category and the second the subcategory.
func NormalizeBright(e *BrightEvent) (models.RawEventRecord, error) {
	date, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return models.RawEventRecord{}, fmt.Errorf("bright event %s: parse date: %w", e.ID, err)
	}

	var category, subcategory string
	if len(e.Tags) > 0 {
		category = e.Tags[0]
	}
	if len(e.Tags) > 1 {
		subcategory = e.Tags[1]
	}

	r := models.RawEventRecord{
		ID:                SourceBright + ":" + e.ID,
		Title:             e.Title,
		Category:          NormalizeCategory(category),
		Subcategory:       subcategory,
		Date:              date,
		City:              e.City,
		Venue:             e.Location,
		ExpectedAttendees: e.GoingCount,
		Source:            SourceBright,
		HasImage:          e.HasPhoto,
		Description:       e.Summary,
	}

	if e.EndDate != "" {
		if end, err := time.Parse("2006-01-02", e.EndDate); err == nil && end.After(date) {
			r.EndDate = &end
		}
	}
	if e.CreatedDate != "" {
		if created, err := time.Parse("2006-01-02", e.CreatedDate); err == nil {
			r.CreatedAt = created
		}
	}

	return r, nil
}

// NormalizePredictCity converts an attendance-prediction payload into a
// canonical record.
func NormalizePredictCity(e *PredictCityEvent) (models.RawEventRecord, error) {
	if e.StartEpoch <= 0 {
		return models.RawEventRecord{}, fmt.Errorf("predictcity event %s: missing start_epoch", e.UID)
	}

	r := models.RawEventRecord{
		ID:                SourcePredictCity + ":" + e.UID,
		Title:             e.Label,
		Category:          NormalizeCategory(e.Category),
		Subcategory:       e.Subcategory,
		Date:              time.Unix(e.StartEpoch, 0).UTC(),
		City:              e.City,
		Venue:             e.Venue,
		ExpectedAttendees: int(e.PredictedAttended),
		Source:            SourcePredictCity,
		HasImage:          false,
		Description:       e.Description,
	}

	if e.EndEpoch > e.StartEpoch {
		end := time.Unix(e.EndEpoch, 0).UTC()
		r.EndDate = &end
	}
	if e.FirstSeenEpoch > 0 {
		r.CreatedAt = time.Unix(e.FirstSeenEpoch, 0).UTC()
	}

	return r, nil
}

// ProviderPayload is one raw record as delivered by an ingest feed: a
// provider tag plus the provider-specific JSON payload.
type ProviderPayload struct {
	Provider string          `json:"provider"`
	Payload  json.RawMessage `json:"payload"`
}

// NormalizeBatch converts a mixed batch of provider payloads into canonical
// records. Unknown provider tags and malformed payloads are skipped with a
// warning; one bad record never fails the batch.
func NormalizeBatch(payloads []ProviderPayload, logger zerolog.Logger) []models.RawEventRecord {
	records := make([]models.RawEventRecord, 0, len(payloads))

	for i := range payloads {
		p := &payloads[i]

		var (
			rec models.RawEventRecord
			err error
		)
		switch p.Provider {
		case SourceTicketfolk:
			var e TicketfolkEvent
			if err = json.Unmarshal(p.Payload, &e); err == nil {
				rec, err = NormalizeTicketfolk(&e)
			}
		case SourceBright:
			var e BrightEvent
			if err = json.Unmarshal(p.Payload, &e); err == nil {
				rec, err = NormalizeBright(&e)
			}
		case SourcePredictCity:
			var e PredictCityEvent
			if err = json.Unmarshal(p.Payload, &e); err == nil {
				rec, err = NormalizePredictCity(&e)
			}
		default:
			logger.Warn().Str("provider", p.Provider).Msg("unknown provider tag, skipping payload")
			continue
		}

		if err != nil {
			logger.Warn().Err(err).Str("provider", p.Provider).Msg("skipping malformed provider payload")
			continue
		}
		records = append(records, rec)
	}

	return records
}

// NormalizeCategory maps free-form provider category spellings onto the
// canonical taxonomy used by the overlap tables. Unknown categories pass
// through title-cased so cross-provider comparison stays approximate rather
// than lossy.
func NormalizeCategory(raw string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	switch c {
	case "tech", "technology", "it", "software":
		return "Technology"
	case "music", "concert", "concerts":
		return "Music"
	case "sport", "sports", "fitness":
		return "Sports"
	case "food", "food & drink", "food and drink", "culinary":
		return "Food & Drink"
	case "business", "networking", "professional":
		return "Business"
	case "arts", "art", "culture", "theatre", "theater":
		return "Arts"
	case "":
		return ""
	default:
		return strings.ToUpper(c[:1]) + c[1:]
	}
}
