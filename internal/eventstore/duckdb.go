// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/openslot/openslot/internal/config"
	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/models"
)

// DuckDBStore serves event queries from a DuckDB database. Provider payloads
// are ingested elsewhere; by the time rows land in the events table they are
// already normalized to the canonical record shape.
type DuckDBStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
    id                 VARCHAR PRIMARY KEY,
    title              VARCHAR NOT NULL,
    category           VARCHAR,
    subcategory        VARCHAR,
    event_date         DATE NOT NULL,
    end_date           DATE,
    city               VARCHAR NOT NULL,
    venue              VARCHAR,
    expected_attendees INTEGER DEFAULT 0,
    source             VARCHAR NOT NULL,
    has_image          BOOLEAN DEFAULT FALSE,
    description        VARCHAR,
    created_at         TIMESTAMP
)`

// NewDuckDBStore opens the events database at cfg.Path and ensures the
// schema exists.
func NewDuckDBStore(cfg *config.DatabaseConfig, logger zerolog.Logger) (*DuckDBStore, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	// Auto-install/auto-load stays off so startup cannot hang fetching
	// extensions in restricted network environments.
	connStr := fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, maxMemory)

	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// DuckDB is an in-process engine; a small pool suffices.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	store := &DuckDBStore{
		db:     db,
		logger: logger.With().Str("component", "eventstore").Logger(),
	}

	if _, err := db.Exec(createEventsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}

	if cfg.SeedDemoData {
		if err := store.seedDemoData(); err != nil {
			store.logger.Warn().Err(err).Msg("failed to seed demo events")
		}
	}

	return store, nil
}

// FetchCompetingEvents implements Store. The date window is inclusive on
// both ends; multi-day events match when their span intersects the window.
func (s *DuckDBStore) FetchCompetingEvents(ctx context.Context, q Query) ([]models.RawEventRecord, error) {
	start := time.Now()

	query := `
        SELECT id, title, category, subcategory, event_date, end_date, city,
               venue, expected_attendees, source, has_image, description, created_at
        FROM events
        WHERE lower(city) = lower(?)
          AND COALESCE(end_date, event_date) >= ?
          AND event_date <= ?
          AND expected_attendees >= ?`
	args := []any{q.City, q.Start, q.End, q.MinAttendees}

	if q.Category != "" {
		query += ` AND lower(category) = lower(?)`
		args = append(args, q.Category)
	}
	query += ` ORDER BY event_date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.StoreQueryErrors.WithLabelValues("duckdb").Inc()
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var records []models.RawEventRecord
	for rows.Next() {
		var (
			r           models.RawEventRecord
			subcategory sql.NullString
			endDate     sql.NullTime
			venue       sql.NullString
			description sql.NullString
			createdAt   sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Title, &r.Category, &subcategory, &r.Date, &endDate,
			&r.City, &venue, &r.ExpectedAttendees, &r.Source, &r.HasImage, &description, &createdAt); err != nil {
			metrics.StoreQueryErrors.WithLabelValues("duckdb").Inc()
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		r.Subcategory = subcategory.String
		r.Venue = venue.String
		r.Description = description.String
		if endDate.Valid {
			end := endDate.Time
			r.EndDate = &end
		}
		if createdAt.Valid {
			r.CreatedAt = createdAt.Time
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		metrics.StoreQueryErrors.WithLabelValues("duckdb").Inc()
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	metrics.StoreQueryDuration.WithLabelValues("duckdb").Observe(time.Since(start).Seconds())
	return records, nil
}

// InsertRecords upserts normalized records, replacing rows with the same id.
func (s *DuckDBStore) InsertRecords(ctx context.Context, records []models.RawEventRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
        INSERT OR REPLACE INTO events
            (id, title, category, subcategory, event_date, end_date, city,
             venue, expected_attendees, source, has_image, description, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		r := &records[i]
		var endDate any
		if r.EndDate != nil {
			endDate = *r.EndDate
		}
		var createdAt any
		if !r.CreatedAt.IsZero() {
			createdAt = r.CreatedAt
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Title, r.Category, nullable(r.Subcategory),
			r.Date, endDate, r.City, nullable(r.Venue), r.ExpectedAttendees, r.Source,
			r.HasImage, nullable(r.Description), createdAt); err != nil {
			return fmt.Errorf("insert event %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// seedDemoData loads a small demo dataset so a fresh install has something
// to analyze against.
func (s *DuckDBStore) seedDemoData() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.InsertRecords(ctx, DemoRecords()); err != nil {
		return err
	}
	s.logger.Info().Int("events", len(DemoRecords())).Msg("seeded demo events")
	return nil
}

// Close implements Store.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}
