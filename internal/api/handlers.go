// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package api

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/openslot/openslot/internal/config"
	"github.com/openslot/openslot/internal/engine"
	"github.com/openslot/openslot/internal/eventstore"
	"github.com/openslot/openslot/internal/logging"
	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/validation"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	engine    *engine.Engine
	writer    eventstore.RecordWriter
	cfg       *config.Config
	startTime time.Time
}

// NewHandler creates a Handler backed by the given analysis engine. The
// ingest endpoint is enabled only when the store accepts writes.
func NewHandler(eng *engine.Engine, store eventstore.Store, cfg *config.Config) *Handler {
	writer, _ := store.(eventstore.RecordWriter)
	return &Handler{
		engine:    eng,
		writer:    writer,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// Analyze handles POST /api/v1/analyze. Invalid request bodies get a 400
// with field-level details; engine failures degrade inside the result and
// only internal errors surface as 500.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req engine.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", err.Error())
		metrics.RecordAPIRequest(r.Method, "/api/v1/analyze", http.StatusBadRequest, time.Since(started))
		return
	}

	result, err := h.engine.AnalyzeConflicts(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			apiErr := verr.ToAPIError()
			respondJSON(w, status, &APIResponse{
				Success: false,
				Error: &APIError{
					Code:    apiErr.Code,
					Message: apiErr.Message,
					Details: apiErr.Details,
				},
			})
		} else {
			respondError(w, status, "INVALID_REQUEST", err.Error(), nil)
		}
		metrics.RecordAPIRequest(r.Method, "/api/v1/analyze", status, time.Since(started))
		return
	}

	logging.Info().
		Str("city", req.City).
		Str("category", req.Category).
		Int("recommended", len(result.RecommendedDates)).
		Int("high_risk", len(result.HighRiskDates)).
		Dur("duration", time.Since(started)).
		Msg("Analysis request completed")

	respondJSON(w, http.StatusOK, &APIResponse{Success: true, Data: result})
	metrics.RecordAPIRequest(r.Method, "/api/v1/analyze", http.StatusOK, time.Since(started))
}

// IngestResult summarizes one ingest batch.
type IngestResult struct {
	Accepted int `json:"accepted"`
	Skipped  int `json:"skipped"`
}

// Ingest handles POST /api/v1/events. A mixed batch of provider payloads is
// normalized into canonical records and written to the event store; payloads
// with unknown provider tags or malformed bodies are skipped, not fatal.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if h.writer == nil {
		respondError(w, http.StatusNotImplemented, "READ_ONLY_STORE", "The configured event store does not accept ingest", nil)
		metrics.RecordAPIRequest(r.Method, "/api/v1/events", http.StatusNotImplemented, time.Since(started))
		return
	}

	var payloads []eventstore.ProviderPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", err.Error())
		metrics.RecordAPIRequest(r.Method, "/api/v1/events", http.StatusBadRequest, time.Since(started))
		return
	}

	records := eventstore.NormalizeBatch(payloads, logging.Logger())
	if err := h.writer.InsertRecords(r.Context(), records); err != nil {
		logging.Error().Err(err).Msg("Ingest write failed")
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "Failed to write records", nil)
		metrics.RecordAPIRequest(r.Method, "/api/v1/events", http.StatusInternalServerError, time.Since(started))
		return
	}

	respondJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data: IngestResult{
			Accepted: len(records),
			Skipped:  len(payloads) - len(records),
		},
	})
	metrics.RecordAPIRequest(r.Method, "/api/v1/events", http.StatusOK, time.Since(started))
}

// HealthStatus is the payload returned by the health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Success: true,
		Data: HealthStatus{
			Status:  "healthy",
			Version: Version,
			Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		},
	})
}
