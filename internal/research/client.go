// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package research supplements the event store with events discovered by an
// online research backend. Results are advisory: any failure degrades to an
// empty supplement and never aborts an analysis.
package research

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/openslot/openslot/internal/config"
	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/models"
)

// Source marks records discovered through online research.
const Source = "research"

// Client calls a Perplexity-style chat-completions endpoint to discover
// events the store does not know about.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a research client from configuration.
func NewClient(cfg *config.ResearchConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("component", "research").Logger(),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// researchEvent is the JSON contract the prompt demands per discovered event.
type researchEvent struct {
	Title             string `json:"title"`
	Category          string `json:"category"`
	Subcategory       string `json:"subcategory,omitempty"`
	Date              string `json:"date"`
	EndDate           string `json:"end_date,omitempty"`
	Venue             string `json:"venue,omitempty"`
	ExpectedAttendees int    `json:"expected_attendees,omitempty"`
	Description       string `json:"description,omitempty"`
}

// FindEvents asks the research backend for events in the city and window.
// The caller treats any error as a degraded, empty supplement.
func (c *Client) FindEvents(ctx context.Context, city string, start, end time.Time, category string) ([]models.RawEventRecord, error) {
	prompt := buildPrompt(city, start, end, category)

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are an event research assistant. Respond with ONLY a JSON array, no prose and no markdown."},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues("research", "error").Inc()
		return nil, fmt.Errorf("call research backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.AIRequestsTotal.WithLabelValues("research", "error").Inc()
		drained, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("research backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(drained)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues("research", "error").Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		metrics.AIRequestsTotal.WithLabelValues("research", "error").Inc()
		return nil, fmt.Errorf("parse response envelope: %w", err)
	}
	if len(cr.Choices) == 0 {
		metrics.AIRequestsTotal.WithLabelValues("research", "error").Inc()
		return nil, fmt.Errorf("empty research response")
	}

	records := c.parseEvents(cr.Choices[0].Message.Content, city)
	metrics.AIRequestsTotal.WithLabelValues("research", "success").Inc()
	return records, nil
}

// parseEvents decodes the model's JSON array, dropping entries with missing
// or unparseable required fields rather than failing the supplement.
func (c *Client) parseEvents(content, city string) []models.RawEventRecord {
	content = stripFences(content)

	var events []researchEvent
	if err := json.Unmarshal([]byte(content), &events); err != nil {
		c.logger.Warn().Err(err).Msg("research response is not a JSON event array")
		return nil
	}

	now := time.Now().UTC()
	var records []models.RawEventRecord

	for i := range events {
		e := &events[i]
		if e.Title == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			c.logger.Debug().Str("title", e.Title).Str("date", e.Date).Msg("dropping research event with bad date")
			continue
		}

		r := models.RawEventRecord{
			ID:                fmt.Sprintf("%s:%s-%d", Source, date.Format("20060102"), i),
			Title:             e.Title,
			Category:          e.Category,
			Subcategory:       e.Subcategory,
			Date:              date,
			City:              city,
			Venue:             e.Venue,
			ExpectedAttendees: e.ExpectedAttendees,
			Source:            Source,
			Description:       e.Description,
			CreatedAt:         now,
		}
		if e.EndDate != "" {
			if end, err := time.Parse("2006-01-02", e.EndDate); err == nil && end.After(date) {
				r.EndDate = &end
			}
		}
		records = append(records, r)
	}

	return records
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

func buildPrompt(city string, start, end time.Time, category string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "List public events happening in %s between %s and %s",
		city, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if category != "" {
		fmt.Fprintf(&b, " that would compete with a %s event for attendees", category)
	}
	b.WriteString(". Respond with a JSON array where each element is ")
	b.WriteString(`{"title": "...", "category": "...", "subcategory": "...", "date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD", "venue": "...", "expected_attendees": 0, "description": "..."}`)
	b.WriteString(". Omit fields you do not know. Return [] if you find nothing.")
	return b.String()
}
