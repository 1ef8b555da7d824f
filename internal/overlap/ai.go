// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package overlap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/openslot/openslot/internal/config"
	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/models"
)

// ErrUnparseable marks an AI response that arrived but could not be decoded
// into the expected batch result contract.
var ErrUnparseable = errors.New("unparseable AI response")

// AIStrategy estimates base overlap with a single batched call to a
// Gemini-style generateContent endpoint. The whole batch is analyzed in one
// request to bound cost and latency.
//
// The strategy may return predictions for a subset of the batch: ids the
// model omits or returns malformed are simply absent from the result map,
// and the estimator backfills them from the rule-based strategy.
type AIStrategy struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[map[string]models.OverlapPrediction]
	logger     zerolog.Logger
}

// NewAIStrategy creates the AI-assisted strategy from configuration. The
// request timeout bounds the whole batched call since it sits on the
// analysis critical path.
func NewAIStrategy(cfg *config.AIConfig, logger zerolog.Logger) *AIStrategy {
	s := &AIStrategy{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger.With().Str("component", "overlap_ai").Logger(),
	}

	s.breaker = gobreaker.NewCircuitBreaker[map[string]models.OverlapPrediction](gobreaker.Settings{
		Name:    "overlap-ai",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.BreakerMaxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("AI overlap circuit breaker state change")
		},
	})

	return s
}

// Name implements Strategy.
func (s *AIStrategy) Name() string { return "ai" }

// EstimateBatch implements Strategy. A transport error, an open breaker, or
// an unparseable response fails the whole batch; per-id gaps inside an
// otherwise valid response are returned as missing keys.
func (s *AIStrategy) EstimateBatch(ctx context.Context, planned models.Event, competing []models.Event) (map[string]models.OverlapPrediction, error) {
	if len(competing) == 0 {
		return map[string]models.OverlapPrediction{}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	result, err := s.breaker.Execute(func() (map[string]models.OverlapPrediction, error) {
		return s.analyze(ctx, planned, competing)
	})
	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues("gemini", "error").Inc()
		return nil, err
	}

	metrics.AIRequestsTotal.WithLabelValues("gemini", "success").Inc()
	return result, nil
}

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// geminiResponse is the subset of the generateContent response we consume.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// aiBatchResult is the JSON contract the prompt demands from the model.
type aiBatchResult struct {
	Results map[string]aiPrediction `json:"results"`
}

type aiPrediction struct {
	OverlapScore float64   `json:"overlap_score"`
	Confidence   float64   `json:"confidence"`
	Factors      aiFactors `json:"factors"`
	Reasoning    []string  `json:"reasoning"`
}

type aiFactors struct {
	DemographicSimilarity float64 `json:"demographic_similarity"`
	InterestAlignment     float64 `json:"interest_alignment"`
	BehaviorPatterns      float64 `json:"behavior_patterns"`
	HistoricalPreference  float64 `json:"historical_preference"`
}

func (s *AIStrategy) analyze(ctx context.Context, planned models.Event, competing []models.Event) (map[string]models.OverlapPrediction, error) {
	prompt := buildBatchPrompt(planned, competing)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     0.1,
			MaxOutputTokens: 8192,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call AI backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		drained, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("AI backend returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(drained)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var gr geminiResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return nil, fmt.Errorf("%w: response envelope: %v", ErrUnparseable, err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrUnparseable)
	}

	text := stripMarkdownFences(gr.Candidates[0].Content.Parts[0].Text)

	var batch aiBatchResult
	if err := json.Unmarshal([]byte(text), &batch); err != nil {
		return nil, fmt.Errorf("%w: batch result: %v", ErrUnparseable, err)
	}

	out := make(map[string]models.OverlapPrediction, len(batch.Results))
	for id, p := range batch.Results {
		pred, ok := sanitizePrediction(p)
		if !ok {
			s.logger.Debug().Str("event_id", id).Msg("dropping out-of-range AI prediction")
			continue
		}
		out[id] = pred
	}
	return out, nil
}

// sanitizePrediction validates and clamps a model-produced prediction.
// A score or confidence outside [0,1] marks the entry invalid so the
// rule-based fallback covers it instead.
func sanitizePrediction(p aiPrediction) (models.OverlapPrediction, bool) {
	if p.OverlapScore < 0 || p.OverlapScore > 1 || p.Confidence < 0 || p.Confidence > 1 {
		return models.OverlapPrediction{}, false
	}

	return models.OverlapPrediction{
		OverlapScore: p.OverlapScore,
		Confidence:   p.Confidence,
		Factors: models.OverlapFactors{
			DemographicSimilarity: clamp01(p.Factors.DemographicSimilarity),
			InterestAlignment:     clamp01(p.Factors.InterestAlignment),
			BehaviorPatterns:      clamp01(p.Factors.BehaviorPatterns),
			HistoricalPreference:  clamp01(p.Factors.HistoricalPreference),
		},
		Reasoning: p.Reasoning,
	}, true
}

// stripMarkdownFences removes a surrounding ```json ... ``` block when the
// model wraps its JSON despite instructions.
func stripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	return strings.TrimSpace(text)
}

// buildBatchPrompt renders the planned event and every competing event into
// one prompt demanding a strict JSON result per competing event id.
func buildBatchPrompt(planned models.Event, competing []models.Event) string {
	var b strings.Builder

	b.WriteString("You are an event audience analyst. Estimate the audience overlap between a planned event and each competing event.\n\n")
	b.WriteString("Planned event:\n")
	writeEventLine(&b, &planned)
	b.WriteString("\nCompeting events:\n")
	for i := range competing {
		b.WriteString(fmt.Sprintf("- id %q: ", competing[i].ID))
		writeEventLine(&b, &competing[i])
	}

	b.WriteString("\nRespond with ONLY a JSON object, no markdown, in exactly this shape:\n")
	b.WriteString(`{"results": {"<event id>": {"overlap_score": 0.0, "confidence": 0.0, "factors": {"demographic_similarity": 0.0, "interest_alignment": 0.0, "behavior_patterns": 0.0, "historical_preference": 0.0}, "reasoning": ["..."]}}}`)
	b.WriteString("\nAll numbers must be between 0 and 1. Estimate the category-level audience relationship only; ignore how close the dates are. Include every competing event id.\n")

	return b.String()
}

func writeEventLine(b *strings.Builder, e *models.Event) {
	fmt.Fprintf(b, "%s (category %s", e.Title, e.Category)
	if e.Subcategory != "" {
		fmt.Fprintf(b, "/%s", e.Subcategory)
	}
	fmt.Fprintf(b, ", city %s", e.City)
	if e.Venue != "" {
		fmt.Fprintf(b, ", venue %s", e.Venue)
	}
	if e.ExpectedAttendees > 0 {
		fmt.Fprintf(b, ", ~%d attendees", e.ExpectedAttendees)
	}
	fmt.Fprintf(b, ", on %s)\n", e.Date.Format("2006-01-02"))
}
