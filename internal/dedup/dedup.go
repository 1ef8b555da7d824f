// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package dedup

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/openslot/openslot/internal/cache"
	"github.com/openslot/openslot/internal/metrics"
	"github.com/openslot/openslot/internal/models"
)

// Config holds deduplicator tuning.
type Config struct {
	// Threshold is the weighted similarity above which a pair is merged.
	Threshold float64

	// CacheSize bounds the pairwise title-similarity LRU.
	CacheSize int

	// TitleWeight, DateWeight and VenueWeight combine the component
	// similarities. When either record lacks a venue, the venue weight is
	// redistributed proportionally to title and date.
	TitleWeight float64
	DateWeight  float64
	VenueWeight float64
}

// DefaultConfig returns the production deduplicator configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:   0.80,
		CacheSize:   10000,
		TitleWeight: 0.55,
		DateWeight:  0.30,
		VenueWeight: 0.15,
	}
}

// Result is the outcome of one Deduplicate call.
type Result struct {
	// UniqueEvents are the canonical events, in first-seen order.
	UniqueEvents []models.Event `json:"unique_events"`

	// DuplicatesRemoved is the number of records merged away.
	DuplicatesRemoved int `json:"duplicates_removed"`

	// DuplicateGroups describe each merge that absorbed at least one record.
	DuplicateGroups []models.DuplicateGroup `json:"duplicate_groups"`

	// Malformed is the number of records that bypassed comparison.
	Malformed int `json:"malformed"`

	// CacheHits and CacheMisses count similarity-cache activity during this
	// call only.
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`

	// ProcessingTimeMs is the wall time spent deduplicating.
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// Deduplicator merges near-duplicate raw records into canonical events.
// It is safe for concurrent use; the similarity cache is shared across calls.
type Deduplicator struct {
	cfg      Config
	logger   zerolog.Logger
	simCache *cache.LRU
}

// New creates a Deduplicator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) *Deduplicator {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.TitleWeight+cfg.DateWeight+cfg.VenueWeight == 0 {
		def := DefaultConfig()
		cfg.TitleWeight = def.TitleWeight
		cfg.DateWeight = def.DateWeight
		cfg.VenueWeight = def.VenueWeight
	}

	return &Deduplicator{
		cfg:      cfg,
		logger:   logger.With().Str("component", "dedup").Logger(),
		simCache: cache.NewLRU(cfg.CacheSize),
	}
}

// group accumulates records judged to be duplicates of each other during one
// Deduplicate call.
type group struct {
	members      []models.RawEventRecord
	similarities []float64 // similarity of members[i] to members[0]
	fingerprint  string
}

// Deduplicate collapses near-duplicate records into canonical events. It
// never returns an error: malformed records pass through unmerged and any
// incomparable pair degrades to "no merge".
func (d *Deduplicator) Deduplicate(records []models.RawEventRecord) Result {
	start := time.Now()
	hitsBefore, missesBefore, _ := d.simCache.Stats()

	var groups []*group
	byFingerprint := make(map[string]*group, len(records))
	var malformed []models.RawEventRecord

	for i := range records {
		rec := records[i]

		if !rec.Valid() {
			malformed = append(malformed, rec)
			continue
		}

		// Fast path: exact fingerprint match.
		fp := fingerprint(&rec)
		if g, ok := byFingerprint[fp]; ok {
			g.members = append(g.members, rec)
			g.similarities = append(g.similarities, 1.0)
			continue
		}

		// Slow path: fuzzy comparison against existing group representatives.
		if g := d.findFuzzyMatch(groups, &rec); g != nil {
			g.members = append(g.members, rec)
			continue
		}

		g := &group{
			members:      []models.RawEventRecord{rec},
			similarities: []float64{1.0},
			fingerprint:  fp,
		}
		groups = append(groups, g)
		byFingerprint[fp] = g
	}

	result := d.assembleResult(groups, malformed)

	hitsAfter, missesAfter, _ := d.simCache.Stats()
	result.CacheHits = hitsAfter - hitsBefore
	result.CacheMisses = missesAfter - missesBefore
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	metrics.DuplicatesRemoved.Add(float64(result.DuplicatesRemoved))
	metrics.MalformedRecords.Add(float64(result.Malformed))
	metrics.CacheHits.WithLabelValues("dedup").Add(float64(result.CacheHits))
	metrics.CacheMisses.WithLabelValues("dedup").Add(float64(result.CacheMisses))

	d.logger.Debug().
		Int("records", len(records)).
		Int("unique", len(result.UniqueEvents)).
		Int("removed", result.DuplicatesRemoved).
		Int64("duration_ms", result.ProcessingTimeMs).
		Msg("deduplication complete")

	return result
}

// findFuzzyMatch returns the first group whose representative is similar to
// the record above the threshold, recording the similarity on join.
func (d *Deduplicator) findFuzzyMatch(groups []*group, rec *models.RawEventRecord) *group {
	for _, g := range groups {
		rep := &g.members[0]

		sim, comparable := d.pairSimilarity(rep, rec)
		if !comparable {
			continue
		}

		if sim >= d.cfg.Threshold {
			g.similarities = append(g.similarities, sim)
			return g
		}
	}
	return nil
}

// pairSimilarity combines title, date and venue similarity for one record
// pair. City inequality gates the comparison entirely, and pairs more than
// one day apart are skipped: with a zero date component the weighted sum
// cannot reach any sensible threshold, so the comparison is not worth its
// cost.
func (d *Deduplicator) pairSimilarity(a, b *models.RawEventRecord) (similarity float64, comparable bool) {
	if normalize(a.City) != normalize(b.City) {
		return 0, false
	}

	dateSim := dateSimilarity(a, b)
	if dateSim == 0 {
		return 0, false
	}

	titleSim := d.cachedTitleSimilarity(a.Title, b.Title)

	titleW := d.cfg.TitleWeight
	dateW := d.cfg.DateWeight
	venueW := d.cfg.VenueWeight

	var venueSim float64
	if a.Venue != "" && b.Venue != "" {
		venueSim = stringSimilarity(normalize(a.Venue), normalize(b.Venue))
	} else {
		// Redistribute the venue weight proportionally.
		total := titleW + dateW
		titleW += venueW * titleW / total
		dateW += venueW * dateW / total
		venueW = 0
	}

	return titleW*titleSim + dateW*dateSim + venueW*venueSim, true
}

// cachedTitleSimilarity memoizes normalized-title similarity in the LRU.
func (d *Deduplicator) cachedTitleSimilarity(a, b string) float64 {
	na := normalize(a)
	nb := normalize(b)
	if na > nb {
		na, nb = nb, na
	}

	key := na + "\x00" + nb
	if sim, ok := d.simCache.Get(key); ok {
		return sim
	}

	sim := stringSimilarity(na, nb)
	d.simCache.Add(key, sim)
	return sim
}

// dateSimilarity scores date proximity: same calendar day or overlapping
// ranges score 1.0, adjacent days 0.7, anything further 0.
func dateSimilarity(a, b *models.RawEventRecord) float64 {
	aEvt := a.Event()
	bEvt := b.Event()
	aStart, aEnd := aEvt.Span()
	bStart, bEnd := bEvt.Span()

	gap := models.DaysBetweenSpans(aStart, aEnd, bStart, bEnd)
	switch gap {
	case 0:
		return 1.0
	case 1:
		return 0.7
	default:
		return 0
	}
}

// fingerprint builds the exact-match bucket key from normalized title, start
// date and normalized city.
func fingerprint(r *models.RawEventRecord) string {
	return fmt.Sprintf("%s|%s|%s", normalize(r.Title), r.Date.Format("2006-01-02"), normalize(r.City))
}

// assembleResult selects a primary per group, merges absorbed records into
// the canonical event, and appends malformed records unmerged.
func (d *Deduplicator) assembleResult(groups []*group, malformed []models.RawEventRecord) Result {
	result := Result{
		UniqueEvents: make([]models.Event, 0, len(groups)+len(malformed)),
		Malformed:    len(malformed),
	}

	for _, g := range groups {
		primaryIdx := selectPrimary(g.members)
		canonical := mergeGroup(g.members, primaryIdx)
		result.UniqueEvents = append(result.UniqueEvents, canonical)

		if len(g.members) > 1 {
			dg := models.DuplicateGroup{Primary: canonical}
			for i, m := range g.members {
				if i == primaryIdx {
					continue
				}
				sim := 1.0
				if i < len(g.similarities) {
					sim = g.similarities[i]
				}
				dg.Duplicates = append(dg.Duplicates, models.DuplicateMatch{
					Record:     m,
					Similarity: sim,
				})
			}
			result.DuplicateGroups = append(result.DuplicateGroups, dg)
			result.DuplicatesRemoved += len(g.members) - 1
		}
	}

	for i := range malformed {
		result.UniqueEvents = append(result.UniqueEvents, malformed[i].Event())
	}

	return result
}

// selectPrimary picks the most complete member: venue, image, description
// length and a known attendee count, with earliest-created then input order
// as deterministic tie-breaks.
func selectPrimary(members []models.RawEventRecord) int {
	idxs := make([]int, len(members))
	for i := range idxs {
		idxs[i] = i
	}

	sort.SliceStable(idxs, func(x, y int) bool {
		a := &members[idxs[x]]
		b := &members[idxs[y]]

		ca := completeness(a)
		cb := completeness(b)
		if ca != cb {
			return ca > cb
		}

		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.IsZero() {
				return false
			}
			if b.CreatedAt.IsZero() {
				return true
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}

		return idxs[x] < idxs[y]
	})

	return idxs[0]
}

// completeness scores how fully populated a record is.
func completeness(r *models.RawEventRecord) float64 {
	score := 0.0
	if r.Venue != "" {
		score += 2
	}
	if r.HasImage {
		score += 2
	}
	descLen := len(r.Description)
	if descLen > 500 {
		descLen = 500
	}
	score += float64(descLen) / 250.0
	if r.ExpectedAttendees > 0 {
		score++
	}
	return score
}

// mergeGroup builds the canonical event from the primary, absorbing sources
// and filling gaps from the other members.
func mergeGroup(members []models.RawEventRecord, primaryIdx int) models.Event {
	evt := members[primaryIdx].Event()

	seen := map[string]bool{members[primaryIdx].Source: true}
	for i := range members {
		if i == primaryIdx {
			continue
		}
		m := &members[i]

		if !seen[m.Source] {
			evt.Sources = append(evt.Sources, m.Source)
			seen[m.Source] = true
		}
		if evt.Venue == "" && m.Venue != "" {
			evt.Venue = m.Venue
		}
		if m.HasImage {
			evt.HasImage = true
		}
		if len(m.Description) > len(evt.Description) {
			evt.Description = m.Description
		}
		if m.ExpectedAttendees > evt.ExpectedAttendees {
			evt.ExpectedAttendees = m.ExpectedAttendees
		}
		if evt.Subcategory == "" && m.Subcategory != "" {
			evt.Subcategory = m.Subcategory
		}
	}

	return evt
}
