// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package dedup collapses near-duplicate event records reported by multiple
// sources into canonical groups.
//
// Records are bucketed by an exact normalized fingerprint first (cheap), then
// compared pairwise with a weighted fuzzy similarity over normalized titles,
// date proximity, venue similarity, and city equality. Pairwise title
// similarity is memoized in a bounded LRU so repeated analyses over the same
// window stay cheap.
//
// Deduplicate never fails: malformed records (missing title or date) bypass
// comparison and pass through unmerged, and any pair that cannot be compared
// degrades to "no merge".
package dedup
