// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package overlap estimates the shared audience between a planned event and
// competing events.
//
// Two interchangeable strategies produce a category-level base estimate: a
// rule-based strategy over a static category-relationship table, and an
// AI-assisted strategy that analyzes a whole batch of competing events in a
// single call. The rule-based strategy is the unconditional fallback; an AI
// response that omits an event id, fails to parse, or errors degrades exactly
// that id to the rule-based estimate, never the whole batch.
//
// Base estimates are cached keyed by the category and subcategory pair only.
// Temporal-proximity and significance boosts depend on the specific date
// pairing and are reapplied after every cache read. The final score never
// exceeds 0.95.
package overlap
