// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package models defines the canonical data model shared by the conflict
// scoring engine: events and their pre-dedup raw records, audience overlap
// predictions, seasonal and holiday factors, and per-date analysis results.
//
// All types are value objects constructed fresh per analysis request and are
// not mutated after creation. The package has no dependencies on other
// internal packages so every component can consume it without import cycles.
package models
