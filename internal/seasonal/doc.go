// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package seasonal computes seasonal demand multipliers and holiday impact
// factors for (date, category, subcategory, region) tuples.
//
// Lookups go through an injected rule source and are cached with a 30-minute
// TTL and a bounded entry count. A missing rule is a normal case, never an
// error: the engine falls back to a neutral multiplier with reduced
// confidence, and a failing rule source degrades the same way.
package seasonal
