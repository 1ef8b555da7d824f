// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package scorer combines deduplicated competing events, audience overlap
// predictions, and seasonal and holiday multipliers into one bounded conflict
// score with a risk tier and human-readable reasons per candidate date.
package scorer
