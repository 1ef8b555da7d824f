// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package api provides HTTP routing for the analysis engine using Chi.
package api
