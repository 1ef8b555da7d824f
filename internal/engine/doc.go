// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package engine orchestrates the conflict analysis pipeline: for each
// candidate date it fetches competing events, deduplicates them, estimates
// audience overlap, folds in seasonal and holiday multipliers, and produces
// a scored, risk-classified result. Candidate dates are scored concurrently;
// external-service failures degrade the affected sub-operation and never
// fail the whole analysis.
package engine
