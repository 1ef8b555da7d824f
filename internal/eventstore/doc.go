// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package eventstore fetches raw competing events for a city and date window.
// It is pure data access: provider payloads are normalized into canonical
// RawEventRecord values and handed to the deduplicator, with no business
// logic of its own.
package eventstore
