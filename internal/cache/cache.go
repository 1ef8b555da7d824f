// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

// Package cache provides the shared caching primitives used across the
// engine: a TTL store with bounded entry count (overlap and seasonal caches)
// and an LRU for pairwise similarity memoization (deduplicator).
package cache

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Entry represents a cached item with expiration.
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Store is a thread-safe in-memory cache with TTL support and a bounded
// entry count. When the bound is reached, the entry closest to expiry is
// evicted. Writers upsert idempotently (same key, later write wins), so
// concurrent population from parallel date-scoring tasks is safe.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	stats      Stats
}

// Stats tracks cache performance counters.
type Stats struct {
	mu          sync.RWMutex
	Hits        int64
	Misses      int64
	Evictions   int64
	TotalKeys   int64
	LastCleanup time.Time
}

// NewStore creates a TTL store with the given default TTL and entry bound.
// A maxEntries of zero or below means unbounded. A background goroutine
// removes expired entries every 5 minutes.
func NewStore(ttl time.Duration, maxEntries int) *Store {
	s := &Store{
		entries:    make(map[string]Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		stats: Stats{
			LastCleanup: time.Now(),
		},
	}

	go s.cleanupLoop()

	return s
}

// Get retrieves a value by key. Expired entries are removed and counted as
// misses.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	entry, exists := s.entries[key]
	s.mu.RUnlock()

	if !exists {
		s.recordMiss()
		return nil, false
	}

	if time.Now().After(entry.ExpiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		s.recordMiss()
		s.recordEviction()
		return nil, false
	}

	s.recordHit()
	return entry.Data, true
}

// Set stores a value with the default TTL.
func (s *Store) Set(key string, value interface{}) {
	s.SetWithTTL(key, value, s.ttl)
}

// SetWithTTL stores a value with a custom TTL. If the store is at capacity
// the entry closest to expiry is evicted first.
func (s *Store) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		if _, exists := s.entries[key]; !exists {
			s.evictOldestLocked()
		}
	}

	s.entries[key] = Entry{
		Data:      value,
		ExpiresAt: time.Now().Add(ttl),
	}

	s.stats.mu.Lock()
	s.stats.TotalKeys = int64(len(s.entries))
	s.stats.mu.Unlock()
}

// Delete removes a specific entry by key. Safe to call for absent keys.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	s.recordEviction()
}

// Clear removes all entries in a single atomic operation.
func (s *Store) Clear() {
	s.mu.Lock()
	evictions := int64(len(s.entries))
	s.entries = make(map[string]Entry)
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.Evictions += evictions
	s.stats.TotalKeys = 0
	s.stats.mu.Unlock()
}

// Len returns the current number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetStats returns a snapshot of the cache counters.
func (s *Store) GetStats() Stats {
	s.stats.mu.RLock()
	defer s.stats.mu.RUnlock()

	return Stats{
		Hits:        s.stats.Hits,
		Misses:      s.stats.Misses,
		Evictions:   s.stats.Evictions,
		TotalKeys:   s.stats.TotalKeys,
		LastCleanup: s.stats.LastCleanup,
	}
}

// HitRate returns the hit rate as a percentage.
func (s *Store) HitRate() float64 {
	stats := s.GetStats()
	total := stats.Hits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.Hits) / float64(total) * 100.0
}

// evictOldestLocked removes the entry closest to expiry. Must be called with
// mu held.
func (s *Store) evictOldestLocked() {
	var oldestKey string
	var oldestExpiry time.Time

	for key, entry := range s.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(s.entries, oldestKey)
		s.recordEviction()
	}
}

// cleanupLoop periodically removes expired entries.
func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.cleanup()
	}
}

// cleanup removes all expired entries.
func (s *Store) cleanup() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	evictions := int64(0)
	for key, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, key)
			evictions++
		}
	}

	s.stats.mu.Lock()
	s.stats.Evictions += evictions
	s.stats.TotalKeys = int64(len(s.entries))
	s.stats.LastCleanup = now
	s.stats.mu.Unlock()
}

func (s *Store) recordHit() {
	s.stats.mu.Lock()
	s.stats.Hits++
	s.stats.mu.Unlock()
}

func (s *Store) recordMiss() {
	s.stats.mu.Lock()
	s.stats.Misses++
	s.stats.mu.Unlock()
}

func (s *Store) recordEviction() {
	s.stats.mu.Lock()
	s.stats.Evictions++
	s.stats.mu.Unlock()
}

// GenerateKey creates a cache key from a method name and parameters. The
// parameters are serialized to JSON and hashed for a compact, stable key.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to simple string key
		return fmt.Sprintf("%s:%v", method, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
