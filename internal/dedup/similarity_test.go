// OpenSlot - Event Date Conflict Scoring and Scheduling Analysis
// Copyright 2026 OpenSlot Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openslot/openslot

package dedup

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tech Conference 2025", "tech conference 2025"},
		{"TECH-CONFERENCE  2025!", "tech conference 2025"},
		{"  jazz   nights  ", "jazz nights"},
		{"Café & Co.", "café co"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "tech conference", "tech conference", 1.0},
		{"empty vs text", "", "tech conference", 0.0},
		{"both empty", "", "", 1.0},
		{"one char off", "jazz night", "jazz nights", 1.0 - 1.0/11.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stringSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("stringSimilarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestStringSimilaritySymmetric(t *testing.T) {
	a, b := "tech conference 2025", "tech conf 2025"
	if x, y := stringSimilarity(a, b), stringSimilarity(b, a); x != y {
		t.Errorf("similarity not symmetric: %f vs %f", x, y)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"tech", "tech", 0},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
