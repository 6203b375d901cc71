/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartblock

import (
	"testing"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
	}{
		{"float64", float64(123.45), 123.45},
		{"float32", float32(67.89), 67.89},
		{"int", int(100), 100.0},
		{"int64", int64(200), 200.0},
		{"string", "42.5", 42.5},
		{"invalid string", "abc", 0.0},
		{"nil", nil, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := toFloat(tt.input)
			// Use tolerance for float comparison
			tolerance := 0.0001
			if diff := result - tt.expected; diff > tolerance || diff < -tolerance {
				t.Errorf("toFloat(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected bool
	}{
		{"bool true", true, true},
		{"bool false", false, false},
		{"string true", "true", true},
		{"string TRUE", "TRUE", true},
		{"string 1", "1", true},
		{"string false", "false", false},
		{"string 0", "0", false},
		{"float64 non-zero", float64(1.5), true},
		{"float64 zero", float64(0), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := toBool(tt.input)
			if result != tt.expected {
				t.Errorf("toBool(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", "hello"},
		{"float64", float64(123.45), "123.45"},
		{"int", int(42), "42"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := toString(tt.input)
			if result != tt.expected {
				t.Errorf("toString(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToFloatRange(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected [2]float64
	}{
		{"array", []any{10.0, 20.0}, [2]float64{10.0, 20.0}},
		{"array single", []any{5.0}, [2]float64{5.0, 0}},
		{"map", map[string]any{"min": 100.0, "max": 200.0}, [2]float64{100.0, 200.0}},
		{"empty", nil, [2]float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := toFloatRange(tt.input)
			if result != tt.expected {
				t.Errorf("toFloatRange(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestContains(t *testing.T) {
	values := []string{"Rock", "Pop", "Jazz"}

	tests := []struct {
		name      string
		candidate string
		expected  bool
	}{
		{"exact match", "Rock", true},
		{"case insensitive", "rock", true},
		{"not found", "Blues", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := contains(values, tt.candidate)
			if result != tt.expected {
				t.Errorf("contains(%v) = %v, want %v", tt.candidate, result, tt.expected)
			}
		})
	}
}

func TestDeriveEnergy(t *testing.T) {
	tests := []struct {
		name     string
		asset    models.Asset
		expected float64
	}{
		{"with BPM", models.Asset{BPM: 120.0}, 120.0},
		{"default", models.Asset{}, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := deriveEnergy(tt.asset)
			if result != tt.expected {
				t.Errorf("deriveEnergy() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestQuotaState(t *testing.T) {
	rules := []QuotaRule{
		{Field: "genre", Min: 2, Max: 5, Values: []string{"Rock"}},
		{Field: "mood", Min: 1, Max: 3, Values: []string{"Happy"}},
	}

	qs := newQuotaState(rules)

	if !qs.canSelect(models.Asset{Genre: "Rock"}) {
		t.Error("should be able to select Rock initially")
	}

	for i := 0; i < 5; i++ {
		qs.observe(models.Asset{Genre: "Rock"})
	}

	if qs.canSelect(models.Asset{Genre: "Rock"}) {
		t.Error("should not be able to select Rock after max reached")
	}
	if !qs.canSelect(models.Asset{Genre: "Pop"}) {
		t.Error("should be able to select Pop")
	}

	warnings := qs.warnings()
	if len(warnings) != 1 || warnings[0] != "quota_min_unmet:mood" {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestViolatesSeparation(t *testing.T) {
	recent := map[string]map[string]time.Duration{}
	insertRecent(recent, "artist", "Artist One", -10*time.Minute)

	windows := map[string]time.Duration{"artist": 30 * time.Minute}

	if !violatesSeparation(models.Asset{Artist: "artist one"}, recent, windows, 5*time.Minute) {
		t.Error("artist played 15 minutes earlier should violate a 30 minute window")
	}
	if violatesSeparation(models.Asset{Artist: "Artist One"}, recent, windows, 20*time.Minute) {
		t.Error("artist played 30 minutes earlier should be allowed")
	}
	if violatesSeparation(models.Asset{Artist: "Artist Two"}, recent, windows, 0) {
		t.Error("unrelated artist should be allowed")
	}
}

func TestInRange(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		bounds   [2]float64
		expected bool
	}{
		{"open range needs value", 0, [2]float64{0, 0}, false},
		{"open range with value", 90, [2]float64{0, 0}, true},
		{"inside", 120, [2]float64{100, 130}, true},
		{"below", 99, [2]float64{100, 130}, false},
		{"above open upper", 200, [2]float64{100, 0}, true},
		{"above", 131, [2]float64{100, 130}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inRange(tt.value, tt.bounds); got != tt.expected {
				t.Errorf("inRange(%v, %v) = %v, want %v", tt.value, tt.bounds, got, tt.expected)
			}
		})
	}
}

func TestToStringSlice(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
		ok       bool
	}{
		{"string slice", []string{"a", "b", "c"}, []string{"a", "b", "c"}, true},
		{"interface slice", []any{"x", "y", "z"}, []string{"x", "y", "z"}, true},
		{"mixed interface", []any{"a", 1, "b"}, []string{"a", "1", "b"}, true},
		{"invalid type", 123, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toStringSlice(tt.input)
			if ok != tt.ok {
				t.Errorf("toStringSlice() ok = %v, want %v", ok, tt.ok)
			}
			if ok && len(result) != len(tt.expected) {
				t.Errorf("toStringSlice() length = %v, want %v", len(result), len(tt.expected))
			}
		})
	}
}

func TestExcludeFilterSemantics(t *testing.T) {
	asset := models.Asset{
		Artist: "Hal Anthony",
		Title:  "Behind The Woodshed",
	}

	// No exclude rules => asset passes exclude checks.
	if !matchesFilters(asset, nil, false) {
		t.Fatal("empty exclude rules should pass")
	}

	// Matching exclude rule => asset fails exclude checks.
	excludeArtist := []FilterRule{{Field: "artist", Value: "Hal Anthony"}}
	if matchesFilters(asset, excludeArtist, false) {
		t.Fatal("matching exclude rule should fail")
	}

	// Non-matching exclude rule => asset passes exclude checks.
	excludeOther := []FilterRule{{Field: "artist", Value: "Someone Else"}}
	if !matchesFilters(asset, excludeOther, false) {
		t.Fatal("non-matching exclude rule should pass")
	}

	// Unknown fields are ignored on both sides.
	unknown := []FilterRule{{Field: "colour", Value: "blue"}}
	if !matchesFilters(asset, unknown, false) || !matchesFilters(asset, unknown, true) {
		t.Fatal("unknown fields should be ignored")
	}
}
