/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartblock

import "time"

// Definition encodes smart block rules, shipped as JSON over the API or
// YAML in solver presets.
type Definition struct {
	Include    []FilterRule    `json:"include" yaml:"include"`
	Exclude    []FilterRule    `json:"exclude" yaml:"exclude"`
	Weights    []WeightRule    `json:"weights" yaml:"weights"`
	Quotas     []QuotaRule     `json:"quotas" yaml:"quotas"`
	Separation SeparationRules `json:"separation" yaml:"separation"`
	Sequence   SequencePolicy  `json:"sequence" yaml:"sequence"`
	Duration   DurationPolicy  `json:"duration" yaml:"duration"`
}

// FilterRule applies a comparison against asset metadata.
type FilterRule struct {
	Field string `json:"field" yaml:"field"`
	Value any    `json:"value" yaml:"value"`
}

// WeightRule nudges a field toward selection priority.
type WeightRule struct {
	Field  string  `json:"field" yaml:"field"`
	Value  any     `json:"value" yaml:"value"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// QuotaRule enforces minimum/maximum counts.
type QuotaRule struct {
	Field  string   `json:"field" yaml:"field"`
	Values []string `json:"values" yaml:"values"`
	Min    int      `json:"min" yaml:"min"`
	Max    int      `json:"max" yaml:"max"`
}

// SeparationRules is the minimum rundown time between two items sharing
// an artist, title, album or label.
type SeparationRules struct {
	ArtistSec int `json:"artist_sec" yaml:"artist_sec"`
	TitleSec  int `json:"title_sec" yaml:"title_sec"`
	AlbumSec  int `json:"album_sec" yaml:"album_sec"`
	LabelSec  int `json:"label_sec" yaml:"label_sec"`
}

// SequencePolicy configures energy behaviour.
type SequencePolicy struct {
	Curve []float64 `json:"curve" yaml:"curve"`
}

// DurationPolicy sets the fill tolerance. The target always comes from
// the gap being filled.
type DurationPolicy struct {
	ToleranceSec int `json:"tolerance_sec" yaml:"tolerance_sec"`
}

// Tolerance returns the allowed overshoot.
func (d DurationPolicy) Tolerance() time.Duration {
	return time.Duration(d.ToleranceSec) * time.Second
}

// SeparationDurations converts to duration values.
func (s SeparationRules) SeparationDurations() map[string]time.Duration {
	return map[string]time.Duration{
		"artist": time.Duration(s.ArtistSec) * time.Second,
		"title":  time.Duration(s.TitleSec) * time.Second,
		"album":  time.Duration(s.AlbumSec) * time.Second,
		"label":  time.Duration(s.LabelSec) * time.Second,
	}
}
