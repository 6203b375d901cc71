/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Channel is an independently scheduled broadcast stream.
type Channel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event is a scheduled block on a channel. Its content lives in the bin
// referenced by BinID.
type Event struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	ChannelID string    `gorm:"type:uuid;index:idx_events_channel_start"`
	StartsAt  time.Time `gorm:"index:idx_events_channel_start"`
	Title     string
	BinID     string `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Virtual reports whether the event was synthesized rather than loaded.
func (e Event) Virtual() bool {
	return e.ID == ""
}

// Bin is the ordered content list belonging to one event.
type Bin struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	EventID   string `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is one entry of a bin. Positions are 1-based and contiguous within
// a consistent bin.
type Item struct {
	ID          string        `gorm:"type:uuid;primaryKey"`
	BinID       string        `gorm:"type:uuid;index"`
	Position    int           `gorm:"index"`
	AssetID     string        `gorm:"type:uuid"`
	Title       string
	Duration    time.Duration
	Placeholder bool   `gorm:"index"`
	Solver      string `gorm:"type:varchar(64)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Asset is playable content that strategies turn into items.
type Asset struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Title     string `gorm:"index"`
	Artist    string `gorm:"index"`
	Album     string `gorm:"index"`
	Genre     string
	Mood      string
	Label     string
	Language  string
	Explicit  bool
	BPM       float64
	Year      int
	Duration  time.Duration
	CreatedAt time.Time
	UpdatedAt time.Time
}

// All returns every model managed by the schema migration.
func All() []any {
	return []any{
		&Channel{},
		&Event{},
		&Bin{},
		&Item{},
		&Asset{},
	}
}
