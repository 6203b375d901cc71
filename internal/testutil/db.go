/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/db"
	"github.com/friendsincode/grimnir_rundown/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Epoch is a fixed UTC start used by rundown fixtures.
var Epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// OpenDB returns a migrated in-memory SQLite database private to the test.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// Each new connection to :memory: is a fresh database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

// EventFixture describes an event and its bin contents. A zero duration
// entry at PlaceholderAt marks the placeholder slot.
type EventFixture struct {
	ID        string
	ChannelID string
	StartsAt  time.Time
	Durations []time.Duration
	// PlaceholderAt is the 0-based index of the placeholder, -1 for none.
	PlaceholderAt int
	Solver        string
}

// Seed inserts the event, its bin and its items, returning the items in
// position order.
func Seed(t testing.TB, database *gorm.DB, f EventFixture) (models.Event, []models.Item) {
	t.Helper()

	ev := models.Event{
		ID:        f.ID,
		ChannelID: f.ChannelID,
		StartsAt:  f.StartsAt,
		Title:     "event " + f.ID,
		BinID:     "bin-" + f.ID,
	}
	if err := database.Create(&models.Bin{ID: ev.BinID, EventID: ev.ID}).Error; err != nil {
		t.Fatalf("create bin: %v", err)
	}
	if err := database.Create(&ev).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}

	items := make([]models.Item, 0, len(f.Durations))
	for i, d := range f.Durations {
		item := models.Item{
			ID:       fmt.Sprintf("%s-item-%d", f.ID, i+1),
			BinID:    ev.BinID,
			Position: i + 1,
			Title:    fmt.Sprintf("item %d", i+1),
			Duration: d,
		}
		if i == f.PlaceholderAt {
			item.ID = f.ID + "-placeholder"
			item.Placeholder = true
			item.Solver = f.Solver
			item.Title = "placeholder"
		}
		if err := database.Create(&item).Error; err != nil {
			t.Fatalf("create item: %v", err)
		}
		items = append(items, item)
	}
	return ev, items
}

// BinItems reads a bin back in position order.
func BinItems(t testing.TB, database *gorm.DB, binID string) []models.Item {
	t.Helper()

	var items []models.Item
	if err := database.Where("bin_id = ?", binID).Order("position ASC").Find(&items).Error; err != nil {
		t.Fatalf("load bin items: %v", err)
	}
	return items
}
