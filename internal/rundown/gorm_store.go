/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rundown

import (
	"context"
	"errors"
	"fmt"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("load %s %s: %w", what, id, err)
}

// Event loads an event by id.
func (s *GormStore) Event(ctx context.Context, id string) (models.Event, error) {
	var ev models.Event
	if err := s.db.WithContext(ctx).First(&ev, "id = ?", id).Error; err != nil {
		return models.Event{}, notFound(err, "event", id)
	}
	return ev, nil
}

// EventForBin loads the event owning a bin.
func (s *GormStore) EventForBin(ctx context.Context, binID string) (models.Event, error) {
	var ev models.Event
	if err := s.db.WithContext(ctx).First(&ev, "bin_id = ?", binID).Error; err != nil {
		return models.Event{}, notFound(err, "event for bin", binID)
	}
	return ev, nil
}

// NextEvent returns the nearest later event on the same channel.
func (s *GormStore) NextEvent(ctx context.Context, ev models.Event) (models.Event, bool, error) {
	var next []models.Event
	err := s.db.WithContext(ctx).
		Where("channel_id = ? AND starts_at > ?", ev.ChannelID, ev.StartsAt).
		Order("starts_at ASC").
		Limit(1).
		Find(&next).Error
	if err != nil {
		return models.Event{}, false, fmt.Errorf("query next event: %w", err)
	}
	if len(next) == 0 {
		return models.Event{}, false, nil
	}
	return next[0], true, nil
}

// Item loads an item by id.
func (s *GormStore) Item(ctx context.Context, id string) (models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return models.Item{}, notFound(err, "item", id)
	}
	return item, nil
}

// BinItems returns a bin's items ordered by position.
func (s *GormStore) BinItems(ctx context.Context, binID string) ([]models.Item, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).
		Where("bin_id = ?", binID).
		Order("position ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("query bin %s items: %w", binID, err)
	}
	return items, nil
}

// SaveItem inserts or updates an item.
func (s *GormStore) SaveItem(ctx context.Context, item *models.Item) error {
	if err := s.db.WithContext(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("save item %s: %w", item.ID, err)
	}
	return nil
}

// DeleteItem removes an item.
func (s *GormStore) DeleteItem(ctx context.Context, item models.Item) error {
	if err := s.db.WithContext(ctx).Delete(&models.Item{}, "id = ?", item.ID).Error; err != nil {
		return fmt.Errorf("delete item %s: %w", item.ID, err)
	}
	return nil
}

// Transaction runs fn inside a database transaction.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// PendingPlaceholders lists placeholders that name a solver, oldest first,
// leaving out the ids in exclude.
func (s *GormStore) PendingPlaceholders(ctx context.Context, limit int, exclude []string) ([]models.Item, error) {
	var items []models.Item
	query := s.db.WithContext(ctx).
		Where("placeholder = ? AND solver <> ?", true, "").
		Order("created_at ASC")
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("query pending placeholders: %w", err)
	}
	return items, nil
}
