/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
)

// CachedBinItem is one entry of a cached bin snapshot.
type CachedBinItem struct {
	ID          string  `json:"id"`
	Position    int     `json:"position"`
	AssetID     string  `json:"asset_id,omitempty"`
	Title       string  `json:"title,omitempty"`
	DurationSec float64 `json:"duration_sec"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// CachedBin is a denormalised bin used by rundown readers.
type CachedBin struct {
	ID          string          `json:"id"`
	Items       []CachedBinItem `json:"items"`
	DurationSec float64         `json:"duration_sec"`
	RefreshedAt time.Time       `json:"refreshed_at"`
}

// BinSnapshot builds a snapshot from items already in position order.
func BinSnapshot(binID string, items []models.Item) CachedBin {
	snap := CachedBin{
		ID:          binID,
		Items:       make([]CachedBinItem, 0, len(items)),
		RefreshedAt: time.Now().UTC(),
	}
	var total time.Duration
	for _, item := range items {
		snap.Items = append(snap.Items, CachedBinItem{
			ID:          item.ID,
			Position:    item.Position,
			AssetID:     item.AssetID,
			Title:       item.Title,
			DurationSec: item.Duration.Seconds(),
			Placeholder: item.Placeholder,
		})
		total += item.Duration
	}
	snap.DurationSec = total.Seconds()
	return snap
}

// GetBin retrieves a cached bin snapshot.
func (c *Cache) GetBin(ctx context.Context, binID string) (*CachedBin, bool) {
	var bin CachedBin
	found, err := c.get(ctx, KeyBin+binID, &bin)
	if err != nil || !found {
		return nil, false
	}
	return &bin, true
}

// SetBin stores a bin snapshot.
func (c *Cache) SetBin(ctx context.Context, bin CachedBin) error {
	return c.set(ctx, KeyBin+bin.ID, bin, c.config.BinTTL)
}

// InvalidateBins drops cached snapshots.
func (c *Cache) InvalidateBins(ctx context.Context, binIDs ...string) error {
	keys := make([]string, len(binIDs))
	for i, id := range binIDs {
		keys[i] = KeyBin + id
	}
	return c.delete(ctx, keys...)
}

// BinLoader reads bin items in position order.
type BinLoader interface {
	BinItems(ctx context.Context, binID string) ([]models.Item, error)
}

// BinRefresher rebuilds bin snapshots from the store.
type BinRefresher struct {
	cache  *Cache
	loader BinLoader
}

// NewBinRefresher wires a cache to its source of truth.
func NewBinRefresher(c *Cache, loader BinLoader) *BinRefresher {
	return &BinRefresher{cache: c, loader: loader}
}

// RefreshBins reloads each bin and replaces its snapshot. It does nothing
// while the cache is unavailable.
func (r *BinRefresher) RefreshBins(ctx context.Context, binIDs []string) error {
	if !r.cache.IsAvailable() {
		return nil
	}
	for _, id := range binIDs {
		items, err := r.loader.BinItems(ctx, id)
		if err != nil {
			if invErr := r.cache.InvalidateBins(ctx, id); invErr != nil {
				r.cache.logger.Debug().Err(invErr).Str("bin", id).Msg("invalidate after failed refresh")
			}
			return fmt.Errorf("load bin %s: %w", id, err)
		}
		if err := r.cache.SetBin(ctx, BinSnapshot(id, items)); err != nil {
			return fmt.Errorf("store bin %s: %w", id, err)
		}
	}
	return nil
}
