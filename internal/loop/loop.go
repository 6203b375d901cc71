/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package loop fills gaps by cycling through a fixed list of assets.
package loop

import (
	"context"
	"fmt"
	"iter"

	"gorm.io/gorm"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
)

// Strategy repeats its assets in order until the gap is covered. The last
// item may overrun the gap unless Trim is set, in which case items that
// would overrun are skipped and the loop stops once none fits.
type Strategy struct {
	db       *gorm.DB
	assetIDs []string
	trim     bool
}

// New creates a loop strategy over assetIDs.
func New(db *gorm.DB, assetIDs []string, trim bool) *Strategy {
	return &Strategy{db: db, assetIDs: assetIDs, trim: trim}
}

// Solve implements solver.Strategy.
func (s *Strategy) Solve(ctx context.Context, gap *rundown.Gap) iter.Seq2[models.Item, error] {
	return func(yield func(models.Item, error) bool) {
		if len(s.assetIDs) == 0 {
			return
		}

		assets, err := s.load(ctx)
		if err != nil {
			yield(models.Item{}, err)
			return
		}

		needed, err := gap.NeededDuration(ctx)
		if err != nil {
			yield(models.Item{}, err)
			return
		}

		for {
			placed := false
			for _, asset := range assets {
				remaining := needed - gap.CurrentDuration()
				if remaining <= 0 {
					return
				}
				if s.trim && asset.Duration > remaining {
					continue
				}
				if !yield(models.Item{AssetID: asset.ID, Title: asset.Title, Duration: asset.Duration}, nil) {
					return
				}
				placed = true
			}
			if !placed {
				return
			}
		}
	}
}

// load reads the assets in list order. Missing or zero length assets fail
// the attempt.
func (s *Strategy) load(ctx context.Context) ([]models.Asset, error) {
	var rows []models.Asset
	if err := s.db.WithContext(ctx).Where("id IN ?", s.assetIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load loop assets: %w", err)
	}
	byID := make(map[string]models.Asset, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	assets := make([]models.Asset, 0, len(s.assetIDs))
	for _, id := range s.assetIDs {
		asset, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("loop asset %s does not exist", id)
		}
		if asset.Duration <= 0 {
			return nil, fmt.Errorf("loop asset %s has no duration", id)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

var _ solver.Strategy = (*Strategy)(nil)
