/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package smartblock

import (
	"context"
	"errors"
	"hash/fnv"
	"iter"
	"slices"
	"strings"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
)

// Strategy fills a gap with a smart block sequence.
type Strategy struct {
	engine *Engine
	def    Definition
	seed   int64
}

// NewStrategy binds a definition to the engine. A zero seed derives one
// from the placeholder id, so a dry run previews the same sequence a real
// run would produce.
func NewStrategy(engine *Engine, def Definition, seed int64) *Strategy {
	return &Strategy{engine: engine, def: def, seed: seed}
}

// Solve implements solver.Strategy.
func (s *Strategy) Solve(ctx context.Context, gap *rundown.Gap) iter.Seq2[models.Item, error] {
	return func(yield func(models.Item, error) bool) {
		target, err := gap.Remaining(ctx)
		if err != nil {
			yield(models.Item{}, err)
			return
		}

		req := GenerateRequest{
			Definition: s.def,
			Seed:       s.seedFor(gap.Placeholder.ID),
			Target:     target,
		}
		for _, item := range gap.Items {
			if item.ID == gap.Placeholder.ID {
				break
			}
			if item.AssetID != "" {
				req.Preceding = append(req.Preceding, item.AssetID)
			}
		}
		for _, item := range gap.Items {
			if item.AssetID != "" && !slices.Contains(req.Preceding, item.AssetID) {
				req.Avoid = append(req.Avoid, item.AssetID)
			}
		}

		result, err := s.engine.Generate(ctx, req)
		if errors.Is(err, ErrUnresolved) {
			s.engine.logger.Info().Str("placeholder_id", gap.Placeholder.ID).Msg("smart block found no usable assets")
			return
		}
		if err != nil {
			yield(models.Item{}, err)
			return
		}

		for _, entry := range result.Items {
			if !yield(itemFor(entry.Asset), nil) {
				return
			}
		}
	}
}

func (s *Strategy) seedFor(placeholderID string) int64 {
	if s.seed != 0 {
		return s.seed
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(placeholderID))
	return int64(h.Sum64())
}

func itemFor(asset models.Asset) models.Item {
	title := asset.Title
	if asset.Artist != "" {
		title = strings.TrimSpace(asset.Artist + " - " + asset.Title)
	}
	return models.Item{
		AssetID:  asset.ID,
		Title:    title,
		Duration: asset.Duration,
	}
}

var _ solver.Strategy = (*Strategy)(nil)
