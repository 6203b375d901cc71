/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/friendsincode/grimnir_rundown/internal/events"
	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/telemetry"
)

// swapPlan lists the writes that replace a placeholder with candidates.
type swapPlan struct {
	placeholder models.Item
	// moved holds existing items whose position changed.
	moved []models.Item
	// inserted holds the candidates with bin and position assigned.
	inserted []models.Item
}

// planSwap walks the bin in position order, numbering from 1, and slots the
// candidates in where the placeholder was.
func planSwap(binItems []models.Item, placeholder models.Item, candidates []models.Item) (swapPlan, error) {
	plan := swapPlan{placeholder: placeholder}
	found := false
	position := 1

	for _, item := range binItems {
		if item.ID == placeholder.ID {
			found = true
			for _, candidate := range candidates {
				if candidate.ID == "" {
					candidate.ID = uuid.NewString()
				}
				candidate.BinID = placeholder.BinID
				candidate.Position = position
				position++
				plan.inserted = append(plan.inserted, candidate)
			}
			continue
		}
		if item.Position != position {
			item.Position = position
			plan.moved = append(plan.moved, item)
		}
		position++
	}

	if !found {
		return swapPlan{}, fmt.Errorf("%w: %s is no longer in bin %s", ErrPlaceholderNotFound, placeholder.ID, placeholder.BinID)
	}
	return plan, nil
}

// apply performs the plan's writes in one transaction.
func (p swapPlan) apply(ctx context.Context, store rundown.Store) error {
	return store.Transaction(ctx, func(tx rundown.Store) error {
		if err := tx.DeleteItem(ctx, p.placeholder); err != nil {
			return fmt.Errorf("delete placeholder %s: %w", p.placeholder.ID, err)
		}
		for i := range p.moved {
			if err := tx.SaveItem(ctx, &p.moved[i]); err != nil {
				return fmt.Errorf("renumber item %s: %w", p.moved[i].ID, err)
			}
		}
		for i := range p.inserted {
			if err := tx.SaveItem(ctx, &p.inserted[i]); err != nil {
				return fmt.Errorf("insert item %s: %w", p.inserted[i].ID, err)
			}
		}
		return nil
	})
}

// swap replaces the gap's placeholder with its candidates, then refreshes
// the bin cache and announces the change once. It returns the inserted items.
func (s *Solver) swap(ctx context.Context, gap *rundown.Gap) ([]models.Item, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "solver.swap")
	defer span.End()

	plan, err := planSwap(gap.Items, gap.Placeholder, gap.Candidates())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.AddSpanAttributes(span, map[string]any{
		"bin_id":   gap.BinID(),
		"inserted": len(plan.inserted),
		"moved":    len(plan.moved),
	})

	if err := plan.apply(ctx, s.store); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("swap placeholder %s: %w", gap.Placeholder.ID, err)
	}

	binID := gap.BinID()
	if err := s.refresher.RefreshBins(ctx, []string{binID}); err != nil {
		// The rows are committed; a stale cache entry expires on its own.
		s.logger.Warn().Err(err).Str("bin_id", binID).Msg("bin cache refresh failed")
	}
	s.bus.Publish(events.EventObjectsChanged, events.ObjectsChanged(events.ObjectBin, binID))

	return plan.inserted, nil
}
