/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"context"
	"iter"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
)

// Strategy produces replacement items for a gap.
//
// Every yielded item is appended to the gap before the next one is pulled,
// so a strategy may consult gap.CurrentDuration or gap.Remaining while it
// produces. Yielding a non-nil error aborts the attempt and discards
// everything produced so far.
type Strategy interface {
	Solve(ctx context.Context, gap *rundown.Gap) iter.Seq2[models.Item, error]
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(ctx context.Context, gap *rundown.Gap) iter.Seq2[models.Item, error]

// Solve calls f.
func (f StrategyFunc) Solve(ctx context.Context, gap *rundown.Gap) iter.Seq2[models.Item, error] {
	return f(ctx, gap)
}

// Items yields a fixed list of items.
func Items(items ...models.Item) Strategy {
	return StrategyFunc(func(context.Context, *rundown.Gap) iter.Seq2[models.Item, error] {
		return func(yield func(models.Item, error) bool) {
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	})
}

// Fail yields a single error.
func Fail(err error) Strategy {
	return StrategyFunc(func(context.Context, *rundown.Gap) iter.Seq2[models.Item, error] {
		return func(yield func(models.Item, error) bool) {
			yield(models.Item{}, err)
		}
	})
}
