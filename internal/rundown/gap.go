/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rundown

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
)

// ErrNotPlaceholder is returned when a gap is requested for a regular item.
var ErrNotPlaceholder = errors.New("rundown: item is not a placeholder")

// Gap is the context of one resolution attempt: the placeholder, its bin
// and event, and the candidates produced so far. Next event and needed
// duration are computed on first use and then fixed for the attempt.
type Gap struct {
	Placeholder models.Item
	Event       models.Event
	// Items is the bin in position order, placeholder included.
	Items []models.Item

	finder     EventFinder
	next       *models.Event
	needed     time.Duration
	neededSet  bool
	candidates []models.Item
}

// NewGap builds a gap from already loaded rows.
func NewGap(finder EventFinder, ev models.Event, items []models.Item, placeholder models.Item) *Gap {
	return &Gap{
		Placeholder: placeholder,
		Event:       ev,
		Items:       items,
		finder:      finder,
	}
}

// LoadGap reads the placeholder, its bin and its event.
func LoadGap(ctx context.Context, store Store, placeholderID string) (*Gap, error) {
	placeholder, err := LoadPlaceholder(ctx, store, placeholderID)
	if err != nil {
		return nil, err
	}
	return LoadGapFor(ctx, store, placeholder)
}

// LoadPlaceholder reads a single item and checks that it is a placeholder.
func LoadPlaceholder(ctx context.Context, store Store, placeholderID string) (models.Item, error) {
	placeholder, err := store.Item(ctx, placeholderID)
	if err != nil {
		return models.Item{}, err
	}
	if !placeholder.Placeholder {
		return models.Item{}, fmt.Errorf("item %s: %w", placeholderID, ErrNotPlaceholder)
	}
	return placeholder, nil
}

// LoadGapFor reads the bin and event of an already loaded placeholder. The
// placeholder row is read again so a concurrent swap that removed it is seen.
func LoadGapFor(ctx context.Context, store Store, placeholder models.Item) (*Gap, error) {
	items, err := store.BinItems(ctx, placeholder.BinID)
	if err != nil {
		return nil, err
	}
	current, ok := findItem(items, placeholder.ID)
	if !ok {
		return nil, fmt.Errorf("item %s left bin %s: %w", placeholder.ID, placeholder.BinID, ErrNotFound)
	}
	ev, err := store.EventForBin(ctx, placeholder.BinID)
	if err != nil {
		return nil, err
	}
	return NewGap(store, ev, items, current), nil
}

func findItem(items []models.Item, id string) (models.Item, bool) {
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Item{}, false
}

// BinID returns the bin the placeholder lives in.
func (g *Gap) BinID() string {
	return g.Placeholder.BinID
}

// NextEvent returns the event following the gap's event.
func (g *Gap) NextEvent(ctx context.Context) (models.Event, error) {
	if g.next == nil {
		next, err := NextEvent(ctx, g.finder, g.Event)
		if err != nil {
			return models.Event{}, err
		}
		g.next = &next
	}
	return *g.next, nil
}

// NeededDuration returns how much content the placeholder should be
// replaced with. The value is cached for the lifetime of the gap, zero included.
func (g *Gap) NeededDuration(ctx context.Context) (time.Duration, error) {
	if g.neededSet {
		return g.needed, nil
	}
	next, err := g.NextEvent(ctx)
	if err != nil {
		return 0, err
	}
	g.needed = NeededDuration(g.Event, next, g.Items, g.Placeholder.ID)
	g.neededSet = true
	return g.needed, nil
}

// Remaining is the needed duration minus what has been produced so far.
func (g *Gap) Remaining(ctx context.Context) (time.Duration, error) {
	needed, err := g.NeededDuration(ctx)
	if err != nil {
		return 0, err
	}
	return needed - g.CurrentDuration(), nil
}

// CurrentDuration sums the candidates produced so far.
func (g *Gap) CurrentDuration() time.Duration {
	return CurrentDuration(g.candidates)
}

// Append records a produced candidate.
func (g *Gap) Append(item models.Item) {
	g.candidates = append(g.candidates, item)
}

// Discard drops every candidate produced so far.
func (g *Gap) Discard() {
	g.candidates = nil
}

// Candidates returns a copy of the produced candidates in production order.
func (g *Gap) Candidates() []models.Item {
	out := make([]models.Item, len(g.candidates))
	copy(out, g.candidates)
	return out
}
