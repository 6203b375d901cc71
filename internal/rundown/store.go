/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rundown

import (
	"context"
	"errors"

	"github.com/friendsincode/grimnir_rundown/internal/models"
)

// ErrNotFound is returned when a requested event, bin or item does not exist.
var ErrNotFound = errors.New("rundown: not found")

// EventFinder looks up the chronologically nearest later event on a channel.
type EventFinder interface {
	// NextEvent returns the event on ev's channel with the smallest start
	// strictly after ev.StartsAt. found is false when there is none.
	NextEvent(ctx context.Context, ev models.Event) (next models.Event, found bool, err error)
}

// Store is the persistence contract the solver works against.
type Store interface {
	EventFinder

	Event(ctx context.Context, id string) (models.Event, error)
	EventForBin(ctx context.Context, binID string) (models.Event, error)
	Item(ctx context.Context, id string) (models.Item, error)
	// BinItems returns the bin's items in position order.
	BinItems(ctx context.Context, binID string) ([]models.Item, error)

	SaveItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, item models.Item) error

	// Transaction runs fn against a store whose writes commit or roll back together.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
