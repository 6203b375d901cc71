/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rundown holds the duration model of a channel rundown: how long
// a gap between two scheduled events is and how much of it is filled.
package rundown

import (
	"context"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
)

// DefaultHorizon is the length assumed for the last event on a channel.
const DefaultHorizon = 3600 * time.Second

// NextEvent returns the next event on ev's channel. When there is none, a
// virtual event starting DefaultHorizon after ev is returned.
func NextEvent(ctx context.Context, finder EventFinder, ev models.Event) (models.Event, error) {
	next, found, err := finder.NextEvent(ctx, ev)
	if err != nil {
		return models.Event{}, err
	}
	if !found {
		return models.Event{
			ChannelID: ev.ChannelID,
			StartsAt:  ev.StartsAt.Add(DefaultHorizon),
		}, nil
	}
	return next, nil
}

// CurrentDuration sums the durations of a candidate sequence.
func CurrentDuration(items []models.Item) time.Duration {
	var total time.Duration
	for _, item := range items {
		total += item.Duration
	}
	return total
}

// NeededDuration is the time between ev and next not covered by the bin's
// items, ignoring the placeholder. Negative means the bin is overfull.
func NeededDuration(ev, next models.Event, binItems []models.Item, placeholderID string) time.Duration {
	needed := next.StartsAt.Sub(ev.StartsAt)
	for _, item := range binItems {
		if item.ID == placeholderID {
			continue
		}
		needed -= item.Duration
	}
	return needed
}
