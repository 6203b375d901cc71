/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"sync"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
)

// Host is the playout channel a plugin is attached to.
type Host interface {
	ChannelID() string
	CurrentItem() (models.Item, bool)
	Position() time.Duration
	Duration() time.Duration
}

// ChannelState is a Host fed by whatever drives the channel.
type ChannelState struct {
	channelID string

	mu       sync.RWMutex
	item     models.Item
	hasItem  bool
	position time.Duration
	duration time.Duration
}

// NewChannelState creates an idle channel.
func NewChannelState(channelID string) *ChannelState {
	return &ChannelState{channelID: channelID}
}

func (c *ChannelState) ChannelID() string { return c.channelID }

func (c *ChannelState) CurrentItem() (models.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.item, c.hasItem
}

func (c *ChannelState) Position() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *ChannelState) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.duration
}

// SetItem switches the current item and reports whether it changed.
func (c *ChannelState) SetItem(item models.Item) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := !c.hasItem || c.item.ID != item.ID
	c.item, c.hasItem = item, true
	c.position, c.duration = 0, item.Duration
	return changed
}

// SetPosition records playback progress within the current item.
func (c *ChannelState) SetPosition(position time.Duration) {
	c.mu.Lock()
	c.position = position
	c.mu.Unlock()
}
