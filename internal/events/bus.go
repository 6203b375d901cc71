/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	// EventObjectsChanged announces that stored objects were modified.
	EventObjectsChanged EventType = "objects_changed"
	// EventPlayoutCommand carries operator commands for playout plugins.
	EventPlayoutCommand EventType = "playout_command"
)

// Object types carried in objects_changed payloads.
const (
	ObjectBin   = "bin"
	ObjectItem  = "item"
	ObjectEvent = "event"
)

// Payload generic event payload.
type Payload map[string]any

// ObjectsChanged builds the payload for an objects_changed notification.
func ObjectsChanged(objectType string, ids ...string) Payload {
	objects := make([]string, len(ids))
	copy(objects, ids)
	return Payload{"object_type": objectType, "objects": objects}
}

// Subscriber receives event payloads.
type Subscriber chan Payload

// Publisher is the notification side of a bus.
type Publisher interface {
	Publish(eventType EventType, payload Payload)
}

// Broker is a bus that can also be subscribed to.
type Broker interface {
	Publisher
	Subscribe(eventType EventType) Subscriber
	Unsubscribe(eventType EventType, sub Subscriber)
}

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers. Slow subscribers miss events rather
// than block the publisher.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[eventType]...)
	b.mu.RUnlock()
	for _, sub := range subs {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			close(sub)
			break
		}
	}
	b.subs[eventType] = subs
}
