/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SlotType is the kind of control a slot renders as.
type SlotType string

const (
	SlotAction SlotType = "action"
	SlotText   SlotType = "text"
	SlotNumber SlotType = "number"
	SlotSelect SlotType = "select"
)

// Slot is a control a plugin exposes to operators. Option values may be
// funcs returning any; they are evaluated when the manifest is built.
type Slot struct {
	Type SlotType
	Name string
	Opts map[string]any
}

// NewSlot validates the slot type.
func NewSlot(slotType SlotType, name string, opts map[string]any) (Slot, error) {
	switch slotType {
	case SlotAction, SlotText, SlotNumber, SlotSelect:
	default:
		return Slot{}, fmt.Errorf("unknown slot type %q", slotType)
	}
	if opts == nil {
		opts = map[string]any{}
	}
	return Slot{Type: slotType, Name: name, Opts: opts}, nil
}

// Title returns the "title" option, or the capitalised name.
func (s Slot) Title() string {
	if title, ok := s.Opts["title"].(string); ok && title != "" {
		return title
	}
	return capitalize(s.Name)
}

// Opt returns an option value.
func (s Slot) Opt(key string) (any, bool) {
	v, ok := s.Opts[key]
	return v, ok
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// AddSlot registers a slot on the plugin.
func (p *Plugin) AddSlot(slotType SlotType, name string, opts map[string]any) error {
	slot, err := NewSlot(slotType, name, opts)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.slots = append(p.slots, slot)
	p.mu.Unlock()
	return nil
}

// SlotManifest describes every slot for control surfaces. Each entry has
// id, name, type and title; other options are copied, with func options
// evaluated. Options never override the four base keys.
func (p *Plugin) SlotManifest() []map[string]any {
	p.mu.Lock()
	slots := append([]Slot(nil), p.slots...)
	p.mu.Unlock()

	manifest := make([]map[string]any, 0, len(slots))
	for id, slot := range slots {
		entry := map[string]any{
			"id":    id,
			"name":  slot.Name,
			"type":  string(slot.Type),
			"title": slot.Title(),
		}
		for key, value := range slot.Opts {
			if _, reserved := entry[key]; reserved {
				continue
			}
			switch fn := value.(type) {
			case func() any:
				entry[key] = fn()
			case func() []string:
				entry[key] = fn()
			case func() string:
				entry[key] = fn()
			default:
				entry[key] = value
			}
		}
		manifest = append(manifest, entry)
	}
	return manifest
}
