/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_rundown/internal/events"
)

// Runner ticks a set of plugins on a fixed interval. Each plugin tick runs
// in its own goroutine; a plugin still busy from an earlier tick skips.
type Runner struct {
	interval time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	plugins map[string]*Plugin
	order   []string
}

// NewRunner creates a runner.
func NewRunner(interval time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{
		interval: interval,
		logger:   logger.With().Str("component", "playout_runner").Logger(),
		plugins:  make(map[string]*Plugin),
	}
}

// Add registers plugins, replacing any with the same name.
func (r *Runner) Add(plugins ...*Plugin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range plugins {
		if _, exists := r.plugins[p.Name()]; !exists {
			r.order = append(r.order, p.Name())
		}
		r.plugins[p.Name()] = p
	}
}

// Plugin looks up a plugin by name.
func (r *Runner) Plugin(name string) (*Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Plugins returns the registered plugins in registration order.
func (r *Runner) Plugins() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}
	return out
}

// Run ticks plugins until ctx is cancelled and waits for running ticks.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().Dur("interval", r.interval).Msg("playout runner started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("playout runner stopped")
			return ctx.Err()
		case <-ticker.C:
			for _, p := range r.Plugins() {
				wg.Add(1)
				go func(p *Plugin) {
					defer wg.Done()
					p.Tick(ctx)
				}(p)
			}
		}
	}
}

// NotifyChange forwards a current item change to every plugin.
func (r *Runner) NotifyChange(ctx context.Context) {
	for _, p := range r.Plugins() {
		p.Changed(ctx)
	}
}

// Dispatch routes a command payload to its plugin. The payload carries
// "plugin", "action" and an optional "args" object.
func (r *Runner) Dispatch(ctx context.Context, payload events.Payload) {
	name, _ := payload["plugin"].(string)
	action, _ := payload["action"].(string)
	args, _ := payload["args"].(map[string]any)

	p, ok := r.Plugin(name)
	if !ok {
		r.logger.Warn().Str("plugin", name).Str("action", action).Msg("command for unknown plugin")
		return
	}
	if err := p.Command(ctx, action, args); err != nil {
		r.logger.Warn().Err(err).Msg("plugin command rejected")
	}
}

// Listen dispatches playout commands from the broker until ctx ends.
func (r *Runner) Listen(ctx context.Context, broker events.Broker) {
	sub := broker.Subscribe(events.EventPlayoutCommand)
	defer broker.Unsubscribe(events.EventPlayoutCommand, sub)

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			r.Dispatch(ctx, payload)
		}
	}
}
