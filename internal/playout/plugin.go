/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_rundown/internal/telemetry"
)

// Step is one unit of queued plugin work. Returning true marks it done;
// false keeps it at the head of the queue for the next tick.
type Step func() bool

// Outcome classifies a tick.
type Outcome string

const (
	TickSkipped Outcome = "skipped"
	TickOK      Outcome = "ok"
	TickError   Outcome = "error"
)

// TickResult reports what a tick did.
type TickResult struct {
	Outcome Outcome
	Err     error
}

// Hooks are the customisation points of a plugin.
type Hooks interface {
	OnInit(p *Plugin)
	OnMain(ctx context.Context, p *Plugin) error
	OnChange(ctx context.Context, p *Plugin)
	OnCommand(ctx context.Context, p *Plugin, action string, args map[string]any) error
}

// BasePlugin provides default hooks. Embed it and override what you need.
type BasePlugin struct{}

func (BasePlugin) OnInit(*Plugin) {}

// OnMain runs the head step of the queue.
func (BasePlugin) OnMain(_ context.Context, p *Plugin) error {
	p.RunHead()
	return nil
}

func (BasePlugin) OnChange(context.Context, *Plugin) {}

func (BasePlugin) OnCommand(_ context.Context, _ *Plugin, action string, _ map[string]any) error {
	return fmt.Errorf("unsupported command %q", action)
}

// Plugin is a playout-side task scheduler. At most one tick runs at a
// time; a tick arriving while another is running is dropped.
type Plugin struct {
	name   string
	host   Host
	hooks  Hooks
	logger zerolog.Logger

	busy atomic.Bool

	mu    sync.Mutex
	tasks []Step
	slots []Slot
	title string
}

// New creates a plugin and runs its OnInit hook. Nil hooks get BasePlugin.
func New(name string, host Host, hooks Hooks, logger zerolog.Logger) *Plugin {
	if hooks == nil {
		hooks = BasePlugin{}
	}
	p := &Plugin{
		name:   name,
		host:   host,
		hooks:  hooks,
		logger: logger.With().Str("component", "playout_plugin").Str("plugin", name).Logger(),
	}
	hooks.OnInit(p)
	return p
}

// Name returns the plugin name.
func (p *Plugin) Name() string { return p.name }

// Host returns the channel the plugin runs on.
func (p *Plugin) Host() Host { return p.host }

// Logger returns the plugin's logger.
func (p *Plugin) Logger() zerolog.Logger { return p.logger }

// Title is the display title shown by control surfaces.
func (p *Plugin) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

// SetTitle sets the display title.
func (p *Plugin) SetTitle(title string) {
	p.mu.Lock()
	p.title = title
	p.mu.Unlock()
}

// Busy reports whether a tick is in progress.
func (p *Plugin) Busy() bool {
	return p.busy.Load()
}

// Enqueue appends steps to the task queue.
func (p *Plugin) Enqueue(steps ...Step) {
	p.mu.Lock()
	p.tasks = append(p.tasks, steps...)
	depth := len(p.tasks)
	p.mu.Unlock()
	telemetry.PlayoutQueueDepth.WithLabelValues(p.name).Set(float64(depth))
}

// Pending returns the number of queued steps.
func (p *Plugin) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

// RunHead runs the first queued step and drops it when it reports done.
// It returns false when the queue was empty.
func (p *Plugin) RunHead() bool {
	p.mu.Lock()
	if len(p.tasks) == 0 {
		p.mu.Unlock()
		return false
	}
	step := p.tasks[0]
	p.mu.Unlock()

	if !step() {
		return true
	}

	// Only ticks remove steps and ticks never overlap, so the head is
	// still the step that just ran.
	p.mu.Lock()
	p.tasks[0] = nil
	p.tasks = p.tasks[1:]
	depth := len(p.tasks)
	p.mu.Unlock()
	telemetry.PlayoutQueueDepth.WithLabelValues(p.name).Set(float64(depth))
	return true
}

// Tick runs the OnMain hook unless a tick is already running.
func (p *Plugin) Tick(ctx context.Context) (result TickResult) {
	if !p.busy.CompareAndSwap(false, true) {
		telemetry.PlayoutTicksTotal.WithLabelValues(p.name, string(TickSkipped)).Inc()
		return TickResult{Outcome: TickSkipped}
	}
	defer p.busy.Store(false)

	defer func() {
		if rec := recover(); rec != nil {
			result = TickResult{Outcome: TickError, Err: fmt.Errorf("plugin %s panicked: %v\n%s", p.name, rec, debug.Stack())}
		}
		if result.Err != nil {
			p.logger.Error().Err(result.Err).Msg("plugin tick failed")
		}
		telemetry.PlayoutTicksTotal.WithLabelValues(p.name, string(result.Outcome)).Inc()
	}()

	if err := p.hooks.OnMain(ctx, p); err != nil {
		return TickResult{Outcome: TickError, Err: err}
	}
	return TickResult{Outcome: TickOK}
}

// Changed forwards a current item change to the OnChange hook.
func (p *Plugin) Changed(ctx context.Context) {
	p.hooks.OnChange(ctx, p)
}

// Command forwards an operator command to the OnCommand hook.
func (p *Plugin) Command(ctx context.Context, action string, args map[string]any) error {
	if err := p.hooks.OnCommand(ctx, p, action, args); err != nil {
		return fmt.Errorf("plugin %s command %s: %w", p.name, action, err)
	}
	return nil
}
