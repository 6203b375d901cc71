/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"context"
	"errors"
	"fmt"

	"github.com/friendsincode/grimnir_rundown/internal/solver"
)

// Resolver queues placeholder resolutions issued as plugin commands and
// runs them one per tick. A resolution hitting a busy bin stays queued.
type Resolver struct {
	BasePlugin
	solver        *solver.Solver
	defaultSolver string
}

// NewResolver creates resolver hooks. defaultSolver is used when a command
// names no solver.
func NewResolver(s *solver.Solver, defaultSolver string) *Resolver {
	return &Resolver{solver: s, defaultSolver: defaultSolver}
}

// OnInit exposes the resolve controls.
func (r *Resolver) OnInit(p *Plugin) {
	p.SetTitle("Placeholder resolver")
	_ = p.AddSlot(SlotText, "placeholder", map[string]any{"title": "Placeholder ID"})
	_ = p.AddSlot(SlotSelect, "solver", map[string]any{
		"values": func() []string { return r.solver.Registry().Names() },
		"value":  r.defaultSolver,
	})
	_ = p.AddSlot(SlotAction, "resolve", nil)
}

// OnCommand handles "resolve" with a "placeholder" and optional "solver".
func (r *Resolver) OnCommand(ctx context.Context, p *Plugin, action string, args map[string]any) error {
	if action != "resolve" {
		return fmt.Errorf("unsupported command %q", action)
	}
	placeholderID, _ := args["placeholder"].(string)
	if placeholderID == "" {
		return errors.New("placeholder is required")
	}
	solverName, _ := args["solver"].(string)
	if solverName == "" {
		solverName = r.defaultSolver
	}

	// Commands often arrive on request contexts that end before the step runs.
	p.Enqueue(r.step(context.WithoutCancel(ctx), p, placeholderID, solverName))
	return nil
}

func (r *Resolver) step(ctx context.Context, p *Plugin, placeholderID, solverName string) Step {
	return func() bool {
		logger := p.Logger().With().Str("placeholder_id", placeholderID).Str("solver", solverName).Logger()

		result, err := r.solver.ResolveByName(ctx, placeholderID, solverName, false)
		switch {
		case errors.Is(err, solver.ErrBinBusy):
			logger.Debug().Msg("bin busy, retrying next tick")
			return false
		case err != nil:
			logger.Error().Err(err).Msg("queued resolution failed")
		default:
			logger.Info().Str("status", string(result.Status)).Str("message", result.Message).Msg("queued resolution finished")
		}
		return true
	}
}
