/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_rundown/internal/telemetry"
)

// Factory constructs a strategy instance for a single resolution.
type Factory func() (Strategy, error)

// Registry maps solver names to strategy factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.With().Str("component", "solver_registry").Logger(),
	}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("register solver: empty name")
	}
	if factory == nil {
		return fmt.Errorf("register solver %s: nil factory", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		r.logger.Warn().Str("solver", name).Msg("replacing registered solver")
	}
	r.factories[name] = factory
	return nil
}

// Load instantiates the strategy registered under name. Unknown names,
// factory failures and factories returning nil all produce ErrNotFound.
func (r *Registry) Load(name string) (strategy Strategy, err error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	defer func() {
		if err != nil {
			telemetry.SolverLoadFailures.WithLabelValues(name).Inc()
			r.logger.Error().Err(err).Str("solver", name).Msg("failed to load solver")
		}
	}()

	if !ok {
		return nil, fmt.Errorf("%w: %s is not registered", ErrNotFound, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			strategy = nil
			err = fmt.Errorf("%w: %s: factory panicked: %v", ErrNotFound, name, rec)
		}
	}()

	strategy, err = factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
	}
	if strategy == nil {
		return nil, fmt.Errorf("%w: %s: factory returned no strategy", ErrNotFound, name)
	}
	return strategy, nil
}

// Names lists the registered solver names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
