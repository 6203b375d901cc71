/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"context"
	"errors"
	"fmt"
	runtimedebug "runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/friendsincode/grimnir_rundown/internal/events"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/telemetry"
)

const tracerName = "rundown/solver"

// adhocSolver labels metrics for strategies passed in directly.
const adhocSolver = "adhoc"

// Refresher rebuilds cached views of bins after they change.
type Refresher interface {
	RefreshBins(ctx context.Context, binIDs []string) error
}

type noopRefresher struct{}

func (noopRefresher) RefreshBins(context.Context, []string) error { return nil }

// Solver replaces placeholders with strategy output.
type Solver struct {
	store     rundown.Store
	registry  *Registry
	refresher Refresher
	bus       events.Publisher
	logger    zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a solver. A nil refresher skips cache refreshes.
func New(store rundown.Store, registry *Registry, refresher Refresher, bus events.Publisher, logger zerolog.Logger) *Solver {
	if refresher == nil {
		refresher = noopRefresher{}
	}
	return &Solver{
		store:     store,
		registry:  registry,
		refresher: refresher,
		bus:       bus,
		logger:    logger.With().Str("component", "solver").Logger(),
		inflight:  make(map[string]struct{}),
	}
}

// Registry returns the solver's strategy registry.
func (s *Solver) Registry() *Registry {
	return s.registry
}

// ResolveByName loads the named strategy and resolves the placeholder with
// it. The placeholder is looked up first, so a missing placeholder is an
// error whatever the name. An unknown or unloadable solver yields a failed
// result, not an error.
func (s *Solver) ResolveByName(ctx context.Context, placeholderID, solverName string, debug bool) (Result, error) {
	return s.resolve(ctx, placeholderID, solverName, func() (Strategy, error) {
		return s.registry.Load(solverName)
	}, debug)
}

// Resolve runs strategy against the placeholder's gap. In debug mode the
// candidates are reported but the bin is never touched. The returned error
// covers lookup and persistence failures only; strategy failures are
// reported through the result.
func (s *Solver) Resolve(ctx context.Context, placeholderID string, strategy Strategy, debug bool) (Result, error) {
	return s.resolve(ctx, placeholderID, adhocSolver, func() (Strategy, error) {
		return strategy, nil
	}, debug)
}

func (s *Solver) resolve(ctx context.Context, placeholderID, solverName string, load func() (Strategy, error), debug bool) (Result, error) {
	started := time.Now()
	ctx, span := telemetry.StartSpan(ctx, tracerName, "solver.resolve")
	defer span.End()
	telemetry.AddSpanAttributes(span, map[string]any{
		"placeholder_id": placeholderID,
		"solver":         solverName,
		"debug":          debug,
	})

	logger := s.logger.With().Str("placeholder_id", placeholderID).Str("solver", solverName).Logger()

	placeholder, err := rundown.LoadPlaceholder(ctx, s.store, placeholderID)
	if err != nil {
		return Result{}, s.lookupError(span, err)
	}

	strategy, err := load()
	if err != nil {
		logger.Warn().Err(err).Msg("solver unavailable")
		telemetry.ResolutionsTotal.WithLabelValues(solverName, string(StatusFailed)).Inc()
		return Result{Status: StatusFailed, Message: fmt.Sprintf("solver %s not found", solverName)}, nil
	}

	// The bin is read only while holding it so no other swap can renumber
	// it between the read and ours.
	binID := placeholder.BinID
	if !s.acquire(binID) {
		return Result{}, fmt.Errorf("%w: %s", ErrBinBusy, binID)
	}
	defer s.release(binID)

	gap, err := rundown.LoadGapFor(ctx, s.store, placeholder)
	if err != nil {
		return Result{}, s.lookupError(span, err)
	}

	needed, err := gap.NeededDuration(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return Result{}, fmt.Errorf("compute needed duration: %w", err)
	}
	telemetry.GapSeconds.Observe(needed.Seconds())

	result := s.run(ctx, gap, strategy, debug, logger)
	result.Needed = needed

	if result.Status == StatusResolved {
		inserted, err := s.swap(ctx, gap)
		if err != nil {
			telemetry.RecordError(span, err)
			logger.Error().Err(err).Str("bin_id", binID).Msg("placeholder swap failed")
			return Result{}, err
		}
		result.Candidates = inserted
	}

	telemetry.ResolutionsTotal.WithLabelValues(solverName, string(result.Status)).Inc()
	telemetry.ResolutionDuration.WithLabelValues(solverName).Observe(time.Since(started).Seconds())
	telemetry.AddSpanAttributes(span, map[string]any{
		"status":   string(result.Status),
		"needed":   result.Needed,
		"produced": result.Produced,
	})

	logger.Info().
		Str("status", string(result.Status)).
		Int("candidates", len(result.Candidates)).
		Dur("needed", result.Needed).
		Dur("produced", result.Produced).
		Msg("placeholder resolution finished")

	return result, nil
}

func (s *Solver) lookupError(span trace.Span, err error) error {
	if errors.Is(err, rundown.ErrNotFound) {
		err = fmt.Errorf("%w: %w", ErrPlaceholderNotFound, err)
	}
	telemetry.RecordError(span, err)
	return err
}

// run drives the strategy and classifies the outcome without persisting
// anything. StatusResolved means a swap should follow.
func (s *Solver) run(ctx context.Context, gap *rundown.Gap, strategy Strategy, debug bool, logger zerolog.Logger) Result {
	genErr := generate(ctx, gap, strategy)
	if genErr != nil {
		logger.Error().Err(genErr).Msg("strategy failed, discarding candidates")
		gap.Discard()
	}

	result := Result{
		Candidates: gap.Candidates(),
		Produced:   gap.CurrentDuration(),
	}

	switch {
	case debug:
		result.Status = StatusAccepted
		if genErr != nil {
			result.Message = genErr.Error()
		} else {
			result.Message = fmt.Sprintf("Dry run produced %d items. Bin left untouched.", len(result.Candidates))
		}
	case genErr != nil:
		result.Status = StatusFailed
		result.Message = genErr.Error()
	case len(result.Candidates) == 0:
		result.Status = StatusEmpty
		result.Message = EmptyMessage
	default:
		result.Status = StatusResolved
		result.Message = "ok"
	}
	return result
}

// generate pulls candidates from strategy into gap. Panics are converted
// into errors carrying the stack.
func generate(ctx context.Context, gap *rundown.Gap, strategy Strategy) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v\n%s", ErrStrategy, rec, runtimedebug.Stack())
		}
	}()

	for item, yieldErr := range strategy.Solve(ctx, gap) {
		if yieldErr != nil {
			return fmt.Errorf("%w: %w", ErrStrategy, yieldErr)
		}
		gap.Append(item)
	}
	return nil
}

func (s *Solver) acquire(binID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[binID]; busy {
		return false
	}
	s.inflight[binID] = struct{}{}
	return true
}

func (s *Solver) release(binID string) {
	s.mu.Lock()
	delete(s.inflight, binID)
	s.mu.Unlock()
}
