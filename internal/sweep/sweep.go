/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sweep periodically resolves placeholders that name a solver.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
	"github.com/friendsincode/grimnir_rundown/internal/telemetry"
)

// DefaultBatch bounds how many placeholders one pass handles.
const DefaultBatch = 50

// DefaultCooldown is how long a placeholder that resolved empty or failed
// is left alone.
const DefaultCooldown = 5 * time.Minute

// Finder lists placeholders waiting for a solver, oldest first, without the
// excluded ids.
type Finder interface {
	PendingPlaceholders(ctx context.Context, limit int, exclude []string) ([]models.Item, error)
}

// Resolver resolves a placeholder with a registered solver.
type Resolver interface {
	ResolveByName(ctx context.Context, placeholderID, solverName string, debug bool) (solver.Result, error)
}

// Leader reports whether this instance may sweep. Multi-instance
// deployments gate passes on a leader election.
type Leader interface {
	IsLeader() bool
}

// Summary counts the outcomes of one pass.
type Summary struct {
	Seen int
	// Cooling counts placeholders left out of the pass while cooling down.
	Cooling  int
	Skipped  int
	Errors   int
	Statuses map[solver.Status]int
}

// Service runs sweep passes on a cron schedule.
type Service struct {
	finder   Finder
	resolver Resolver
	schedule string
	logger   zerolog.Logger

	Batch    int
	Cooldown time.Duration
	// Leader gates passes when set.
	Leader Leader

	parser  cron.Parser
	running atomic.Bool
	now     func() time.Time

	mu      sync.Mutex
	c       *cron.Cron
	cooling map[string]time.Time
}

// New creates a sweep service. An empty schedule disables Start.
func New(finder Finder, resolver Resolver, schedule string, logger zerolog.Logger) *Service {
	return &Service{
		finder:   finder,
		resolver: resolver,
		schedule: schedule,
		logger:   logger.With().Str("component", "sweep").Logger(),
		Batch:    DefaultBatch,
		Cooldown: DefaultCooldown,
		parser:   cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:      time.Now,
		cooling:  make(map[string]time.Time),
	}
}

// Start registers the pass on the schedule and starts the cron loop.
func (s *Service) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Info().Msg("sweep disabled")
		return nil
	}
	sched, err := s.parser.Parse(s.schedule)
	if err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", s.schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(time.UTC))
	s.c.Schedule(sched, cron.FuncJob(func() {
		if _, err := s.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error().Err(err).Msg("sweep pass failed")
		}
	}))
	s.c.Start()
	s.logger.Info().Str("schedule", s.schedule).Msg("sweep started")
	return nil
}

// Stop halts the cron loop and waits for a running pass.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	s.logger.Info().Msg("sweep stopped")
}

// RunOnce performs a single pass. Overlapping passes are skipped.
func (s *Service) RunOnce(ctx context.Context) (Summary, error) {
	summary := Summary{Statuses: map[solver.Status]int{}}
	if s.Leader != nil && !s.Leader.IsLeader() {
		return summary, nil
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("previous sweep still running")
		return summary, nil
	}
	defer s.running.Store(false)
	telemetry.SweepRunsTotal.Inc()

	// Cooling placeholders are excluded from the query so they do not use
	// up the batch and starve newer ones.
	now := s.now()
	cooling := s.coolingIDs(now)
	summary.Cooling = len(cooling)

	pending, err := s.finder.PendingPlaceholders(ctx, s.Batch, cooling)
	if err != nil {
		return summary, fmt.Errorf("list pending placeholders: %w", err)
	}

	for _, placeholder := range pending {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Seen++

		result, err := s.resolver.ResolveByName(ctx, placeholder.ID, placeholder.Solver, false)
		if err != nil {
			if errors.Is(err, solver.ErrBinBusy) {
				summary.Skipped++
				continue
			}
			summary.Errors++
			s.logger.Warn().Err(err).Str("placeholder_id", placeholder.ID).Msg("sweep resolution failed")
			s.coolDown(placeholder.ID, now)
			continue
		}
		summary.Statuses[result.Status]++
		if !result.OK() {
			s.coolDown(placeholder.ID, now)
		}
	}

	if summary.Seen > 0 {
		s.logger.Info().
			Int("seen", summary.Seen).
			Int("cooling", summary.Cooling).
			Int("skipped", summary.Skipped).
			Int("errors", summary.Errors).
			Int("resolved", summary.Statuses[solver.StatusResolved]).
			Msg("sweep pass finished")
	}
	return summary, nil
}

// coolingIDs returns the placeholders still cooling down at now and forgets
// the expired ones.
func (s *Service) coolingIDs(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.cooling))
	for id, until := range s.cooling {
		if !now.Before(until) {
			delete(s.cooling, id)
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Service) coolDown(id string, now time.Time) {
	if s.Cooldown <= 0 {
		return
	}
	s.mu.Lock()
	s.cooling[id] = now.Add(s.Cooldown)
	s.mu.Unlock()
}
