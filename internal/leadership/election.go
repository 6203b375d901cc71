/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package leadership elects one instance to run cluster-wide background work.
package leadership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_rundown/internal/telemetry"
)

const (
	defaultKey           = "rundown:leader:sweep"
	defaultLeaseDuration = 15 * time.Second
	defaultRetryInterval = 2 * time.Second
)

// Config configures leader election.
type Config struct {
	// Key is the Redis key holding the leader's instance id.
	Key string
	// InstanceID identifies this instance; a uuid is generated when empty.
	InstanceID string
	// LeaseDuration is how long a lease lives without renewal.
	LeaseDuration time.Duration
	// RetryInterval is how often the lease is acquired or renewed. It must
	// be well below LeaseDuration.
	RetryInterval time.Duration
}

// DefaultConfig returns default election configuration.
func DefaultConfig() Config {
	return Config{
		Key:           defaultKey,
		LeaseDuration: defaultLeaseDuration,
		RetryInterval: defaultRetryInterval,
	}
}

// acquireScript takes a free lease or renews one this instance holds.
var acquireScript = redis.NewScript(`
local current = redis.call("get", KEYS[1])
if not current then
	redis.call("set", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
if current == ARGV[1] then
	redis.call("pexpire", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// releaseScript deletes the lease only if this instance still holds it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Election holds a Redis lease while this instance is the leader.
type Election struct {
	client redis.Scripter
	logger zerolog.Logger
	config Config

	leader atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an election over client. The client is not closed by Stop.
func New(client redis.Scripter, cfg Config, logger zerolog.Logger) *Election {
	if cfg.Key == "" {
		cfg.Key = defaultKey
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = defaultLeaseDuration
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = uuid.NewString()
	}
	return &Election{
		client: client,
		logger: logger.With().Str("component", "leader_election").Str("instance_id", cfg.InstanceID).Logger(),
		config: cfg,
	}
}

// InstanceID returns the id this instance campaigns under.
func (e *Election) InstanceID() string {
	return e.config.InstanceID
}

// IsLeader reports whether this instance currently holds the lease.
func (e *Election) IsLeader() bool {
	return e.leader.Load()
}

// Start campaigns immediately and then on every retry interval until Stop.
func (e *Election) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		return
	}
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})

	e.logger.Info().Dur("lease", e.config.LeaseDuration).Msg("starting leader election")

	go func() {
		defer close(e.done)
		ticker := time.NewTicker(e.config.RetryInterval)
		defer ticker.Stop()

		e.Campaign(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.Campaign(ctx)
			}
		}
	}()
}

// Stop ends the campaign and releases a held lease.
func (e *Election) Stop(ctx context.Context) error {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	if !e.leader.Load() {
		return nil
	}
	e.setLeader(false)
	if err := releaseScript.Run(ctx, e.client, []string{e.config.Key}, e.config.InstanceID).Err(); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	e.logger.Info().Msg("released leadership")
	return nil
}

// Campaign makes one attempt to acquire or renew the lease. Errors drop
// leadership, so a partitioned leader stops working before its lease ends.
func (e *Election) Campaign(ctx context.Context) bool {
	ttl := e.config.LeaseDuration.Milliseconds()
	held, err := acquireScript.Run(ctx, e.client, []string{e.config.Key}, e.config.InstanceID, ttl).Int()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			e.logger.Warn().Err(err).Msg("leader campaign failed")
		}
		e.setLeader(false)
		return false
	}
	e.setLeader(held == 1)
	return held == 1
}

func (e *Election) setLeader(leader bool) {
	if e.leader.Swap(leader) == leader {
		return
	}

	id := e.config.InstanceID
	if leader {
		e.logger.Info().Msg("acquired leadership")
		telemetry.LeaderStatus.WithLabelValues(id).Set(1)
		telemetry.LeaderChanges.WithLabelValues(id, "acquired").Inc()
		return
	}
	e.logger.Warn().Msg("lost leadership")
	telemetry.LeaderStatus.WithLabelValues(id).Set(0)
	telemetry.LeaderChanges.WithLabelValues(id, "lost").Inc()
}
