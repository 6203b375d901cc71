/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"sync"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL           string
	Token         string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// DefaultNATSConfig returns default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "rundown.events.",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// NATSBus publishes events on "<prefix><event_type>" subjects and feeds
// messages from other nodes into a local bus.
type NATSBus struct {
	conn   *nats.Conn
	logger zerolog.Logger
	local  *events.Bus
	nodeID string
	prefix string

	mu   sync.Mutex
	subs map[events.EventType]*nats.Subscription
}

// NewNATSBus connects to NATS. When the server is unreachable the bus runs
// local-only.
func NewNATSBus(cfg NATSConfig, nodeID string, logger zerolog.Logger) *NATSBus {
	logger = logger.With().Str("component", "nats_bus").Logger()
	nb := &NATSBus{
		logger: logger,
		local:  events.NewBus(),
		nodeID: NodeID(nodeID),
		prefix: cfg.SubjectPrefix,
		subs:   make(map[events.EventType]*nats.Subscription),
	}

	opts := []nats.Option{
		nats.Name("rundown-" + nb.nodeID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		logger.Warn().Err(err).Str("url", cfg.URL).Msg("NATS unavailable, using in-memory fallback")
		return nb
	}

	nb.conn = conn
	logger.Info().Str("url", cfg.URL).Str("node_id", nb.nodeID).Msg("NATS event bus initialized")
	return nb
}

// Fallback reports whether the bus is running local-only.
func (nb *NATSBus) Fallback() bool {
	return nb.conn == nil
}

// Subscribe registers a local subscriber and a NATS subscription for the type.
func (nb *NATSBus) Subscribe(eventType events.EventType) events.Subscriber {
	sub := nb.local.Subscribe(eventType)
	if nb.conn == nil {
		return sub
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()
	if _, exists := nb.subs[eventType]; exists {
		return sub
	}

	natsSub, err := nb.conn.Subscribe(nb.prefix+string(eventType), nb.handle)
	if err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("NATS subscribe failed")
		return sub
	}
	nb.subs[eventType] = natsSub
	return sub
}

func (nb *NATSBus) handle(msg *nats.Msg) {
	env, err := unmarshalEnvelope(msg.Data)
	if err != nil {
		nb.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode NATS event")
		return
	}
	if env.NodeID == nb.nodeID {
		return
	}
	nb.local.Publish(env.EventType, env.Payload)
}

// Publish delivers locally and to NATS.
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.local.Publish(eventType, payload)
	if nb.conn == nil {
		return
	}

	data, err := marshalEnvelope(eventType, payload, nb.nodeID)
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to encode NATS event")
		return
	}
	if err := nb.conn.Publish(nb.prefix+string(eventType), data); err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to NATS")
	}
}

// Unsubscribe removes a local subscriber.
func (nb *NATSBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	nb.local.Unsubscribe(eventType, sub)
}

// Close drains the NATS connection.
func (nb *NATSBus) Close() error {
	if nb.conn == nil {
		return nil
	}
	return nb.conn.Drain()
}
