/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// EventBusKind selects the change notification transport.
type EventBusKind string

const (
	EventBusMemory EventBusKind = "memory"
	EventBusRedis  EventBusKind = "redis"
	EventBusNATS   EventBusKind = "nats"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	LogLevel    string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string
	MetricsBind string

	// Change notification and bin cache
	EventBus      EventBusKind
	NATSURL       string
	CacheEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	InstanceID    string

	// LeaderElection gates the sweep on a Redis lease so one instance sweeps.
	LeaderElection bool

	// Solver configuration
	SolverPresetFile string // YAML file with named solver presets
	SweepSchedule    string // cron spec for the placeholder sweep, empty disables it

	// Playout plugins
	PlayoutTickInterval time.Duration

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"RUNDOWN_ENV", "GRIMNIR_ENV"}, "development"),
		LogLevel:    getEnvAny([]string{"RUNDOWN_LOG_LEVEL"}, ""),
		HTTPBind:    getEnvAny([]string{"RUNDOWN_HTTP_BIND", "GRIMNIR_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"RUNDOWN_HTTP_PORT", "GRIMNIR_HTTP_PORT"}, 8080),
		DBBackend:   DatabaseBackend(getEnvAny([]string{"RUNDOWN_DB_BACKEND", "GRIMNIR_DB_BACKEND"}, string(DatabasePostgres))),
		DBDSN:       getEnvAny([]string{"RUNDOWN_DB_DSN", "GRIMNIR_DB_DSN"}, ""),
		MetricsBind: getEnvAny([]string{"RUNDOWN_METRICS_BIND", "GRIMNIR_METRICS_BIND"}, "127.0.0.1:9000"),

		EventBus:      EventBusKind(getEnvAny([]string{"RUNDOWN_EVENT_BUS"}, string(EventBusMemory))),
		NATSURL:       getEnvAny([]string{"RUNDOWN_NATS_URL", "NATS_URL"}, "nats://localhost:4222"),
		CacheEnabled:  getEnvBoolAny([]string{"RUNDOWN_CACHE_ENABLED"}, false),
		RedisAddr:     getEnvAny([]string{"RUNDOWN_REDIS_ADDR", "GRIMNIR_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"RUNDOWN_REDIS_PASSWORD", "GRIMNIR_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"RUNDOWN_REDIS_DB", "GRIMNIR_REDIS_DB"}, 0),
		InstanceID:    getEnvAny([]string{"RUNDOWN_INSTANCE_ID", "GRIMNIR_INSTANCE_ID"}, ""),

		LeaderElection: getEnvBoolAny([]string{"RUNDOWN_LEADER_ELECTION", "GRIMNIR_LEADER_ELECTION_ENABLED"}, false),

		SolverPresetFile: getEnvAny([]string{"RUNDOWN_SOLVER_PRESETS"}, ""),
		SweepSchedule:    getEnvAny([]string{"RUNDOWN_SWEEP_SCHEDULE"}, "@every 30s"),

		PlayoutTickInterval: time.Duration(getEnvIntAny([]string{"RUNDOWN_PLAYOUT_TICK_MS"}, 200)) * time.Millisecond,

		TracingEnabled:    getEnvBoolAny([]string{"RUNDOWN_TRACING_ENABLED", "GRIMNIR_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"RUNDOWN_OTLP_ENDPOINT", "GRIMNIR_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"RUNDOWN_TRACING_SAMPLE_RATE", "GRIMNIR_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("RUNDOWN_DB_DSN or GRIMNIR_DB_DSN must be provided")
	}

	switch cfg.EventBus {
	case EventBusMemory, EventBusRedis, EventBusNATS:
	default:
		return nil, fmt.Errorf("unsupported event bus %q", cfg.EventBus)
	}

	if cfg.PlayoutTickInterval <= 0 {
		return nil, fmt.Errorf("RUNDOWN_PLAYOUT_TICK_MS must be positive")
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"GRIMNIR_ENV":             "use RUNDOWN_ENV",
		"GRIMNIR_DB_DSN":          "use RUNDOWN_DB_DSN",
		"GRIMNIR_DB_BACKEND":      "use RUNDOWN_DB_BACKEND",
		"GRIMNIR_REDIS_ADDR":      "use RUNDOWN_REDIS_ADDR",
		"GRIMNIR_TRACING_ENABLED": "use RUNDOWN_TRACING_ENABLED",
		"NATS_URL":                "use RUNDOWN_NATS_URL",
	}

	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

// HTTPAddr returns the listen address for the API server.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPBind, c.HTTPPort)
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
