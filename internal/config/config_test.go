package config

import (
	"testing"
	"time"
)

func TestLoadReadsCriticalEnvKeys(t *testing.T) {
	t.Setenv("RUNDOWN_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")
	t.Setenv("RUNDOWN_ENV", "development")
	t.Setenv("RUNDOWN_EVENT_BUS", "redis")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBDSN == "" {
		t.Fatal("expected DB DSN to be set")
	}
	if cfg.EventBus != EventBusRedis {
		t.Fatalf("unexpected event bus: %q", cfg.EventBus)
	}
	if cfg.PlayoutTickInterval != 200*time.Millisecond {
		t.Fatalf("unexpected tick interval: %v", cfg.PlayoutTickInterval)
	}
	if cfg.SweepSchedule != "@every 30s" {
		t.Fatalf("unexpected sweep schedule: %q", cfg.SweepSchedule)
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("RUNDOWN_DB_DSN", "")
	t.Setenv("GRIMNIR_DB_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DSN is missing")
	}
}

func TestLoadRejectsUnknownEventBus(t *testing.T) {
	t.Setenv("RUNDOWN_DB_DSN", "file::memory:")
	t.Setenv("RUNDOWN_DB_BACKEND", "sqlite")
	t.Setenv("RUNDOWN_EVENT_BUS", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown event bus")
	}
}

func TestLoadReportsLegacyEnvWarnings(t *testing.T) {
	t.Setenv("RUNDOWN_DB_DSN", "")
	t.Setenv("GRIMNIR_DB_DSN", "host=localhost user=test dbname=test sslmode=disable")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.DBDSN == "" {
		t.Fatal("expected legacy DSN key to be honoured")
	}
	if len(cfg.LegacyEnvWarnings) == 0 {
		t.Fatal("expected legacy env warnings")
	}
}

func TestHTTPAddr(t *testing.T) {
	cfg := &Config{HTTPBind: "127.0.0.1", HTTPPort: 9090}
	if got := cfg.HTTPAddr(); got != "127.0.0.1:9090" {
		t.Fatalf("HTTPAddr() = %q", got)
	}
}
