package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		level       string
		expected    zerolog.Level
	}{
		{"development default", "development", "", zerolog.DebugLevel},
		{"production default", "production", "", zerolog.InfoLevel},
		{"explicit override", "development", "warn", zerolog.WarnLevel},
		{"case insensitive", "production", "ERROR", zerolog.ErrorLevel},
		{"invalid falls back", "production", "loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.environment, tt.level); got != tt.expected {
				t.Errorf("ParseLevel(%q, %q) = %v, want %v", tt.environment, tt.level, got, tt.expected)
			}
		})
	}
}

func TestComponentTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupWithWriter("production", "info", &buf)

	componentLogger := Component(logger, "solver")
	componentLogger.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"component":"solver"`) {
		t.Fatalf("expected component field in %q", out)
	}
}
