package solver

import (
	"errors"
	"slices"
	"testing"

	"github.com/rs/zerolog"
)

func TestRegistryLoad(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	_ = reg.Register("ok", func() (Strategy, error) { return Items(), nil })
	_ = reg.Register("broken", func() (Strategy, error) { return nil, errors.New("bad preset") })
	_ = reg.Register("nil", func() (Strategy, error) { return nil, nil })
	_ = reg.Register("panics", func() (Strategy, error) { panic("boom") })

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"ok", false},
		{"unknown", true},
		{"broken", true},
		{"nil", true},
		{"panics", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := reg.Load(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrNotFound) {
					t.Fatalf("expected ErrNotFound, got %v", err)
				}
				if strategy != nil {
					t.Fatal("expected no strategy on failure")
				}
				return
			}
			if err != nil || strategy == nil {
				t.Fatalf("Load(%q) = %v, %v", tt.name, strategy, err)
			}
		})
	}
}

func TestRegistryRegisterValidation(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())

	if err := reg.Register("", func() (Strategy, error) { return Items(), nil }); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := reg.Register("x", nil); err == nil {
		t.Fatal("expected error for nil factory")
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	for _, name := range []string{"loop", "smartblock", "jingles"} {
		_ = reg.Register(name, func() (Strategy, error) { return Items(), nil })
	}
	if got := reg.Names(); !slices.Equal(got, []string{"jingles", "loop", "smartblock"}) {
		t.Fatalf("Names() = %v", got)
	}
}
