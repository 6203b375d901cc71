/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package presets loads named solver configurations from YAML and
// registers them with a solver registry.
package presets

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/friendsincode/grimnir_rundown/internal/loop"
	"github.com/friendsincode/grimnir_rundown/internal/smartblock"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
)

// Strategy kinds a preset can instantiate.
const (
	KindSmartBlock = "smartblock"
	KindLoop       = "loop"
)

// File is the preset file layout.
type File struct {
	Solvers []Preset `yaml:"solvers"`
}

// Preset is one named solver.
type Preset struct {
	Name       string                `yaml:"name"`
	Kind       string                `yaml:"kind"`
	Seed       int64                 `yaml:"seed"`
	SmartBlock smartblock.Definition `yaml:"smartblock"`
	Loop       LoopParams            `yaml:"loop"`
}

// LoopParams configures a loop preset.
type LoopParams struct {
	Assets []string `yaml:"assets"`
	Trim   bool     `yaml:"trim"`
}

// Load reads and validates a preset file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates preset YAML.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing preset file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validating preset file: %w", err)
	}
	return &f, nil
}

// Validate checks names are unique and every preset is complete.
func (f *File) Validate() error {
	seen := make(map[string]struct{}, len(f.Solvers))
	for i, p := range f.Solvers {
		if p.Name == "" {
			return fmt.Errorf("solvers[%d]: name is required", i)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("solvers[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = struct{}{}

		switch p.Kind {
		case KindSmartBlock:
		case KindLoop:
			if len(p.Loop.Assets) == 0 {
				return fmt.Errorf("solver %q: loop needs at least one asset", p.Name)
			}
		default:
			return fmt.Errorf("solver %q: unknown kind %q", p.Name, p.Kind)
		}
	}
	return nil
}

// RegisterBuiltins registers the default smartblock solver, which fills
// gaps from the whole asset library.
func RegisterBuiltins(reg *solver.Registry, db *gorm.DB, logger zerolog.Logger) error {
	engine := smartblock.New(db, logger.With().Str("component", "smartblock").Logger())
	return reg.Register(KindSmartBlock, func() (solver.Strategy, error) {
		return smartblock.NewStrategy(engine, smartblock.Definition{}, 0), nil
	})
}

// Register adds every preset in f to reg.
func Register(reg *solver.Registry, f *File, db *gorm.DB, logger zerolog.Logger) error {
	engine := smartblock.New(db, logger.With().Str("component", "smartblock").Logger())

	for _, p := range f.Solvers {
		var factory solver.Factory
		switch p.Kind {
		case KindSmartBlock:
			def, seed := p.SmartBlock, p.Seed
			factory = func() (solver.Strategy, error) {
				return smartblock.NewStrategy(engine, def, seed), nil
			}
		case KindLoop:
			params := p.Loop
			factory = func() (solver.Strategy, error) {
				return loop.New(db, params.Assets, params.Trim), nil
			}
		default:
			return fmt.Errorf("solver %q: unknown kind %q", p.Name, p.Kind)
		}

		if err := reg.Register(p.Name, factory); err != nil {
			return err
		}
		logger.Info().Str("solver", p.Name).Str("kind", p.Kind).Msg("registered solver preset")
	}
	return nil
}
