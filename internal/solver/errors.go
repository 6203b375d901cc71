/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"errors"

	"github.com/friendsincode/grimnir_rundown/internal/rundown"
)

var (
	// ErrNotFound is returned when a solver cannot be loaded by name.
	ErrNotFound = errors.New("solver: not found")
	// ErrStrategy wraps failures raised while a strategy produces candidates.
	ErrStrategy = errors.New("solver: strategy failed")
	// ErrBinBusy is returned when another resolution is running on the same bin.
	ErrBinBusy = errors.New("solver: bin is being resolved")
	// ErrPlaceholderNotFound is returned when the placeholder or its bin rows are missing.
	ErrPlaceholderNotFound = errors.New("solver: placeholder not found")
	// ErrNotPlaceholder is returned when the target item is a regular item.
	ErrNotPlaceholder = rundown.ErrNotPlaceholder
)
