/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version carries build information.
package version

import (
	"fmt"
	"runtime"
)

// Version is set at build time via ldflags:
//
//	-X github.com/friendsincode/grimnir_rundown/internal/version.Version=X.Y.Z
var Version = "0.1.0"

// Commit is the VCS revision, also set via ldflags.
var Commit = "unknown"

// String renders the version line printed by the CLI.
func String() string {
	return fmt.Sprintf("rundownd %s (%s, %s)", Version, Commit, runtime.Version())
}
