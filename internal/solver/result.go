/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package solver

import (
	"net/http"
	"time"

	"github.com/friendsincode/grimnir_rundown/internal/models"
)

// Status is the terminal state of a resolution attempt.
type Status string

const (
	StatusResolved Status = "resolved"
	StatusAccepted Status = "accepted"
	StatusEmpty    Status = "empty"
	StatusFailed   Status = "failed"
)

// EmptyMessage is reported when a strategy produced nothing.
const EmptyMessage = "Solver returned no items. Keeping placeholder."

// Result describes the outcome of one resolution attempt.
type Result struct {
	Status     Status
	Message    string
	Candidates []models.Item
	Needed     time.Duration
	Produced   time.Duration
}

// Code maps the status onto the HTTP-style result code.
func (r Result) Code() int {
	switch r.Status {
	case StatusResolved:
		return http.StatusOK
	case StatusAccepted:
		return http.StatusAccepted
	default:
		return http.StatusNotImplemented
	}
}

// OK reports whether the attempt ended without a failure or empty outcome.
func (r Result) OK() bool {
	return r.Status == StatusResolved || r.Status == StatusAccepted
}
