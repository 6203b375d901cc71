/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rundown"

var (
	// ResolutionsTotal counts gap resolutions by solver and terminal status.
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "resolutions_total",
		Help:      "Placeholder resolutions by solver and outcome.",
	}, []string{"solver", "status"})

	// ResolutionDuration observes wall time of a whole resolution attempt.
	ResolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "resolution_duration_seconds",
		Help:      "Time spent resolving a placeholder.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"solver"})

	// GapSeconds observes the needed duration computed for a placeholder.
	GapSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "gap_seconds",
		Help:      "Needed duration of resolved gaps.",
		Buckets:   []float64{-600, -60, 0, 30, 60, 300, 900, 1800, 3600, 7200},
	})

	// SolverLoadFailures counts registry lookups that produced NotFound.
	SolverLoadFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "solver",
		Name:      "load_failures_total",
		Help:      "Solver registry lookups that failed.",
	}, []string{"solver"})

	// PlayoutTicksTotal counts playout plugin ticks by outcome.
	PlayoutTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "playout",
		Name:      "ticks_total",
		Help:      "Playout plugin ticks by outcome.",
	}, []string{"plugin", "outcome"})

	// PlayoutQueueDepth reports pending steps per plugin.
	PlayoutQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "playout",
		Name:      "queue_depth",
		Help:      "Pending task steps per playout plugin.",
	}, []string{"plugin"})

	// SweepRunsTotal counts placeholder sweep passes.
	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sweep",
		Name:      "runs_total",
		Help:      "Placeholder sweep passes.",
	})

	// LeaderStatus is 1 while the instance holds the sweep lease.
	LeaderStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "leader",
		Name:      "status",
		Help:      "Whether this instance is the elected leader.",
	}, []string{"instance_id"})

	// LeaderChanges counts leadership transitions.
	LeaderChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "leader",
		Name:      "changes_total",
		Help:      "Leadership acquisitions and losses.",
	}, []string{"instance_id", "transition"})

	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "query_duration_seconds",
		Help:      "Database operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "table"})

	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "db",
		Name:      "errors_total",
		Help:      "Database operation failures.",
	}, []string{"operation", "table"})

	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "endpoint", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
