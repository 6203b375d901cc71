/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/grimnir_rundown/internal/cache"
	"github.com/friendsincode/grimnir_rundown/internal/playout"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
)

// API exposes HTTP handlers.
type API struct {
	store  rundown.Store
	solver *solver.Solver
	cache  *cache.Cache
	runner *playout.Runner
	logger zerolog.Logger
}

// New creates the API router wrapper. A nil cache is treated as disabled
// and a nil runner hides the playout routes.
func New(store rundown.Store, s *solver.Solver, c *cache.Cache, runner *playout.Runner, logger zerolog.Logger) *API {
	if c == nil {
		c = cache.Disabled(logger)
	}
	return &API{
		store:  store,
		solver: s,
		cache:  c,
		runner: runner,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Routes registers HTTP routes on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Get("/solvers", a.handleSolversList)
		r.Post("/placeholders/{itemID}/solve", a.handlePlaceholderSolve)
		r.Get("/events/{eventID}/gap", a.handleEventGap)
		r.Get("/bins/{binID}", a.handleBinGet)

		if a.runner != nil {
			r.Route("/playout/plugins", func(r chi.Router) {
				r.Get("/", a.handlePluginsList)
				r.Post("/{name}/commands", a.handlePluginCommand)
			})
		}
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
