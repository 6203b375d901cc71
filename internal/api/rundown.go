/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/grimnir_rundown/internal/cache"
	"github.com/friendsincode/grimnir_rundown/internal/models"
	"github.com/friendsincode/grimnir_rundown/internal/rundown"
	"github.com/friendsincode/grimnir_rundown/internal/solver"
)

type itemResponse struct {
	ID          string  `json:"id"`
	Position    int     `json:"position"`
	AssetID     string  `json:"asset_id,omitempty"`
	Title       string  `json:"title"`
	DurationSec float64 `json:"duration_sec"`
}

type resolveResponse struct {
	Status      solver.Status  `json:"status"`
	Message     string         `json:"message"`
	NeededSec   float64        `json:"needed_sec"`
	ProducedSec float64        `json:"produced_sec"`
	Items       []itemResponse `json:"items"`
}

func toItemResponses(items []models.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse{
			ID:          item.ID,
			Position:    item.Position,
			AssetID:     item.AssetID,
			Title:       item.Title,
			DurationSec: item.Duration.Seconds(),
		})
	}
	return out
}

func (a *API) handleSolversList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"solvers": a.solver.Registry().Names()})
}

// handlePlaceholderSolve resolves a placeholder. The solver comes from the
// query or, failing that, the placeholder itself. The response status is
// the result code.
func (a *API) handlePlaceholderSolve(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	debug := false
	if raw := r.URL.Query().Get("debug"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_debug")
			return
		}
		debug = parsed
	}

	solverName := r.URL.Query().Get("solver")
	if solverName == "" {
		item, err := a.store.Item(r.Context(), itemID)
		if err != nil {
			a.writeLookupError(w, err, itemID)
			return
		}
		solverName = item.Solver
	}
	if solverName == "" {
		writeError(w, http.StatusBadRequest, "solver_required")
		return
	}

	result, err := a.solver.ResolveByName(r.Context(), itemID, solverName, debug)
	if err != nil {
		a.writeLookupError(w, err, itemID)
		return
	}

	writeJSON(w, result.Code(), resolveResponse{
		Status:      result.Status,
		Message:     result.Message,
		NeededSec:   result.Needed.Seconds(),
		ProducedSec: result.Produced.Seconds(),
		Items:       toItemResponses(result.Candidates),
	})
}

func (a *API) writeLookupError(w http.ResponseWriter, err error, itemID string) {
	switch {
	case errors.Is(err, solver.ErrPlaceholderNotFound), errors.Is(err, rundown.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, solver.ErrNotPlaceholder):
		writeError(w, http.StatusConflict, "not_placeholder")
	case errors.Is(err, solver.ErrBinBusy):
		writeError(w, http.StatusConflict, "bin_busy")
	default:
		a.logger.Error().Err(err).Str("item_id", itemID).Msg("placeholder resolution failed")
		writeError(w, http.StatusInternalServerError, "resolve_failed")
	}
}

type gapResponse struct {
	EventID       string    `json:"event_id"`
	PlaceholderID string    `json:"placeholder_id"`
	NextEventID   string    `json:"next_event_id,omitempty"`
	NextStartsAt  time.Time `json:"next_starts_at"`
	NextVirtual   bool      `json:"next_virtual"`
	NeededSec     float64   `json:"needed_sec"`
}

// handleEventGap reports the gap a placeholder of the event would have to
// fill. Without ?placeholder= the first placeholder in the bin is used.
func (a *API) handleEventGap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	eventID := chi.URLParam(r, "eventID")

	ev, err := a.store.Event(ctx, eventID)
	if err != nil {
		a.writeLookupError(w, err, eventID)
		return
	}

	placeholderID := r.URL.Query().Get("placeholder")
	if placeholderID == "" {
		items, err := a.store.BinItems(ctx, ev.BinID)
		if err != nil {
			a.logger.Error().Err(err).Str("event_id", eventID).Msg("load bin failed")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		for _, item := range items {
			if item.Placeholder {
				placeholderID = item.ID
				break
			}
		}
		if placeholderID == "" {
			writeError(w, http.StatusNotFound, "no_placeholder")
			return
		}
	}

	gap, err := rundown.LoadGap(ctx, a.store, placeholderID)
	if err != nil {
		a.writeLookupError(w, err, placeholderID)
		return
	}
	if gap.Event.ID != ev.ID {
		writeError(w, http.StatusNotFound, "placeholder_not_in_event")
		return
	}

	needed, err := gap.NeededDuration(ctx)
	if err != nil {
		a.logger.Error().Err(err).Str("event_id", eventID).Msg("compute gap failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	next, _ := gap.NextEvent(ctx)

	writeJSON(w, http.StatusOK, gapResponse{
		EventID:       ev.ID,
		PlaceholderID: placeholderID,
		NextEventID:   next.ID,
		NextStartsAt:  next.StartsAt,
		NextVirtual:   next.Virtual(),
		NeededSec:     needed.Seconds(),
	})
}

// handleBinGet serves the cached bin snapshot, rebuilding it on a miss.
func (a *API) handleBinGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	binID := chi.URLParam(r, "binID")

	if snap, ok := a.cache.GetBin(ctx, binID); ok {
		w.Header().Set("X-Cache", "hit")
		writeJSON(w, http.StatusOK, snap)
		return
	}

	items, err := a.store.BinItems(ctx, binID)
	if err != nil {
		a.logger.Error().Err(err).Str("bin_id", binID).Msg("load bin failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if len(items) == 0 {
		if _, err := a.store.EventForBin(ctx, binID); err != nil {
			a.writeLookupError(w, err, binID)
			return
		}
	}

	snap := cache.BinSnapshot(binID, items)
	if err := a.cache.SetBin(ctx, snap); err != nil {
		a.logger.Debug().Err(err).Str("bin_id", binID).Msg("bin snapshot not cached")
	}
	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusOK, snap)
}
