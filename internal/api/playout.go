/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type pluginResponse struct {
	Name    string           `json:"name"`
	Title   string           `json:"title"`
	Busy    bool             `json:"busy"`
	Pending int              `json:"pending"`
	Slots   []map[string]any `json:"slots"`
}

func (a *API) handlePluginsList(w http.ResponseWriter, r *http.Request) {
	plugins := a.runner.Plugins()
	out := make([]pluginResponse, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, pluginResponse{
			Name:    p.Name(),
			Title:   p.Title(),
			Busy:    p.Busy(),
			Pending: p.Pending(),
			Slots:   p.SlotManifest(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"plugins": out})
}

func (a *API) handlePluginCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := a.runner.Plugin(name)
	if !ok {
		writeError(w, http.StatusNotFound, "plugin_not_found")
		return
	}

	var req struct {
		Action string         `json:"action"`
		Args   map[string]any `json:"args"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action_required")
		return
	}

	if err := p.Command(r.Context(), req.Action, req.Args); err != nil {
		a.logger.Warn().Err(err).Str("plugin", name).Msg("plugin command rejected")
		writeError(w, http.StatusUnprocessableEntity, "command_rejected")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"queued": true, "pending": p.Pending()})
}
