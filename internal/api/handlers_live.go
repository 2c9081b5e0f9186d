// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annotato/annotato/internal/auth"
	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/websocket"
)

// Live handles GET /api/v1/projects/{projectID}/ws. Upgrades the
// connection and registers a live session for the project: the session
// immediately receives the cached snapshot if one exists, then every
// snapshot rebroadcast triggered by edits until it disconnects.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	project, allowed, err := h.loadProjectForUser(r.Context(), projectID, user)
	if err != nil {
		NewResponseWriter(w, r).DatabaseError(err)
		return
	}
	if project == nil {
		NewResponseWriter(w, r).NotFound("project not found")
		return
	}
	if !allowed {
		NewResponseWriter(w, r).Forbidden("no access to this project")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own error response.
		logging.Debug().Err(err).Str("project_id", projectID).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, projectID, h.cfg.Websocket.SendBuffer)
	client.Start()
	h.hub.Register <- client
}
