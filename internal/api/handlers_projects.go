// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/annotato/annotato/internal/auth"
	"github.com/annotato/annotato/internal/database"
	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/models"
)

// ListProjects handles GET /api/v1/projects. Returns every project the
// user owns or has been shared into.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())

	projects, err := h.projects.ListForUser(r.Context(), user.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(projects)
}

// CreateProject handles POST /api/v1/projects.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())

	var req models.CreateProjectRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		rw.ValidationError(msg)
		return
	}

	project, err := h.projects.Create(r.Context(), req.Name, user.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Info().Str("project_id", project.ID).Str("username", user.Username).Msg("project created")
	rw.Created(project)
}

// GetProject handles GET /api/v1/projects/{projectID}. Visiting a project
// you do not own adds you to its sharing set, so a project link doubles as
// an invitation.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	project, err := h.projects.Get(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("project not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if project.OwnerID != user.ID {
		shared, err := h.projects.IsSharedWith(r.Context(), projectID, user.ID)
		if err != nil {
			rw.DatabaseError(err)
			return
		}
		if !shared {
			if err := h.projects.AddSharedUser(r.Context(), projectID, user.ID); err != nil {
				rw.DatabaseError(err)
				return
			}
			logging.Info().
				Str("project_id", projectID).
				Str("username", user.Username).
				Msg("user joined project via link")

			// Reload so the response includes the new member.
			if project, err = h.projects.Get(r.Context(), projectID); err != nil {
				rw.DatabaseError(err)
				return
			}
		}
	}

	rw.Success(project)
}
