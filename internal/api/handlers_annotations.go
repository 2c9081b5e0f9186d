// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/annotato/annotato/internal/auth"
	"github.com/annotato/annotato/internal/database"
	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/models"
)

// ListAnnotations handles GET /api/v1/projects/{projectID}/annotations.
func (h *Handler) ListAnnotations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	project, allowed, err := h.loadProjectForUser(r.Context(), projectID, user)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if project == nil {
		rw.NotFound("project not found")
		return
	}
	if !allowed {
		rw.Forbidden("no access to this project")
		return
	}

	annotations, err := h.annotations.ListByProject(r.Context(), projectID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(annotations)
}

// CreateAnnotation handles POST /api/v1/projects/{projectID}/annotations.
// Any project member may annotate. Live sessions are notified through the
// hub after the write lands.
func (h *Handler) CreateAnnotation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())
	projectID := chi.URLParam(r, "projectID")

	project, allowed, err := h.loadProjectForUser(r.Context(), projectID, user)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if project == nil {
		rw.NotFound("project not found")
		return
	}
	if !allowed {
		rw.Forbidden("no access to this project")
		return
	}

	var req models.AnnotationRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		rw.ValidationError(msg)
		return
	}

	annotation := &models.Annotation{
		Note:        req.Note,
		Coordinates: req.Coordinates,
		Color:       req.Color,
		ProjectID:   projectID,
		OwnerID:     user.ID,
	}
	if err := h.annotations.Create(r.Context(), annotation); err != nil {
		rw.DatabaseError(err)
		return
	}

	h.hub.EditSignal(projectID)
	logging.Info().
		Str("project_id", projectID).
		Int64("annotation_id", annotation.ID).
		Str("username", user.Username).
		Msg("annotation created")
	rw.Created(annotation)
}

// UpdateAnnotation handles PUT /api/v1/annotations/{annotationID}. Only
// the annotation's owner may update it.
func (h *Handler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())

	annotation, ok := h.resolveOwnedAnnotation(rw, r, user)
	if !ok {
		return
	}

	var req models.AnnotationRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		rw.ValidationError(msg)
		return
	}

	annotation.Note = req.Note
	annotation.Coordinates = req.Coordinates
	annotation.Color = req.Color
	if err := h.annotations.Update(r.Context(), annotation); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("annotation not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.hub.EditSignal(annotation.ProjectID)
	rw.Success(annotation)
}

// DeleteAnnotation handles DELETE /api/v1/annotations/{annotationID}. Only
// the annotation's owner may delete it.
func (h *Handler) DeleteAnnotation(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())

	annotation, ok := h.resolveOwnedAnnotation(rw, r, user)
	if !ok {
		return
	}

	if err := h.annotations.Delete(r.Context(), annotation.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("annotation not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	h.hub.EditSignal(annotation.ProjectID)
	logging.Info().
		Str("project_id", annotation.ProjectID).
		Int64("annotation_id", annotation.ID).
		Msg("annotation deleted")
	rw.NoContent()
}

// resolveOwnedAnnotation parses the annotation id, loads it, and verifies
// the caller owns it. Writes the error response itself on failure: 404 for
// a missing annotation, 403 for someone else's.
func (h *Handler) resolveOwnedAnnotation(rw *ResponseWriter, r *http.Request, user *models.User) (*models.Annotation, bool) {
	annotationID, err := strconv.ParseInt(chi.URLParam(r, "annotationID"), 10, 64)
	if err != nil {
		rw.BadRequest("invalid annotation id")
		return nil, false
	}

	annotation, err := h.annotations.Get(r.Context(), annotationID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("annotation not found")
			return nil, false
		}
		rw.DatabaseError(err)
		return nil, false
	}

	if annotation.OwnerID != user.ID {
		rw.Forbidden("not the annotation owner")
		return nil, false
	}
	return annotation, true
}
