// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"context"
	"errors"
	"net/http"

	gorillaws "github.com/gorilla/websocket"

	"github.com/annotato/annotato/internal/auth"
	"github.com/annotato/annotato/internal/config"
	"github.com/annotato/annotato/internal/database"
	"github.com/annotato/annotato/internal/models"
	"github.com/annotato/annotato/internal/storage"
	"github.com/annotato/annotato/internal/websocket"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	cfg *config.Config

	users       *database.UserStore
	projects    *database.ProjectStore
	files       *database.FileStore
	annotations *database.AnnotationStore

	blobs *storage.BlobStore
	jwt   *auth.JWTManager
	hub   *websocket.Hub

	upgrader gorillaws.Upgrader
}

// NewHandler creates the API handler.
func NewHandler(
	cfg *config.Config,
	db *database.DB,
	blobs *storage.BlobStore,
	jwt *auth.JWTManager,
	hub *websocket.Hub,
) *Handler {
	return &Handler{
		cfg:         cfg,
		users:       database.NewUserStore(db),
		projects:    database.NewProjectStore(db),
		files:       database.NewFileStore(db),
		annotations: database.NewAnnotationStore(db),
		blobs:       blobs,
		jwt:         jwt,
		hub:         hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Token auth already gates the endpoint; origin policy is
			// enforced by the CORS layer for the rest of the API.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// loadProjectForUser fetches a project and verifies the user may access it.
// Owners and shared users have access; anyone else gets a nil project and
// false. A missing project also returns nil and false.
func (h *Handler) loadProjectForUser(ctx context.Context, projectID string, user *models.User) (*models.Project, bool, error) {
	project, err := h.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if project.OwnerID == user.ID {
		return project, true, nil
	}
	shared, err := h.projects.IsSharedWith(ctx, projectID, user.ID)
	if err != nil {
		return nil, false, err
	}
	return project, shared, nil
}
