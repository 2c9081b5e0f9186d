// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/annotato/annotato/internal/auth"
	"github.com/annotato/annotato/internal/database"
	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/models"
)

// UploadFile handles POST /api/v1/projects/{projectID}/files. Accepts a
// multipart form with a "file" part, stores the blob under a server-chosen
// name, and records it against the project.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Storage.MaxUploadBytes)
	part, header, err := r.FormFile("file")
	if err != nil {
		rw.BadRequest("missing or oversized file upload")
		return
	}
	defer part.Close()

	storedName, err := h.blobs.Save(part, header.Filename)
	if err != nil {
		logging.Error().Err(err).Str("project_id", projectID).Msg("blob save failed")
		rw.InternalError("failed to store file")
		return
	}

	file := &models.File{
		Path:      storedName,
		Filename:  header.Filename,
		ProjectID: projectID,
	}
	if err := h.files.Create(r.Context(), file); err != nil {
		_ = h.blobs.Remove(storedName)
		rw.DatabaseError(err)
		return
	}

	logging.Info().
		Str("project_id", projectID).
		Str("filename", file.Filename).
		Int64("file_id", file.ID).
		Msg("file uploaded")
	rw.Created(file)
}

// DownloadFile handles GET /api/v1/files/{fileID}. Streams the blob with
// the original filename and a content type guessed from its extension.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())

	file, _, ok := h.resolveFile(rw, r, user)
	if !ok {
		return
	}

	blob, err := h.blobs.Open(file.Path)
	if err != nil {
		logging.Error().Err(err).Str("blob", file.Path).Msg("blob missing for file record")
		rw.NotFound("file content not found")
		return
	}
	defer blob.Close()

	contentType := mime.TypeByExtension(filepath.Ext(file.Filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	if _, err := io.Copy(w, blob); err != nil {
		logging.Debug().Err(err).Int64("file_id", file.ID).Msg("download interrupted")
	}
}

// DeleteFile handles DELETE /api/v1/files/{fileID}. Only the project owner
// may delete files. The blob is removed after the record.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	user := auth.UserFromContext(r.Context())

	file, project, ok := h.resolveFile(rw, r, user)
	if !ok {
		return
	}
	if project.OwnerID != user.ID {
		rw.Forbidden("only the project owner can delete files")
		return
	}

	if err := h.files.Delete(r.Context(), file.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("file not found")
			return
		}
		rw.DatabaseError(err)
		return
	}
	if err := h.blobs.Remove(file.Path); err != nil {
		// Record is gone; an orphaned blob is harmless but worth noting.
		logging.Warn().Err(err).Str("blob", file.Path).Msg("failed to remove blob")
	}

	logging.Info().Int64("file_id", file.ID).Str("project_id", file.ProjectID).Msg("file deleted")
	rw.NoContent()
}

// resolveFile parses the file id, loads the record, and checks project
// access. Writes the error response itself when it returns ok=false.
func (h *Handler) resolveFile(rw *ResponseWriter, r *http.Request, user *models.User) (*models.File, *models.Project, bool) {
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileID"), 10, 64)
	if err != nil {
		rw.BadRequest("invalid file id")
		return nil, nil, false
	}

	file, err := h.files.Get(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("file not found")
			return nil, nil, false
		}
		rw.DatabaseError(err)
		return nil, nil, false
	}

	project, allowed, err := h.loadProjectForUser(r.Context(), file.ProjectID, user)
	if err != nil {
		rw.DatabaseError(err)
		return nil, nil, false
	}
	if project == nil || !allowed {
		rw.Forbidden("no access to this project")
		return nil, nil, false
	}
	return file, project, true
}
