// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"errors"
	"net/http"

	"github.com/annotato/annotato/internal/auth"
	"github.com/annotato/annotato/internal/database"
	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/models"
)

// Register handles POST /api/v1/users. Creates an account and returns the
// public user record. A taken username yields 409.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.RegisterRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		rw.ValidationError(msg)
		return
	}

	hash, err := auth.HashPassword(req.Password, h.cfg.Security.BcryptCost)
	if err != nil {
		rw.InternalError("failed to process password")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		PasswordHash: hash,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			rw.Conflict("username already taken")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Info().Str("username", user.Username).Msg("user registered")
	rw.Created(user)
}

// Login handles POST /api/v1/auth/login. On success it returns a bearer
// token and also sets it as a cookie for browser clients.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.LoginRequest
	if msg, ok := decodeAndValidate(r, &req); !ok {
		rw.ValidationError(msg)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// Same response as a bad password so login probing cannot
			// distinguish unknown users.
			rw.Unauthorized("invalid username or password")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		logging.Debug().Str("username", req.Username).Msg("login failed")
		rw.Unauthorized("invalid username or password")
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(user.Username)
	if err != nil {
		rw.InternalError("failed to issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	logging.Info().Str("username", user.Username).Msg("user logged in")
	rw.Success(models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

// CurrentUser handles GET /api/v1/user. Returns the authenticated account.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(auth.UserFromContext(r.Context()))
}
