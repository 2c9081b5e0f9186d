// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// RegisterRequest is the body for POST /api/v1/users.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Firstname string `json:"firstname" validate:"max=128"`
	Lastname  string `json:"lastname" validate:"max=128"`
	Password  string `json:"password" validate:"required,min=8,max=256"`
}

// LoginRequest is the body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CreateProjectRequest is the body for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,min=1,max=256"`
}

// AnnotationRequest is the body for annotation create and update.
type AnnotationRequest struct {
	Note        string          `json:"note" validate:"max=4096"`
	Coordinates json.RawMessage `json:"coordinates" validate:"required"`
	Color       string          `json:"color" validate:"max=32"`
}
