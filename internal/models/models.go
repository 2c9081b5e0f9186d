// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

// Package models defines the domain types shared across Annotato:
// users, projects, uploaded files, and canvas annotations.
package models

import (
	"time"

	"github.com/goccy/go-json"
)

// User is a registered account. PasswordHash is never serialized.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Firstname string    `json:"firstname,omitempty"`
	Lastname  string    `json:"lastname,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	PasswordHash string `json:"-"`
}

// Project is the unit of annotation scoping. A project is owned by one user
// and may be shared with others; shared users see and annotate the same
// canvas.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`

	// Owner, Files and SharedUsers are populated on single-project reads.
	Owner       *User  `json:"owner,omitempty"`
	Files       []File `json:"files,omitempty"`
	SharedUsers []User `json:"shared_users,omitempty"`
}

// File is an uploaded blob attached to a project. Path is the stored blob
// name under the data directory, distinct from the client-supplied Filename.
type File struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Filename  string `json:"filename"`
	ProjectID string `json:"project_id"`
}

// Annotation is one note placed on a project's canvas. Coordinates is an
// opaque JSON document; the server stores and relays it without enforcing a
// schema.
type Annotation struct {
	ID          int64           `json:"id"`
	Note        string          `json:"note"`
	Coordinates json.RawMessage `json:"coordinates"`
	Color       string          `json:"color"`
	ProjectID   string          `json:"project_id"`
	OwnerID     int64           `json:"owner_id"`
}

// Snapshot converts an annotation to its live-channel form.
func (a Annotation) Snapshot() AnnotationSnapshot {
	return AnnotationSnapshot{
		ID:          a.ID,
		Note:        a.Note,
		Coordinates: a.Coordinates,
		Color:       a.Color,
	}
}

// AnnotationSnapshot is the per-annotation payload pushed over the live
// channel. Owner and project identifiers are intentionally omitted: the
// client already knows the project context, and ownership is enforced at
// edit time by the HTTP layer.
type AnnotationSnapshot struct {
	ID          int64           `json:"id"`
	Note        string          `json:"note"`
	Coordinates json.RawMessage `json:"coordinates"`
	Color       string          `json:"color"`
}

// SnapshotAll converts a fetched annotation set to its live-channel form,
// preserving store order.
func SnapshotAll(annotations []Annotation) []AnnotationSnapshot {
	snapshots := make([]AnnotationSnapshot, 0, len(annotations))
	for _, a := range annotations {
		snapshots = append(snapshots, a.Snapshot())
	}
	return snapshots
}
