// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annotato/annotato/internal/models"
)

// ProjectStore provides durable access to projects and their sharing set.
type ProjectStore struct {
	db *DB
}

// NewProjectStore creates a ProjectStore on the given database.
func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Create inserts a new project owned by ownerID and assigns it a UUID.
func (s *ProjectStore) Create(ctx context.Context, name string, ownerID int64) (*models.Project, error) {
	project := &models.Project{
		ID:        uuid.New().String(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, owner_id, created_at)
		VALUES (?, ?, ?, ?)`,
		project.ID, project.Name, project.OwnerID, project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// Get retrieves a project with its owner, files, and shared users loaded.
func (s *ProjectStore) Get(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT id, name, owner_id, created_at FROM projects WHERE id = ?", id,
	).Scan(&project.ID, &project.Name, &project.OwnerID, &project.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	owner, err := NewUserStore(s.db).GetByID(ctx, project.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load project owner: %w", err)
	}
	project.Owner = owner

	if project.Files, err = s.files(ctx, id); err != nil {
		return nil, err
	}
	if project.SharedUsers, err = s.sharedUsers(ctx, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListForUser returns projects the user owns or has been shared into,
// most recent first.
func (s *ProjectStore) ListForUser(ctx context.Context, userID int64) ([]models.Project, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT DISTINCT p.id, p.name, p.owner_id, p.created_at
		FROM projects p
		LEFT JOIN project_users pu ON pu.project_id = p.id
		WHERE p.owner_id = ? OR pu.user_id = ?
		ORDER BY p.created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// AddSharedUser adds userID to the project's sharing set. Adding a user who
// is already shared is a no-op.
func (s *ProjectStore) AddSharedUser(ctx context.Context, projectID string, userID int64) error {
	_, err := s.db.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO project_users (project_id, user_id) VALUES (?, ?)",
		projectID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to share project: %w", err)
	}
	return nil
}

// IsSharedWith reports whether userID is in the project's sharing set.
func (s *ProjectStore) IsSharedWith(ctx context.Context, projectID string, userID int64) (bool, error) {
	var n int
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM project_users WHERE project_id = ? AND user_id = ?",
		projectID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check sharing: %w", err)
	}
	return n > 0, nil
}

func (s *ProjectStore) files(ctx context.Context, projectID string) ([]models.File, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		"SELECT id, path, filename, project_id FROM files WHERE project_id = ? ORDER BY id", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project files: %w", err)
	}
	defer rows.Close()

	files := []models.File{}
	for rows.Next() {
		var f models.File
		if err := rows.Scan(&f.ID, &f.Path, &f.Filename, &f.ProjectID); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *ProjectStore) sharedUsers(ctx context.Context, projectID string) ([]models.User, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT u.id, u.username, u.firstname, u.lastname, u.created_at
		FROM users u
		JOIN project_users pu ON pu.user_id = u.id
		WHERE pu.project_id = ?
		ORDER BY u.id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Firstname, &u.Lastname, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shared user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
