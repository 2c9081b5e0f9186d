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

	"github.com/annotato/annotato/internal/models"
)

// FileStore provides durable access to uploaded-file records. The blob
// bytes live in the storage package; this table only maps ids to blob
// names and projects.
type FileStore struct {
	db *DB
}

// NewFileStore creates a FileStore on the given database.
func NewFileStore(db *DB) *FileStore {
	return &FileStore{db: db}
}

// Create inserts a file record and fills in its id.
func (s *FileStore) Create(ctx context.Context, file *models.File) error {
	res, err := s.db.conn.ExecContext(ctx,
		"INSERT INTO files (path, filename, project_id) VALUES (?, ?, ?)",
		file.Path, file.Filename, file.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}
	file.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read file id: %w", err)
	}
	return nil
}

// Get retrieves a file record by id.
func (s *FileStore) Get(ctx context.Context, id int64) (*models.File, error) {
	var file models.File
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT id, path, filename, project_id FROM files WHERE id = ?", id,
	).Scan(&file.ID, &file.Path, &file.Filename, &file.ProjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &file, nil
}

// Delete removes a file record. Returns ErrNotFound if it does not exist.
func (s *FileStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
