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

// AnnotationStore provides durable access to annotations. It is the gateway
// the live hub fetches canonical project state from: ListByProject returns
// the full current set in stable id order.
type AnnotationStore struct {
	db *DB
}

// NewAnnotationStore creates an AnnotationStore on the given database.
func NewAnnotationStore(db *DB) *AnnotationStore {
	return &AnnotationStore{db: db}
}

// ListByProject returns every annotation of a project in id order.
func (s *AnnotationStore) ListByProject(ctx context.Context, projectID string) ([]models.Annotation, error) {
	rows, err := s.db.conn.QueryContext(ctx, `
		SELECT id, note, coordinates, color, project_id, owner_id
		FROM annotations WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}
	defer rows.Close()

	annotations := []models.Annotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows.Scan)
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate annotations: %w", err)
	}
	return annotations, nil
}

// Get retrieves a single annotation by id.
func (s *AnnotationStore) Get(ctx context.Context, id int64) (*models.Annotation, error) {
	row := s.db.conn.QueryRowContext(ctx, `
		SELECT id, note, coordinates, color, project_id, owner_id
		FROM annotations WHERE id = ?`, id)

	a, err := scanAnnotation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// Create inserts a new annotation and fills in its id.
func (s *AnnotationStore) Create(ctx context.Context, annotation *models.Annotation) error {
	res, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO annotations (note, coordinates, color, project_id, owner_id)
		VALUES (?, ?, ?, ?, ?)`,
		annotation.Note, string(annotation.Coordinates), annotation.Color,
		annotation.ProjectID, annotation.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to create annotation: %w", err)
	}
	annotation.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read annotation id: %w", err)
	}
	return nil
}

// Update replaces note, coordinates, and color of an existing annotation.
func (s *AnnotationStore) Update(ctx context.Context, annotation *models.Annotation) error {
	res, err := s.db.conn.ExecContext(ctx, `
		UPDATE annotations SET note = ?, coordinates = ?, color = ?
		WHERE id = ?`,
		annotation.Note, string(annotation.Coordinates), annotation.Color, annotation.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update annotation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an annotation. Returns ErrNotFound if it does not exist.
func (s *AnnotationStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.conn.ExecContext(ctx, "DELETE FROM annotations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
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

// scanAnnotation scans one annotation row. Coordinates are stored as TEXT
// holding the client's opaque JSON document.
func scanAnnotation(scan func(dest ...interface{}) error) (*models.Annotation, error) {
	var a models.Annotation
	var coordinates string
	if err := scan(&a.ID, &a.Note, &coordinates, &a.Color, &a.ProjectID, &a.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan annotation: %w", err)
	}
	a.Coordinates = []byte(coordinates)
	return &a, nil
}
