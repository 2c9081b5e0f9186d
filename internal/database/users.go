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

	"github.com/annotato/annotato/internal/models"
)

// UserStore provides durable access to user accounts.
type UserStore struct {
	db *DB
}

// NewUserStore creates a UserStore on the given database.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a new user. The password must already be hashed.
// Returns ErrConflict if the username is taken.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now().UTC()

	res, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO users (username, firstname, lastname, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.Username, user.Firstname, user.Lastname, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	return nil
}

// GetByUsername retrieves a user by login name.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.get(ctx, "SELECT id, username, firstname, lastname, password_hash, created_at FROM users WHERE username = ?", username)
}

// GetByID retrieves a user by numeric id.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.get(ctx, "SELECT id, username, firstname, lastname, password_hash, created_at FROM users WHERE id = ?", id)
}

func (s *UserStore) get(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.conn.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Firstname, &user.Lastname,
		&user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
