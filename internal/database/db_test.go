// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package database

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annotato/annotato/internal/config"
	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

// newTestDB opens an in-memory database with the schema applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// createTestUser inserts a user and returns it.
func createTestUser(t *testing.T, db *DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Firstname:    "Test",
		Lastname:     "User",
		PasswordHash: "$2a$12$fakehashfakehashfakehash",
	}
	require.NoError(t, NewUserStore(db).Create(context.Background(), user))
	return user
}

// createTestProject inserts a project owned by ownerID.
func createTestProject(t *testing.T, db *DB, name string, ownerID int64) *models.Project {
	t.Helper()
	project, err := NewProjectStore(db).Create(context.Background(), name, ownerID)
	require.NoError(t, err)
	return project
}

func TestNew_InMemory(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Ping(context.Background()))
}
