// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotato/annotato/internal/models"
)

func TestUserStore_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	user := createTestUser(t, db, "alice")
	assert.NotZero(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	byName, err := store.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)
	assert.Equal(t, "Test", byName.Firstname)

	byID, err := store.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserStore_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	createTestUser(t, db, "alice")

	duplicate := &models.User{Username: "alice", PasswordHash: "hash"}
	err := store.Create(ctx, duplicate)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserStore_GetMissing(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)
	ctx := context.Background()

	_, err := store.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
