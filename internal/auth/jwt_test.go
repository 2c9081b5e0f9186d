// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotato/annotato/internal/config"
)

const testSecret = "test-secret-at-least-32-characters!!"

func newTestJWTManager(t *testing.T, lifetime time.Duration) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:     testSecret,
		TokenLifetime: lifetime,
	})
	require.NoError(t, err)
	return manager
}

func TestNewJWTManager_RejectsShortSecret(t *testing.T) {
	_, err := NewJWTManager(&config.SecurityConfig{JWTSecret: "short"})
	assert.Error(t, err)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := newTestJWTManager(t, time.Hour)

	token, expiresAt, err := manager.GenerateToken("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	manager := newTestJWTManager(t, -time.Minute)

	token, _, err := manager.GenerateToken("alice")
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	manager := newTestJWTManager(t, time.Hour)
	other, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:     "another-secret-at-least-32-characters!",
		TokenLifetime: time.Hour,
	})
	require.NoError(t, err)

	token, _, err := manager.GenerateToken("alice")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsGarbage(t *testing.T) {
	manager := newTestJWTManager(t, time.Hour)

	for _, token := range []string{"", "not.a.token", "a.b"} {
		_, err := manager.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}
