// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/models"
)

// TokenCookieName is the cookie the login handler sets and the middleware
// reads as a fallback to the Authorization header.
const TokenCookieName = "annotato_token"

type contextKey string

const userContextKey contextKey = "user"

// UserResolver loads the account behind validated claims.
// Satisfied by *database.UserStore.
type UserResolver interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Middleware authenticates requests and resolves the current user into the
// request context.
type Middleware struct {
	jwt   *JWTManager
	users UserResolver
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(jwt *JWTManager, users UserResolver) *Middleware {
	return &Middleware{jwt: jwt, users: users}
}

// Authenticate rejects requests without a valid token and stores the
// resolved user in the request context. Tokens are accepted from the
// Authorization header, the token cookie, or a "token" query parameter;
// the query parameter exists for websocket dials, where browsers cannot
// set custom headers.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			unauthorized(w, "missing credentials")
			return
		}

		claims, err := m.jwt.ValidateToken(tokenString)
		if err != nil {
			logging.Debug().Err(err).Msg("token validation failed")
			unauthorized(w, "invalid or expired token")
			return
		}

		user, err := m.users.GetByUsername(r.Context(), claims.Username)
		if err != nil {
			unauthorized(w, "unknown user")
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken pulls the token from header, cookie, or query, in that order.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get("token")
}

// ContextWithUser returns a context carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user, or nil.
func UserFromContext(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// unauthorized writes a 401 in the standard error envelope. The middleware
// writes its own JSON rather than importing the api package, which imports
// this one.
func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
