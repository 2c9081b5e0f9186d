// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/annotato/annotato/internal/auth"
	"github.com/annotato/annotato/internal/config"
	"github.com/annotato/annotato/internal/database"
	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/storage"
	"github.com/annotato/annotato/internal/websocket"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

// testEnv wires a full API stack on an in-memory database.
type testEnv struct {
	router http.Handler
	hub    *websocket.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Storage: config.StorageConfig{
			DataDir:        t.TempDir(),
			MaxUploadBytes: 1 << 20,
		},
		Security: config.SecurityConfig{
			JWTSecret:               "api-test-secret-32-characters-long!",
			TokenLifetime:           time.Hour,
			BcryptCost:              bcrypt.MinCost,
			CORSOrigins:             []string{"*"},
			RateLimitPerMinute:      10000,
			LoginRateLimitPerMinute: 10000,
		},
		Websocket: config.WebsocketConfig{
			SendBuffer:   16,
			SignalBuffer: 64,
			FetchTimeout: time.Second,
		},
	}

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs, err := storage.NewBlobStore(cfg.Storage.DataDir)
	require.NoError(t, err)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	require.NoError(t, err)

	hub := websocket.NewHub(
		websocket.NewRegistry(),
		database.NewAnnotationStore(db),
		cfg.Websocket.SignalBuffer,
		cfg.Websocket.FetchTimeout,
	)

	handler := NewHandler(cfg, db, blobs, jwtManager, hub)
	router := NewRouter(handler, auth.NewMiddleware(jwtManager, database.NewUserStore(db)))
	return &testEnv{router: router, hub: hub}
}

// do issues a JSON request, optionally authenticated, and returns the
// recorder.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the envelope's data field into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success envelope: %s", rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

// registerAndLogin creates an account through the API and returns a token.
func (e *testEnv) registerAndLogin(t *testing.T, username string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": username,
		"password": "password-123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password-123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var token struct {
		AccessToken string `json:"access_token"`
	}
	decodeData(t, rec, &token)
	require.NotEmpty(t, token.AccessToken)
	return token.AccessToken
}

// createProject creates a project through the API and returns its id.
func (e *testEnv) createProject(t *testing.T, token, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/projects", token, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var project struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &project)
	return project.ID
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": "alice", "password": "password-123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password", "password hash must not leak")

	// Duplicate username conflicts.
	rec = env.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": "alice", "password": "password-456",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Too-short password fails validation.
	rec = env.do(t, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": "bob", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown users get the same response as bad passwords.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "ghost", "password": "password-123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/user", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user struct {
		Username string `json:"username"`
	}
	decodeData(t, rec, &user)
	assert.Equal(t, "alice", user.Username)

	rec = env.do(t, http.MethodGet, "/api/v1/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice")

	projectID := env.createProject(t, token, "atlas")

	rec := env.do(t, http.MethodGet, "/api/v1/projects", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decodeData(t, rec, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, "atlas", projects[0].Name)

	rec = env.do(t, http.MethodGet, "/api/v1/projects/"+projectID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/projects/no-such-project", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectShareOnVisit(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerAndLogin(t, "owner")
	guest := env.registerAndLogin(t, "guest")

	projectID := env.createProject(t, owner, "shared-atlas")

	// The guest's first visit joins them to the project.
	rec := env.do(t, http.MethodGet, "/api/v1/projects/"+projectID, guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var project struct {
		SharedUsers []struct {
			Username string `json:"username"`
		} `json:"shared_users"`
	}
	decodeData(t, rec, &project)
	require.Len(t, project.SharedUsers, 1)
	assert.Equal(t, "guest", project.SharedUsers[0].Username)

	// The project now appears in the guest's list.
	rec = env.do(t, http.MethodGet, "/api/v1/projects", guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &projects)
	require.Len(t, projects, 1)
	assert.Equal(t, projectID, projects[0].ID)
}

func TestAnnotationLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice")
	projectID := env.createProject(t, token, "atlas")

	rec := env.do(t, http.MethodPost, "/api/v1/projects/"+projectID+"/annotations", token, map[string]interface{}{
		"note":        "a landmark",
		"coordinates": map[string]int{"x": 1, "y": 2},
		"color":       "#ff0000",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var annotation struct {
		ID int64 `json:"id"`
	}
	decodeData(t, rec, &annotation)
	require.NotZero(t, annotation.ID)

	rec = env.do(t, http.MethodGet, "/api/v1/projects/"+projectID+"/annotations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var annotations []struct {
		Note string `json:"note"`
	}
	decodeData(t, rec, &annotations)
	require.Len(t, annotations, 1)
	assert.Equal(t, "a landmark", annotations[0].Note)

	annotationID := int(annotation.ID)
	rec = env.do(t, http.MethodPut, annotationPath(annotationID), token, map[string]interface{}{
		"note":        "updated",
		"coordinates": map[string]int{"x": 3, "y": 4},
		"color":       "#00ff00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, annotationPath(annotationID), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, annotationPath(annotationID), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnnotationOwnerOnlyMutation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerAndLogin(t, "owner")
	guest := env.registerAndLogin(t, "guest")
	projectID := env.createProject(t, owner, "atlas")

	// The guest joins by visiting, then annotates.
	rec := env.do(t, http.MethodGet, "/api/v1/projects/"+projectID, guest, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/projects/"+projectID+"/annotations", guest, map[string]interface{}{
		"note":        "guest note",
		"coordinates": map[string]int{"x": 0, "y": 0},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var annotation struct {
		ID int64 `json:"id"`
	}
	decodeData(t, rec, &annotation)

	// The project owner still cannot touch the guest's annotation.
	rec = env.do(t, http.MethodPut, annotationPath(int(annotation.ID)), owner, map[string]interface{}{
		"note":        "hijacked",
		"coordinates": map[string]int{"x": 0, "y": 0},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, annotationPath(int(annotation.ID)), owner, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAnnotationRequiresProjectAccess(t *testing.T) {
	env := newTestEnv(t)
	owner := env.registerAndLogin(t, "owner")
	outsider := env.registerAndLogin(t, "outsider")
	projectID := env.createProject(t, owner, "atlas")

	// Listing without visiting first is forbidden.
	rec := env.do(t, http.MethodGet, "/api/v1/projects/"+projectID+"/annotations", outsider, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/projects/"+projectID+"/annotations", outsider, map[string]interface{}{
		"note":        "sneaky",
		"coordinates": map[string]int{"x": 0, "y": 0},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFileUploadDownloadDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice")
	projectID := env.createProject(t, token, "atlas")

	// Upload.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "scan.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("file payload"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects/"+projectID+"/files", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var file struct {
		ID       int64  `json:"id"`
		Filename string `json:"filename"`
	}
	decodeData(t, rec, &file)
	assert.Equal(t, "scan.txt", file.Filename)

	// Download.
	rec = env.do(t, http.MethodGet, filePath(int(file.ID)), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "file payload", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "scan.txt")

	// Only the owner may delete; a joined guest may not.
	guest := env.registerAndLogin(t, "guest")
	env.do(t, http.MethodGet, "/api/v1/projects/"+projectID, guest, nil)
	rec = env.do(t, http.MethodDelete, filePath(int(file.ID)), guest, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, filePath(int(file.ID)), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, filePath(int(file.ID)), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAnnotationQueuesEditSignal(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "alice")
	projectID := env.createProject(t, token, "atlas")

	rec := env.do(t, http.MethodPost, "/api/v1/projects/"+projectID+"/annotations", token, map[string]interface{}{
		"note":        "note",
		"coordinates": map[string]int{"x": 1, "y": 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	// The hub loop is not running in this test; the snapshot cache fills
	// only after a cycle. Run the hub briefly and expect the queued signal
	// to produce a cached snapshot.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = env.hub.RunWithContext(ctx) }()

	require.Eventually(t, func() bool {
		snapshot, ok := env.hub.Snapshot(projectID)
		return ok && len(snapshot) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func annotationPath(id int) string {
	return "/api/v1/annotations/" + strconv.Itoa(id)
}

func filePath(id int) string {
	return "/api/v1/files/" + strconv.Itoa(id)
}
