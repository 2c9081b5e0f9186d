// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package websocket

import (
	"io"
	"sync"
	"testing"

	"github.com/annotato/annotato/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// newTestClient creates a client without a connection. Tests only exercise
// the send queue, never the pumps.
func newTestClient(projectID string, buffer int) *Client {
	return &Client{
		id:        clientIDCounter.Add(1),
		projectID: projectID,
		send:      make(chan Message, buffer),
		done:      make(chan struct{}),
	}
}

func TestRegistry_RegisterAndCount(t *testing.T) {
	registry := NewRegistry()

	if registry.Count("p1") != 0 {
		t.Fatalf("expected empty registry, got %d sessions", registry.Count("p1"))
	}

	a := newTestClient("p1", 1)
	b := newTestClient("p1", 1)
	c := newTestClient("p2", 1)
	registry.Register(a)
	registry.Register(b)
	registry.Register(c)

	if got := registry.Count("p1"); got != 2 {
		t.Errorf("expected 2 sessions on p1, got %d", got)
	}
	if got := registry.Count("p2"); got != 1 {
		t.Errorf("expected 1 session on p2, got %d", got)
	}
}

func TestRegistry_SessionsAreProjectScoped(t *testing.T) {
	registry := NewRegistry()

	a := newTestClient("p1", 1)
	b := newTestClient("p2", 1)
	registry.Register(a)
	registry.Register(b)

	sessions := registry.Sessions("p1")
	if len(sessions) != 1 || sessions[0] != a {
		t.Fatalf("expected only p1's client, got %d sessions", len(sessions))
	}
	if len(registry.Sessions("missing")) != 0 {
		t.Error("expected no sessions for unknown project")
	}
}

func TestRegistry_SessionsOrderedByClientID(t *testing.T) {
	registry := NewRegistry()

	first := newTestClient("p1", 1)
	second := newTestClient("p1", 1)
	third := newTestClient("p1", 1)
	// Register out of creation order; delivery order must not depend on it.
	registry.Register(third)
	registry.Register(first)
	registry.Register(second)

	sessions := registry.Sessions("p1")
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i-1].id >= sessions[i].id {
			t.Errorf("sessions not ordered by id: %d before %d", sessions[i-1].id, sessions[i].id)
		}
	}
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	client := newTestClient("p1", 1)
	registry.Register(client)

	if !registry.Unregister(client) {
		t.Fatal("first unregister should report removal")
	}
	if registry.Unregister(client) {
		t.Fatal("second unregister should be a no-op")
	}
	if registry.Count("p1") != 0 {
		t.Errorf("expected empty project after unregister, got %d", registry.Count("p1"))
	}
}

func TestRegistry_UnregisterUnknownClient(t *testing.T) {
	registry := NewRegistry()
	if registry.Unregister(newTestClient("p1", 1)) {
		t.Error("unregistering a never-registered client should return false")
	}
}

func TestRegistry_DrainAll(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newTestClient("p1", 1))
	registry.Register(newTestClient("p1", 1))
	registry.Register(newTestClient("p2", 1))

	drained := registry.drainAll()
	if len(drained) != 3 {
		t.Fatalf("expected 3 drained clients, got %d", len(drained))
	}
	if registry.Count("p1") != 0 || registry.Count("p2") != 0 {
		t.Error("registry should be empty after drainAll")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := newTestClient("p1", 1)
			registry.Register(client)
			registry.Sessions("p1")
			registry.Unregister(client)
		}()
	}
	wg.Wait()

	if registry.Count("p1") != 0 {
		t.Errorf("expected empty registry after concurrent churn, got %d", registry.Count("p1"))
	}
}
