// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer simulates *http.Server lifecycle behavior.
type fakeServer struct {
	serveErr    error
	stopCh      chan struct{}
	shutdownErr error
	shutdowns   int
}

func newFakeServer() *fakeServer {
	return &fakeServer{stopCh: make(chan struct{})}
}

func (s *fakeServer) ListenAndServe() error {
	if s.serveErr != nil {
		return s.serveErr
	}
	<-s.stopCh
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(_ context.Context) error {
	s.shutdowns++
	close(s.stopCh)
	return s.shutdownErr
}

func TestHTTPServerService_GracefulShutdown(t *testing.T) {
	server := newFakeServer()
	service := NewHTTPServerService(server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- service.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
	assert.Equal(t, 1, server.shutdowns)
}

func TestHTTPServerService_StartupFailure(t *testing.T) {
	server := newFakeServer()
	server.serveErr = errors.New("address in use")
	service := NewHTTPServerService(server, time.Second)

	err := service.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address in use")
}

func TestHTTPServerService_String(t *testing.T) {
	assert.Equal(t, "http-server", NewHTTPServerService(newFakeServer(), 0).String())
}

type fakeHub struct {
	ran chan struct{}
}

func (h *fakeHub) RunWithContext(ctx context.Context) error {
	close(h.ran)
	<-ctx.Done()
	return ctx.Err()
}

func TestHubService_Delegates(t *testing.T) {
	hub := &fakeHub{ran: make(chan struct{})}
	service := NewHubService(hub)
	assert.Equal(t, "live-hub", service.String())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- service.Serve(ctx) }()

	select {
	case <-hub.ran:
	case <-time.After(time.Second):
		t.Fatal("hub was not started")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("service did not stop")
	}
}
