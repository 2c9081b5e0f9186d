// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method. The interface
// keeps this package free of a websocket dependency.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the live hub as a supervised service. RunWithContext
// already follows the suture.Service pattern, so the wrapper only
// delegates and names the service.
type HubService struct {
	hub ContextHub
}

// NewHubService creates the wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve implements suture.Service.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for suture's event log.
func (s *HubService) String() string {
	return "live-hub"
}
