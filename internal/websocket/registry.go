// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package websocket

import (
	"sort"
	"sync"
)

// Registry tracks the connected viewer sessions of each project. All
// methods are safe for concurrent use; (de)registration is purely
// in-memory and never blocks on I/O.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]map[*Client]struct{})}
}

// Register adds a client to its project's session set.
func (r *Registry) Register(client *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[client.projectID]
	if !ok {
		set = make(map[*Client]struct{})
		r.sessions[client.projectID] = set
	}
	set[client] = struct{}{}
}

// Unregister removes a client from its project's session set and reports
// whether it was present. Deregistering an already-removed client is a
// no-op returning false, so concurrent disconnect and failed-delivery
// cleanup cannot double-free a session.
func (r *Registry) Unregister(client *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sessions[client.projectID]
	if !ok {
		return false
	}
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	if len(set) == 0 {
		delete(r.sessions, client.projectID)
	}
	return true
}

// Sessions returns a point-in-time copy of a project's session set, sorted
// by client id for deterministic delivery order. Callers may iterate the
// returned slice while other goroutines (de)register concurrently.
func (r *Registry) Sessions(projectID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.sessions[projectID]
	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// Count returns the number of sessions registered for a project.
func (r *Registry) Count(projectID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions[projectID])
}

// drainAll removes and returns every registered client across all
// projects. Used during hub shutdown.
func (r *Registry) drainAll() []*Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	var clients []*Client
	for _, set := range r.sessions {
		for client := range set {
			clients = append(clients, client)
		}
	}
	r.sessions = make(map[string]map[*Client]struct{})
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}
