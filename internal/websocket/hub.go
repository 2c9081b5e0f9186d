// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/annotato/annotato/internal/logging"
	"github.com/annotato/annotato/internal/metrics"
	"github.com/annotato/annotato/internal/models"
)

// Message types for the live channel.
const (
	MessageTypeAnnotations = "annotations"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is the envelope for every frame on the live channel.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// editSignal identifies one edit notification. The payload of the inbound
// frame is irrelevant; only "an edit happened on this project" is carried.
type editSignal struct {
	projectID string
}

// Gateway fetches the canonical annotation set of a project from durable
// storage. Satisfied by *database.AnnotationStore.
type Gateway interface {
	ListByProject(ctx context.Context, projectID string) ([]models.Annotation, error)
}

// Hub is the authoritative recompute-and-fan-out engine. It owns the
// per-project snapshot cache and serializes edit cycles per project: for
// any one project the cache always reflects the most recently completed
// fetch, and every broadcast carries one self-consistent snapshot.
//
// Projects are independent: an edit cycle for one project never delays
// registration, joins, or edit cycles of another.
type Hub struct {
	registry *Registry
	gateway  Gateway

	Register   chan *Client
	Unregister chan *Client
	signals    chan editSignal

	cache   map[string][]models.AnnotationSnapshot
	cacheMu sync.RWMutex

	// projectLocks serializes edit cycles per project (map of projectID
	// to *sync.Mutex).
	projectLocks sync.Map

	// cycles tracks in-flight edit cycles so shutdown can wait for them.
	cycles sync.WaitGroup

	// done is closed once the run loop stops draining Unregister, so a
	// client disconnecting after shutdown never blocks on deregistration.
	done     chan struct{}
	stopOnce sync.Once

	fetchTimeout time.Duration
}

// NewHub creates a hub broadcasting snapshots fetched from the gateway to
// sessions tracked in the registry.
func NewHub(registry *Registry, gateway Gateway, signalBuffer int, fetchTimeout time.Duration) *Hub {
	if signalBuffer < 1 {
		signalBuffer = 256
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Hub{
		registry:     registry,
		gateway:      gateway,
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		signals:      make(chan editSignal, signalBuffer),
		cache:        make(map[string][]models.AnnotationSnapshot),
		done:         make(chan struct{}),
		fetchTimeout: fetchTimeout,
	}
}

// EditSignal reports that some edit occurred on a project. Non-blocking:
// when the signal queue is full the signal is dropped, which is safe
// because the next accepted signal rebroadcasts the full current state.
func (h *Hub) EditSignal(projectID string) {
	select {
	case h.signals <- editSignal{projectID: projectID}:
		metrics.EditSignalsTotal.Inc()
	default:
		metrics.EditSignalsDropped.WithLabelValues("queue_full").Inc()
		logging.Warn().Str("project_id", projectID).Msg("signal queue full, dropping edit signal")
	}
}

// Snapshot returns the cached snapshot for a project, if one exists.
func (h *Hub) Snapshot(projectID string) ([]models.AnnotationSnapshot, bool) {
	h.cacheMu.RLock()
	defer h.cacheMu.RUnlock()
	snapshot, ok := h.cache[projectID]
	return snapshot, ok
}

// RunWithContext runs the hub until the context is canceled. Designed for
// suture supervision; returns ctx.Err() on shutdown.
//
// Uses priority-based selection for predictable behavior when multiple
// channels are ready: shutdown first, then client lifecycle events, then
// edit signals. Session lifecycle handling is in-memory only; edit cycles
// run in their own goroutines so a slow store fetch never delays joins.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: shutdown (non-blocking check)
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.handleRegister(client)
			continue
		case client := <-h.Unregister:
			h.handleUnregister(client)
			continue
		default:
		}

		// Priority 3: wait for any event
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.handleRegister(client)
		case client := <-h.Unregister:
			h.handleUnregister(client)
		case signal := <-h.signals:
			h.cycles.Add(1)
			go func() {
				defer h.cycles.Done()
				h.runEditCycle(ctx, signal.projectID)
			}()
		}
	}
}

// handleRegister adds the session and pushes the cached snapshot, if any,
// so a late joiner sees current state without waiting for the next edit.
// The join push is best-effort: a failed push does not abort the join.
func (h *Hub) handleRegister(client *Client) {
	h.registry.Register(client)
	metrics.LiveSessions.Inc()
	logging.Info().
		Str("project_id", client.projectID).
		Int("project_sessions", h.registry.Count(client.projectID)).
		Msg("live session connected")

	if snapshot, ok := h.Snapshot(client.projectID); ok {
		if !client.trySend(Message{Type: MessageTypeAnnotations, Data: snapshot}) {
			logging.Debug().Str("project_id", client.projectID).Msg("join-time snapshot push failed")
		}
	}
}

// handleUnregister removes the session. Idempotent: the second of two
// concurrent removal paths (disconnect vs failed delivery) is a no-op.
func (h *Hub) handleUnregister(client *Client) {
	if h.registry.Unregister(client) {
		client.shutdown()
		metrics.LiveSessions.Dec()
		logging.Info().
			Str("project_id", client.projectID).
			Int("project_sessions", h.registry.Count(client.projectID)).
			Msg("live session disconnected")
	}
}

// runEditCycle performs one fetch-cache-broadcast cycle for a project.
// Cycles for the same project are serialized, so the cache always holds
// the latest completed fetch in signal order; cycles for different
// projects run concurrently.
func (h *Hub) runEditCycle(ctx context.Context, projectID string) {
	lock, _ := h.projectLocks.LoadOrStore(projectID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.fetchTimeout)
	defer cancel()

	annotations, err := h.gateway.ListByProject(fetchCtx, projectID)
	if err != nil {
		// Store unreachable: drop this cycle without touching the cache
		// or broadcasting. The next successful edit signal recovers.
		metrics.EditSignalsDropped.WithLabelValues("store_unavailable").Inc()
		logging.Error().Err(err).Str("project_id", projectID).Msg("annotation fetch failed, dropping edit signal")
		return
	}

	snapshot := models.SnapshotAll(annotations)
	h.cacheMu.Lock()
	h.cache[projectID] = snapshot
	h.cacheMu.Unlock()

	h.broadcast(projectID, snapshot)
}

// broadcast fans one snapshot out to every session registered for the
// project at this moment. A session whose queue cannot take the snapshot
// is deregistered; delivery to the remaining sessions continues.
func (h *Hub) broadcast(projectID string, snapshot []models.AnnotationSnapshot) {
	message := Message{Type: MessageTypeAnnotations, Data: snapshot}

	delivered := 0
	for _, client := range h.registry.Sessions(projectID) {
		if client.trySend(message) {
			delivered++
			continue
		}
		metrics.SnapshotDeliveryFailures.Inc()
		logging.Warn().Str("project_id", projectID).Msg("snapshot delivery failed, dropping session")
		h.handleUnregister(client)
	}

	metrics.BroadcastsTotal.Inc()
	logging.Debug().
		Str("project_id", projectID).
		Int("annotations", len(snapshot)).
		Int("delivered", delivered).
		Msg("broadcast annotations")
}

// shutdown waits for in-flight edit cycles, then closes every session.
func (h *Hub) shutdown(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.done) })
	h.cycles.Wait()

	clients := h.registry.drainAll()
	for _, client := range clients {
		client.shutdown()
	}
	metrics.LiveSessions.Sub(float64(len(clients)))

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "live-hub").
		Str("reason", reason).
		Int("sessions_closed", len(clients)).
		Msg("live hub stopped")
}
