// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/annotato/annotato/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// clientIDCounter generates unique, monotonically increasing client IDs,
// giving the registry a stable sort key for deterministic delivery order.
var clientIDCounter atomic.Uint64

// Client bridges one viewer's websocket connection to the hub. The read
// pump turns inbound frames into edit signals for the client's project;
// the write pump delivers queued snapshots.
//
// Lifecycle: created on upgrade, registered with the hub, closed exactly
// once on disconnect or failed delivery. A closed client is never reused;
// the viewer reconnects with a fresh one.
type Client struct {
	id        uint64
	projectID string
	hub       *Hub
	conn      *websocket.Conn

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a client for one upgraded connection to a project's
// live channel.
func NewClient(hub *Hub, conn *websocket.Conn, projectID string, sendBuffer int) *Client {
	if sendBuffer < 1 {
		sendBuffer = 256
	}
	return &Client{
		id:        clientIDCounter.Add(1),
		projectID: projectID,
		hub:       hub,
		conn:      conn,
		send:      make(chan Message, sendBuffer),
		done:      make(chan struct{}),
	}
}

// Start begins the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

// shutdown marks the client closed. Idempotent; safe to call from the hub
// loop, a broadcast, and the read pump concurrently.
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// trySend queues a message without blocking. Returns false when the client
// is closed or its queue is full; the caller treats that as a failed
// delivery.
func (c *Client) trySend(message Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// readPump pumps inbound frames from the connection to the hub. Every
// well-formed non-ping frame is an edit signal; its content is ignored
// beyond "an edit happened". Malformed frames are ignored and the
// connection stays open. A transport error ends the session.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		c.shutdown()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Str("project_id", c.projectID).Msg("unexpected websocket close")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			logging.Debug().Str("project_id", c.projectID).Msg("ignoring malformed frame")
			continue
		}

		if msg.Type == MessageTypePing {
			c.trySend(Message{Type: MessageTypePong})
			continue
		}

		c.hub.EditSignal(c.projectID)
	}
}

// writePump pumps queued messages to the connection and keeps it alive
// with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				logging.Debug().Err(err).Str("project_id", c.projectID).Msg("websocket write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
