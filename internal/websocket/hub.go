// Package websocket bridges WebSocket connections and the session event bus.
// It owns the transport concerns only: framing, connection ids, group
// delivery keyed by the rooms registry, and connection-state recovery.
package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/roomrelay/relay/internal/pubsub"
	"github.com/roomrelay/relay/internal/rooms"
)

// Hub manages all WebSocket connections. Inbound frames are published to the
// session event bus; outbound delivery happens through EmitTo and EmitToRoom.
type Hub struct {
	publisher pubsub.Publisher
	registry  *rooms.Registry
	recovery  *recoveryTracker

	clients map[string]*Client
	mu      sync.RWMutex
}

// NewHub creates a Hub. recoveryWindow controls how long a dropped connection
// can be resumed; zero disables recovery.
func NewHub(pub pubsub.Publisher, registry *rooms.Registry, recoveryWindow time.Duration) *Hub {
	h := &Hub{
		publisher: pub,
		registry:  registry,
		clients:   make(map[string]*Client),
	}
	if recoveryWindow > 0 {
		h.recovery = newRecoveryTracker(recoveryWindow)
	}
	return h
}

// add registers a connected client.
func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	slog.Info("Client registered", "connectionID", client.ID, "username", client.Username)
}

// drop unregisters a client after its connection ended. Abnormal drops are
// parked for recovery before the disconnect event is published, so the
// session's room is still in the registry when we look it up.
func (h *Hub) drop(client *Client, closeErr error) {
	h.mu.Lock()
	current, ok := h.clients[client.ID]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)
	h.mu.Unlock()

	client.closeSend()

	if h.recovery != nil && !gracefulClose(closeErr) {
		h.recovery.park(client.ID, client.Username, h.registry.RoomOf(client.ID))
	}

	slog.Info("Client unregistered", "connectionID", client.ID, "username", client.Username)
	h.publish(client.ID, EventDisconnected, nil, nil)
}

// gracefulClose reports whether the connection ended with a clean close
// handshake, in which case the client is not eligible for recovery.
func gracefulClose(err error) bool {
	if err == nil || errors.Is(err, io.EOF) {
		return false
	}
	status := websocket.CloseStatus(err)
	return status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway
}

// inbound forwards a client frame onto the session event bus. Only events a
// client is allowed to send are forwarded; anything else is dropped.
func (h *Hub) inbound(client *Client, frame []byte) {
	ev, err := Decode(frame)
	if err != nil {
		slog.Debug("Dropping malformed frame", "connectionID", client.ID, "error", err)
		return
	}

	switch ev.Name {
	case EventJoinRoom, EventChatMessage:
		h.publish(client.ID, ev.Name, frame, nil)
	default:
		slog.Debug("Dropping unknown client event", "connectionID", client.ID, "event", ev.Name)
	}
}

// publish sends a session event onto the bus.
func (h *Hub) publish(connID, event string, payload []byte, meta map[string]string) {
	if meta == nil {
		meta = make(map[string]string)
	}
	meta[MetaKeyEvent] = event

	err := h.publisher.Publish(context.Background(), pubsub.Message{
		Topic:        TopicSessionEvents,
		ConnectionID: connID,
		Payload:      payload,
		Metadata:     meta,
	})
	if err != nil {
		slog.Error("Failed to publish session event", "connectionID", connID, "event", event, "error", err)
	}
}

// EmitTo delivers an event to a single connection. Emitting to a connection
// that is no longer registered is a harmless no-op.
func (h *Hub) EmitTo(connID string, ev Event) {
	frame, err := Encode(ev)
	if err != nil {
		slog.Error("Failed to encode event", "event", ev.Name, "error", err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	client.trySend(frame)
}

// EmitToRoom delivers an event to every connection joined to room, including
// the sender. The frame is also buffered for any connection parked for
// recovery whose last room matches.
//
// Delivery and buffering happen under the recovery lock so a resume in flight
// cannot slip a broadcast between the two: the frame either reaches the
// resumed connection live through its restored membership, or lands in the
// buffer it is about to replay. Never neither, never both.
func (h *Hub) EmitToRoom(room string, ev Event) {
	frame, err := Encode(ev)
	if err != nil {
		slog.Error("Failed to encode event", "event", ev.Name, "error", err)
		return
	}

	if h.recovery != nil {
		h.recovery.mu.Lock()
		defer h.recovery.mu.Unlock()
	}

	members := h.registry.MembersOf(room)

	h.mu.RLock()
	for _, id := range members {
		if client, ok := h.clients[id]; ok {
			client.trySend(frame)
		}
	}
	h.mu.RUnlock()

	if h.recovery != nil {
		h.recovery.bufferLocked(room, frame)
	}
}

// resume continues a parked session on a freshly accepted client. The claim,
// the room restore, and the buffered replay are one atomic step with respect
// to EmitToRoom, with the session event queued ahead of the replayed frames.
// It returns the recovered room and whether the claim succeeded.
func (h *Hub) resume(client *Client, token string) (string, bool) {
	if h.recovery == nil || token == "" {
		return "", false
	}

	sessionFrame, err := Encode(Event{
		Name:         EventSession,
		ConnectionID: client.ID,
		Resumed:      true,
	})
	if err != nil {
		slog.Error("Failed to encode session event", "connectionID", client.ID, "error", err)
		return "", false
	}

	h.recovery.mu.Lock()
	defer h.recovery.mu.Unlock()

	parked, ok := h.recovery.claimLocked(token)
	if !ok {
		return "", false
	}

	if parked.room != "" {
		h.registry.Join(client.ID, parked.room)
	}

	client.trySend(sessionFrame)
	for _, frame := range parked.pending {
		client.trySend(frame)
	}

	slog.Info("Connection resumed", "connectionID", client.ID,
		"previousID", token, "room", parked.room, "replayed", len(parked.pending))

	return parked.room, true
}
