// Package chat implements the room-scoped message flow: session lifecycle,
// room membership, durable persistence and fan-out, and catch-up delivery for
// reconnecting clients.
package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/roomrelay/relay/internal/pubsub"
	"github.com/roomrelay/relay/internal/rooms"
	"github.com/roomrelay/relay/internal/store"
	"github.com/roomrelay/relay/internal/websocket"
)

// MessageLog is the durable, strictly-ordered message store the service
// persists to and catches clients up from.
type MessageLog interface {
	Append(ctx context.Context, content, username, room string) (int64, error)
	After(ctx context.Context, room string, offset int64) ([]store.Message, error)
}

// Emitter is the transport capability the service delivers through: emit an
// event to one connection, or to every connection in a room.
type Emitter interface {
	EmitTo(connID string, ev websocket.Event)
	EmitToRoom(room string, ev websocket.Event)
}

// eventKind enumerates the session events the service handles.
type eventKind int

const (
	eventUnknown eventKind = iota
	eventConnected
	eventJoinRoom
	eventChatMessage
	eventDisconnected
)

func kindOf(name string) eventKind {
	switch name {
	case websocket.EventConnected:
		return eventConnected
	case websocket.EventJoinRoom:
		return eventJoinRoom
	case websocket.EventChatMessage:
		return eventChatMessage
	case websocket.EventDisconnected:
		return eventDisconnected
	default:
		return eventUnknown
	}
}

// joinPayload is the body of an inbound "join room" frame.
type joinPayload struct {
	Room string `json:"room" validate:"required"`
}

// messagePayload is the body of an inbound "chat message" frame.
type messagePayload struct {
	Content string `json:"content"`
}

// Service owns one Session per connected client and orchestrates joins,
// catch-up, and persist-then-broadcast message delivery.
//
// All session events arrive on a single bus topic consumed by one subscriber,
// so handlers run one at a time in transport order. The sessions map still
// carries a mutex for read access from other goroutines (HTTP handlers,
// tests).
type Service struct {
	log        MessageLog
	registry   *rooms.Registry
	emitter    Emitter
	subscriber pubsub.Subscriber
	validate   *validator.Validate

	sessions map[string]*Session
	mu       sync.RWMutex
}

// Dependencies holds all the services the chat Service requires to operate.
type Dependencies struct {
	Log        MessageLog
	Registry   *rooms.Registry
	Emitter    Emitter
	Subscriber pubsub.Subscriber
}

// NewService creates a new chat Service, injecting its dependencies.
func NewService(deps Dependencies) *Service {
	return &Service{
		log:        deps.Log,
		registry:   deps.Registry,
		emitter:    deps.Emitter,
		subscriber: deps.Subscriber,
		validate:   validator.New(),
		sessions:   make(map[string]*Session),
	}
}

// Start subscribes the service to the session event bus. It returns once the
// subscription is active; processing continues until ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	slog.Info("Starting chat service")
	return s.subscriber.Subscribe(ctx, websocket.TopicSessionEvents, s.handleSessionEvent)
}

// handleSessionEvent dispatches one bus message to the matching handler.
// Failures are handled locally: the handler logs, aborts its step, and the
// loop moves on. No error is ever propagated back to a client.
func (s *Service) handleSessionEvent(ctx context.Context, msg pubsub.Message) error {
	switch kindOf(msg.Metadata[websocket.MetaKeyEvent]) {
	case eventConnected:
		s.handleConnected(ctx, msg)
	case eventJoinRoom:
		s.handleJoinRoom(ctx, msg)
	case eventChatMessage:
		s.handleChatMessage(ctx, msg)
	case eventDisconnected:
		s.handleDisconnected(msg.ConnectionID)
	default:
		slog.Debug("Ignoring unknown session event", "event", msg.Metadata[websocket.MetaKeyEvent])
	}
	return nil
}

// handleConnected creates the session for a new connection. A resumed
// connection with a recovered room is put straight back into it.
func (s *Service) handleConnected(ctx context.Context, msg pubsub.Message) {
	username := msg.Metadata[websocket.MetaKeyUsername]
	if username == "" {
		username = "anonymous"
	}
	offset, err := strconv.ParseInt(msg.Metadata[websocket.MetaKeyOffset], 10, 64)
	if err != nil || offset < 0 {
		offset = 0
	}

	sess := &Session{
		ConnectionID: msg.ConnectionID,
		Username:     username,
		Resumed:      msg.Metadata[websocket.MetaKeyResumed] == "true",
		LastOffset:   offset,
	}

	s.mu.Lock()
	s.sessions[sess.ConnectionID] = sess
	s.mu.Unlock()

	slog.Info("Session connected", "connectionID", sess.ConnectionID,
		"username", sess.Username, "resumed", sess.Resumed)

	if room := msg.Metadata[websocket.MetaKeyRoom]; room != "" {
		s.joinRoom(ctx, sess, room)
	}
}

// handleJoinRoom switches the sender's current room and delivers catch-up.
func (s *Service) handleJoinRoom(ctx context.Context, msg pubsub.Message) {
	sess := s.session(msg.ConnectionID)
	if sess == nil {
		return
	}

	var payload joinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Debug("Discarding malformed join", "connectionID", msg.ConnectionID, "error", err)
		return
	}
	if err := s.validate.Struct(payload); err != nil {
		slog.Debug("Discarding join without a room", "connectionID", msg.ConnectionID)
		return
	}

	s.joinRoom(ctx, sess, payload.Room)
}

// joinRoom moves sess into room, implicitly leaving its previous room, then
// streams missed messages to this session only. Catch-up is skipped for
// resumed sessions: the transport's own recovery already replayed them, and
// querying again would deliver duplicates.
func (s *Service) joinRoom(ctx context.Context, sess *Session, room string) {
	s.mu.Lock()
	sess.CurrentRoom = room
	s.mu.Unlock()
	s.registry.Join(sess.ConnectionID, room)
	slog.Info("Session joined room", "connectionID", sess.ConnectionID,
		"username", sess.Username, "room", room)

	if sess.Resumed {
		return
	}

	missed, err := s.log.After(ctx, room, sess.LastOffset)
	if err != nil {
		// The client simply lacks history for this room until its next join
		// attempt; it stays fully functional for new messages.
		slog.Error("Catch-up query failed", "connectionID", sess.ConnectionID,
			"room", room, "error", err)
		return
	}

	for _, m := range missed {
		s.emitter.EmitTo(sess.ConnectionID, websocket.Event{
			Name:     websocket.EventChatMessage,
			ID:       strconv.FormatInt(m.ID, 10),
			Content:  m.Content,
			Username: m.Username,
			Room:     m.Room,
		})
	}
}

// handleChatMessage persists the message, then fans it out to the sender's
// room. Persist-then-broadcast: anything broadcast is already durable, so a
// crash in between loses only the live notification, never the data.
func (s *Service) handleChatMessage(ctx context.Context, msg pubsub.Message) {
	sess := s.session(msg.ConnectionID)
	if sess == nil {
		return
	}

	var payload messagePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Debug("Discarding malformed message", "connectionID", msg.ConnectionID, "error", err)
		return
	}
	if payload.Content == "" {
		// Spurious empty submission; not an error.
		return
	}

	id, err := s.log.Append(ctx, payload.Content, sess.Username, sess.CurrentRoom)
	if err != nil {
		// Neither broadcast nor acknowledged; the sender learns of its own
		// messages only through the broadcast.
		slog.Error("Message append failed", "connectionID", sess.ConnectionID,
			"room", sess.CurrentRoom, "error", err)
		return
	}

	s.emitter.EmitToRoom(sess.CurrentRoom, websocket.Event{
		Name:     websocket.EventChatMessage,
		ID:       strconv.FormatInt(id, 10),
		Content:  payload.Content,
		Username: sess.Username,
		Room:     sess.CurrentRoom,
	})
}

// handleDisconnected destroys the session and vacates its room. This runs
// even if the session never joined a room.
func (s *Service) handleDisconnected(connID string) {
	s.registry.Leave(connID)

	s.mu.Lock()
	delete(s.sessions, connID)
	s.mu.Unlock()

	slog.Info("Session disconnected", "connectionID", connID)
}

// session returns the live session for connID, or nil.
func (s *Service) session(connID string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[connID]
}

// SessionSnapshot returns a copy of the session for connID, if it exists.
func (s *Service) SessionSnapshot(connID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}
