package websocket

import "encoding/json"

// TopicSessionEvents is the pub/sub topic carrying every inbound session
// event (connect, join, chat, disconnect). All events share one topic so a
// single subscriber observes them in the order the transport produced them.
const TopicSessionEvents = "session.events"

// Event names exchanged with clients and carried on the session event bus.
const (
	// EventSession is sent to a client once on connect with its assigned
	// connection id and whether the connection was resumed.
	EventSession = "session"
	// EventJoinRoom switches the sender's current room.
	EventJoinRoom = "join room"
	// EventChatMessage carries a chat message, inbound (content only) or
	// outbound (content, id, username, room).
	EventChatMessage = "chat message"
	// EventConnected and EventDisconnected are lifecycle events that exist
	// only on the bus, never on the wire.
	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// Metadata keys attached to session bus messages.
const (
	MetaKeyEvent    = "event"
	MetaKeyUsername = "username"
	MetaKeyOffset   = "offset"
	MetaKeyResumed  = "resumed"
	MetaKeyRoom     = "room"
)

// Event is a single JSON frame exchanged with a client.
type Event struct {
	Name         string `json:"event"`
	Room         string `json:"room,omitempty"`
	Content      string `json:"content,omitempty"`
	ID           string `json:"id,omitempty"`
	Username     string `json:"username,omitempty"`
	ConnectionID string `json:"connectionId,omitempty"`
	Resumed      bool   `json:"resumed,omitempty"`
}

// Encode serializes an event to its wire form.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode parses a wire frame into an Event.
func Decode(frame []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(frame, &ev)
	return ev, err
}
