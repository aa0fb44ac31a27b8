package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
// It is intentionally simple to act as a wrapper for raw data.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "session.events").
	Topic string
	// ConnectionID identifies the connection the message originated from.
	ConnectionID string
	// Payload contains the raw message data (e.g., an encoded wire event).
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context (e.g., event names).
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the Pub/Sub system.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the Pub/Sub system.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages with
	// the handler. Messages on one topic are handed to the handler one at a
	// time, in publish order.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
