package chat

// Session is the chat-level state of one live connection. Sessions are
// created on connect, mutated only by the Service in response to session
// events, and destroyed on disconnect.
type Session struct {
	// ConnectionID is the opaque id assigned by the transport.
	ConnectionID string
	// Username is the client-asserted display name. Never verified.
	Username string
	// CurrentRoom is the room this session is joined to; empty until the
	// first join.
	CurrentRoom string
	// Resumed is true when the transport recognized this connection as a
	// recovered continuation of a dropped one. Resumed sessions skip
	// catch-up: transport-level replay already delivered what they missed.
	Resumed bool
	// LastOffset is the highest message id the client claims to already
	// have. Client-trusted.
	LastOffset int64
}
