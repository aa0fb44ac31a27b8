package websocket

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Client represents a single connected WebSocket client.
type Client struct {
	// ID is the connection id assigned by the hub on accept.
	ID string
	// Username is the client-asserted display name from the handshake.
	Username string

	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	// sendMu guards closed and every send on the channel, so an emitter
	// racing the hub's drop can never write to a closed channel.
	sendMu sync.Mutex
	closed bool
}

// trySend performs a non-blocking send to the client's outbound channel.
// Sending to a client that has already been dropped is a no-op.
func (c *Client) trySend(frame []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}

	select {
	case c.send <- frame:
	default:
		// The client's send buffer is full. It is lagging badly; drop the
		// frame rather than stall the emitter.
		slog.Warn("Client send channel full, dropping frame", "connectionID", c.ID)
	}
}

// closeSend closes the outbound channel exactly once and marks the client so
// later trySend calls become no-ops.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump pumps frames from the WebSocket connection onto the hub's session
// event bus. It runs until the connection drops.
func (c *Client) readPump() {
	var closeErr error
	defer func() {
		c.hub.drop(c, closeErr)
		c.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
	}()

	for {
		_, frame, err := c.conn.Read(context.Background())
		if err != nil {
			closeErr = err
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || websocket.CloseStatus(err) == websocket.StatusGoingAway {
				slog.Info("WebSocket closed normally by client", "connectionID", c.ID)
			} else if err != io.EOF {
				slog.Error("WebSocket read error", "connectionID", c.ID, "error", err)
			}
			return
		}

		c.hub.inbound(c, frame)
	}
}

// writePump pumps frames from the client's send channel to the WebSocket
// connection.
func (c *Client) writePump() {
	defer func() {
		c.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")
	}()

	for {
		frame, ok := <-c.send
		if !ok {
			// The hub closed the channel.
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, frame)
		cancel()
		if err != nil {
			slog.Error("WebSocket write error", "connectionID", c.ID, "error", err)
			return
		}
	}
}
