package websocket

import (
	"log/slog"
	"strconv"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler returns an echo.HandlerFunc that upgrades requests to WebSocket
// connections.
//
// Handshake metadata travels as query parameters: "username" (self-asserted
// display name, defaults to "anonymous"), "offset" (highest message id the
// client claims to already have), and "session" (a previous connection id to
// resume). All three are client-trusted.
func (h *Hub) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		username := c.QueryParam("username")
		if username == "" {
			username = "anonymous"
		}

		offset, err := strconv.ParseInt(c.QueryParam("offset"), 10, 64)
		if err != nil || offset < 0 {
			offset = 0
		}

		resumeToken := c.QueryParam("session")

		conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true, // In production, check origin.
		})
		if err != nil {
			slog.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}

		client := &Client{
			ID:       uuid.NewString(),
			Username: username,
			conn:     conn,
			send:     make(chan []byte, 256),
			hub:      h,
		}

		h.add(client)
		go client.writePump()

		// The session event goes out first so the client learns its resume
		// token before any replayed or catch-up frames arrive. On resume the
		// hub queues it ahead of the replayed frames itself.
		recoveredRoom, resumed := h.resume(client, resumeToken)
		if !resumed {
			h.EmitTo(client.ID, Event{
				Name:         EventSession,
				ConnectionID: client.ID,
			})
		}

		// Publish the lifecycle event before the read loop starts so the
		// session exists downstream by the time the first client frame is
		// processed.
		h.publish(client.ID, EventConnected, nil, map[string]string{
			MetaKeyUsername: username,
			MetaKeyOffset:   strconv.FormatInt(offset, 10),
			MetaKeyResumed:  strconv.FormatBool(resumed),
			MetaKeyRoom:     recoveredRoom,
		})

		go client.readPump()

		return nil
	}
}
