package chat

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/roomrelay/relay/internal/middleware"
	"github.com/roomrelay/relay/internal/store"
)

// Handler holds dependencies for the chat module's HTTP handlers.
type Handler struct {
	log MessageLog
}

// NewHandler creates a new chat handler with its dependencies.
func NewHandler(log MessageLog) *Handler {
	return &Handler{log: log}
}

// MessagesGet returns the messages of a room with an id greater than the
// optional "after" query parameter, oldest first.
func (h *Handler) MessagesGet(c echo.Context) error {
	room := c.Param("room")

	after, err := strconv.ParseInt(c.QueryParam("after"), 10, 64)
	if err != nil || after < 0 {
		after = 0
	}

	messages, err := h.log.After(c.Request().Context(), room, after)
	if err != nil {
		middleware.FromContext(c.Request().Context()).Error("History query failed", "room", room, "error", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	if messages == nil {
		messages = []store.Message{}
	}
	return c.JSON(http.StatusOK, messages)
}
