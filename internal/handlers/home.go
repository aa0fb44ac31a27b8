package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

// HomeHandler serves the chat page.
type HomeHandler struct {
	staticDir string
}

// NewHomeHandler creates a new home handler.
func NewHomeHandler(staticDir string) *HomeHandler {
	return &HomeHandler{staticDir: staticDir}
}

// HomeGet serves the static chat page.
func (h *HomeHandler) HomeGet(c echo.Context) error {
	return c.File(filepath.Join(h.staticDir, "index.html"))
}

// HealthGet reports process liveness.
func HealthGet(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
