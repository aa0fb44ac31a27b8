package chat

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/roomrelay/relay/internal/module"
	"github.com/roomrelay/relay/internal/registry"
)

// ServiceKey is the registry key other modules use to look up the chat service.
const ServiceKey registry.Key[*Service] = "chat.service"

// Module wires the chat feature into the application: the session event
// subscriber and the room history route.
type Module struct {
	module.BaseModule
	service *Service
	handler *Handler
}

// New creates a new chat Module, injecting its dependencies.
func New(deps Dependencies) *Module {
	return &Module{
		service: NewService(deps),
		handler: NewHandler(deps.Log),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// Register publishes the chat service in the shared registry.
func (m *Module) Register(reg *registry.Registry) error {
	registry.Set(reg, ServiceKey, m.service)
	return nil
}

// Boot starts the session event subscriber and registers HTTP routes.
func (m *Module) Boot(ctx context.Context, g *echo.Group, reg *registry.Registry) error {
	slog.Info("Booting chat module")

	if err := m.service.Start(ctx); err != nil {
		return err
	}

	g.GET("/rooms/:room/messages", m.handler.MessagesGet)

	return nil
}

// Shutdown is called on application termination.
func (m *Module) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down chat module")
	return nil
}

// Service exposes the underlying chat service, useful for testing.
func (m *Module) Service() *Service {
	return m.service
}
