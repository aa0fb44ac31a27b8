package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/roomrelay/relay/internal/chat"
	"github.com/roomrelay/relay/internal/config"
	"github.com/roomrelay/relay/internal/logging"
	appmiddleware "github.com/roomrelay/relay/internal/middleware"
	"github.com/roomrelay/relay/internal/module"
	"github.com/roomrelay/relay/internal/pubsub"
	"github.com/roomrelay/relay/internal/registry"
	"github.com/roomrelay/relay/internal/rooms"
	"github.com/roomrelay/relay/internal/store"
	"github.com/roomrelay/relay/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E      *echo.Echo
	Cfg    *config.Config
	Store  *store.Store
	PubSub *pubsub.WatermillBridge
	Hub    *websocket.Hub
	Rooms  *rooms.Registry

	reg     *registry.Registry
	modules []module.Module

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new Server instance with all dependencies wired.
func New() (*Server, error) {
	logging.New()

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open message store: %w", err)
	}

	bus := pubsub.NewWatermillBridge()
	roomRegistry := rooms.NewRegistry()
	hub := websocket.NewHub(bus, roomRegistry, cfg.RecoveryWindow)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(appmiddleware.Logger)
	e.Static("/static", cfg.StaticDir)

	chatModule := chat.New(chat.Dependencies{
		Log:        st,
		Registry:   roomRegistry,
		Emitter:    hub,
		Subscriber: bus,
	})

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		E:       e,
		Cfg:     cfg,
		Store:   st,
		PubSub:  bus,
		Hub:     hub,
		Rooms:   roomRegistry,
		reg:     registry.New(cfg),
		modules: []module.Module{chatModule},
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}
