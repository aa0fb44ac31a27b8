package server

import (
	"fmt"

	"github.com/roomrelay/relay/internal/handlers"
)

// RegisterRoutes sets up all application routes and boots every module.
func (s *Server) RegisterRoutes() error {
	homeHandler := handlers.NewHomeHandler(s.Cfg.StaticDir)
	s.E.GET("/", homeHandler.HomeGet)
	s.E.GET("/healthz", handlers.HealthGet)
	s.E.GET("/ws", s.Hub.Handler())

	for _, m := range s.modules {
		if err := m.Register(s.reg); err != nil {
			return fmt.Errorf("failed to register module %s: %w", m.Name(), err)
		}
	}

	api := s.E.Group("/api")
	for _, m := range s.modules {
		if err := m.Boot(s.ctx, api, s.reg); err != nil {
			return fmt.Errorf("failed to boot module %s: %w", m.Name(), err)
		}
	}

	return nil
}
