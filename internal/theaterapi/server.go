package theaterapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stagehand/theater/internal/theaterconfig"
	"github.com/stagehand/theater/internal/theaterlog"
)

// Server manages the lifecycle of the theater API's HTTP listener.
type Server struct {
	cfg    theaterconfig.APIConfig
	server *http.Server
	router chi.Router
	log    theaterlog.Logger
}

// NewServer builds a Server bound to cfg.Host:cfg.Port, serving
// handlers through NewRouter.
func NewServer(cfg theaterconfig.APIConfig, log theaterlog.Logger, handlers *Handlers) *Server {
	router := NewRouter(cfg, log, handlers)
	return &Server{
		cfg: cfg,
		server: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler: router,
		},
		router: router,
		log:    log,
	}
}

// Start blocks serving HTTP until the listener is closed.
func (s *Server) Start() error {
	s.log.Info("starting theater api server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error("theater api server failed", "error", err)
		return fmt.Errorf("theaterapi: start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down theater api server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("theaterapi: shutdown: %w", err)
	}
	return nil
}
