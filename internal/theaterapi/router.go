// Package theaterapi exposes a running theater over HTTP: casting
// agents, playing gigs, polling their fate, and streaming scheduler
// events over a websocket.
package theaterapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stagehand/theater/internal/theaterapi/middleware"
	"github.com/stagehand/theater/internal/theaterconfig"
	"github.com/stagehand/theater/internal/theaterlog"
	"github.com/stagehand/theater/internal/theatermetrics"
)

const (
	defaultRequestsPerSecond = 50
	defaultBurst             = 100
)

// Handlers bundles every handler NewRouter wires in.
type Handlers struct {
	Theater *TheaterHandler
	Events  *EventsHandler
	Metrics *theatermetrics.Manager
}

// NewRouter builds a chi.Router serving the theater API under the
// given config, logging and recovering through log, and recording
// request metrics against handlers.Metrics when present.
func NewRouter(cfg theaterconfig.APIConfig, log theaterlog.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RateLimit(defaultRequestsPerSecond, defaultBurst))
	if handlers.Metrics != nil && handlers.Metrics.Enabled() {
		r.Use(middleware.Metrics(handlers.Metrics))
	}

	r.Get("/health", handlers.Theater.Health)
	r.Get("/status", handlers.Theater.Status)

	if handlers.Metrics != nil {
		r.Handle("/metrics", handlers.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/agents", handlers.Theater.Cast)
		r.Get("/agents/{id}", handlers.Theater.GetAgent)
		r.Post("/agents/{id}/gigs", handlers.Theater.Play)
		r.Get("/gigs/{id}", handlers.Theater.GetGig)
	})

	if handlers.Events != nil {
		r.Get("/ws/events", func(w http.ResponseWriter, r *http.Request) { handlers.Events.ServeHTTP(w, r) })
	}

	return r
}
