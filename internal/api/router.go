package api

import (
	"commute-service/internal/api/handlers"
	"commute-service/internal/platform/metrics"
	"commute-service/internal/ports"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Dependencies of the HTTP surface. Schedules and Metrics are optional.
type Deps struct {
	Commute      handlers.CommuteComputer
	Schedules    handlers.ScheduleSource
	Routes       ports.RouteRepository
	BatchTimeout time.Duration

	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware(d.Logger))
	r.Use(accessLogMiddleware(d.Metrics))
	r.Use(recoverMiddleware)

	commute := &handlers.CommuteHandler{Service: d.Commute, BatchTimeout: d.BatchTimeout}
	routes := &handlers.RoutesHandler{Repo: d.Routes}

	r.Get("/health", handlers.Health)
	r.Get("/commute", commute.Get)
	r.Get("/routes", routes.List)

	if d.Schedules != nil {
		schedules := &handlers.BusScheduleHandler{Source: d.Schedules}
		r.Get("/bus-schedule", schedules.Get)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	return r
}
