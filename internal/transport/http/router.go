// Package http assembles the service's HTTP surface: middleware stack,
// public routes, and the authenticated API group.
package http

import (
	"context"
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"culturetrail/internal/platform/metrics"
	"culturetrail/internal/platform/middleware"
	"culturetrail/internal/transport/http/shared"
)

// requestTimeout bounds every API request end to end.
const requestTimeout = 10 * time.Second

// Registrar mounts a module's routes on a router group.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports one dependency's health.
type HealthChecker func(ctx context.Context) error

// Dependencies collects everything the router wires together. Nil registrars
// are skipped so tests can assemble partial routers.
type Dependencies struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TokenValidator middleware.TokenValidator

	Checkin     Registrar
	Progress    Registrar
	Favorites   Registrar
	Leaderboard Registrar
	Activity    Registrar

	// Health holds per-dependency probes, keyed by component name.
	Health map[string]HealthChecker
}

// NewRouter builds the full route tree.
func NewRouter(deps Dependencies) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", healthHandler(deps))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(requestTimeout))
		api.Use(middleware.ContentTypeJSON)

		// Public reads.
		register(api, deps.Leaderboard)
		register(api, deps.Activity)

		// Everything that touches a specific user requires a token.
		api.Group(func(authed chi.Router) {
			authed.Use(middleware.RequireAuth(deps.TokenValidator, deps.Logger))
			register(authed, deps.Checkin)
			register(authed, deps.Progress)
			register(authed, deps.Favorites)
		})
	})

	return r
}

func register(r chi.Router, registrar Registrar) {
	if registrar != nil {
		registrar.Register(r)
	}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func healthHandler(deps Dependencies) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := nethttp.StatusOK
		if len(deps.Health) > 0 {
			resp.Components = make(map[string]string, len(deps.Health))
			for name, check := range deps.Health {
				if err := check(ctx); err != nil {
					resp.Components[name] = err.Error()
					resp.Status = "degraded"
					status = nethttp.StatusServiceUnavailable
					continue
				}
				resp.Components[name] = "ok"
			}
		}
		shared.WriteJSON(w, status, resp)
	}
}
