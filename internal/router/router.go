// Package router assembles the HTTP surface: the shared middleware chain, the
// public auth route, and the authenticated module handlers.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"convene/internal/platform/metrics"
	"convene/internal/platform/middleware"
	"convene/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs. Auth registers outside the
// authenticated group; everything in Handlers goes behind RequireAuth.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	JWT      middleware.JWTValidator
	Auth     Registrar
	Handlers []Registrar

	// Health reports backing-store readiness; nil means always ready.
	Health func(ctx context.Context) error
}

// New builds the chi router with the full middleware chain.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", healthz(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	deps.Auth.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.JWT, deps.Logger))
		r.Use(middleware.ContentTypeJSON)
		for _, h := range deps.Handlers {
			h.Register(r)
		}
	})

	return r
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
