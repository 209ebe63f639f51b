// Package httptransport assembles the HTTP surface from the module handlers.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"petidentity/internal/platform/metrics"
	"petidentity/internal/platform/middleware"
	"petidentity/pkg/platform/httputil"
)

// Module mounts routes that require an authenticated principal.
type Module interface {
	Register(r chi.Router)
}

// PublicModule additionally mounts unauthenticated routes.
type PublicModule interface {
	Module
	RegisterPublic(r chi.Router)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Tokens  middleware.PrincipalValidator
	Modules []Module
	// Health probes are reported by name on /healthz.
	Health map[string]HealthCheck
}

const healthTimeout = 2 * time.Second

func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger, cfg.Metrics))
	r.Use(middleware.Recover(cfg.Logger))

	r.Get("/healthz", healthHandler(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	for _, m := range cfg.Modules {
		if pm, ok := m.(PublicModule); ok {
			pm.RegisterPublic(r)
		}
	}
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.Tokens, cfg.Logger))
		for _, m := range cfg.Modules {
			m.Register(r)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		httputil.WriteJSON(w, status, map[string]any{"status": state, "dependencies": deps})
	}
}
