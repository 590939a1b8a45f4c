// Package http assembles the service router: middleware, module handlers,
// health, and metrics.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	decisionhandler "restgate/internal/decision/handler"
	policyhandler "restgate/internal/policy/handler"
	"restgate/pkg/platform/middleware/auth"
	"restgate/pkg/platform/middleware/requestid"
)

// NewRouter mounts all endpoints. Everything under the authenticated group
// requires a bearer token; health and metrics stay open for probes and
// scrapers.
func NewRouter(
	policyHandler *policyhandler.Handler,
	decisionHandler *decisionhandler.Handler,
	validator auth.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, logger))
		policyHandler.Register(r)
		decisionHandler.Register(r)
	})

	return r
}
