package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/health"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
)

// NewRouter creates a chi router with all search service routes registered.
func NewRouter(
	h *Handler,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("search"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("search"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/beers", h.SearchBeers)
		r.Get("/beers/suggest", h.SuggestBeers)
		r.Get("/beers/{id}", h.GetBeer)

		r.With(
			middleware.Auth(validateToken, logger),
			middleware.RequireRole(logger, auth.RoleAdministrator),
		).Post("/reindex", h.Reindex)
	})

	return r
}
