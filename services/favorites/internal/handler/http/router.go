package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TomWia9/HoppyHub-sub002/pkg/health"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
)

// NewRouter creates a chi router with all favorites service routes registered.
func NewRouter(
	h *Handler,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("favorites"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("favorites"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/favorites", h.ListFavorites)
		r.Get("/beers/{id}", h.GetBeer)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken, logger))
			r.Post("/beers/{id}/favorite", h.AddFavorite)
			r.Delete("/beers/{id}/favorite", h.RemoveFavorite)
		})
	})

	return r
}
