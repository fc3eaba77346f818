package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TomWia9/HoppyHub-sub002/pkg/health"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
)

// NewRouter creates a chi router with all opinions service routes registered.
// Reads are public; writing needs any valid token.
func NewRouter(
	h *Handler,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("opinions"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("opinions"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType(logger, "application/json", "multipart/form-data"))

		r.Get("/beers/{id}", h.GetBeer)
		r.Get("/beers/{id}/opinions", h.ListBeerOpinions)

		r.Route("/opinions", func(r chi.Router) {
			r.Get("/", h.ListOpinions)
			r.Get("/{id}", h.GetOpinion)
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(validateToken, logger))
				r.Post("/", h.CreateOpinion)
				r.Put("/{id}", h.UpdateOpinion)
				r.Delete("/{id}", h.DeleteOpinion)
				r.Delete("/{id}/image", h.DeleteOpinionImage)
			})
		})
	})

	return r
}
