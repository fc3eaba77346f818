package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TomWia9/HoppyHub-sub002/pkg/health"
	"github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
)

// Replacing an image keeps its path, so files are only cached briefly.
const fileCacheSeconds = 300

// NewRouter creates a chi router with all images service routes registered.
// The API is called service-to-service; files are public.
func NewRouter(h *Handler, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("images"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("images"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.With(middleware.CacheControl(fileCacheSeconds)).Get("/files/*", h.ServeFile)

	r.Route("/api/v1/images", func(r chi.Router) {
		r.Use(middleware.ContentType(logger, "application/json", "multipart/form-data"))

		r.Post("/", h.UploadImage)
		r.Get("/", h.GetImage)
		r.Delete("/", h.DeleteImage)
		r.Post("/delete-paths", h.DeletePaths)
	})

	return r
}
