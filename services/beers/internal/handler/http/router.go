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

// NewRouter creates a chi router with all beers service routes registered.
// Reads are public; every mutation needs an administrator token.
func NewRouter(
	h *Handler,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("beers"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("beers"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	admin := func(r chi.Router) {
		r.Use(middleware.Auth(validateToken, logger))
		r.Use(middleware.RequireRole(logger, auth.RoleAdministrator))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType(logger, "application/json", "multipart/form-data"))

		r.Route("/breweries", func(r chi.Router) {
			r.Get("/", h.ListBreweries)
			r.Get("/{id}", h.GetBrewery)
			r.Group(func(r chi.Router) {
				admin(r)
				r.Post("/", h.CreateBrewery)
				r.Put("/{id}", h.UpdateBrewery)
				r.Delete("/{id}", h.DeleteBrewery)
			})
		})

		r.Route("/beer-styles", func(r chi.Router) {
			r.Get("/", h.ListBeerStyles)
			r.Get("/{id}", h.GetBeerStyle)
			r.Group(func(r chi.Router) {
				admin(r)
				r.Post("/", h.CreateBeerStyle)
				r.Delete("/{id}", h.DeleteBeerStyle)
			})
		})

		r.Route("/beers", func(r chi.Router) {
			r.Get("/", h.ListBeers)
			r.Get("/{id}", h.GetBeer)
			r.Group(func(r chi.Router) {
				admin(r)
				r.Post("/", h.CreateBeer)
				r.Put("/{id}", h.UpdateBeer)
				r.Delete("/{id}", h.DeleteBeer)
				r.Put("/{id}/image", h.UpsertBeerImage)
				r.Delete("/{id}/image", h.DeleteBeerImage)
			})
		})
	})

	return r
}
