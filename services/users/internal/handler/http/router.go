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

// NewRouter creates a chi router with all users service routes registered.
func NewRouter(
	h *Handler,
	healthHandler *health.Handler,
	validateToken middleware.TokenValidator,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing("users"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("users"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(middleware.ContentType(logger, "application/json"))

		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/", h.ListUsers)
		r.Get("/{id}", h.GetUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken, logger))
			r.Put("/{id}/username", h.UpdateUsername)
			r.Put("/{id}/password", h.ChangePassword)
			r.Delete("/{id}", h.DeleteUser)
			r.With(middleware.RequireRole(logger, auth.RoleAdministrator)).Post("/", h.CreateUser)
		})
	})

	return r
}
