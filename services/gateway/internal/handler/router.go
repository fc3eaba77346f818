package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TomWia9/HoppyHub-sub002/pkg/health"
	pkgmiddleware "github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
	gwmiddleware "github.com/TomWia9/HoppyHub-sub002/services/gateway/internal/middleware"
	"github.com/TomWia9/HoppyHub-sub002/services/gateway/internal/proxy"
)

// RouterConfig carries what NewRouter needs beyond the proxy itself.
type RouterConfig struct {
	Limiter             gwmiddleware.Limiter
	ValidateToken       pkgmiddleware.TokenValidator
	MetricsAllowedCIDRs []string
	CORSAllowedOrigins  []string
	PprofEnabled        bool
}

// NewRouter creates the public edge router. Every catalog path is forwarded
// to the service that owns it; authorization stays with the services.
func NewRouter(rc RouterConfig, sp *proxy.ServiceProxy, healthHandler *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(pkgmiddleware.CORS(pkgmiddleware.DefaultCORSConfig(rc.CORSAllowedOrigins...)))
	r.Use(gwmiddleware.RateLimit(rc.Limiter, logger))
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(pkgmiddleware.Tracing("gateway"))
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics("gateway"))
	r.Use(pkgmiddleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.With(pkgmiddleware.IPAllowlist(rc.MetricsAllowedCIDRs, logger)).Handle("/metrics", promhttp.Handler())
	if rc.PprofEnabled {
		pkgmiddleware.RegisterPprof(r, rc.MetricsAllowedCIDRs, logger)
	}

	beers := sp.Handler("beers")
	opinions := sp.Handler("opinions")
	favorites := sp.Handler("favorites")
	users := sp.Handler("users")
	search := sp.Handler("search")

	r.Handle("/files/*", sp.Handler("images"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(gwmiddleware.TokenCheck(rc.ValidateToken, logger))

		mountPrefix(r, "/breweries", beers)
		mountPrefix(r, "/beer-styles", beers)

		r.Handle("/beers", beers)
		r.Handle("/beers/{id}", beers)
		r.Handle("/beers/{id}/image", beers)
		r.Handle("/beers/{id}/opinions", opinions)
		r.Handle("/beers/{id}/favorite", favorites)

		mountPrefix(r, "/opinions", opinions)
		r.Handle("/favorites", favorites)
		mountPrefix(r, "/users", users)
		mountPrefix(r, "/search", search)
	})

	return r
}

func mountPrefix(r chi.Router, prefix string, h http.Handler) {
	r.Handle(prefix, h)
	r.Handle(prefix+"/*", h)
}
