package proxy

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	pkghttputil "github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
)

const correlationHeader = "X-Correlation-ID"

// Options tune the shared upstream transport.
type Options struct {
	DialTimeout     time.Duration
	ResponseTimeout time.Duration
	MaxIdleConns    int
}

// ServiceProxy manages reverse proxies to the backend services.
type ServiceProxy struct {
	routes map[string]*httputil.ReverseProxy
	logger *slog.Logger
}

// NewServiceProxy creates a reverse proxy for each named upstream base URL.
func NewServiceProxy(upstreams map[string]string, opts Options, l *slog.Logger) (*ServiceProxy, error) {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          opts.MaxIdleConns,
		MaxIdleConnsPerHost:   opts.MaxIdleConns,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: opts.ResponseTimeout,
	}

	sp := &ServiceProxy{routes: make(map[string]*httputil.ReverseProxy, len(upstreams)), logger: l}
	for name, raw := range upstreams {
		target, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s service URL: %w", name, err)
		}
		sp.routes[name] = &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.SetXForwarded()
				if id := logger.CorrelationIDFromContext(pr.In.Context()); id != "" {
					pr.Out.Header.Set(correlationHeader, id)
				}
				otel.GetTextMapPropagator().Inject(pr.Out.Context(), propagation.HeaderCarrier(pr.Out.Header))
			},
			Transport:    transport,
			ErrorHandler: sp.errorHandler(name),
		}
		l.Info("registered service proxy", slog.String("service", name), slog.String("target", raw))
	}
	return sp, nil
}

// Handler returns the proxy for serviceName. Unknown names answer 502.
func (sp *ServiceProxy) Handler(serviceName string) http.Handler {
	proxy, ok := sp.routes[serviceName]
	if !ok {
		sp.logger.Error("no proxy registered for service", slog.String("service", serviceName))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pkghttputil.WriteError(w, r, apperrors.RemoteServiceConnection(serviceName, nil), sp.logger)
		})
	}
	return proxy
}

// Services lists the registered upstream names.
func (sp *ServiceProxy) Services() []string {
	names := make([]string, 0, len(sp.routes))
	for name := range sp.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (sp *ServiceProxy) errorHandler(serviceName string) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		sp.logger.ErrorContext(r.Context(), "proxy error",
			slog.String("service", serviceName),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		pkghttputil.WriteError(w, r, apperrors.RemoteServiceConnection(serviceName, err), sp.logger)
	}
}
