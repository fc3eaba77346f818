package middleware

import (
	"log/slog"
	"net/http"

	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
)

// gatewayUserHeader carries the caller's id on requests the gateway proxied.
const gatewayUserHeader = "X-User-ID"

// RequestLogger stores a logger carrying correlation, user and trace fields
// in the request context for logger.FromContext. Mount it after Tracing and
// RequestLogging; Auth adds user_id later for routes that validate tokens
// themselves.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := r.Header.Get(gatewayUserHeader); id != "" && UserIDFromContext(ctx) == "" {
				ctx = logger.WithUserID(ctx, id)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
