package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
	pkgmiddleware "github.com/TomWia9/HoppyHub-sub002/pkg/middleware"
)

// Headers the gateway sets on proxied requests. Values sent by clients are
// always dropped.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// TokenCheck rejects requests carrying an invalid or expired bearer token
// before they reach a backend. Requests without a token pass through; each
// service decides which of its routes need one.
func TokenCheck(validate pkgmiddleware.TokenValidator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(HeaderUserID)
			r.Header.Del(HeaderUserRole)

			header := r.Header.Get("Authorization")
			if header == "" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid authorization header format"), l)
				return
			}

			claims, err := validate(token)
			if err != nil {
				l.WarnContext(r.Context(), "invalid bearer token",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), l)
				return
			}

			r.Header.Set(HeaderUserID, claims.UserID)
			r.Header.Set(HeaderUserRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(logger.WithUserID(r.Context(), claims.UserID)))
		})
	}
}
