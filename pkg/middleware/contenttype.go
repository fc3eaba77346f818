package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
)

// ContentType rejects requests whose body is declared with a media type
// outside allowed, answering 415. Requests without a Content-Type pass.
func ContentType(l *slog.Logger, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ct := r.Header.Get("Content-Type")
			if ct == "" || !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}
			for _, a := range allowed {
				if strings.HasPrefix(ct, a) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.WriteError(w, r, &apperrors.AppError{
				Code:    "UNSUPPORTED_MEDIA_TYPE",
				Message: "Content-Type must be one of: " + strings.Join(allowed, ", "),
				Status:  http.StatusUnsupportedMediaType,
				Err:     apperrors.ErrInvalidInput,
			}, l)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return r.ContentLength > 0
}
