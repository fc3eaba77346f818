package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
)

type contextKeyType string

const actorKey contextKeyType = "actor"

// TokenValidator validates a bearer token and returns its claims.
// auth.Manager.Validate satisfies it.
type TokenValidator func(token string) (*auth.Claims, error)

// Auth rejects requests without a valid bearer token and stores the acting
// user in the request context.
func Auth(validate TokenValidator, l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("missing authorization header"), l)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid authorization header format"), l)
				return
			}

			claims, err := validate(token)
			if err != nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid or expired token"), l)
				return
			}

			ctx := WithActor(r.Context(), auth.Actor{UserID: claims.UserID, Role: claims.Role})
			if logger.UserIDFromContext(ctx) != claims.UserID {
				ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", claims.UserID)))
				ctx = logger.WithUserID(ctx, claims.UserID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose role is not listed.
func RequireRole(l *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := roleSet[ActorFromContext(r.Context()).Role]; !ok {
				httputil.WriteError(w, r, apperrors.Forbidden("insufficient permissions"), l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithActor stores the acting user in ctx.
func WithActor(ctx context.Context, a auth.Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the acting user, or the zero Actor for anonymous requests.
func ActorFromContext(ctx context.Context) auth.Actor {
	a, _ := ctx.Value(actorKey).(auth.Actor)
	return a
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	return ActorFromContext(ctx).UserID
}

// RoleFromContext extracts the authenticated user role from the request context.
func RoleFromContext(ctx context.Context) string {
	return ActorFromContext(ctx).Role
}
