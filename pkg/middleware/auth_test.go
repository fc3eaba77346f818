package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error.Code
}

func TestAuth_ValidTokenStoresActor(t *testing.T) {
	mgr := auth.NewManager("secret", time.Hour)
	token, _, err := mgr.Issue("user-1", "ann@hoppyhub.io", "ann", auth.RoleAdministrator)
	require.NoError(t, err)

	var got auth.Actor
	var userID string
	h := Auth(mgr.Validate, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ActorFromContext(r.Context())
		userID = logger.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/beers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, auth.Actor{UserID: "user-1", Role: auth.RoleAdministrator}, got)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "user-1", UserIDFromContext(WithActor(req.Context(), got)))
}

func TestAuth_Rejections(t *testing.T) {
	failing := func(string) (*auth.Claims, error) { return nil, errors.New("bad") }

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no scheme", "token-only"},
		{"wrong scheme", "Basic abc"},
		{"invalid token", "Bearer abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := Auth(failing, discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(discardLogger(), auth.RoleAdministrator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), auth.Actor{UserID: "u", Role: auth.RoleUser})))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithActor(req.Context(), auth.Actor{UserID: "a", Role: auth.RoleAdministrator})))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActorFromContext_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, auth.Actor{}, ActorFromContext(req.Context()))
	assert.Empty(t, RoleFromContext(req.Context()))
}
