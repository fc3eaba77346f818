package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/TomWia9/HoppyHub-sub002/pkg/auth"
	"github.com/TomWia9/HoppyHub-sub002/pkg/command"
	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/health"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httputil"
	"github.com/TomWia9/HoppyHub-sub002/pkg/pagination"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/domain"
	"github.com/TomWia9/HoppyHub-sub002/services/users/internal/service"
)

const userID = "3e8d5c2a-1b4f-4a6e-8c9d-0f1e2d3c4b5a"

type mockQueries struct{ mock.Mock }

func (m *mockQueries) GetUser(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockQueries) ListUsers(ctx context.Context, p pagination.Params) ([]domain.User, int, error) {
	args := m.Called(ctx, p)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

type testEnv struct {
	router   http.Handler
	queries  *mockQueries
	commands *command.Dispatcher
	tokens   *auth.Manager
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		queries:  new(mockQueries),
		commands: command.NewDispatcher(command.Validation()),
		tokens:   auth.NewManager("test-secret", time.Hour),
	}
	h := NewHandler(env.commands, env.queries, newTestLogger())
	env.router = NewRouter(h, health.NewHandler(), env.tokens.Validate, newTestLogger())
	return env
}

func (e *testEnv) authorize(t *testing.T, req *http.Request, role string) *http.Request {
	t.Helper()
	tok, _, err := e.tokens.Issue(userID, "alice@hoppy.test", "alice", role)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestRegister_Created(t *testing.T) {
	env := newTestEnv(t)
	var got service.RegisterUser
	command.Register(env.commands, func(_ context.Context, cmd service.RegisterUser) (*domain.User, error) {
		got = cmd
		return &domain.User{ID: userID, Email: cmd.Email, Username: cmd.Username, Role: auth.RoleUser, PasswordHash: "secret-hash"}, nil
	})

	rec := env.do(jsonRequest(t, http.MethodPost, "/api/v1/users/register", map[string]any{
		"email": "alice@hoppy.test", "username": "alice", "password": "Hoppy123", "role": auth.RoleAdministrator,
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/v1/users/"+userID, rec.Header().Get("Location"))
	assert.Empty(t, got.Role, "self-registration ignores the requested role")
	assert.Equal(t, auth.Actor{}, got.Actor)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestRegister_ValidationFields(t *testing.T) {
	env := newTestEnv(t)
	command.Register(env.commands, func(context.Context, service.RegisterUser) (*domain.User, error) {
		t.Fatal("handler must not run for an invalid command")
		return nil, nil
	})

	rec := env.do(jsonRequest(t, http.MethodPost, "/api/v1/users/register", map[string]any{
		"email": "not-an-email", "username": "al", "password": "Hoppy123",
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeError(t, rec).Fields
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "username")
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	command.Register(env.commands, func(_ context.Context, cmd service.RegisterUser) (*domain.User, error) {
		return nil, apperrors.AlreadyExists("user", "email", cmd.Email)
	})

	rec := env.do(jsonRequest(t, http.MethodPost, "/api/v1/users/register", map[string]any{
		"email": "alice@hoppy.test", "username": "alice", "password": "Hoppy123",
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_WrongContentType(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", bytes.NewBufferString("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestCreateUser_AdministratorOnly(t *testing.T) {
	env := newTestEnv(t)
	var got service.RegisterUser
	command.Register(env.commands, func(_ context.Context, cmd service.RegisterUser) (*domain.User, error) {
		got = cmd
		return &domain.User{ID: userID, Role: cmd.Role}, nil
	})
	body := map[string]any{
		"email": "boss@hoppy.test", "username": "boss", "password": "Hoppy123", "role": auth.RoleAdministrator,
	}

	rec := env.do(env.authorize(t, jsonRequest(t, http.MethodPost, "/api/v1/users", body), auth.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(env.authorize(t, jsonRequest(t, http.MethodPost, "/api/v1/users", body), auth.RoleAdministrator))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, auth.RoleAdministrator, got.Role)
	assert.True(t, got.Actor.IsAdmin())
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	expires := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	command.Register(env.commands, func(_ context.Context, cmd service.Login) (*domain.Token, error) {
		if cmd.Password != "Hoppy123" {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return &domain.Token{AccessToken: "signed", TokenType: "Bearer", ExpiresAt: expires}, nil
	})

	rec := env.do(jsonRequest(t, http.MethodPost, "/api/v1/users/login",
		map[string]string{"email": "alice@hoppy.test", "password": "Hoppy123"}))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data domain.Token `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "signed", resp.Data.AccessToken)
	assert.Equal(t, expires, resp.Data.ExpiresAt)

	rec = env.do(jsonRequest(t, http.MethodPost, "/api/v1/users/login",
		map[string]string{"email": "alice@hoppy.test", "password": "nope"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.queries.On("ListUsers", mock.Anything, mock.MatchedBy(func(p pagination.Params) bool {
		return p.SortBy == domain.SortByUsername && p.Search == "ali"
	})).Return([]domain.User{{ID: userID, Username: "alice"}}, 1, nil)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/users?q=ali", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httputil.PaginatedResponse[domain.User]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1, resp.TotalCount)
	env.queries.AssertExpectations(t)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	env.queries.On("GetUser", mock.Anything, userID).Return(nil, apperrors.NotFound("user", userID))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/"+userID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/v1/users/42", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)
}

func TestUpdateUsername(t *testing.T) {
	env := newTestEnv(t)
	var got service.UpdateUsername
	command.Register(env.commands, func(_ context.Context, cmd service.UpdateUsername) (*domain.User, error) {
		got = cmd
		return &domain.User{ID: cmd.UserID, Username: cmd.Username}, nil
	})

	rec := env.do(jsonRequest(t, http.MethodPut, "/api/v1/users/"+userID+"/username", map[string]string{"username": "alice2"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := jsonRequest(t, http.MethodPut, "/api/v1/users/"+userID+"/username", map[string]string{"username": "alice2"})
	rec = env.do(env.authorize(t, req, auth.RoleUser))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, userID, got.Actor.UserID)
}

func TestChangePassword_NoContent(t *testing.T) {
	env := newTestEnv(t)
	command.Register(env.commands, func(_ context.Context, cmd service.ChangePassword) (struct{}, error) {
		assert.Equal(t, "Hoppy123", cmd.CurrentPassword)
		return struct{}{}, nil
	})

	req := jsonRequest(t, http.MethodPut, "/api/v1/users/"+userID+"/password",
		map[string]string{"current_password": "Hoppy123", "new_password": "Stout4567"})
	rec := env.do(env.authorize(t, req, auth.RoleUser))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	command.Register(env.commands, func(_ context.Context, cmd service.DeleteUser) (struct{}, error) {
		if cmd.Actor.UserID != cmd.UserID {
			return struct{}{}, apperrors.Forbidden("cannot delete another user's account")
		}
		return struct{}{}, nil
	})

	rec := env.do(env.authorize(t, httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+userID, nil), auth.RoleUser))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	other := "5e8f2a10-6c3b-4d77-8b1f-9c2d4e6f8a22"
	rec = env.do(env.authorize(t, httptest.NewRequest(http.MethodDelete, "/api/v1/users/"+other, nil), auth.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
