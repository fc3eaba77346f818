package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
		wantIs     error
		wantMsg    string
	}{
		{"not found", NotFound("beer", "42"), "NOT_FOUND", http.StatusNotFound, ErrNotFound, "beer with id 42 not found"},
		{"already exists", AlreadyExists("brewery", "name", "Pinta"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists, `brewery with name "Pinta" already exists`},
		{"invalid input", InvalidInput("bad page"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, "bad page"},
		{"unauthorized", Unauthorized("token expired"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, "token expired"},
		{"forbidden", Forbidden("not your opinion"), "FORBIDDEN", http.StatusForbidden, ErrForbidden, "not your opinion"},
		{"conflict", Conflict("opinion already exists"), "CONFLICT", http.StatusConflict, ErrConflict, "opinion already exists"},
		{"remote", RemoteServiceConnection("images", nil), "REMOTE_SERVICE_UNAVAILABLE", http.StatusBadGateway, ErrRemoteService, "images is unavailable"},
		{"internal", Internal(ErrInternal), "INTERNAL_ERROR", http.StatusInternalServerError, ErrInternal, "an internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.Equal(t, tt.wantMsg, tt.err.Message)
			assert.ErrorIs(t, tt.err, tt.wantIs)
			assert.Equal(t, tt.wantStatus, HTTPStatus(fmt.Errorf("handler: %w", tt.err)))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: beer with id 1 not found: resource not found", NotFound("beer", "1").Error())
	assert.Equal(t, "X: msg", (&AppError{Code: "X", Message: "msg"}).Error())
	assert.Nil(t, (&AppError{Code: "X"}).Unwrap())
}

func TestValidation(t *testing.T) {
	err := Validation(map[string]string{"name": "is required", "abv": "must be at most 100"})

	assert.Equal(t, "VALIDATION_FAILED", err.Code)
	assert.Equal(t, "abv must be at most 100; name is required", err.Message)
	assert.Equal(t, "is required", err.Fields["name"])
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoteServiceConnection_KeepsCause(t *testing.T) {
	type timeout struct{ error }
	cause := timeout{errors.New("dial tcp: i/o timeout")}
	err := RemoteServiceConnection("images", cause)

	assert.ErrorIs(t, err, ErrRemoteService)
	var got timeout
	require.ErrorAs(t, err, &got)
	assert.Contains(t, err.Error(), "i/o timeout")
}

func TestHTTPStatus_Sentinels(t *testing.T) {
	tests := map[error]int{
		ErrNotFound:                  http.StatusNotFound,
		ErrAlreadyExists:             http.StatusConflict,
		ErrConflict:                  http.StatusConflict,
		ErrInvalidInput:              http.StatusBadRequest,
		ErrUnauthorized:              http.StatusUnauthorized,
		ErrForbidden:                 http.StatusForbidden,
		ErrRemoteService:             http.StatusBadGateway,
		ErrInternal:                  http.StatusInternalServerError,
		errors.New("something else"): http.StatusInternalServerError,
	}
	for err, want := range tests {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
		assert.Equal(t, want, HTTPStatus(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

func TestHTTPStatus_AppErrorStatusWins(t *testing.T) {
	err := &AppError{Code: "RATE_LIMITED", Status: http.StatusTooManyRequests, Err: ErrInvalidInput}
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(err))
}

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized, ErrForbidden, ErrInternal, ErrConflict, ErrRemoteService}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.NotErrorIs(t, a, b)
			}
		}
	}
}
