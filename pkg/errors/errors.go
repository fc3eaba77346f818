// Package errors is the HoppyHub error taxonomy. Services return sentinels
// or *AppError values; the HTTP layer renders them through HTTPStatus and
// the AppError code and message.
package errors

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternal      = errors.New("internal error")
	ErrConflict      = errors.New("conflict")
	ErrRemoteService = errors.New("remote service connection failed")
)

// statuses is checked in order; the first sentinel found in the chain wins.
var statuses = []struct {
	sentinel error
	status   int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadyExists, http.StatusConflict},
	{ErrConflict, http.StatusConflict},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrRemoteService, http.StatusBadGateway},
}

// AppError is an error with a stable code, a client-facing message and the
// HTTP status it renders as. Err is the sentinel (possibly wrapping a cause)
// it matches under errors.Is.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(code string, status int, err error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: err}
}

func NotFound(resource, id string) *AppError {
	return newError("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s with id %s not found", resource, id))
}

func AlreadyExists(resource, field, value string) *AppError {
	return newError("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

func InvalidInput(message string) *AppError {
	return newError("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

// Validation is a 400 carrying per-field messages. The message lists the
// fields in name order so it is stable across runs.
func Validation(fields map[string]string) *AppError {
	parts := make([]string, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, k+" "+fields[k])
	}
	e := newError("VALIDATION_FAILED", http.StatusBadRequest, ErrInvalidInput, strings.Join(parts, "; "))
	e.Fields = fields
	return e
}

func Unauthorized(message string) *AppError {
	return newError("UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return newError("FORBIDDEN", http.StatusForbidden, ErrForbidden, message)
}

// Conflict reports a request that clashes with work already in progress,
// such as a second reindex.
func Conflict(message string) *AppError {
	return newError("CONFLICT", http.StatusConflict, ErrConflict, message)
}

// RemoteServiceConnection is a 502 for a collaborator that could not be
// reached or failed (images service, message bus). cause stays reachable
// through errors.Is and errors.As.
func RemoteServiceConnection(service string, cause error) *AppError {
	err := ErrRemoteService
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrRemoteService, cause)
	}
	return newError("REMOTE_SERVICE_UNAVAILABLE", http.StatusBadGateway, err, service+" is unavailable")
}

// Internal hides err behind a generic 500 message.
func Internal(err error) *AppError {
	return newError("INTERNAL_ERROR", http.StatusInternalServerError, err, "an internal error occurred")
}

// HTTPStatus maps err to a response status. Unknown errors are 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, s := range statuses {
		if errors.Is(err, s.sentinel) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}
