package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
	"github.com/TomWia9/HoppyHub-sub002/pkg/logger"
	"github.com/TomWia9/HoppyHub-sub002/pkg/validator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Response is the envelope every HoppyHub endpoint answers with: Data on
// success, Error otherwise.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse represents an error in the standard response format.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with status. Once the header is out an encode
// failure cannot be reported, so it is dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sentinelErrors renders bare sentinels that reach WriteError without an
// AppError around them. Order matters for errors wrapping several.
var sentinelErrors = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
	{apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", "resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, "CONFLICT", "conflict"},
	{apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", ""},
	{apperrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "forbidden"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"},
	{apperrors.ErrRemoteService, http.StatusBadGateway, "REMOTE_SERVICE_UNAVAILABLE", "a dependent service is unavailable"},
}

// WriteError renders err in the standard envelope. AppErrors keep their
// code, message and field errors; validator errors become field errors;
// bare sentinels use sentinelErrors and anything else is a 500. Server
// errors are logged with the request-scoped logger when RequestLogger
// installed one, otherwise with fallback.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	body := &ErrorResponse{
		Code:      "INTERNAL_ERROR",
		Message:   "an internal error occurred",
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}
	status := http.StatusInternalServerError

	var appErr *apperrors.AppError
	if errors.As(validator.AsAppError(err), &appErr) {
		status, body.Code, body.Message, body.Fields = appErr.Status, appErr.Code, appErr.Message, appErr.Fields
	} else {
		for _, s := range sentinelErrors {
			if !errors.Is(err, s.err) {
				continue
			}
			status, body.Code, body.Message = s.status, s.code, s.message
			if body.Message == "" {
				body.Message = err.Error()
			}
			break
		}
	}

	if status >= http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.Int("status", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}
	WriteJSON(w, status, Response{Error: body})
}

// PaginatedResponse is a generic paginated list response envelope.
type PaginatedResponse[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// NewPaginatedResponse wraps one page of results. A nil page encodes as an
// empty list.
func NewPaginatedResponse[T any](data []T, totalCount, page, perPage int) PaginatedResponse[T] {
	totalPages := (totalCount + perPage - 1) / perPage
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// ParseUUID parses a path parameter. On failure it writes a 400
// INVALID_PARAMETER response and returns false so the handler can return.
func ParseUUID(w http.ResponseWriter, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{
			Error: &ErrorResponse{
				Code:    "INVALID_PARAMETER",
				Message: "invalid UUID: " + param,
			},
		})
		return uuid.Nil, false
	}
	return id, true
}
