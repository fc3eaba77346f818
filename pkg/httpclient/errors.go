package httpclient

import (
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

const maxResponseError = 1 << 20

// errorEnvelope is the error half of the response envelope every HoppyHub
// service writes.
type errorEnvelope struct {
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response from service
// and translates it into an AppError. Enveloped errors keep the downstream
// code and message; anything else is reported with its raw body.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseError))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	if jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &env) == nil && env.Error != nil {
		return fromDownstream(service, resp.StatusCode, env.Error.Code, env.Error.Message, env.Error.Fields)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return apperrors.RemoteServiceConnection(service, fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, body)
}

func fromDownstream(service string, status int, code, message string, fields map[string]string) error {
	qualified := service + ": " + message

	switch status {
	case http.StatusNotFound:
		return apperrors.NotFound(service, message)
	case http.StatusBadRequest:
		if len(fields) > 0 {
			return apperrors.Validation(fields)
		}
		return apperrors.InvalidInput(qualified)
	case http.StatusConflict:
		return apperrors.Conflict(qualified)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(qualified)
	case http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	}
	if status >= http.StatusInternalServerError {
		return apperrors.RemoteServiceConnection(service, fmt.Errorf("status %d/%s: %s", status, code, message))
	}
	return &apperrors.AppError{Code: code, Message: qualified, Status: status}
}
