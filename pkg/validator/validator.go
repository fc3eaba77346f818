// Package validator decodes JSON request bodies and checks them against
// go-playground/validator tags, reporting failures per JSON field name.
package validator

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	apperrors "github.com/TomWia9/HoppyHub-sub002/pkg/errors"
)

var (
	validate = newValidate()
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
)

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks s against its validate tags. Tag failures come back as
// *ValidationError; anything else (a non-struct argument) unchanged.
func Validate(s any) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Errors: fieldErrs}
	}
	return err
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", fe.Field(), message(fe)))
	}
	return strings.Join(msgs, "; ")
}

// Fields maps JSON field names to human-readable messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, fe := range e.Errors {
		fields[fe.Field()] = message(fe)
	}
	return fields
}

// AsAppError turns a *ValidationError into the 400 apperrors.Validation
// error. Other errors pass through.
func AsAppError(err error) error {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return apperrors.Validation(valErr.Fields())
	}
	return err
}

var fixedMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"uuid":     "must be a valid UUID",
	"uuid4":    "must be a valid UUID",
	"url":      "must be a valid URL",
	"uri":      "must be a valid URL",
}

func message(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param() + unit
	case "max":
		return "must be at most " + fe.Param() + unit
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return fmt.Sprintf("failed on '%s' validation", fe.Tag())
}

// Decode reads one JSON value from the request body into dst without
// validating it, so handlers can fill path parameters in first. An empty
// body or trailing data after the value is invalid input.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.InvalidInput("decode request body: body is empty")
		}
		return apperrors.InvalidInput(fmt.Sprintf("decode request body: %v", err))
	}
	if dec.More() {
		return apperrors.InvalidInput("decode request body: unexpected data after JSON value")
	}
	return nil
}
