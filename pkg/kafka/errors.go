package kafka

import (
	"context"
	"errors"
)

// permanentError marks a handler failure that retrying cannot fix, such as a
// payload referencing an entity this service will never know about.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return "permanent: " + e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the consumer skips the remaining retries and routes
// the message straight to the dead-letter queue. Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	if IsPermanent(err) {
		return err
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// PermanentWhen wraps h so that failures matching target (errors.Is) are
// marked Permanent. Other failures keep the normal retry path.
func PermanentWhen(target error, h Handler) Handler {
	return func(ctx context.Context, evt *Event) error {
		err := h(ctx, evt)
		if err != nil && errors.Is(err, target) {
			return Permanent(err)
		}
		return err
	}
}
