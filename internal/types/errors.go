package types

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidInputError reports a missing file, a non-positive duration or any
// other input the media pipeline cannot start from.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func Invalid(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// BackendError wraps a decode/encode/probe failure surfaced by the media
// backend. Output holds whatever the backend printed, if anything.
type BackendError struct {
	Op     string
	Err    error
	Output string
}

func (e *BackendError) Error() string {
	msg := e.Op
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Err }

func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}

func IsBackend(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
