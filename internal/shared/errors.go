package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// API and service errors
	ErrServerRejected = fmt.Errorf("server rejected request")
	ErrTransport      = fmt.Errorf("request failed")

	// Client-side validation errors
	ErrNothingSelected = fmt.Errorf("no tasks selected")
	ErrNoEligibleTasks = fmt.Errorf("no eligible tasks in selection")
	ErrNoValidTasks    = fmt.Errorf("no valid task data")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// APIError is a failure reported by the task server inside a well-formed envelope.
//
// It wraps [ErrServerRejected]; Msg is shown to the operator verbatim.
type APIError struct {
	Method string
	Path   string
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %v: %s (code %d)", e.Method, e.Path, ErrServerRejected, e.Msg, e.Code)
}

func (e *APIError) Unwrap() error { return ErrServerRejected }

// ServerMessage returns the message a server attached to err, if err wraps an [*APIError].
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Msg, true
	}
	return "", false
}
