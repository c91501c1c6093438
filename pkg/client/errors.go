package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrPrecondition means the guard refused an action locally. No request
	// was sent.
	ErrPrecondition = errors.New("action not allowed in current task state")
	// ErrCancelled means the user declined a confirmation.
	ErrCancelled = errors.New("action cancelled")
	// ErrAlreadyClaimed means another helper won the claim race.
	ErrAlreadyClaimed = errors.New("task has already been claimed")
	// ErrStale means the task changed between the read and the write.
	ErrStale = errors.New("task changed since it was read")
	// ErrRejected means the server refused the action in the task's current
	// state. Nothing changed.
	ErrRejected = errors.New("action rejected in current task state")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func isConflict(err error) bool { return IsStatus(err, http.StatusConflict) }

func isIllegal(err error) bool { return IsStatus(err, http.StatusUnprocessableEntity) }
