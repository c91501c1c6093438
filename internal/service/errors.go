package service

import (
	"errors"
	"fmt"

	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrAlreadyExists     = errors.New("already exists")
	// ErrIllegalTransition is a status change the current state never
	// allows. It is not a lost race.
	ErrIllegalTransition = lifecycle.ErrIllegalTransition
)

// Error is a service failure with a message fit for the client. It unwraps
// to one of the sentinels above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func invalidf(format string, args ...any) error {
	return newError(ErrInvalidInput, format, args...)
}
