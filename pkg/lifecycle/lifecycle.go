// Package lifecycle defines the task status state machine. The server uses it
// to authorize transitions and the client uses it for precondition checks
// before a request is sent.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	StatusOpen              Status = "OPEN"
	StatusInProgress        Status = "IN_PROGRESS"
	StatusAwaitVerification Status = "COMPLETE_AWAIT_VERIFICATION"
	StatusComplete          Status = "COMPLETE"
)

// Action names the user intent behind a transition.
type Action string

const (
	ActionClaim      Action = "claim"
	ActionComplete   Action = "complete"
	ActionAbandon    Action = "abandon"
	ActionVerify     Action = "verify"
	ActionDisapprove Action = "disapprove"
)

// Role is the relation of a user to a task.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleHelper Role = "helper"
	// RoleOther is anyone but the owner.
	RoleOther Role = "other"
)

var (
	ErrUnknownStatus     = errors.New("unknown task status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotPermitted      = errors.New("transition not permitted for user")
)

// Transition is one edge of the state machine.
type Transition struct {
	From   Status
	To     Status
	Action Action
	Actor  Role
}

var transitions = []Transition{
	{From: StatusOpen, To: StatusInProgress, Action: ActionClaim, Actor: RoleOther},
	{From: StatusInProgress, To: StatusAwaitVerification, Action: ActionComplete, Actor: RoleHelper},
	{From: StatusInProgress, To: StatusOpen, Action: ActionAbandon, Actor: RoleHelper},
	{From: StatusAwaitVerification, To: StatusComplete, Action: ActionVerify, Actor: RoleOwner},
	{From: StatusAwaitVerification, To: StatusInProgress, Action: ActionDisapprove, Actor: RoleOwner},
}

// legacy spellings still found in exported data
var aliases = map[string]Status{
	"IN PROGRESS":                 StatusInProgress,
	"COMPLETE: AWAIT VERIFICATION": StatusAwaitVerification,
}

// ParseStatus accepts the canonical names and the legacy spellings.
func ParseStatus(s string) (Status, error) {
	v := strings.TrimSpace(s)
	switch st := Status(strings.ToUpper(v)); st {
	case StatusOpen, StatusInProgress, StatusAwaitVerification, StatusComplete:
		return st, nil
	}
	if st, ok := aliases[strings.ToUpper(v)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusAwaitVerification, StatusComplete:
		return true
	}
	return false
}

// Finished reports whether the helper has done their part.
func (s Status) Finished() bool {
	return s == StatusAwaitVerification || s == StatusComplete
}

func (s Status) String() string { return string(s) }

// Resolve returns the transition from one status to another.
func Resolve(from, to Status) (Transition, error) {
	for _, t := range transitions {
		if t.From == from && t.To == to {
			return t, nil
		}
	}
	return Transition{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}

// Lookup returns the transition an action triggers from the given status.
func Lookup(from Status, action Action) (Transition, error) {
	for _, t := range transitions {
		if t.From == from && t.Action == action {
			return t, nil
		}
	}
	return Transition{}, fmt.Errorf("%w: cannot %s a %s task", ErrIllegalTransition, action, from)
}

// Authorize checks that user may trigger t on a task with the given owner and
// helper. An empty helper means the task is unclaimed.
func Authorize(t Transition, owner, helper, user string) error {
	if user == "" {
		return ErrNotPermitted
	}
	var ok bool
	switch t.Actor {
	case RoleOwner:
		ok = user == owner
	case RoleHelper:
		ok = helper != "" && user == helper
	case RoleOther:
		ok = user != owner
	}
	if !ok {
		return fmt.Errorf("%w: %s requires the %s", ErrNotPermitted, t.Action, t.Actor)
	}
	return nil
}

// ClearsHelper reports whether entering to drops the helper assignment.
func ClearsHelper(to Status) bool { return to == StatusOpen }

// PurgesMessages reports whether the chat thread is removed after action.
func PurgesMessages(a Action) bool { return a == ActionAbandon || a == ActionVerify }

func CanClaim(s Status) bool      { return s == StatusOpen }
func CanEdit(s Status) bool       { return s == StatusOpen }
func CanDelete(s Status) bool     { return s == StatusOpen }
func CanComplete(s Status) bool   { return s == StatusInProgress }
func CanAbandon(s Status) bool    { return s == StatusInProgress }
func CanVerify(s Status) bool     { return s != StatusComplete }
func CanDisapprove(s Status) bool { return s != StatusComplete }
