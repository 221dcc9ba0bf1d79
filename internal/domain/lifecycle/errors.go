package lifecycle

import (
	"errors"
	"fmt"
)

// Error kinds returned by the coordinator. Every *Error unwraps to exactly one of them.
var (
	// ErrPreconditionFailed is returned when an entity is not in the state the transition requires
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrAuthorizationFailed is returned when the actor may not drive the transition
	ErrAuthorizationFailed = errors.New("authorization failed")

	// ErrConcurrencyConflict is returned when the store rejected the write set; retry from a fresh read
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrNotFound is returned when a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvariantViolation is returned when the entities cannot be projected onto a lifecycle phase
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrInvalidIntent is returned for malformed intent payloads
	ErrInvalidIntent = errors.New("invalid intent")
)

// Entity names used in errors and lookups
const (
	EntityFood    = "food"
	EntityRequest = "request"
	EntityTask    = "task"
	EntityUser    = "user"
)

// Error is a typed coordinator failure
type Error struct {
	Kind       error
	Transition Transition
	Entity     string
	ID         string
	Reason     string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg = fmt.Sprintf("%s %s: %s", e.Entity, e.ID, msg)
	}
	if e.Transition != "" {
		msg = fmt.Sprintf("%s: %s", e.Transition, msg)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError builds a coordinator error of the given kind
func NewError(kind error, t Transition, entity, id, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Transition: t,
		Entity:     entity,
		ID:         id,
		Reason:     fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind sentinel for err, or nil if err is not a coordinator error
func KindOf(err error) error {
	for _, kind := range []error{
		ErrPreconditionFailed,
		ErrAuthorizationFailed,
		ErrConcurrencyConflict,
		ErrNotFound,
		ErrInvariantViolation,
		ErrInvalidIntent,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// Conflict wraps a store-level version conflict as a coordinator error
func Conflict(t Transition, foodID string, cause error) *Error {
	return &Error{
		Kind:       ErrConcurrencyConflict,
		Transition: t,
		Entity:     EntityFood,
		ID:         foodID,
		Reason:     cause.Error(),
	}
}
