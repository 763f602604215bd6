// Package errs defines the error taxonomy shared by the service layers.
// Callers must be able to tell "no beds" from "server error", so every
// reportable condition carries a Kind the API layer maps to a status code.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the reportable condition groups.
type Kind string

const (
	KindValidation            Kind = "validation_error"
	KindNoCapacity            Kind = "no_capacity"
	KindAlreadyReserved       Kind = "already_reserved"
	KindInvalidTransition     Kind = "invalid_transition"
	KindNotFound              Kind = "not_found"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindStorage               Kind = "internal_error"
)

// Error pairs a Kind with a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports invalid caller input.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NoCapacity reports an exhausted bed pool. Expected business outcome,
// not a fault.
func NoCapacity(format string, args ...any) error {
	return &Error{Kind: KindNoCapacity, Msg: fmt.Sprintf(format, args...)}
}

// AlreadyReserved reports that the requester already holds an active
// reservation.
func AlreadyReserved(format string, args ...any) error {
	return &Error{Kind: KindAlreadyReserved, Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a state change outside the transition table.
func InvalidTransition(format string, args ...any) error {
	return &Error{Kind: KindInvalidTransition, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing record.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// DependencyUnavailable reports a failed external collaborator.
func DependencyUnavailable(msg string, err error) error {
	return &Error{Kind: KindDependencyUnavailable, Msg: msg, Err: err}
}

// Storage wraps a database failure.
func Storage(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, or KindStorage for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
