// Package fault defines the single error shape returned by every public
// operation of the data layer.
//
// Instead of sentinel values, callers branch on a closed Kind tag:
//
//	if fault.Is(err, fault.NotConfigured) { ... }
//
// Errors from the transport are wrapped, never swallowed; the original
// cause stays reachable through errors.Unwrap.
package fault

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Kind categorizes a failure of a data-layer operation.
type Kind string

const (
	// NotConfigured means connection parameters are absent. This is the
	// quiet degraded mode: no network call was attempted.
	NotConfigured Kind = "NOT_CONFIGURED"

	// AuthFailure means no identity could be established or reused.
	AuthFailure Kind = "AUTH_FAILURE"

	// ConstraintViolation means the backend rejected a write
	// (range check, non-empty check, foreign key).
	ConstraintViolation Kind = "CONSTRAINT_VIOLATION"

	// Conflict means a uniqueness constraint fired.
	Conflict Kind = "CONFLICT"

	// NotFound means the addressed row does not exist.
	NotFound Kind = "NOT_FOUND"

	// Transport covers network and backend faults outside the caller's
	// control.
	Transport Kind = "TRANSPORT"

	// Unknown is the catch-all for faults that fit no other kind.
	Unknown Kind = "UNKNOWN"
)

// Error is the structured error value returned past every gateway boundary.
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the Kind from err, unwrapping as needed.
// Non-fault errors report Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

// Postgres SQLSTATE classes this layer cares about.
const (
	sqlstateNotNull    = "23502"
	sqlstateForeignKey = "23503"
	sqlstateUnique     = "23505"
	sqlstateCheck      = "23514"
	sqlstateRLSDenied  = "42501" // insufficient_privilege, raised by RLS
)

// FromPQ maps a driver error into the closed taxonomy. Constraint classes
// become ConstraintViolation, unique violations become Conflict, and
// everything else is a Transport fault.
func FromPQ(message string, err error) *Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case sqlstateUnique:
			return Wrap(Conflict, message, err)
		case sqlstateNotNull, sqlstateForeignKey, sqlstateCheck:
			return Wrap(ConstraintViolation, message, err)
		case sqlstateRLSDenied:
			return Wrap(ConstraintViolation, message, err)
		}
	}
	return Wrap(Transport, message, err)
}

// IsUniqueViolation reports whether err is a raw unique-constraint error
// from the driver. Bootstrap uses this to detect its benign insert race
// before the error has been wrapped.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == sqlstateUnique
}
