// Package errs provides the unified error type used across all of calcat.
//
// Every subsystem (catalog, database, filestore, server, …) wraps its
// native errors into *errs.Error before returning them to callers. Callers
// use the Is* predicates to handle errors without importing driver-specific
// packages.
//
// Catalog definition errors (DuplicateTable, InvalidKey, …) are raised
// synchronously at registration or lookup time. They are never transient:
// the only recovery is fixing the declaration.
//
// Usage:
//
//	if err := cat.Register(t); errs.IsDuplicateTable(err) {
//	    log.Fatalf("table declared twice: %v", err)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no bucket
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL or storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure

	ErrKindDuplicateTable   // table name already registered
	ErrKindUnknownTable     // table name not registered
	ErrKindInvalidKey       // unique key references an unknown field
	ErrKindInvalidOrdering  // default ordering references an unknown field
	ErrKindInvalidFieldSpec // malformed field declaration
	ErrKindSealed           // registration after the build phase ended
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindDuplicateTable:
		return "duplicate_table"
	case ErrKindUnknownTable:
		return "unknown_table"
	case ErrKindInvalidKey:
		return "invalid_key"
	case ErrKindInvalidOrdering:
		return "invalid_ordering"
	case ErrKindInvalidFieldSpec:
		return "invalid_field_spec"
	case ErrKindSealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all calcat subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing object, unregistered table, …).
func IsNotFound(err error) bool {
	k := KindOf(err)
	return k == ErrKindNotFound || k == ErrKindUnknownTable
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

func IsDuplicateTable(err error) bool  { return KindOf(err) == ErrKindDuplicateTable }
func IsUnknownTable(err error) bool    { return KindOf(err) == ErrKindUnknownTable }
func IsInvalidKey(err error) bool      { return KindOf(err) == ErrKindInvalidKey }
func IsInvalidOrdering(err error) bool { return KindOf(err) == ErrKindInvalidOrdering }
func IsInvalidFieldSpec(err error) bool {
	return KindOf(err) == ErrKindInvalidFieldSpec
}
func IsSealed(err error) bool { return KindOf(err) == ErrKindSealed }

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
