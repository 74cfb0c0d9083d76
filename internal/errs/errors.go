// Package errs provides the unified error type used across all of DatLas.
//
// Every subsystem (catalog, graph store, archive, server) wraps its native
// errors into *errs.Error before returning them to callers. Callers use the
// Is* predicates to handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In a driver, wrap native errors:
//	return errs.Wrap(errs.SubsystemCatalog, errs.ErrKindTimeout, "query timed out", pgErr)
//
//	// In a handler, check error origin:
//	if errs.IsCatalog(err) {
//	    http.Error(w, "catalog unavailable", http.StatusBadGateway)
//	}
package errs

import (
	"errors"
	"fmt"
)

// Subsystem names the part of DatLas an error originated from. Connectivity
// failures are never caught-and-converted between subsystems: a catalog error
// reaching the HTTP layer still reports "catalog".
type Subsystem string

const (
	SubsystemCatalog Subsystem = "catalog" // relational catalog metadata queries
	SubsystemGraph   Subsystem = "graph"   // graph store reads and writes
	SubsystemArchive Subsystem = "archive" // snapshot object storage
)

// ErrKind categorises an error without exposing backend-specific codes.
// All backends (Postgres, MySQL, Oracle, Neo4j, MinIO) map their native
// errors to one of these kinds, giving callers a single consistent API.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no node, no object
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL / Cypher / storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure
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
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all DatLas subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Subsystem Subsystem
	Kind      ErrKind
	Message   string
	Cause     error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s/%s] %s: %v", e.Subsystem, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s/%s] %s", e.Subsystem, e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given subsystem, kind, and message.
func New(sub Subsystem, kind ErrKind, msg string) *Error {
	return &Error{Subsystem: sub, Kind: kind, Message: msg}
}

// Wrap creates an *Error with an underlying cause.
func Wrap(sub Subsystem, kind ErrKind, msg string, cause error) *Error {
	return &Error{Subsystem: sub, Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsCatalog reports whether err originated in the relational catalog layer.
func IsCatalog(err error) bool {
	return subsystemOf(err) == SubsystemCatalog
}

// IsGraphStore reports whether err originated in the graph store layer.
func IsGraphStore(err error) bool {
	return subsystemOf(err) == SubsystemGraph
}

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing node, unknown table, …).
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure
// (SQL execution error, Cypher error, storage I/O error, …).
func IsQueryFailed(err error) bool {
	return kindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}

func subsystemOf(err error) Subsystem {
	var e *Error
	if errors.As(err, &e) {
		return e.Subsystem
	}
	return ""
}
