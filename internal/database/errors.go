package database

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned when an operation runs before CreatePool.
var ErrNotInitialized = errors.New("database: pool not initialized, call CreatePool first")

// ErrClosed is returned when an operation runs after Close.
var ErrClosed = errors.New("database: pool is closed")

// SecurityError reports an identifier, table, or operator that failed
// allow-list or pattern checks, or a condition payload that exceeded the
// configured bounds. It is never downgraded to a soft failure: a rejected
// identifier may be an injection attempt and the caller has to see it.
type SecurityError struct {
	Reason string
}

func (e *SecurityError) Error() string {
	return "security violation: " + e.Reason
}

// Is makes errors.Is(err, &SecurityError{}) match any SecurityError.
func (e *SecurityError) Is(target error) bool {
	_, ok := target.(*SecurityError)
	return ok
}

// ValidationError reports well-formed but semantically invalid input:
// empty UPDATE/DELETE conditions, empty INSERT data, wrong BETWEEN arity,
// LIMIT/OFFSET out of bounds, and similar.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// Is makes errors.Is(err, &ValidationError{}) match any ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// TransientError wraps a driver-level failure (network, constraint,
// timeout) surfaced by a façade operation. Callers can unwrap it to get at
// the underlying pgconn error when they need the SQLSTATE.
type TransientError struct {
	Op    string
	Table string
	Err   error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("database: %s on %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func securityErrorf(format string, args ...any) error {
	return &SecurityError{Reason: fmt.Sprintf(format, args...)}
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
