package engine

import (
	"errors"
	"fmt"
)

// ErrClosed is returned for any operation on a closed engine.
var ErrClosed = errors.New("engine is closed")

// Error wraps a failure reported by the underlying database driver with the
// operation and statement that triggered it.
type Error struct {
	Op    string // "execute" or "query"
	Query string
	Err   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("engine: %s %q: %v", e.Op, e.Query, e.Err)
}

// Unwrap returns the driver error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error for the given operation and statement.
func NewError(op, query string, err error) *Error {
	return &Error{Op: op, Query: query, Err: err}
}
