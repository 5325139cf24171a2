package migrate

import (
	"errors"
	"fmt"
)

// Sentinel errors for migration input and state problems.
var (
	// ErrInvalidVersion indicates a version that is not a positive integer.
	ErrInvalidVersion = errors.New("migration version must be a positive integer")

	// ErrDuplicateVersion indicates two definitions share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrMissingUpScript indicates a definition without an up script.
	ErrMissingUpScript = errors.New("migration has no up script")

	// ErrMissingDownScript indicates a rollback step without a down script.
	ErrMissingDownScript = errors.New("migration has no down script")

	// ErrTargetOutOfRange indicates a rollback target below zero or above the
	// current version.
	ErrTargetOutOfRange = errors.New("rollback target out of range")

	// ErrInvalidFileName indicates a migration file that does not follow the
	// {version}_{description}.sql convention.
	ErrInvalidFileName = errors.New("invalid migration file name")
)

// ValidationError reports bad migration input. It is raised before any
// transaction is opened and is never retried.
type ValidationError struct {
	Version int // offending version, 0 when the problem is not version-bound
	Err     error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Version != 0 {
		return fmt.Sprintf("invalid migration input: version %d: %v", e.Version, e.Err)
	}
	return fmt.Sprintf("invalid migration input: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for the given version.
func NewValidationError(version int, err error) *ValidationError {
	return &ValidationError{Version: version, Err: err}
}

// MigrationError wraps a failure while applying or rolling back a specific
// version. The underlying cause is preserved for unwrapping.
type MigrationError struct {
	Version   int
	Operation string // "apply" or "rollback"
	Err       error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migration version %d: %s: %v", e.Version, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError creates a MigrationError with context.
func NewMigrationError(version int, operation string, err error) *MigrationError {
	return &MigrationError{Version: version, Operation: operation, Err: err}
}
