package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the link shorter. Handlers map these onto HTTP status
// codes with errors.Is.

// ErrBadInput is matched by every client-side validation failure.
var ErrBadInput = errors.New("bad input")

// ErrUnauthorized is returned when a token is missing, unknown or expired.
var ErrUnauthorized = errors.New("token not allowed")

// ErrNotFound is returned when a path does not exist or has expired.
var ErrNotFound = errors.New("no such shorter")

// ErrTokenNotFound is returned by token lookups for unknown tokens.
var ErrTokenNotFound = errors.New("no such token")

// ErrStorage is matched by every persistence-layer failure.
var ErrStorage = errors.New("storage failure")

// ErrPathGenerationFailed is returned when no free random path could be found.
var ErrPathGenerationFailed = errors.New("failed to generate unique path")

// ErrInvalidInput describes a rejected request parameter.
type ErrInvalidInput struct {
	Field  string
	Reason string
}

func (e ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes ErrInvalidInput match ErrBadInput.
func (e ErrInvalidInput) Is(target error) bool {
	return target == ErrBadInput
}

// ErrStorageFailure wraps an error returned by the database.
type ErrStorageFailure struct {
	Op  string
	Err error
}

func (e ErrStorageFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e ErrStorageFailure) Unwrap() error { return e.Err }

// Is makes ErrStorageFailure match ErrStorage.
func (e ErrStorageFailure) Is(target error) bool {
	return target == ErrStorage
}

// Storage wraps err as an ErrStorageFailure for op. It returns nil for a nil err.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return ErrStorageFailure{Op: op, Err: err}
}
