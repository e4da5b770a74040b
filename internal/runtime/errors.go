package runtime

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is wrapped when a snapshot lacks a required field.
	ErrMissingField = errors.New("missing field")
	// ErrBadReference is wrapped when a snapshot reference does not resolve.
	ErrBadReference = errors.New("unresolvable reference")
)

// DecodeError represents a snapshot that cannot be turned back into an
// engine. Field names the offending top-level snapshot field, if any.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decoding snapshot: %v", e.Err)
	}
	return fmt.Sprintf("decoding snapshot field '%s': %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
