package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested customer was not found.
	ErrNotFound = errors.New("not found")
	// ErrAddressNotFound indicates the customer exists but has no address with the given id.
	ErrAddressNotFound = errors.New("address not found")
	// ErrAlreadyExists is returned by stores when a unique constraint is violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrDuplicateEmail is returned when creating a customer whose email is taken.
	ErrDuplicateEmail = errors.New("email is already registered")
)

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
