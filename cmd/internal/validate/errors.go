package validate

import (
	"errors"
	"fmt"
)

// Sentinel kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrInvalidInput            = errors.New("invalid_input")
	ErrLimitExceeded           = errors.New("limit_exceeded")
	ErrInsufficientPermissions = errors.New("insufficient_permissions")
	ErrAlreadyExists           = errors.New("requested object already exists")
	ErrNotFound                = errors.New("requested object doesn't exist or the caller doesn't have access")
)

// InvalidInputError reports a syntactically invalid field.
// Value must never contain a secret; password validators render it as the
// literal "<password>".
type InvalidInputError struct {
	Value  string
	Reason string
}

func (e InvalidInputError) Error() string {
	return fmt.Sprintf("input value is invalid: `%s`, reason: %s", e.Value, e.Reason)
}

func (e InvalidInputError) Unwrap() error { return ErrInvalidInput }

// LimitExceededError reports a field exceeding a declared maximum.
type LimitExceededError struct {
	Subject   string
	Unit      string
	Attempted int
	Limit     int
}

func (e LimitExceededError) Error() string {
	return fmt.Sprintf("limit exceeded for %s, allowed %d %s(s), got %d", e.Subject, e.Limit, e.Unit, e.Attempted)
}

func (e LimitExceededError) Unwrap() error { return ErrLimitExceeded }

// InsufficientPermissionsError reports a failed role check.
type InsufficientPermissionsError struct {
	Current  string
	Required string
}

func (e InsufficientPermissionsError) Error() string {
	return fmt.Sprintf("insufficient permissions for action, required role: %s, current role: %s", e.Required, e.Current)
}

func (e InsufficientPermissionsError) Unwrap() error { return ErrInsufficientPermissions }

// IsValidation reports whether err belongs to the validation taxonomy.
// Validation errors surface verbatim to callers with a 400 status.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrLimitExceeded) ||
		errors.Is(err, ErrInsufficientPermissions) ||
		errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrNotFound)
}
