package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

type Error struct {
	Err     error
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
		Code:    "INTERNAL_ERROR",
	}
}

// InsufficientCreditError is the expected outcome of a gated debit against
// an empty balance. It is a normal return value, not an exceptional one:
// callers branch on it to send users to the top-up flow.
type InsufficientCreditError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credit: required %d, available %d", e.Required, e.Available)
}

// IsInsufficientCredit reports whether err is an InsufficientCreditError and
// returns it when so.
func IsInsufficientCredit(err error) (*InsufficientCreditError, bool) {
	var ice *InsufficientCreditError
	if errors.As(err, &ice) {
		return ice, true
	}
	return nil, false
}
