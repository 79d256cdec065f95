package service

import (
	"errors"
	"fmt"
)

// ValidationError means the caller sent input that breaks a domain rule.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthenticationError means the credentials did not match a user.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// errInvalidCredentials is returned for both an unknown username and a wrong
// password so callers cannot tell the two apart.
var errInvalidCredentials = &AuthenticationError{Message: "Invalid username or password"}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsAuthentication reports whether err is, or wraps, an AuthenticationError.
func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}
