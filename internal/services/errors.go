package services

import "errors"

// Error kinds. Every domain error wraps exactly one of these, so callers can
// classify with errors.Is. Anything else is unexpected.
var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrAuthorize     = errors.New("not authorized")
	ErrAlreadyExists = errors.New("already exists")
)

// Error is a domain error with a user-facing message.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrEmailExists        = newError(ErrAlreadyExists, "a user with this email already exists")
	ErrEmailNotRegistered = newError(ErrNotFound, "user not found with provided email id")
	ErrAccountNotFound    = newError(ErrNotFound, "account not found")
	ErrPasswordMismatch   = newError(ErrValidation, "password does not match")
	ErrCurrentPassword    = newError(ErrValidation, "current password is incorrect")
	ErrEmailNotVerified   = newError(ErrValidation, "email address is not verified")
	ErrTokenNotFound      = newError(ErrNotFound, "invalid or expired token")
	ErrTokenExpired       = newError(ErrValidation, "token has expired")
	ErrInvalidProfile     = newError(ErrValidation, "profile fields must be strings")
	ErrInvalidToken       = newError(ErrAuthorize, "invalid session token")
)

// IsDomainError reports whether err belongs to a known kind.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrAuthorize) ||
		errors.Is(err, ErrAlreadyExists)
}
