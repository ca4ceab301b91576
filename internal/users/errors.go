package users

import (
	"errors"
	"fmt"
)

// Messages returned to API clients
const (
	MsgFirstNameRequired = "Please add a first name"
	MsgLastNameRequired  = "Please add a last name"
	MsgEmailRequired     = "Please add an email"
	MsgAgeRequired       = "Please add the age"
	MsgAgeInvalid        = "Please add a valid age"
	MsgUserExists        = "User already exists"
	MsgUserNotFound      = "User not found"
)

// Store sentinel errors. Stores return these; the service translates them to *UserError.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// User error types
const (
	UserErrorTypeValidationFailed = "validation_failed"
	UserErrorTypeAlreadyExists    = "already_exists"
	UserErrorTypeNotFound         = "not_found"
)

// UserError represents a client-facing failure of a user operation
type UserError struct {
	Type    string
	UserID  string
	Message string
	Cause   error
}

func (e *UserError) Error() string {
	subject := ""
	if e.UserID != "" {
		subject = fmt.Sprintf(" for user %s", e.UserID)
	}
	if e.Cause != nil {
		return fmt.Sprintf("user error [%s]%s: %s (caused by: %v)", e.Type, subject, e.Message, e.Cause)
	}
	return fmt.Sprintf("user error [%s]%s: %s", e.Type, subject, e.Message)
}

func (e *UserError) Unwrap() error {
	return e.Cause
}

// NewUserValidationError creates an error for a missing or malformed field
func NewUserValidationError(message string) *UserError {
	return &UserError{
		Type:    UserErrorTypeValidationFailed,
		Message: message,
	}
}

// NewUserValidationErrorWithCause creates a validation error wrapping the parse failure
func NewUserValidationErrorWithCause(message string, cause error) *UserError {
	return &UserError{
		Type:    UserErrorTypeValidationFailed,
		Message: message,
		Cause:   cause,
	}
}

// NewUserAlreadyExistsError creates an error for an email that is already registered
func NewUserAlreadyExistsError(cause error) *UserError {
	return &UserError{
		Type:    UserErrorTypeAlreadyExists,
		Message: MsgUserExists,
		Cause:   cause,
	}
}

// NewUserNotFoundError creates an error for when a user is not found
func NewUserNotFoundError(userID string) *UserError {
	return &UserError{
		Type:    UserErrorTypeNotFound,
		UserID:  userID,
		Message: MsgUserNotFound,
		Cause:   ErrUserNotFound,
	}
}

// ErrorType returns the UserError type carried by err, or "" for anything else
func ErrorType(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Type
	}
	return ""
}
