package errors

import (
	"errors"
	"fmt"
)

// Category classifies a failure so callers can branch on the kind of thing
// that went wrong rather than on error strings.
type Category string

const (
	// CategoryAuthentication covers 401 responses and expired sessions.
	CategoryAuthentication Category = "authentication"
	// CategoryValidation covers structured 4xx responses whose detail
	// message is meant to be shown to the user verbatim.
	CategoryValidation Category = "validation"
	// CategoryNetwork covers calls where no response was received.
	CategoryNetwork Category = "network"
	// CategoryRequest covers requests that never left the client.
	CategoryRequest Category = "request"
)

// Error is the structured failure returned by the client layer.
type Error struct {
	Category Category
	Message  string
	Status   int // HTTP status when a response was received, 0 otherwise
	cause    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Category, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Common error values
var (
	ErrInvalidCredentials = &Error{Category: CategoryAuthentication, Message: "incorrect email or password", Status: 401}
	ErrSessionExpired     = &Error{Category: CategoryAuthentication, Message: "session expired"}
)

// Authentication builds an authentication failure for the given status.
func Authentication(status int, message string) *Error {
	return &Error{Category: CategoryAuthentication, Message: message, Status: status}
}

// Validation builds a validation failure whose message is surfaced to the user.
func Validation(status int, message string) *Error {
	return &Error{Category: CategoryValidation, Message: message, Status: status}
}

// Network builds a connectivity failure from the underlying transport error.
func Network(cause error) *Error {
	return &Error{Category: CategoryNetwork, Message: "no response from server", cause: cause}
}

// Request builds a failure for a request that could not be constructed or sent.
func Request(cause error, message string) *Error {
	return &Error{Category: CategoryRequest, Message: message, cause: cause}
}

// IsAuthenticationError reports whether err is an authentication failure.
func IsAuthenticationError(err error) bool {
	return isCategory(err, CategoryAuthentication)
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	return isCategory(err, CategoryValidation)
}

// IsNetworkError reports whether err is a connectivity failure.
func IsNetworkError(err error) bool {
	return isCategory(err, CategoryNetwork)
}

// IsRequestError reports whether err is a local request-construction failure.
func IsRequestError(err error) bool {
	return isCategory(err, CategoryRequest)
}

func isCategory(err error, c Category) bool {
	var e *Error
	return errors.As(err, &e) && e.Category == c
}

// UserMessage returns the message that should be rendered inline for err.
// Validation and authentication messages pass through verbatim; the rest get
// a generic message per category so internals never leak into the UI.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Something went wrong. Please try again."
	}
	switch e.Category {
	case CategoryValidation, CategoryAuthentication:
		return e.Message
	case CategoryNetwork:
		return "Could not reach the server. Check your connection and try again."
	case CategoryRequest:
		return "The request could not be prepared. Please try again."
	}
	return e.Message
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
