package errors

import (
	"fmt"
)

// ErrorType groups domain errors by origin.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"

	ErrorTypeExternal ErrorType = "external"
	ErrorTypeNetwork  ErrorType = "network"
	ErrorTypeDiscord  ErrorType = "discord"

	ErrorTypeDatabase ErrorType = "database"
	ErrorTypeInternal ErrorType = "internal"

	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeConflict ErrorType = "conflict"
)

// DomainError is an error tagged with a type and code. UserMsg, when set, is
// safe to show in a Discord reply.
type DomainError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
	UserMsg string         `json:"user_message,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches on type and code so wrapped copies of a sentinel compare equal.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Type == t.Type && e.Code == t.Code
	}
	return false
}

// GetUserMessage returns the user-facing message, or Message if none was set.
func (e *DomainError) GetUserMessage() string {
	if e.UserMsg != "" {
		return e.UserMsg
	}
	return e.Message
}

// IsRetryable reports whether a later attempt may succeed.
func (e *DomainError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeExternal, ErrorTypeDiscord:
		return true
	default:
		return false
	}
}

func NewDomainError(errType ErrorType, code, message string) *DomainError {
	return &DomainError{
		Type:    errType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// WrapDomainError returns a copy of the sentinel shape carrying err as cause.
func WrapDomainError(err error, errType ErrorType, code, message string) *DomainError {
	return &DomainError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
		Details: make(map[string]any),
	}
}

// Wrap attaches cause to a fresh copy of sentinel, keeping its user message.
func Wrap(sentinel *DomainError, cause error) *DomainError {
	wrapped := WrapDomainError(cause, sentinel.Type, sentinel.Code, sentinel.Message)
	wrapped.UserMsg = sentinel.UserMsg
	return wrapped
}

func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func (e *DomainError) WithUserMessage(msg string) *DomainError {
	e.UserMsg = msg
	return e
}

// Validation errors
var (
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid_input", "invalid input provided").
			WithUserMessage("That input doesn't look right.")
	ErrInvalidConfig = NewDomainError(ErrorTypeConfig, "invalid_config", "invalid configuration")
)

// Business errors
var (
	ErrNotFound = NewDomainError(ErrorTypeNotFound, "not_found", "resource not found").
			WithUserMessage("Nothing found with that id in this channel.")
	ErrAlreadyStarted = NewDomainError(ErrorTypeConflict, "already_started", "gateway client already started")
)

// External service errors
var (
	ErrFeedUnavailable = NewDomainError(ErrorTypeExternal, "feed_unavailable", "failed to download feed").
				WithUserMessage("Couldn't download that podcast feed.")
	ErrInvalidFeed = NewDomainError(ErrorTypeValidation, "invalid_feed", "failed to parse feed").
			WithUserMessage("That URL doesn't look like a podcast feed.")
	ErrStorage = NewDomainError(ErrorTypeDatabase, "storage", "subscription store failure").
			WithUserMessage("Something went wrong saving that. Please try again.")
)
