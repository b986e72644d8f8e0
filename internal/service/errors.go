package service

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures of remote and façade operations.
type ErrorCode string

const (
	// CodeInvalidCredentials means authentication was explicitly rejected.
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	// CodeValidationRejected means the server rejected malformed input.
	CodeValidationRejected ErrorCode = "VALIDATION_REJECTED"
	// CodeServerError is any other non-2xx response.
	CodeServerError ErrorCode = "SERVER_ERROR"
	// CodeNoConnectivity means the request never reached the server.
	CodeNoConnectivity ErrorCode = "NO_CONNECTIVITY"
	// CodeLocalReferenceMissing means a task id is not in the local list.
	CodeLocalReferenceMissing ErrorCode = "LOCAL_REFERENCE_MISSING"
)

// Error is a classified failure with a user-facing message.
type Error struct {
	Code    ErrorCode
	Status  int // HTTP status, 0 when no response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a classified error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps err with a classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// ErrTaskNotFound is returned when a task reference is not in the local list.
var ErrTaskNotFound = NewError(CodeLocalReferenceMissing, "task not found")

// IsCode reports whether err carries the given classification.
func IsCode(err error, code ErrorCode) bool {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// CodeOf returns the classification of err, or CodeServerError for
// unclassified errors.
func CodeOf(err error) ErrorCode {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Code
	}
	return CodeServerError
}

// Message returns the most specific user-facing message for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var sErr *Error
	if errors.As(err, &sErr) && sErr.Message != "" {
		return sErr.Message
	}
	return err.Error()
}
