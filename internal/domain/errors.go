// Package domain defines the error taxonomy shared by the store, the
// transformation operations, and the HTTP layer.
package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType tags a DomainError with its failure class.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeTooLarge    ErrorType = "payload_too_large"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeUnsupported ErrorType = "unsupported_operation"
	ErrorTypeStorage     ErrorType = "storage"
	ErrorTypeTransform   ErrorType = "transformation"
)

// DomainError represents a service error with context.
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error.
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func ValidationError(message string, err error) *DomainError {
	return NewError(ErrorTypeValidation, message, err)
}

func PayloadTooLarge(message string, err error) *DomainError {
	return NewError(ErrorTypeTooLarge, message, err)
}

func NotFound(message string, err error) *DomainError {
	return NewError(ErrorTypeNotFound, message, err)
}

func UnsupportedOperation(message string, err error) *DomainError {
	return NewError(ErrorTypeUnsupported, message, err)
}

func StorageWriteError(message string, err error) *DomainError {
	return NewError(ErrorTypeStorage, message, err)
}

func TransformationError(message string, err error) *DomainError {
	return NewError(ErrorTypeTransform, message, err)
}

// TypeOf returns the error type of err, or ErrorTypeTransform for errors
// that carry no taxonomy tag.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ErrorTypeTransform
}

// HTTPStatus maps an error onto the HTTP status the API surfaces.
func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrorTypeValidation, ErrorTypeTooLarge:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the human-readable cause string for the HTTP
// response body. Internal wrapping detail stays in the logs.
func PublicMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
