// Package errors provides application-level error types and utilities.
// It defines common error types like validation, not found, conflict, and
// the entitlement-specific failure modes (store unavailable, bad payment
// signature, unrecognized gateway status).
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeInternal     ErrorType = "internal_error"
	ErrorTypeBadRequest   ErrorType = "bad_request"

	// ErrorTypeStoreUnavailable is returned when the grant store cannot be
	// reached. Callers degrade to a trial-only verdict instead of failing.
	ErrorTypeStoreUnavailable ErrorType = "store_unavailable"
	// ErrorTypeSignatureInvalid marks a payment notification whose HMAC did
	// not verify. It is recorded, never silently upgraded to success.
	ErrorTypeSignatureInvalid ErrorType = "signature_invalid"
	// ErrorTypeUnrecognizedGatewayStatus marks a gateway status outside the
	// documented vocabulary.
	ErrorTypeUnrecognizedGatewayStatus ErrorType = "unrecognized_gateway_status"
	// ErrorTypeOrderNotFound is returned when a status poll references an
	// order this service never created.
	ErrorTypeOrderNotFound ErrorType = "order_not_found"
)

// AppError represents an application error with additional context
type AppError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Details string    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As
func (e *AppError) Unwrap() error {
	return e.cause
}

func newAppError(t ErrorType, message string, code int, details ...string) *AppError {
	detail := ""
	if len(details) > 0 {
		detail = details[0]
	}
	return &AppError{
		Type:    t,
		Message: message,
		Code:    code,
		Details: detail,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeValidation, message, http.StatusBadRequest, details...)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeNotFound, message, http.StatusNotFound, details...)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeConflict, message, http.StatusConflict, details...)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeUnauthorized, message, http.StatusUnauthorized, details...)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeInternal, message, http.StatusInternalServerError, details...)
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string, details ...string) *AppError {
	return newAppError(ErrorTypeBadRequest, message, http.StatusBadRequest, details...)
}

// NewStoreUnavailableError wraps a storage failure so read paths can detect
// it and degrade instead of failing the whole request.
func NewStoreUnavailableError(cause error) *AppError {
	err := newAppError(ErrorTypeStoreUnavailable, "grant store unavailable", http.StatusServiceUnavailable)
	err.cause = cause
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewSignatureInvalidError creates an error for a failed payment signature check
func NewSignatureInvalidError(details ...string) *AppError {
	return newAppError(ErrorTypeSignatureInvalid, "payment signature verification failed", http.StatusBadRequest, details...)
}

// NewUnrecognizedGatewayStatusError creates an error for an unknown gateway status value
func NewUnrecognizedGatewayStatusError(status string) *AppError {
	return newAppError(ErrorTypeUnrecognizedGatewayStatus, "unrecognized gateway transaction status", http.StatusBadGateway, status)
}

// NewOrderNotFoundError creates an error for a poll against an unknown order reference
func NewOrderNotFoundError(reference string) *AppError {
	return newAppError(ErrorTypeOrderNotFound, "billing order not found", http.StatusNotFound, reference)
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from error
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func isType(err error, t ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == t
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsStoreUnavailableError checks if the error marks an unreachable grant store
func IsStoreUnavailableError(err error) bool {
	return isType(err, ErrorTypeStoreUnavailable)
}

// IsOrderNotFoundError checks if the error marks an unknown order reference
func IsOrderNotFoundError(err error) bool {
	return isType(err, ErrorTypeOrderNotFound)
}

// IsDuplicateError checks if the error is a database duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	// MySQL duplicate entry error
	if strings.Contains(errStr, "Duplicate entry") || strings.Contains(errStr, "duplicate key") {
		return true
	}
	// SQLite unique violation
	if strings.Contains(errStr, "UNIQUE constraint failed") {
		return true
	}
	// PostgreSQL unique violation
	if strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "violates unique constraint") {
		return true
	}
	return false
}
