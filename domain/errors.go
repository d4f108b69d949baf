package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeInvalid        ErrorCode = "INVALID"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimited    ErrorCode = "RATE_LIMITED"
	ErrCodeEmailUnconfirm ErrorCode = "EMAIL_NOT_CONFIRMED"
	ErrCodeInternal       ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
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

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Auth errors keep the wording of the hosted auth API the back-office was built against,
// so message-based classification stays stable for older clients.
var (
	ErrSessionMissing      = NewError(ErrCodeUnauthorized, "Auth session missing!")
	ErrSessionExpired      = NewError(ErrCodeUnauthorized, "invalid JWT: token is expired")
	ErrSessionInvalid      = NewError(ErrCodeUnauthorized, "invalid JWT: unable to parse or verify signature")
	ErrInvalidCredentials  = NewError(ErrCodeUnauthorized, "Invalid login credentials")
	ErrEmailNotConfirmed   = NewError(ErrCodeEmailUnconfirm, "Email not confirmed")
	ErrEmailTaken          = NewError(ErrCodeConflict, "User already registered")
	ErrTooManyRequests     = NewError(ErrCodeRateLimited, "Request rate limit reached")
	ErrNoOriginalRole      = NewError(ErrCodeInvalid, "no original role on record")
	ErrNotAuthenticated    = NewError(ErrCodeUnauthorized, "not authenticated")
	ErrForbidden           = NewError(ErrCodeForbidden, "forbidden")
	ErrInvalidPayload      = NewError(ErrCodeInvalid, "invalid payload")
	ErrUserNotFound        = NewError(ErrCodeNotFound, "user not found")
	ErrProfileNotFound     = NewError(ErrCodeNotFound, "profile not found")
	ErrSessionNotFound     = NewError(ErrCodeNotFound, "session not found")
	ErrOrganizationMissing = NewError(ErrCodeNotFound, "organization not found")
	ErrUnitNotFound        = NewError(ErrCodeNotFound, "organization unit not found")
	ErrPeriodNotFound      = NewError(ErrCodeNotFound, "collection period not found")
	ErrIndicatorNotFound   = NewError(ErrCodeNotFound, "indicator not found")
	ErrDraftNotFound       = NewError(ErrCodeNotFound, "wizard draft not found")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the domain code carried by err, or an empty code.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ""
}

// ValidationError carries a field-keyed message map produced by form validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%d fields)", len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidPayload
}
