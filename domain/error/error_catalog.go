package error

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes for different categories
const (
	// Pre-flight Errors (1xxx)
	ErrCodeValidation  ErrorCode = "PREFLIGHT_1001"
	ErrCodeVagueness   ErrorCode = "PREFLIGHT_1002"
	ErrCodeEmptyDryRun ErrorCode = "PREFLIGHT_1003"

	// Confirmation Errors (2xxx)
	ErrCodeTokenNotFound        ErrorCode = "CONFIRM_2001"
	ErrCodeTokenExpired         ErrorCode = "CONFIRM_2002"
	ErrCodeTokenAlreadyConsumed ErrorCode = "CONFIRM_2003"
	ErrCodeConsistency          ErrorCode = "CONFIRM_2004"

	// Execution Errors (3xxx)
	ErrCodeExecutorFailed ErrorCode = "EXEC_3001"

	// Infrastructure Errors (4xxx)
	ErrCodeStore ErrorCode = "INFRA_4001"
	ErrCodeAudit ErrorCode = "INFRA_4002"

	// Request Errors (5xxx)
	ErrCodeBadRequest   ErrorCode = "REQUEST_5001"
	ErrCodeUnauthorized ErrorCode = "REQUEST_5002"
	ErrCodeRateLimited  ErrorCode = "REQUEST_5003"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so callers can branch with
// errors.Is(err, ErrTokenExpired) regardless of message or details.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation           = &AppError{Code: ErrCodeValidation, Message: "Safety validation failed"}
	ErrVagueness            = &AppError{Code: ErrCodeVagueness, Message: "Request is not specific enough"}
	ErrEmptyDryRun          = &AppError{Code: ErrCodeEmptyDryRun, Message: "Dry run describes no changes"}
	ErrTokenNotFound        = &AppError{Code: ErrCodeTokenNotFound, Message: "Confirmation token not found"}
	ErrTokenExpired         = &AppError{Code: ErrCodeTokenExpired, Message: "Confirmation token has expired"}
	ErrTokenAlreadyConsumed = &AppError{Code: ErrCodeTokenAlreadyConsumed, Message: "Confirmation token has already been used"}
	ErrConsistency          = &AppError{Code: ErrCodeConsistency, Message: "Dry run does not match the confirmed preview"}
	ErrStore                = &AppError{Code: ErrCodeStore, Message: "Confirmation store failure"}
	ErrAudit                = &AppError{Code: ErrCodeAudit, Message: "Audit log failure"}
	ErrBadRequest           = &AppError{Code: ErrCodeBadRequest, Message: "Bad request"}
	ErrUnauthorized         = &AppError{Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	ErrRateLimited          = &AppError{Code: ErrCodeRateLimited, Message: "Too many requests"}
)

// Pre-flight errors
func NewValidationError(details string) *AppError {
	return NewAppError(ErrCodeValidation, ErrValidation.Message, details, nil)
}

func NewVaguenessError(details string) *AppError {
	return NewAppError(ErrCodeVagueness, ErrVagueness.Message, details, nil)
}

func NewEmptyDryRunError(operation string) *AppError {
	return NewAppError(ErrCodeEmptyDryRun, ErrEmptyDryRun.Message, fmt.Sprintf("Operation: %s", operation), nil)
}

// Confirmation errors
func NewTokenNotFoundError() *AppError {
	return NewAppError(ErrCodeTokenNotFound, ErrTokenNotFound.Message, "", nil)
}

func NewTokenExpiredError(expiredAt string) *AppError {
	return NewAppError(ErrCodeTokenExpired, ErrTokenExpired.Message, fmt.Sprintf("Expired at: %s", expiredAt), nil)
}

func NewTokenAlreadyConsumedError() *AppError {
	return NewAppError(ErrCodeTokenAlreadyConsumed, ErrTokenAlreadyConsumed.Message, "", nil)
}

func NewConsistencyError(expected, got string) *AppError {
	return NewAppError(ErrCodeConsistency, ErrConsistency.Message, fmt.Sprintf("expected fingerprint %s, got %s", expected, got), nil)
}

// Infrastructure errors
func NewStoreError(operation string, cause error) *AppError {
	return NewAppError(ErrCodeStore, ErrStore.Message, fmt.Sprintf("Operation: %s", operation), cause)
}

func NewAuditError(operation string, cause error) *AppError {
	return NewAppError(ErrCodeAudit, ErrAudit.Message, fmt.Sprintf("Operation: %s", operation), cause)
}

// Request errors
func NewBadRequestError(details string) *AppError {
	return NewAppError(ErrCodeBadRequest, ErrBadRequest.Message, details, nil)
}

func NewUnauthorizedError(details string) *AppError {
	return NewAppError(ErrCodeUnauthorized, ErrUnauthorized.Message, details, nil)
}

func NewRateLimitedError(details string) *AppError {
	return NewAppError(ErrCodeRateLimited, ErrRateLimited.Message, details, nil)
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HTTPStatus maps an error to the status code the transport layer should use.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeValidation, ErrCodeVagueness, ErrCodeEmptyDryRun:
		return http.StatusUnprocessableEntity
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeTokenNotFound:
		return http.StatusNotFound
	case ErrCodeTokenExpired:
		return http.StatusGone
	case ErrCodeTokenAlreadyConsumed, ErrCodeConsistency:
		return http.StatusConflict
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeStore, ErrCodeAudit:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
