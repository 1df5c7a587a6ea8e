package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrCode represents an error code
type ErrCode string

const (
	ErrCodeNotFound     ErrCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrCode = "INTERNAL_ERROR"
	ErrCodeBadRequest   ErrCode = "BAD_REQUEST"

	// Crawl taxonomy
	ErrCodeTransientAPI   ErrCode = "TRANSIENT_API"
	ErrCodeQuotaExhausted ErrCode = "QUOTA_EXHAUSTED"
	ErrCodePersistence    ErrCode = "PERSISTENCE"
	ErrCodeConfigMismatch ErrCode = "CONFIG_MISMATCH"
	ErrCodeRejected       ErrCode = "REQUEST_REJECTED"
)

// AppError represents an application error
type AppError struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

// NewInaccessibleError reports a resource the credential may not read.
// It shares the NOT_FOUND code so callers skip it the same way.
func NewInaccessibleError(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s is not accessible", resource),
		Err:     err,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// NewTransientAPIError wraps a network or server side failure of a remote call
func NewTransientAPIError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeTransientAPI,
		Message: message,
		Err:     err,
	}
}

// NewQuotaExhaustedError signals that the API budget is too low to continue
func NewQuotaExhaustedError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeQuotaExhausted,
		Message: message,
		Err:     err,
	}
}

// NewRejectedError wraps a client error that retrying cannot fix
func NewRejectedError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeRejected,
		Message: message,
		Err:     err,
	}
}

// NewPersistenceError creates a checkpoint or report write failure
func NewPersistenceError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodePersistence,
		Message: message,
		Err:     err,
	}
}

// NewConfigMismatchError reports a checkpoint that belongs to another run
func NewConfigMismatchError(stored, requested string) *AppError {
	return &AppError{
		Code:    ErrCodeConfigMismatch,
		Message: fmt.Sprintf("checkpoint is for %s, requested %s", stored, requested),
	}
}

// AsAppError returns the first AppError in err's chain, or nil if none
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none
func CodeOf(err error) ErrCode {
	if appErr := AsAppError(err); appErr != nil {
		return appErr.Code
	}
	return ""
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsTransient checks if the error is a transient API error
func IsTransient(err error) bool {
	return CodeOf(err) == ErrCodeTransientAPI
}

// IsQuotaExhausted checks if the error is a quota exhaustion signal
func IsQuotaExhausted(err error) bool {
	return CodeOf(err) == ErrCodeQuotaExhausted
}

// IsPersistence checks if the error is a persistence error
func IsPersistence(err error) bool {
	return CodeOf(err) == ErrCodePersistence
}

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	return CodeOf(err) == ErrCodeUnauthorized
}

// IsRejected checks if the error is a permanent client error
func IsRejected(err error) bool {
	return CodeOf(err) == ErrCodeRejected
}
