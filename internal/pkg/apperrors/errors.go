package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrValidation ErrorType = "VALIDATION_ERROR"
	ErrParse      ErrorType = "PARSE_ERROR"
	ErrCrypto     ErrorType = "CRYPTO_ERROR"
	ErrRemote     ErrorType = "REMOTE_ERROR"
	ErrAuthFailed ErrorType = "AUTH_FAILED"
	ErrNotFound   ErrorType = "NOT_FOUND"
	ErrInternal   ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewValidation(msg string) *AppError {
	return New(ErrValidation, msg, nil)
}

func NewParse(msg string, cause error) *AppError {
	return New(ErrParse, msg, cause)
}

func NewCrypto(msg string, cause error) *AppError {
	return New(ErrCrypto, msg, cause)
}

// NewRemote carries the upstream HTTP status instead of the mapped default.
func NewRemote(status int, msg string) *AppError {
	e := New(ErrRemote, msg, nil)
	e.HTTPStatus = status
	return e
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Type == t
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrValidation, ErrParse:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrValidation:
		return "Check order parameters before resubmitting."
	case ErrParse:
		return "Check numeric field formatting."
	case ErrCrypto:
		return "Check the configured signing key."
	case ErrAuthFailed:
		return "Check account address and signature timestamps."
	case ErrRemote:
		return "Inspect the upstream error message."
	default:
		return ""
	}
}
