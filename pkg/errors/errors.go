package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeAppError   = "APP_ERROR"
	CodeUpstream   = "UPSTREAM_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeConfig     = "CONFIG_ERROR"
	CodeCache      = "CACHE_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
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

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// UpstreamError is returned when a third-party API answers with a non-success status.
// Body holds the raw response body as received.
type UpstreamError struct {
	*AppError
	Service string
	Status  int
	Body    string
}

func NewUpstreamError(service, message string, status int, body string) *UpstreamError {
	return &UpstreamError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeUpstream,
			StatusCode: http.StatusInternalServerError,
			Context: map[string]any{
				"service": service,
				"status":  status,
			},
		},
		Service: service,
		Status:  status,
		Body:    body,
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: http.StatusBadRequest,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// ConfigError signals a server misconfiguration such as a missing credential.
type ConfigError struct {
	*AppError
	Setting string
}

func NewConfigError(message, setting string) *ConfigError {
	return &ConfigError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeConfig,
			StatusCode: http.StatusInternalServerError,
			Context: map[string]any{
				"setting": setting,
			},
		},
		Setting: setting,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: http.StatusInternalServerError,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// StatusCode resolves the HTTP status carried by err, defaulting to 500.
func StatusCode(err error) int {
	var validationErr *ValidationError
	if stderrors.As(err, &validationErr) {
		return validationErr.StatusCode
	}
	var configErr *ConfigError
	if stderrors.As(err, &configErr) {
		return configErr.StatusCode
	}
	var upstreamErr *UpstreamError
	if stderrors.As(err, &upstreamErr) {
		return upstreamErr.StatusCode
	}
	var cacheErr *CacheError
	if stderrors.As(err, &cacheErr) {
		return cacheErr.StatusCode
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// Message returns the user-facing message of err without the wrapped cause.
func Message(err error) string {
	var validationErr *ValidationError
	if stderrors.As(err, &validationErr) {
		return validationErr.Message
	}
	var configErr *ConfigError
	if stderrors.As(err, &configErr) {
		return configErr.Message
	}
	var upstreamErr *UpstreamError
	if stderrors.As(err, &upstreamErr) {
		return upstreamErr.Message
	}
	var cacheErr *CacheError
	if stderrors.As(err, &cacheErr) {
		return cacheErr.Message
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func IsConfigError(err error) bool {
	var configErr *ConfigError
	return stderrors.As(err, &configErr)
}

func IsUpstreamError(err error) bool {
	var upstreamErr *UpstreamError
	return stderrors.As(err, &upstreamErr)
}
