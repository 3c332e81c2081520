package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"newsroom/internal/docstore"
)

// AppError represents an application error
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
	ErrCodeDecode             = "DECODE_ERROR"
	ErrCodeConflictExhausted  = "CONFLICT_EXHAUSTED"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeConfiguration      = "CONFIGURATION_ERROR"
	ErrCodeFeature            = "FEATURE_ERROR"
)

// Common error constructors
func NewValidationError(message string, err error) *AppError {
	return NewAppError(ErrCodeValidation, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrCodeNotFound, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(ErrCodeInternal, message, err)
}

func NewConfigurationError(message string, err error) *AppError {
	return NewAppError(ErrCodeConfiguration, message, err)
}

func NewFeatureError(featureName, message string, err error) *AppError {
	return NewAppError(ErrCodeFeature, fmt.Sprintf("[%s] %s", featureName, message), err)
}

// ErrorResponse represents an error response for API endpoints
type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *AppError) *ErrorResponse {
	return &ErrorResponse{
		Error:   err,
		Success: false,
	}
}

// WriteErrorResponse writes an error response to an HTTP response writer
func WriteErrorResponse(w http.ResponseWriter, statusCode int, err *AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := NewErrorResponse(err)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// GetHTTPStatusCode returns the appropriate HTTP status code for an error
func GetHTTPStatusCode(err *AppError) int {
	switch err.Code {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflictExhausted:
		return http.StatusConflict
	case ErrCodeBackendUnavailable:
		return http.StatusBadGateway
	case ErrCodeDecode, ErrCodeInternal, ErrCodeConfiguration, ErrCodeFeature:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// HandleError classifies an error and writes the matching HTTP response.
// Document store failures keep their kind so the caller can retry by hand;
// stale state is never dressed up as success.
func HandleError(w http.ResponseWriter, err error) {
	appErr := Classify(err)
	WriteErrorResponse(w, GetHTTPStatusCode(appErr), appErr)
}

// Classify converts any error into an AppError, mapping the document store's
// typed failures onto their error codes.
func Classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var unavailable *docstore.BackendUnavailableError
	if errors.As(err, &unavailable) {
		return NewAppError(ErrCodeBackendUnavailable, "The storage backend is unreachable", err)
	}

	var decodeErr *docstore.DecodeError
	if errors.As(err, &decodeErr) {
		return NewAppError(ErrCodeDecode, "The stored document is malformed", err)
	}

	var exhausted *docstore.OptimisticLockExhaustedError
	if errors.As(err, &exhausted) {
		return NewAppError(ErrCodeConflictExhausted, "The document changed too often, please retry", err)
	}

	if errors.Is(err, docstore.ErrNotFound) {
		return NewNotFoundError("Document not found", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}
