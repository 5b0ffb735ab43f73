// Package apierrors contains the errors returned to API consumers and the mapping from
// error kinds to HTTP status codes.
package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidRequest Kind = "invalid_request"
	KindConflict       Kind = "conflict"
	KindForbidden      Kind = "forbidden"
	KindInternal       Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindNotFound:       http.StatusNotFound,
	KindInvalidRequest: http.StatusBadRequest,
	KindConflict:       http.StatusConflict,
	KindForbidden:      http.StatusForbidden,
	KindInternal:       http.StatusInternalServerError,
}

// APIError is an error safe to be encoded in a response body.
type APIError struct {
	Kind           Kind   `json:"kind"`
	Detail         string `json:"detail"`
	httpStatusCode int
	cause          error
}

// APIErrorOption determines the Functional Options used to create a new APIError.
type APIErrorOption func(e *APIError)

// WithDetail sets the message shown to the caller.
func WithDetail(detail string) APIErrorOption {
	return func(e *APIError) {
		e.Detail = detail
	}
}

// WithKind sets the error kind. The HTTP status follows the kind unless set explicitly.
func WithKind(kind Kind) APIErrorOption {
	return func(e *APIError) {
		e.Kind = kind
	}
}

// WithHTTPStatusCode overrides the HTTP status derived from the kind.
func WithHTTPStatusCode(code int) APIErrorOption {
	return func(e *APIError) {
		e.httpStatusCode = code
	}
}

// WithCause keeps the underlying error for logging. It is never encoded.
func WithCause(err error) APIErrorOption {
	return func(e *APIError) {
		e.cause = err
	}
}

// NewAPIError creates a new APIError using the given options.
func NewAPIError(opts ...APIErrorOption) *APIError {
	e := &APIError{Kind: KindInternal}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NotFound creates a KindNotFound error.
func NotFound(format string, args ...interface{}) *APIError {
	return NewAPIError(WithKind(KindNotFound), WithDetail(fmt.Sprintf(format, args...)))
}

// InvalidRequest creates a KindInvalidRequest error.
func InvalidRequest(format string, args ...interface{}) *APIError {
	return NewAPIError(WithKind(KindInvalidRequest), WithDetail(fmt.Sprintf(format, args...)))
}

// Conflict creates a KindConflict error caused by err.
func Conflict(detail string, err error) *APIError {
	return NewAPIError(WithKind(KindConflict), WithDetail(detail), WithCause(err))
}

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// HTTPStatusCode returns the status code used to answer with this error.
func (e *APIError) HTTPStatusCode() int {
	if e.httpStatusCode != 0 {
		return e.httpStatusCode
	}
	if code, ok := kindStatus[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// ValidationError represents a field that failed validation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// KindOf returns the kind of err, KindInternal when it carries none.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindInvalidRequest
	}
	return KindInternal
}

// StatusCode returns the HTTP status code for any error.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode()
	}
	return kindStatus[KindOf(err)]
}

// Write writes the status code of err and, when err is safe to expose, its JSON body.
// Internal errors are answered without a body.
func Write(w http.ResponseWriter, err error) {
	w.WriteHeader(StatusCode(err))
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		_ = json.NewEncoder(w).Encode(apiErr)
		return
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		_ = json.NewEncoder(w).Encode(validationErr)
	}
}
