// Package errors defines the typed errors shared by the cache, session and upstream layers.
// AddonError carries a type classification, an optional upstream HTTP status and a cause.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AddonError represents a classified failure somewhere below the HTTP handlers.
type AddonError struct {
	Type    string
	Message string
	Status  int // upstream HTTP status, 0 when none
	Cause   error
}

func (e *AddonError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

func (e *AddonError) Unwrap() error {
	return e.Cause
}

// Error type constants
const (
	ErrorTypeUpstreamBlocked     = "TRANSIENT_UPSTREAM_BLOCK"
	ErrorTypeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrorTypeCacheStore          = "CACHE_STORE_FAILURE"
	ErrorTypeAuthentication      = "AUTHENTICATION_FAILURE"
	ErrorTypeInvalidInput        = "INVALID_INPUT"
	ErrorTypeNotFound            = "NOT_FOUND"
)

// ErrNotFound is returned by lookups whose upstream answer was an explicit "no such item".
var ErrNotFound = &AddonError{Type: ErrorTypeNotFound, Message: "resource not found"}

// New creates a new AddonError
func New(errorType, message string, cause error) *AddonError {
	return &AddonError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewUpstreamError classifies an upstream response by its status code.
// 403 is the upstream's blocking signal; 401 means the session was rejected.
func NewUpstreamError(status int, message string, cause error) *AddonError {
	errorType := ErrorTypeUpstreamUnavailable
	switch status {
	case http.StatusForbidden:
		errorType = ErrorTypeUpstreamBlocked
	case http.StatusUnauthorized:
		errorType = ErrorTypeAuthentication
	case http.StatusNotFound:
		errorType = ErrorTypeNotFound
	}
	return &AddonError{Type: errorType, Message: message, Status: status, Cause: cause}
}

// NewUnavailableError creates an error for network failures, timeouts and 5xx answers.
func NewUnavailableError(message string, cause error) *AddonError {
	return New(ErrorTypeUpstreamUnavailable, message, cause)
}

// NewAuthenticationError creates a login rejection error.
func NewAuthenticationError(message string, cause error) *AddonError {
	return New(ErrorTypeAuthentication, message, cause)
}

// NewInvalidInputError creates an error for missing or malformed caller input.
func NewInvalidInputError(message string) *AddonError {
	return New(ErrorTypeInvalidInput, message, nil)
}

// NewCacheStoreError wraps a backing store failure.
func NewCacheStoreError(store, op string, cause error) *AddonError {
	return New(ErrorTypeCacheStore, fmt.Sprintf("%s %s failed", store, op), cause)
}

// IsType reports whether err is, or wraps, an AddonError of the given type.
func IsType(err error, errorType string) bool {
	var ae *AddonError
	if stderrors.As(err, &ae) {
		return ae.Type == errorType
	}
	return false
}

// IsBlocked reports whether err is the upstream's 403 blocking signal.
func IsBlocked(err error) bool {
	return IsType(err, ErrorTypeUpstreamBlocked)
}

// IsNotFound reports whether err is a not-found answer.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ae *AddonError
	if stderrors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
