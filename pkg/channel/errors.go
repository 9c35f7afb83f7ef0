package channel

import (
	"errors"
	"fmt"
)

// Sentinel errors for the channel package.
var (
	// ErrMissingAPIKey indicates the API key was not provided.
	ErrMissingAPIKey = errors.New("channel: API key is required")

	// ErrMissingModel indicates no model was configured.
	ErrMissingModel = errors.New("channel: model is required")

	// ErrNotConnected indicates the session is not open.
	ErrNotConnected = errors.New("channel: not connected")

	// ErrConnectionClosed indicates the session was closed.
	ErrConnectionClosed = errors.New("channel: connection closed")

	// ErrSendFailed indicates sending a message failed.
	ErrSendFailed = errors.New("channel: send failed")

	// ErrInvalidMessage indicates a malformed message was received.
	ErrInvalidMessage = errors.New("channel: invalid message")
)

// APIError is an error reported by the remote service, either in an HTTP
// handshake response or a websocket close frame.
type APIError struct {
	// StatusCode is the HTTP status or websocket close code.
	StatusCode int

	// Message is the human-readable error message.
	Message string

	// Retryable indicates if the request can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("channel: API error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("channel: API error: %s", e.Message)
}

// IsRetryable returns true if the error can be retried.
func (e *APIError) IsRetryable() bool {
	return e.Retryable
}

// NewAPIError creates a new APIError.
func NewAPIError(statusCode int, message string) *APIError {
	retryable := statusCode == 429 || (statusCode >= 500 && statusCode < 1000) || statusCode == 1011 || statusCode == 1013
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Retryable:  retryable,
	}
}

// ConnectionError represents a transport failure.
type ConnectionError struct {
	// Reason describes why the connection failed.
	Reason string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if reconnection should be attempted.
	Retryable bool
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("channel: connection error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("channel: connection error: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if reconnection should be attempted.
func (e *ConnectionError) IsRetryable() bool {
	return e.Retryable
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(reason string, cause error, retryable bool) *ConnectionError {
	return &ConnectionError{
		Reason:    reason,
		Cause:     cause,
		Retryable: retryable,
	}
}

// Error checking helpers.

// IsNotConnected returns true if the error indicates no open session.
func IsNotConnected(err error) bool {
	return errors.Is(err, ErrNotConnected) || errors.Is(err, ErrConnectionClosed)
}

// IsRetryable returns true if the error can be retried.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.IsRetryable()
	}
	return false
}

// Reason returns a short human-readable reason for a channel error.
func Reason(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
