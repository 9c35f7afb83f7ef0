package session

import (
	"errors"
	"fmt"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/capture"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/channel"
)

// Sentinel errors for the session package.
var (
	// ErrAlreadyRunning indicates a call is connecting or active.
	ErrAlreadyRunning = errors.New("session: a call is already in progress")

	// ErrProcessing indicates post-call processing is running.
	ErrProcessing = errors.New("session: call is being processed")

	// ErrInvalidState indicates the operation does not apply in the
	// current state.
	ErrInvalidState = errors.New("session: invalid state for operation")

	// ErrCancelled indicates the call was ended while it was starting.
	ErrCancelled = errors.New("session: start cancelled")

	// ErrClosed indicates the controller was closed.
	ErrClosed = errors.New("session: controller closed")

	// ErrNoGenerator indicates no report generator is configured.
	ErrNoGenerator = errors.New("session: no report generator configured")

	// ErrMissingCredentials indicates no API key is configured.
	ErrMissingCredentials = errors.New("session: API credentials are not configured")

	// ErrNetworkUnreachable indicates the model endpoint cannot be reached.
	ErrNetworkUnreachable = errors.New("session: network unreachable")
)

// Start phases reported in StartError.
const (
	PhasePreflight = "preflight"
	PhaseDevice    = "device"
	PhasePlayback  = "playback"
	PhaseChannel   = "channel"
)

// StartError is returned when a call fails to start. Reason is the short
// message shown to the operator.
type StartError struct {
	Phase  string
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *StartError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session: start failed (%s): %s: %v", e.Phase, e.Reason, e.Cause)
	}
	return fmt.Sprintf("session: start failed (%s): %s", e.Phase, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *StartError) Unwrap() error {
	return e.Cause
}

// IsStartError returns true if err is a StartError.
func IsStartError(err error) bool {
	var se *StartError
	return errors.As(err, &se)
}

// reason maps a failure to the short message stored with the ERROR state.
func reason(err error) string {
	var de *capture.DeviceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials):
		return "API credentials are not configured"
	case errors.Is(err, ErrNetworkUnreachable):
		return "Network is unreachable"
	case errors.As(err, &de):
		return de.Message()
	default:
		return channel.Reason(err)
	}
}
