package capture

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the capture package.
var (
	// ErrAlreadyStarted indicates Start was called twice on one Stage.
	ErrAlreadyStarted = errors.New("capture: already started")

	// ErrStopped indicates the Stage was stopped and cannot be restarted.
	ErrStopped = errors.New("capture: stage stopped")

	// ErrDeviceClosed indicates the device was already released.
	ErrDeviceClosed = errors.New("capture: device closed")
)

// ErrorKind classifies device failures.
type ErrorKind int

const (
	// KindEngineFailed means the audio engine or processing task failed to initialize.
	KindEngineFailed ErrorKind = iota
	// KindPermissionDenied means the OS refused microphone access.
	KindPermissionDenied
	// KindDeviceBusy means another process holds the device.
	KindDeviceBusy
	// KindDeviceNotFound means no matching capture device exists.
	KindDeviceNotFound
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission denied"
	case KindDeviceBusy:
		return "device busy"
	case KindDeviceNotFound:
		return "device not found"
	default:
		return "audio engine failed"
	}
}

// DeviceError is returned when a capture device cannot be opened or started.
type DeviceError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Device names the backend or device that failed.
	Device string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("capture: %s: %s: %v", e.Device, e.Kind, e.Cause)
	}
	return fmt.Sprintf("capture: %s: %s", e.Device, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *DeviceError) Unwrap() error {
	return e.Cause
}

// Message returns a short reason suitable for showing to an operator.
func (e *DeviceError) Message() string {
	switch e.Kind {
	case KindPermissionDenied:
		return "Microphone access was denied"
	case KindDeviceBusy:
		return "Microphone is in use by another application"
	case KindDeviceNotFound:
		return "No microphone was found"
	default:
		return "Audio engine failed to start"
	}
}

// NewDeviceError creates a DeviceError of an explicit kind.
func NewDeviceError(kind ErrorKind, device string, cause error) *DeviceError {
	return &DeviceError{Kind: kind, Device: device, Cause: cause}
}

// Classify wraps a backend error in a DeviceError, inferring its kind
// from the backend's message.
func Classify(device string, err error) *DeviceError {
	var de *DeviceError
	if errors.As(err, &de) {
		return de
	}

	msg := strings.ToLower(err.Error())
	kind := KindEngineFailed
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "access denied"), strings.Contains(msg, "not allowed"):
		kind = KindPermissionDenied
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"):
		kind = KindDeviceBusy
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no device"), strings.Contains(msg, "does not exist"), strings.Contains(msg, "no such"):
		kind = KindDeviceNotFound
	}
	return &DeviceError{Kind: kind, Device: device, Cause: err}
}

// Error checking helpers.

// IsDeviceError returns true if err carries a DeviceError.
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

// IsPermissionDenied returns true if the OS refused microphone access.
func IsPermissionDenied(err error) bool {
	return kindOf(err) == KindPermissionDenied
}

// IsDeviceBusy returns true if the device is held elsewhere.
func IsDeviceBusy(err error) bool {
	return kindOf(err) == KindDeviceBusy
}

// IsDeviceNotFound returns true if no capture device was found.
func IsDeviceNotFound(err error) bool {
	return kindOf(err) == KindDeviceNotFound
}

func kindOf(err error) ErrorKind {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Kind
	}
	return -1
}
