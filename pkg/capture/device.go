package capture

import "log/slog"

// Device is an acquired capture device. Acquisition happens in an Opener;
// Start begins delivery and Close releases the device and its context.
type Device interface {
	// Name returns the backend name (e.g., "malgo", "rtp", "mock").
	Name() string

	// Start begins delivering interleaved, normalized float samples to fn.
	// fn is called from the device's own thread and must not block.
	Start(fn func(samples []float32)) error

	// Stop halts delivery. It is safe to call Stop multiple times.
	Stop() error

	// Close releases the device. It is safe to call Close multiple times.
	Close() error
}

// Opener acquires a capture device for the given format.
// It returns a *DeviceError when the device cannot be used.
type Opener func(cfg Config, logger *slog.Logger) (Device, error)
