package capture

import (
	"errors"
	"time"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// Config describes the capture format and framing.
type Config struct {
	// SampleRate in Hz. Default 16000.
	SampleRate int

	// Channels is 1 for mono. Default 1.
	Channels int

	// BlockSize is the number of samples per channel in every emitted frame.
	// Default 512 (32ms at 16 kHz).
	BlockSize int

	// QueueSize is the capacity of the frame channel. Default 64.
	QueueSize int

	// Period is the device callback period hint. Default 20ms.
	Period time.Duration
}

// DefaultConfig returns the capture format expected by the remote model.
func DefaultConfig() Config {
	return Config{
		SampleRate: audioio.CaptureSampleRate,
		Channels:   1,
		BlockSize:  512,
		QueueSize:  64,
		Period:     20 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("capture: sample rate must be positive")
	}
	if c.Channels <= 0 {
		return errors.New("capture: channels must be positive")
	}
	if c.BlockSize <= 0 {
		return errors.New("capture: block size must be positive")
	}
	if c.QueueSize <= 0 {
		return errors.New("capture: queue size must be positive")
	}
	return nil
}

// FrameDuration returns the duration covered by one emitted frame.
func (c Config) FrameDuration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(c.BlockSize) * time.Second / time.Duration(c.SampleRate)
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SampleRate == 0 {
		c.SampleRate = def.SampleRate
	}
	if c.Channels == 0 {
		c.Channels = def.Channels
	}
	if c.BlockSize == 0 {
		c.BlockSize = def.BlockSize
	}
	if c.QueueSize == 0 {
		c.QueueSize = def.QueueSize
	}
	if c.Period == 0 {
		c.Period = def.Period
	}
	return c
}
