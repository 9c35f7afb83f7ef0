package playback

import (
	"errors"
	"time"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// Config configures playback.
type Config struct {
	// SampleRate of the output device. Default 24000.
	SampleRate int

	// Channels of the output device. Default 1.
	Channels int

	// ResponseDelay is added before the first buffer of an utterance, when
	// the cursor had fallen behind the clock. Zero disables it.
	ResponseDelay time.Duration

	// DeviceBuffer is the speaker buffer size. Default 40ms.
	DeviceBuffer time.Duration
}

// DefaultConfig returns the playback format of synthesized speech.
func DefaultConfig() Config {
	return Config{
		SampleRate:   audioio.PlaybackSampleRate,
		Channels:     1,
		DeviceBuffer: 40 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("playback: sample rate must be positive")
	}
	if c.Channels <= 0 {
		return errors.New("playback: channels must be positive")
	}
	if c.ResponseDelay < 0 {
		return errors.New("playback: response delay must be non-negative")
	}
	return nil
}
