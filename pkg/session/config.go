package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/internal/httpc"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/capture"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/channel"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/metrics"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/playback"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/report"
)

// Default configuration values.
const (
	DefaultSettleDelay     = 250 * time.Millisecond
	DefaultPrimingDuration = 100 * time.Millisecond
	DefaultSendQueue       = 64
	DefaultSubscriberQueue = 16
)

// Config configures a Controller.
type Config struct {
	// SettleDelay is the wait after the channel opens before the silence
	// priming frame is sent and live audio starts flowing.
	SettleDelay time.Duration

	// PrimingDuration is the length of the silence priming frame.
	PrimingDuration time.Duration

	// SendQueue bounds the outbound frame queue. Frames are dropped when
	// it is full.
	SendQueue int

	// Capture configures the capture stage.
	Capture capture.Config

	// Playback configures the playback scheduler. ResponseDelay is taken
	// from the call settings.
	Playback playback.Config

	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		SettleDelay:     DefaultSettleDelay,
		PrimingDuration: DefaultPrimingDuration,
		SendQueue:       DefaultSendQueue,
		Capture:         capture.DefaultConfig(),
		Playback:        playback.DefaultConfig(),
		Logger:          slog.Default(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SettleDelay < 0 {
		return errors.New("session: settle delay must be non-negative")
	}
	if c.PrimingDuration < 0 {
		return errors.New("session: priming duration must be non-negative")
	}
	if c.SendQueue <= 0 {
		return errors.New("session: send queue must be positive")
	}
	if err := c.Capture.Validate(); err != nil {
		return err
	}
	return c.Playback.Validate()
}

// Check is a start precondition. It runs before any resource is acquired.
type Check func(ctx context.Context) error

// RequireCredentials fails when key is empty.
func RequireCredentials(key string) Check {
	return func(context.Context) error {
		if strings.TrimSpace(key) == "" {
			return ErrMissingCredentials
		}
		return nil
	}
}

// RequireReachable fails when rawURL cannot be reached within timeout.
func RequireReachable(rawURL string, timeout time.Duration) Check {
	return func(ctx context.Context) error {
		if err := httpc.Reachable(ctx, rawURL, timeout); err != nil {
			return fmt.Errorf("%w: %v", ErrNetworkUnreachable, err)
		}
		return nil
	}
}

// DestinationFactory creates the speaker output for a call.
type DestinationFactory func(cfg playback.Config, logger *slog.Logger) (playback.Destination, error)

// Recorder receives the caller's audio while a call is active.
type Recorder interface {
	Write(f audioio.Frame)
	Stop() error
}

// RecorderFactory creates a recorder for a call.
type RecorderFactory func(sessionID string) (Recorder, error)

// Deps are the collaborators of a Controller.
type Deps struct {
	// Dialer opens the model channel. Required.
	Dialer channel.Dialer

	// OpenDevice acquires the microphone. Required.
	OpenDevice capture.Opener

	// NewDestination creates the speaker output. Required.
	NewDestination DestinationFactory

	// Preflight checks run before anything is acquired.
	Preflight []Check

	// Forwarder delivers follow-up emails. Optional.
	Forwarder intake.FollowUpForwarder

	// Reports generates post-call reports. Optional.
	Reports report.Generator

	// Recorder records caller audio. Optional.
	Recorder RecorderFactory

	// Metrics records session metrics. Optional.
	Metrics *metrics.Metrics
}

// Validate checks that the required collaborators are set.
func (d Deps) Validate() error {
	if d.Dialer == nil {
		return errors.New("session: dialer is required")
	}
	if d.OpenDevice == nil {
		return errors.New("session: device opener is required")
	}
	if d.NewDestination == nil {
		return errors.New("session: destination factory is required")
	}
	return nil
}
