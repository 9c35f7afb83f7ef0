package playback

import (
	"errors"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// ErrClosed indicates the destination or scheduler was torn down.
var ErrClosed = errors.New("playback: closed")

// Handle is a scheduled buffer.
type Handle interface {
	// Stop cuts the buffer off immediately. Its ended callback does not fire.
	Stop()
}

// Destination is an audio output with its own clock.
type Destination interface {
	// Now returns the audio clock in seconds.
	Now() float64

	// Schedule queues buf to start at the given clock time. onEnded is called
	// once, without destination locks held, after the buffer has fully played.
	Schedule(buf audioio.Buffer, at float64, onEnded func()) (Handle, error)

	// Close releases the output. Scheduled buffers are discarded.
	Close() error
}

// Flusher is implemented by destinations that hold rendered audio in a
// device buffer which must be discarded on interruption.
type Flusher interface {
	Flush()
}
