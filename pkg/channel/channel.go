package channel

import (
	"context"
	"sync"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// Channel is an open session with the remote model.
type Channel interface {
	// Events returns the ordered inbound event stream.
	Events() <-chan Event

	// SendAudio transmits one block of caller audio.
	SendAudio(p audioio.Packet) error

	// SendToolResult acknowledges a tool call.
	SendToolResult(id, name string, result map[string]any) error

	// Close ends the session. It is safe to call Close multiple times.
	Close() error
}

// Dialer opens sessions.
type Dialer interface {
	Connect(ctx context.Context, cfg SessionConfig) (Channel, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, cfg SessionConfig) (Channel, error)

// Connect implements Dialer.
func (f DialerFunc) Connect(ctx context.Context, cfg SessionConfig) (Channel, error) {
	return f(ctx, cfg)
}

// ConnectionState represents the connection lifecycle.
type ConnectionState int

const (
	// StateDisconnected means no active connection.
	StateDisconnected ConnectionState = iota
	// StateConnecting means the transport is up and setup is pending.
	StateConnecting
	// StateConnected means the session was accepted.
	StateConnected
	// StateClosed means the session ended.
	StateClosed
)

// String returns the string representation of the connection state.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// stream owns the event channel shared by the transports. finish closes it
// exactly once; emits after that are dropped.
type stream struct {
	events chan Event
	done   chan struct{}

	mu        sync.Mutex
	finished  bool
	closeOnce sync.Once
}

func newStream(size int) *stream {
	return &stream{
		events: make(chan Event, size),
		done:   make(chan struct{}),
	}
}

// emit delivers ev unless the stream finished or was closed locally.
func (s *stream) emit(ev Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return false
	}
	return s.send(ev)
}

func (s *stream) send(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// finish delivers Closed (unless closed locally) and closes the stream.
func (s *stream) finish(closed Closed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.send(closed)
	close(s.events)
}

// shutdown marks the stream closed locally. It reports whether this was
// the first call.
func (s *stream) shutdown() bool {
	first := false
	s.closeOnce.Do(func() {
		close(s.done)
		first = true
	})
	return first
}

func (s *stream) isShutdown() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
