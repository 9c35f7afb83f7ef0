package playback

import (
	"log/slog"
	"sync"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// Scheduler queues buffers back-to-back on a Destination's clock.
type Scheduler struct {
	dest   Destination
	delay  float64
	logger *slog.Logger

	mu      sync.Mutex
	cursor  float64
	pending map[uint64]Handle
	nextID  uint64
	closed  bool

	// OnPendingChange, if set, is called with the pending count after
	// every change. It runs with the scheduler lock held and must not
	// call back into the Scheduler.
	OnPendingChange func(n int)
}

// NewScheduler creates a scheduler over dest.
func NewScheduler(dest Destination, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		dest:    dest,
		delay:   cfg.ResponseDelay.Seconds(),
		logger:  logger.With("component", "playback.scheduler"),
		pending: make(map[uint64]Handle),
	}
}

// Enqueue schedules buf immediately after everything already queued and
// returns its start time. It reports false when nothing was scheduled:
// an empty buffer, a torn-down scheduler, or a destination failure.
func (s *Scheduler) Enqueue(buf audioio.Buffer) (float64, bool) {
	if buf.Frames() == 0 {
		return 0, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, false
	}

	if now := s.dest.Now(); s.cursor < now {
		if s.delay > 0 {
			s.cursor = now + s.delay
		} else {
			s.cursor = now
		}
	}

	start := s.cursor
	id := s.nextID
	s.nextID++

	h, err := s.dest.Schedule(buf, start, func() { s.ended(id) })
	if err != nil {
		s.logger.Warn("failed to schedule audio", "error", err)
		return 0, false
	}

	s.cursor += buf.Duration()
	if h != nil {
		s.pending[id] = h
		s.notify()
	}
	return start, true
}

func (s *Scheduler) ended(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; ok {
		delete(s.pending, id)
		s.notify()
	}
}

// Interrupt stops every queued buffer and resets the cursor to zero.
// It is idempotent and completes before returning.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	n := s.drainLocked()
	closed := s.closed
	s.mu.Unlock()

	// The device may be inside an ended callback waiting for s.mu,
	// so flush without holding it.
	if f, ok := s.dest.(Flusher); ok && !closed {
		f.Flush()
	}
	if n > 0 {
		s.logger.Debug("playback interrupted", "stopped", n)
	}
}

// Teardown stops all queued audio and releases the destination.
// It is idempotent.
func (s *Scheduler) Teardown() error {
	s.mu.Lock()
	s.drainLocked()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.dest.Close()
}

func (s *Scheduler) drainLocked() int {
	n := len(s.pending)
	for id, h := range s.pending {
		h.Stop()
		delete(s.pending, id)
	}
	s.cursor = 0
	if n > 0 {
		s.notify()
	}
	return n
}

func (s *Scheduler) notify() {
	if s.OnPendingChange != nil {
		s.OnPendingChange(len(s.pending))
	}
}

// Cursor returns the audio-clock time at which the next buffer would start.
func (s *Scheduler) Cursor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Pending returns the number of buffers scheduled and not yet finished.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Playing reports whether any buffer is still scheduled.
func (s *Scheduler) Playing() bool {
	return s.Pending() > 0
}
