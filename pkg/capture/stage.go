package capture

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// Stats contains counters for a Stage.
type Stats struct {
	FramesEmitted int64 `json:"frames_emitted"`
	FramesDropped int64 `json:"frames_dropped"`
}

// Stage frames device samples into fixed-size PCM16 frames.
type Stage struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	device  Device
	out     chan audioio.Frame
	started bool
	stopped bool

	// pending is only touched from the device callback.
	pending []float32

	emitted atomic.Int64
	dropped atomic.Int64
}

// NewStage creates a Stage. Zero config fields take their defaults.
func NewStage(cfg Config, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Stage{
		cfg:     cfg,
		logger:  logger.With("component", "capture.stage"),
		pending: make([]float32, 0, cfg.BlockSize*cfg.Channels*2),
	}
}

// Config returns the stage configuration.
func (s *Stage) Config() Config {
	return s.cfg
}

// Start begins framing samples from dev. The returned channel is closed
// by Stop. A device start failure is returned as a *DeviceError and the
// stage is left stopped.
func (s *Stage) Start(dev Device) (<-chan audioio.Frame, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	s.started = true
	s.device = dev
	s.out = make(chan audioio.Frame, s.cfg.QueueSize)
	out := s.out
	s.mu.Unlock()

	if err := dev.Start(s.process); err != nil {
		s.Stop()
		return nil, Classify(dev.Name(), err)
	}

	s.logger.Info("capture started",
		"device", dev.Name(),
		"sample_rate", s.cfg.SampleRate,
		"channels", s.cfg.Channels,
		"block_size", s.cfg.BlockSize,
	)
	return out, nil
}

// Stop halts the device and closes the frame channel.
// It is idempotent and safe to call before or without Start.
func (s *Stage) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	dev := s.device
	if s.out != nil {
		close(s.out)
	}
	s.mu.Unlock()

	if dev == nil {
		return nil
	}

	s.logger.Debug("capture stopped",
		"frames_emitted", s.emitted.Load(),
		"frames_dropped", s.dropped.Load(),
	)
	return dev.Stop()
}

// Stats returns the frame counters.
func (s *Stage) Stats() Stats {
	return Stats{
		FramesEmitted: s.emitted.Load(),
		FramesDropped: s.dropped.Load(),
	}
}

// process runs on the device thread.
func (s *Stage) process(samples []float32) {
	s.pending = append(s.pending, samples...)

	block := s.cfg.BlockSize * s.cfg.Channels
	for len(s.pending) >= block {
		frame := audioio.NewFrame(audioio.FloatsToInt16(s.pending[:block]), s.cfg.SampleRate, s.cfg.Channels)
		s.emit(frame)

		n := copy(s.pending, s.pending[block:])
		s.pending = s.pending[:n]
	}
}

func (s *Stage) emit(frame audioio.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	select {
	case s.out <- frame:
		s.emitted.Add(1)
	default:
		if s.dropped.Add(1)%50 == 1 {
			s.logger.Warn("capture queue full, dropping frames", "dropped", s.dropped.Load())
		}
	}
}
