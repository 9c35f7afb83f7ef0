package capture

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MockDevice is a synthetic capture device for testing and demos.
// When Interval is positive it generates silence or a sine wave on its own
// goroutine; otherwise samples are only delivered through Push.
type MockDevice struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	deliver  func([]float32)
	running  bool
	closed   bool
	stopCh   chan struct{}
	interval time.Duration

	// StartErr, when set, is returned by Start.
	StartErr error

	// Counters for assertions.
	Starts atomic.Int64
	Stops  atomic.Int64
	Closes atomic.Int64

	// Synthetic audio generation
	phase     float64
	frequency float64 // Hz, 0 = silence
	amplitude float64 // 0.0 to 1.0
}

// MockOption configures a MockDevice.
type MockOption func(*MockDevice)

// WithSineWave configures the mock to generate a sine wave.
func WithSineWave(frequency, amplitude float64) MockOption {
	return func(m *MockDevice) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithInterval makes the mock generate one period of audio per interval.
func WithInterval(d time.Duration) MockOption {
	return func(m *MockDevice) {
		m.interval = d
	}
}

// NewMockDevice creates a mock device.
func NewMockDevice(cfg Config, logger *slog.Logger, opts ...MockOption) *MockDevice {
	if logger == nil {
		logger = slog.Default()
	}

	m := &MockDevice{
		cfg:       cfg.withDefaults(),
		logger:    logger.With("component", "capture.mock"),
		amplitude: 0.5,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// MockOpener returns an Opener that hands out dev, or fails with err.
func MockOpener(dev *MockDevice, err error) Opener {
	return func(cfg Config, logger *slog.Logger) (Device, error) {
		if err != nil {
			return nil, Classify("mock", err)
		}
		return dev, nil
	}
}

// Name returns "mock".
func (m *MockDevice) Name() string {
	return "mock"
}

// Start implements Device.
func (m *MockDevice) Start(fn func([]float32)) error {
	m.Starts.Add(1)
	if m.StartErr != nil {
		return m.StartErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrDeviceClosed
	}
	if m.running {
		return nil
	}

	m.running = true
	m.deliver = fn
	m.stopCh = make(chan struct{})

	if m.interval > 0 {
		go m.generateLoop(m.stopCh)
	}

	m.logger.Info("mock capture device started",
		"sample_rate", m.cfg.SampleRate,
		"frequency", m.frequency,
	)
	return nil
}

// Push delivers samples synchronously as if the device had produced them.
func (m *MockDevice) Push(samples []float32) {
	m.mu.Lock()
	fn := m.deliver
	running := m.running
	m.mu.Unlock()

	if running && fn != nil {
		fn(samples)
	}
}

func (m *MockDevice) generateLoop(stopCh chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	n := int(int64(m.interval) * int64(m.cfg.SampleRate) / int64(time.Second))
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.Push(m.generate(n))
		}
	}
}

func (m *MockDevice) generate(n int) []float32 {
	samples := make([]float32, n*m.cfg.Channels)

	if m.frequency > 0 {
		for i := 0; i < n; i++ {
			s := float32(m.amplitude * math.Sin(2*math.Pi*m.frequency*m.phase/float64(m.cfg.SampleRate)))
			for ch := 0; ch < m.cfg.Channels; ch++ {
				samples[i*m.cfg.Channels+ch] = s
			}

			m.phase++
			if m.phase >= float64(m.cfg.SampleRate) {
				m.phase = 0
			}
		}
	}
	// else: samples are already zero (silence)

	return samples
}

// Stop implements Device.
func (m *MockDevice) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	m.Stops.Add(1)
	m.running = false
	m.deliver = nil
	close(m.stopCh)
	return nil
}

// Close implements Device.
func (m *MockDevice) Close() error {
	m.Stop()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.Closes.Add(1)
	return nil
}

// Running reports whether the device is delivering samples.
func (m *MockDevice) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
