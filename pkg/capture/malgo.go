package capture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// MalgoDevice captures from the default system microphone through miniaudio.
// It owns its own audio context, released by Close.
type MalgoDevice struct {
	logger *slog.Logger

	ctx    *malgo.AllocatedContext
	device *malgo.Device

	mu      sync.Mutex
	deliver func([]float32)
	running bool
	closed  bool
}

// OpenMalgo acquires the default capture device as float32 samples at the
// configured rate and channel count.
func OpenMalgo(cfg Config, logger *slog.Logger) (Device, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, NewDeviceError(KindEngineFailed, "malgo", err)
	}

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime

	ctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, NewDeviceError(KindEngineFailed, "malgo", fmt.Errorf("init context: %w", err))
	}

	d := &MalgoDevice{
		logger: logger.With("component", "capture.malgo"),
		ctx:    ctx,
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = uint32(cfg.Period.Milliseconds())
	deviceConfig.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: d.onData,
	})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, Classify("malgo", err)
	}
	d.device = device

	d.logger.Info("microphone acquired",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"period", cfg.Period,
	)
	return d, nil
}

// Name returns "malgo".
func (d *MalgoDevice) Name() string {
	return "malgo"
}

// Start implements Device.
func (d *MalgoDevice) Start(fn func([]float32)) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDeviceClosed
	}
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.deliver = fn
	d.running = true
	d.mu.Unlock()

	if err := d.device.Start(); err != nil {
		d.mu.Lock()
		d.running = false
		d.deliver = nil
		d.mu.Unlock()
		return Classify("malgo", err)
	}
	return nil
}

func (d *MalgoDevice) onData(_, input []byte, _ uint32) {
	d.mu.Lock()
	fn := d.deliver
	d.mu.Unlock()

	if fn == nil || len(input) == 0 {
		return
	}
	fn(audioio.BytesToFloat32(input))
}

// Stop implements Device.
func (d *MalgoDevice) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.deliver = nil
	d.mu.Unlock()

	return d.device.Stop()
}

// Close stops the device, uninitializes it and releases the audio context.
func (d *MalgoDevice) Close() error {
	if err := d.Stop(); err != nil {
		d.logger.Debug("stop before close failed", "error", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	d.device.Uninit()
	err := d.ctx.Uninit()
	d.ctx.Free()

	d.logger.Info("microphone released")
	return err
}
