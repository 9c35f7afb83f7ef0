package capture

import (
	"errors"
	"testing"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.BlockSize = 4
	cfg.QueueSize = 16
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"zero channels", func(c *Config) { c.Channels = 0 }, true},
		{"zero block", func(c *Config) { c.BlockSize = 0 }, true},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_FrameDuration(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.FrameDuration().Milliseconds(); got != 32 {
		t.Errorf("FrameDuration() = %dms, want 32ms", got)
	}
}

func TestStage_FramesFixedBlocks(t *testing.T) {
	dev := NewMockDevice(testConfig(), nil)
	stage := NewStage(testConfig(), nil)

	frames, err := stage.Start(dev)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// 10 samples: two full blocks of 4, two samples carried over.
	dev.Push([]float32{0, 0.5, -0.5, 1, -1, 2, -2, 0.25, 0.1, 0.2})
	// Two more complete the third block.
	dev.Push([]float32{0.3, 0.4})

	want := [][]int16{
		{0, 16384, -16384, 32767},
		{-32768, 32767, -32768, 8192},
		{3277, 6554, 9830, 13107},
	}

	for i, w := range want {
		f := <-frames
		if f.Len() != 4 {
			t.Fatalf("frame %d Len() = %d, want 4", i, f.Len())
		}
		if f.SampleRate() != 16000 {
			t.Errorf("frame %d SampleRate() = %d, want 16000", i, f.SampleRate())
		}
		for j := range w {
			if f.At(j) != w[j] {
				t.Errorf("frame %d sample %d = %d, want %d", i, j, f.At(j), w[j])
			}
		}
	}

	select {
	case f := <-frames:
		t.Errorf("unexpected extra frame of %d samples", f.Len())
	default:
	}

	if got := stage.Stats().FramesEmitted; got != 3 {
		t.Errorf("FramesEmitted = %d, want 3", got)
	}
}

func TestStage_StopIdempotent(t *testing.T) {
	dev := NewMockDevice(testConfig(), nil)
	stage := NewStage(testConfig(), nil)

	frames, err := stage.Start(dev)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := stage.Stop(); err != nil {
		t.Errorf("first Stop() error = %v", err)
	}
	if err := stage.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}

	if _, ok := <-frames; ok {
		t.Error("frame channel should be closed after Stop")
	}
	if got := dev.Stops.Load(); got != 1 {
		t.Errorf("device stopped %d times, want 1", got)
	}

	// Samples after stop are ignored rather than sent on a closed channel.
	dev.Push(make([]float32, 8))
}

func TestStage_StopWithoutStart(t *testing.T) {
	stage := NewStage(testConfig(), nil)
	if err := stage.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if _, err := stage.Start(NewMockDevice(testConfig(), nil)); !errors.Is(err, ErrStopped) {
		t.Errorf("Start() after Stop error = %v, want ErrStopped", err)
	}
}

func TestStage_StartTwice(t *testing.T) {
	stage := NewStage(testConfig(), nil)
	dev := NewMockDevice(testConfig(), nil)
	if _, err := stage.Start(dev); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer stage.Stop()

	if _, err := stage.Start(dev); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestStage_DeviceStartFailure(t *testing.T) {
	dev := NewMockDevice(testConfig(), nil)
	dev.StartErr = errors.New("Permission denied by user")

	stage := NewStage(testConfig(), nil)
	frames, err := stage.Start(dev)
	if err == nil {
		t.Fatal("Start() expected error")
	}
	if frames != nil {
		t.Error("Start() returned a channel on failure")
	}
	if !IsPermissionDenied(err) {
		t.Errorf("IsPermissionDenied(%v) = false", err)
	}
	if err := stage.Stop(); err != nil {
		t.Errorf("Stop() after failed Start error = %v", err)
	}
}

func TestStage_DropsWhenQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 2
	dev := NewMockDevice(cfg, nil)
	stage := NewStage(cfg, nil)

	if _, err := stage.Start(dev); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer stage.Stop()

	dev.Push(make([]float32, 4*5))

	stats := stage.Stats()
	if stats.FramesEmitted != 2 {
		t.Errorf("FramesEmitted = %d, want 2", stats.FramesEmitted)
	}
	if stats.FramesDropped != 3 {
		t.Errorf("FramesDropped = %d, want 3", stats.FramesDropped)
	}
}

func TestStage_TenSilentFramesInOrder(t *testing.T) {
	cfg := DefaultConfig()
	dev := NewMockDevice(cfg, nil)
	stage := NewStage(cfg, nil)

	frames, err := stage.Start(dev)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer stage.Stop()

	for i := 0; i < 10; i++ {
		dev.Push(make([]float32, cfg.BlockSize))
	}

	for i := 0; i < 10; i++ {
		f := <-frames
		if f.Len() != cfg.BlockSize {
			t.Fatalf("frame %d Len() = %d", i, f.Len())
		}
		if f.RMS() != 0 {
			t.Errorf("frame %d not silent", i)
		}
	}
}
