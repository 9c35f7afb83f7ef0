package playback

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process, so it is shared by every
// destination and only suspended between calls.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoCfg  Config
	otoErr  error
)

func sharedContext(cfg Config) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: cfg.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   cfg.DeviceBuffer,
		})
		if err != nil {
			otoErr = fmt.Errorf("playback: init speaker: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
		otoCfg = cfg
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if cfg.SampleRate != otoCfg.SampleRate || cfg.Channels != otoCfg.Channels {
		return nil, fmt.Errorf("playback: speaker already opened at %d Hz x%d", otoCfg.SampleRate, otoCfg.Channels)
	}
	return otoCtx, nil
}

// OtoDestination plays a Timeline through the system speaker.
type OtoDestination struct {
	*Timeline

	logger *slog.Logger
	ctx    *oto.Context

	mu     sync.Mutex
	player *oto.Player
	closed bool

	scratch []float32
}

// NewOtoDestination opens the speaker and starts pulling from a new Timeline.
func NewOtoDestination(cfg Config, logger *slog.Logger) (*OtoDestination, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DeviceBuffer == 0 {
		cfg.DeviceBuffer = DefaultConfig().DeviceBuffer
	}

	ctx, err := sharedContext(cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Resume(); err != nil {
		return nil, fmt.Errorf("playback: resume speaker: %w", err)
	}

	d := &OtoDestination{
		Timeline: NewTimeline(cfg.SampleRate, cfg.Channels),
		logger:   logger.With("component", "playback.oto"),
		ctx:      ctx,
	}
	d.player = ctx.NewPlayer(d)
	d.player.Play()

	d.logger.Info("speaker opened", "sample_rate", cfg.SampleRate, "channels", cfg.Channels)
	return d, nil
}

// Read implements io.Reader for oto.Player. It never blocks: gaps in the
// timeline render as silence.
func (d *OtoDestination) Read(p []byte) (int, error) {
	n := len(p) / 4
	n -= n % d.Channels()
	if n == 0 {
		return 0, nil
	}
	if cap(d.scratch) < n {
		d.scratch = make([]float32, n)
	}
	buf := d.scratch[:n]
	d.Render(buf)

	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}

// Flush discards audio already handed to the speaker and restarts output.
func (d *OtoDestination) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.player == nil {
		return
	}

	old := d.player
	old.Pause()
	old.Reset()
	if err := old.Close(); err != nil {
		d.logger.Debug("closing flushed player", "error", err)
	}

	d.player = d.ctx.NewPlayer(d)
	d.player.Play()
}

// Close stops output and suspends the shared speaker context.
func (d *OtoDestination) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.Timeline.Close()

	var err error
	if d.player != nil {
		d.player.Pause()
		err = d.player.Close()
		d.player = nil
	}
	if serr := d.ctx.Suspend(); serr != nil && err == nil {
		err = serr
	}

	d.logger.Info("speaker closed")
	return err
}
