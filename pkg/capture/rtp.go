package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/pion/rtp"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrame is the largest Opus frame (120ms) at 48 kHz per channel.
const maxOpusFrame = 5760

// RTPDevice receives Opus-in-RTP from a network peer (a SIP trunk or WebRTC
// gateway) and delivers the decoded audio like a local microphone.
type RTPDevice struct {
	cfg    Config
	logger *slog.Logger

	conn    net.PacketConn
	decoder *opus.Decoder

	mu      sync.Mutex
	deliver func([]float32)
	running bool
	closed  bool
	done    chan struct{}

	// lastSeq is only touched by the read loop.
	lastSeq  uint16
	haveSeq  bool
	reorders int
}

// RTPOpener returns an Opener that listens for RTP on addr (e.g. ":5004").
func RTPOpener(addr string) Opener {
	return func(cfg Config, logger *slog.Logger) (Device, error) {
		return OpenRTP(addr, cfg, logger)
	}
}

// OpenRTP binds the UDP listener and prepares an Opus decoder at the
// capture rate. Opus decodes natively at 8, 12, 16, 24 or 48 kHz.
func OpenRTP(addr string, cfg Config, logger *slog.Logger) (*RTPDevice, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	dec, err := opus.NewDecoder(cfg.SampleRate, cfg.Channels)
	if err != nil {
		return nil, NewDeviceError(KindEngineFailed, "rtp", fmt.Errorf("opus decoder: %w", err))
	}

	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		kind := Classify("rtp", err).Kind
		if kind == KindEngineFailed {
			// A bind failure means something else owns the port.
			kind = KindDeviceBusy
		}
		return nil, NewDeviceError(kind, "rtp", err)
	}

	d := &RTPDevice{
		cfg:     cfg,
		logger:  logger.With("component", "capture.rtp", "addr", conn.LocalAddr().String()),
		conn:    conn,
		decoder: dec,
		done:    make(chan struct{}),
	}
	go d.readLoop()

	d.logger.Info("rtp capture listening", "sample_rate", cfg.SampleRate, "channels", cfg.Channels)
	return d, nil
}

// Name returns "rtp".
func (d *RTPDevice) Name() string {
	return "rtp"
}

// Addr returns the bound UDP address.
func (d *RTPDevice) Addr() net.Addr {
	return d.conn.LocalAddr()
}

// Start implements Device. Packets received before Start are discarded.
func (d *RTPDevice) Start(fn func([]float32)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDeviceClosed
	}
	d.deliver = fn
	d.running = true
	return nil
}

// Stop implements Device.
func (d *RTPDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.running = false
	d.deliver = nil
	return nil
}

// Close stops delivery and releases the socket.
func (d *RTPDevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.running = false
	d.deliver = nil
	d.mu.Unlock()

	err := d.conn.Close()
	<-d.done
	return err
}

func (d *RTPDevice) readLoop() {
	defer close(d.done)

	buf := make([]byte, 1500)
	pcm := make([]float32, maxOpusFrame*d.cfg.Channels)

	for {
		n, _, err := d.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			d.logger.Warn("rtp read failed", "error", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		samples, ok := d.decodePacket(buf[:n], pcm)
		if !ok {
			continue
		}

		d.mu.Lock()
		fn := d.deliver
		d.mu.Unlock()
		if fn != nil {
			fn(samples)
		}
	}
}

// decodePacket parses one RTP packet and decodes its Opus payload.
// Packets older than the last accepted sequence number are dropped.
func (d *RTPDevice) decodePacket(raw []byte, pcm []float32) ([]float32, bool) {
	var pkt rtp.Packet
	if err := pkt.Unmarshal(raw); err != nil {
		d.logger.Debug("dropping malformed rtp packet", "error", err)
		return nil, false
	}

	if d.haveSeq && !seqNewer(pkt.SequenceNumber, d.lastSeq) {
		d.reorders++
		d.logger.Debug("dropping late rtp packet",
			"seq", pkt.SequenceNumber,
			"last", d.lastSeq,
			"total", d.reorders,
		)
		return nil, false
	}
	d.lastSeq = pkt.SequenceNumber
	d.haveSeq = true

	if len(pkt.Payload) == 0 {
		return nil, false
	}

	n, err := d.decoder.DecodeFloat32(pkt.Payload, pcm)
	if err != nil {
		d.logger.Debug("opus decode failed", "error", err, "seq", pkt.SequenceNumber)
		return nil, false
	}

	out := make([]float32, n*d.cfg.Channels)
	copy(out, pcm)
	return out, true
}

// seqNewer reports whether a follows b in 16-bit RTP sequence space.
func seqNewer(a, b uint16) bool {
	return a != b && a-b < 0x8000
}
