package capture

import (
	"net"
	"testing"
	"time"

	"github.com/pion/rtp"
	"gopkg.in/hraban/opus.v2"
)

func TestSeqNewer(t *testing.T) {
	tests := []struct {
		a, b uint16
		want bool
	}{
		{2, 1, true},
		{1, 2, false},
		{1, 1, false},
		{0, 65535, true},
		{65535, 0, false},
		{100, 65000, true},
	}

	for _, tt := range tests {
		if got := seqNewer(tt.a, tt.b); got != tt.want {
			t.Errorf("seqNewer(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRTPDevice_DeliversDecodedOpus(t *testing.T) {
	cfg := DefaultConfig()
	dev, err := OpenRTP("127.0.0.1:0", cfg, nil)
	if err != nil {
		t.Fatalf("OpenRTP() error = %v", err)
	}
	defer dev.Close()

	got := make(chan int, 4)
	if err := dev.Start(func(samples []float32) { got <- len(samples) }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	enc, err := opus.NewEncoder(cfg.SampleRate, cfg.Channels, opus.AppVoIP)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	pcm := make([]float32, 320) // 20ms at 16 kHz
	payload := make([]byte, 1000)
	n, err := enc.EncodeFloat32(pcm, payload)
	if err != nil {
		t.Fatalf("EncodeFloat32() error = %v", err)
	}

	pkt := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    111,
			SequenceNumber: 7,
			Timestamp:      320,
			SSRC:           0xfeed,
		},
		Payload: payload[:n],
	}
	raw, err := pkt.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	conn, err := net.Dial("udp", dev.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(raw); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	select {
	case samples := <-got:
		if samples != 320 {
			t.Errorf("delivered %d samples, want 320", samples)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no samples delivered")
	}
}

func TestRTPDevice_CloseIdempotent(t *testing.T) {
	dev, err := OpenRTP("127.0.0.1:0", DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("OpenRTP() error = %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := dev.Start(func([]float32) {}); err != ErrDeviceClosed {
		t.Errorf("Start() after Close error = %v, want ErrDeviceClosed", err)
	}
}
