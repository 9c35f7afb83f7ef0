package audioio

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"empty", []byte{}},
		{"single byte", []byte{0x7f}},
		{"pcm", []byte{0x00, 0x80, 0xff, 0x7f, 0x01, 0x00}},
		{"binary noise", []byte{0, 1, 2, 3, 250, 251, 252, 253, 254, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Encode(tt.in, CaptureSampleRate)
			got, err := DecodeBytes(p.Data)
			if err != nil {
				t.Fatalf("DecodeBytes() error = %v", err)
			}
			if !bytes.Equal(got, tt.in) {
				t.Errorf("round trip = %v, want %v", got, tt.in)
			}
			if p.MIMEType != "audio/pcm;rate=16000" {
				t.Errorf("MIMEType = %q", p.MIMEType)
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		mime   string
		want   int
		wantOK bool
	}{
		{"audio/pcm;rate=16000", 16000, true},
		{"audio/pcm; rate=24000", 24000, true},
		{"audio/L16;codec=pcm;RATE=8000", 8000, true},
		{"audio/pcm", 0, false},
		{"audio/pcm;rate=fast", 0, false},
		{"audio/pcm;rate=-1", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			got, ok := ParseRate(tt.mime)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseRate(%q) = (%d, %v), want (%d, %v)", tt.mime, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDecoder_EmptyPayload(t *testing.T) {
	d := NewDecoder(PlaybackSampleRate, 1, nil)
	buf := d.Decode(Packet{Data: "", MIMEType: MIMEType(PlaybackSampleRate)})
	if buf.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", buf.Frames())
	}
	if len(buf.Channels) != 1 {
		t.Errorf("len(Channels) = %d, want 1", len(buf.Channels))
	}
}

func TestDecoder_MalformedPayload(t *testing.T) {
	d := NewDecoder(PlaybackSampleRate, 1, nil)
	buf := d.Decode(Packet{Data: "!!!not base64!!!"})
	if buf.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0 for malformed input", buf.Frames())
	}
}

func TestDecoder_DecodePacketReportsFailures(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"empty", "", false},
		{"valid", Encode([]byte{0, 0, 1, 0}, PlaybackSampleRate).Data, false},
		{"malformed", "!!!not base64!!!", true},
	}

	d := NewDecoder(PlaybackSampleRate, 1, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.DecodePacket(Packet{Data: tt.data, MIMEType: MIMEType(PlaybackSampleRate)})
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodePacket() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("DecodePacket() error = %v, want ErrMalformedPayload", err)
			}
		})
	}
}

func TestDecoder_NormalizesAndDeinterleaves(t *testing.T) {
	samples := []int16{16384, -16384, -32768, 32767}
	p := Encode(SamplesToBytes(samples), 24000)

	d := NewDecoder(PlaybackSampleRate, 2, nil)
	buf := d.Decode(p)

	if buf.SampleRate != 24000 {
		t.Errorf("SampleRate = %d, want 24000", buf.SampleRate)
	}
	if buf.Frames() != 2 {
		t.Fatalf("Frames() = %d, want 2", buf.Frames())
	}

	want := [][]float32{{0.5, -1.0}, {-0.5, 32767.0 / 32768.0}}
	for c := range want {
		for i := range want[c] {
			if buf.Channels[c][i] != want[c][i] {
				t.Errorf("Channels[%d][%d] = %v, want %v", c, i, buf.Channels[c][i], want[c][i])
			}
		}
	}
}

func TestDecoder_UsesDefaultRateWithoutTag(t *testing.T) {
	d := NewDecoder(PlaybackSampleRate, 1, nil)
	buf := d.Decode(Packet{Data: Encode([]byte{0, 0, 0, 0}, 1).Data, MIMEType: "audio/pcm"})
	if buf.SampleRate != PlaybackSampleRate {
		t.Errorf("SampleRate = %d, want %d", buf.SampleRate, PlaybackSampleRate)
	}
}

func TestSilentFramesSurviveEncoding(t *testing.T) {
	const n = 10
	packets := make([]Packet, 0, n)
	for i := 0; i < n; i++ {
		packets = append(packets, EncodeFrame(Silence(32*time.Millisecond, CaptureSampleRate)))
	}

	d := NewDecoder(CaptureSampleRate, 1, nil)
	for i, p := range packets {
		buf := d.Decode(p)
		if buf.Frames() != 512 {
			t.Fatalf("packet %d: Frames() = %d, want 512", i, buf.Frames())
		}
		for j, s := range buf.Channels[0] {
			if s != 0 {
				t.Fatalf("packet %d sample %d = %v, want 0", i, j, s)
			}
		}
	}
}
