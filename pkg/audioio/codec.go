package audioio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// ErrMalformedPayload indicates an inbound audio payload was not valid base64.
var ErrMalformedPayload = errors.New("audioio: malformed audio payload")

// Packet is the wire representation of a block of PCM audio.
type Packet struct {
	// Data is the base64-encoded little-endian PCM16 payload.
	Data string `json:"data"`

	// MIMEType embeds the sample rate, e.g. "audio/pcm;rate=16000".
	MIMEType string `json:"mimeType"`
}

// MIMEType returns the PCM MIME tag for a sample rate.
func MIMEType(sampleRate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", sampleRate)
}

// ParseRate extracts the sample rate from a PCM MIME tag.
// It returns false when the tag carries no usable rate.
func ParseRate(mimeType string) (int, bool) {
	for _, part := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || !strings.EqualFold(k, "rate") {
			continue
		}
		rate, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || rate <= 0 {
			return 0, false
		}
		return rate, true
	}
	return 0, false
}

// Encode wraps raw PCM16 bytes into a Packet.
func Encode(pcm []byte, sampleRate int) Packet {
	return Packet{
		Data:     base64.StdEncoding.EncodeToString(pcm),
		MIMEType: MIMEType(sampleRate),
	}
}

// EncodeFrame encodes a frame's samples as a Packet tagged with its rate.
func EncodeFrame(f Frame) Packet {
	return Encode(f.Bytes(), f.SampleRate())
}

// DecodeBytes reverses Encode: DecodeBytes(Encode(b, r).Data) == b.
func DecodeBytes(data string) ([]byte, error) {
	if data == "" {
		return []byte{}, nil
	}
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return b, nil
}

// Decoder turns inbound packets into playable buffers.
// It never fails: malformed input is logged and yields an empty buffer.
type Decoder struct {
	// SampleRate is used when a packet's MIME tag carries no rate.
	SampleRate int

	// Channels is the interleaved channel count of inbound audio.
	Channels int

	logger *slog.Logger
}

// NewDecoder creates a Decoder for the given default rate and channel count.
func NewDecoder(sampleRate, channels int, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	if channels <= 0 {
		channels = 1
	}
	return &Decoder{
		SampleRate: sampleRate,
		Channels:   channels,
		logger:     logger.With("component", "audioio.decoder"),
	}
}

// Decode converts a packet into a normalized, deinterleaved buffer.
func (d *Decoder) Decode(p Packet) Buffer {
	buf, _ := d.DecodePacket(p)
	return buf
}

// DecodePacket is Decode with the failure reported. A malformed payload
// yields an empty buffer and an error wrapping ErrMalformedPayload; an
// empty payload yields an empty buffer and no error.
func (d *Decoder) DecodePacket(p Packet) (Buffer, error) {
	rate := d.SampleRate
	if r, ok := ParseRate(p.MIMEType); ok {
		rate = r
	}
	return d.decode(p.Data, rate)
}

// DecodeString decodes base64 PCM16 text at the given rate.
func (d *Decoder) DecodeString(data string, sampleRate int) Buffer {
	buf, _ := d.decode(data, sampleRate)
	return buf
}

func (d *Decoder) decode(data string, sampleRate int) (Buffer, error) {
	empty := Buffer{Channels: make([][]float32, d.Channels), SampleRate: sampleRate}
	for c := range empty.Channels {
		empty.Channels[c] = []float32{}
	}

	raw, err := DecodeBytes(data)
	if err != nil {
		d.logger.Warn("dropping undecodable audio chunk", "error", err, "length", len(data))
		return empty, err
	}
	if len(raw) == 0 {
		return empty, nil
	}
	if len(raw)%2 != 0 {
		d.logger.Debug("audio chunk has odd byte count, truncating", "bytes", len(raw))
	}

	return Buffer{
		Channels:   Deinterleave(BytesToSamples(raw), d.Channels),
		SampleRate: sampleRate,
	}, nil
}
