package audioio

import (
	"time"
)

// Standard sample rates.
const (
	// CaptureSampleRate is the microphone rate expected by the remote model.
	CaptureSampleRate = 16000

	// PlaybackSampleRate is the rate of synthesized speech from the remote model.
	PlaybackSampleRate = 24000
)

// Frame is an immutable block of 16-bit signed PCM samples tagged with its
// sample rate. Samples are interleaved when Channels > 1.
type Frame struct {
	samples    []int16
	sampleRate int
	channels   int
}

// NewFrame copies samples into a new Frame.
func NewFrame(samples []int16, sampleRate, channels int) Frame {
	if channels <= 0 {
		channels = 1
	}
	cp := make([]int16, len(samples))
	copy(cp, samples)
	return Frame{samples: cp, sampleRate: sampleRate, channels: channels}
}

// Silence returns a frame of zero samples covering d at sampleRate, mono.
func Silence(d time.Duration, sampleRate int) Frame {
	n := int(int64(d) * int64(sampleRate) / int64(time.Second))
	return Frame{samples: make([]int16, n), sampleRate: sampleRate, channels: 1}
}

// Len returns the total number of samples across all channels.
func (f Frame) Len() int { return len(f.samples) }

// SampleRate returns the sample rate in Hz.
func (f Frame) SampleRate() int { return f.sampleRate }

// Channels returns the channel count.
func (f Frame) Channels() int { return f.channels }

// Samples returns a copy of the frame's samples.
func (f Frame) Samples() []int16 {
	cp := make([]int16, len(f.samples))
	copy(cp, f.samples)
	return cp
}

// At returns sample i without copying the frame.
func (f Frame) At(i int) int16 { return f.samples[i] }

// Bytes returns the samples as little-endian PCM16 bytes.
func (f Frame) Bytes() []byte {
	return SamplesToBytes(f.samples)
}

// Duration returns the playback duration of the frame.
func (f Frame) Duration() time.Duration {
	if f.sampleRate == 0 || f.channels == 0 {
		return 0
	}
	frames := len(f.samples) / f.channels
	return time.Duration(frames) * time.Second / time.Duration(f.sampleRate)
}

// RMS returns the normalized root mean square level of the frame (0.0 to 1.0).
func (f Frame) RMS() float64 {
	return CalculateRMS(f.samples)
}

// Buffer is decoded audio ready for playback: normalized float samples
// deinterleaved into one slice per channel.
type Buffer struct {
	Channels   [][]float32
	SampleRate int
}

// Frames returns the number of sample frames (samples per channel).
func (b Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback duration in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}
