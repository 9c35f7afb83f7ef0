package playback

import (
	"math"
	"sync"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// Timeline is a software mixer. Its clock is the number of sample frames
// rendered so far, so it advances exactly as fast as audio is consumed.
type Timeline struct {
	rate     int
	channels int

	mu     sync.Mutex
	pos    int64
	voices []*voice
	closed bool
}

type voice struct {
	t       *Timeline
	start   int64
	data    [][]float32
	onEnded func()
}

func (v *voice) end() int64 {
	return v.start + int64(len(v.data[0]))
}

// Stop implements Handle.
func (v *voice) Stop() {
	v.t.remove(v)
}

// NewTimeline creates a mixer producing interleaved output.
func NewTimeline(sampleRate, channels int) *Timeline {
	if channels <= 0 {
		channels = 1
	}
	return &Timeline{rate: sampleRate, channels: channels}
}

// SampleRate returns the output rate.
func (t *Timeline) SampleRate() int { return t.rate }

// Channels returns the output channel count.
func (t *Timeline) Channels() int { return t.channels }

// Now implements Destination.
func (t *Timeline) Now() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.pos) / float64(t.rate)
}

// Schedule implements Destination. Buffers at another rate are resampled.
// The voice covers exactly the output frames between at and at plus the
// buffer's duration, so buffers placed back to back on the clock render
// without a gap or an overlap.
func (t *Timeline) Schedule(buf audioio.Buffer, at float64, onEnded func()) (Handle, error) {
	start := int64(math.Round(at * float64(t.rate)))
	end := int64(math.Round((at + buf.Duration()) * float64(t.rate)))
	buf = audioio.ResampleBuffer(buf, t.rate)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}

	v := &voice{
		t:       t,
		start:   start,
		data:    fitFrames(buf.Channels, int(end-start)),
		onEnded: onEnded,
	}
	if len(v.data) == 0 || len(v.data[0]) == 0 {
		return nil, nil
	}
	t.voices = append(t.voices, v)
	return v, nil
}

// Active returns the number of scheduled buffers not yet finished.
func (t *Timeline) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.voices)
}

// Render mixes the next len(out)/channels frames into out (interleaved),
// advances the clock and fires ended callbacks for finished buffers.
func (t *Timeline) Render(out []float32) {
	for i := range out {
		out[i] = 0
	}

	t.mu.Lock()
	frames := int64(len(out) / t.channels)
	from, to := t.pos, t.pos+frames

	for _, v := range t.voices {
		lo := max(from, v.start)
		hi := min(to, v.end())
		for p := lo; p < hi; p++ {
			idx := int(p - v.start)
			o := int(p-from) * t.channels
			for c := 0; c < t.channels; c++ {
				src := v.data[c%len(v.data)]
				out[o+c] += src[idx]
			}
		}
	}
	t.pos = to

	var ended []func()
	kept := t.voices[:0]
	for _, v := range t.voices {
		if v.end() <= t.pos {
			if v.onEnded != nil {
				ended = append(ended, v.onEnded)
			}
			continue
		}
		kept = append(kept, v)
	}
	for i := len(kept); i < len(t.voices); i++ {
		t.voices[i] = nil
	}
	t.voices = kept
	t.mu.Unlock()

	for _, fn := range ended {
		fn()
	}
}

// Close implements Destination.
func (t *Timeline) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.voices = nil
	return nil
}

// fitFrames trims or pads every channel to n frames. Padding repeats the
// last sample.
func fitFrames(channels [][]float32, n int) [][]float32 {
	if len(channels) == 0 || len(channels[0]) == n {
		return channels
	}
	if n <= 0 {
		return nil
	}
	out := make([][]float32, len(channels))
	for c, ch := range channels {
		if len(ch) >= n {
			out[c] = ch[:n]
			continue
		}
		fitted := make([]float32, n)
		copy(fitted, ch)
		var last float32
		if len(ch) > 0 {
			last = ch[len(ch)-1]
		}
		for i := len(ch); i < n; i++ {
			fitted[i] = last
		}
		out[c] = fitted
	}
	return out
}

func (t *Timeline) remove(v *voice) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, cur := range t.voices {
		if cur == v {
			t.voices = append(t.voices[:i], t.voices[i+1:]...)
			return
		}
	}
}
