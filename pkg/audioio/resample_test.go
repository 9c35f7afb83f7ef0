package audioio

import (
	"math"
	"testing"
)

func TestResampleFloat_SameRate(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	result := ResampleFloat(samples, 24000, 24000)

	if len(result) != len(samples) {
		t.Errorf("Expected %d samples, got %d", len(samples), len(result))
	}
}

func TestResampleFloat_Lengths(t *testing.T) {
	tests := []struct {
		name     string
		in       int
		from, to int
		want     int
	}{
		{"downsample 48k to 24k", 960, 48000, 24000, 480},
		{"upsample 16k to 24k", 320, 16000, 24000, 480},
		{"upsample 24k to 48k", 480, 24000, 48000, 960},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResampleFloat(make([]float32, tt.in), tt.from, tt.to)
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestResampleFloat_Empty(t *testing.T) {
	if got := ResampleFloat(nil, 24000, 48000); len(got) != 0 {
		t.Errorf("Expected empty result for nil input")
	}
}

func TestResampleBuffer(t *testing.T) {
	b := Buffer{Channels: [][]float32{make([]float32, 240)}, SampleRate: 24000}
	out := ResampleBuffer(b, 48000)
	if out.SampleRate != 48000 || out.Frames() != 480 {
		t.Errorf("ResampleBuffer() = rate %d frames %d, want 48000/480", out.SampleRate, out.Frames())
	}
	if math.Abs(out.Duration()-b.Duration()) > 1e-9 {
		t.Errorf("duration changed: %v -> %v", b.Duration(), out.Duration())
	}
}

func TestCalculateRMS(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", []int16{0, 0, 0}, 0},
		{"full scale", []int16{32767, -32767}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateRMS(tt.samples); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CalculateRMS() = %v, want %v", got, tt.want)
			}
		})
	}
}
