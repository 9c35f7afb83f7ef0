package audioio

import (
	"encoding/binary"
	"math"
)

// FloatToInt16 converts a normalized sample in [-1, 1] to 16-bit PCM using
// round(s*32768), clamped to [-32768, 32767].
func FloatToInt16(s float32) int16 {
	v := math.Round(float64(s) * 32768)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// Int16ToFloat converts a 16-bit PCM sample to a normalized float.
func Int16ToFloat(s int16) float32 {
	return float32(s) / 32768.0
}

// FloatsToInt16 converts a block of normalized samples to 16-bit PCM.
func FloatsToInt16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		out[i] = FloatToInt16(s)
	}
	return out
}

// BytesToSamples converts raw PCM16 little-endian bytes to int16 samples.
// A trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to raw PCM16 little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// BytesToFloat32 converts little-endian IEEE-754 float32 bytes, the
// layout capture devices deliver, to samples.
func BytesToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

// Deinterleave splits interleaved PCM16 samples into normalized per-channel
// float slices. Incomplete trailing frames are dropped.
func Deinterleave(samples []int16, channels int) [][]float32 {
	if channels <= 0 {
		channels = 1
	}
	frames := len(samples) / channels
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out[c][i] = Int16ToFloat(samples[i*channels+c])
		}
	}
	return out
}
