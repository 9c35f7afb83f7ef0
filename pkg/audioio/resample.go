package audioio

import "math"

// ResampleFloat converts audio from one sample rate to another using linear
// interpolation. This is a simple resampler suitable for speech audio.
func ResampleFloat(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	if len(samples) == 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	newLen := int(float64(len(samples)) / ratio)

	if newLen == 0 {
		return []float32{}
	}

	result := make([]float32, newLen)

	for i := 0; i < newLen; i++ {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		if srcIdx >= len(samples)-1 {
			result[i] = samples[len(samples)-1]
		} else {
			s1 := samples[srcIdx]
			s2 := samples[srcIdx+1]
			result[i] = s1 + frac*(s2-s1)
		}
	}

	return result
}

// ResampleBuffer resamples every channel of b to toRate.
func ResampleBuffer(b Buffer, toRate int) Buffer {
	if b.SampleRate == toRate || b.SampleRate == 0 {
		return b
	}
	out := Buffer{Channels: make([][]float32, len(b.Channels)), SampleRate: toRate}
	for c, ch := range b.Channels {
		out.Channels[c] = ResampleFloat(ch, b.SampleRate, toRate)
	}
	return out
}

// CalculateRMS calculates the root mean square of samples.
// Returns a value between 0.0 and 1.0.
func CalculateRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}

	rms := math.Sqrt(sum/float64(len(samples))) / 32767
	if rms > 1 {
		return 1
	}
	return rms
}
