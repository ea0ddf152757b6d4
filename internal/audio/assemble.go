package audio

import "math"

// SampleRate is the fixed output rate of the acoustic model.
const SampleRate = ExpectedSampleRate

// Concatenate appends buffers in order into a new slice.
func Concatenate(buffers ...[]float32) []float32 {
	total := 0
	for _, b := range buffers {
		total += len(b)
	}

	out := make([]float32, 0, total)
	for _, b := range buffers {
		out = append(out, b...)
	}

	return out
}

// Duration returns the length in seconds of n samples at sampleRate.
func Duration(n, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(n) / float64(sampleRate)
}

// PCM16 converts one sample to signed 16-bit PCM: the sample is clamped to
// [-1, 1], scaled by 32767 and rounded half away from zero. NaN maps to 0.
func PCM16(s float32) int16 {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(math.Max(-1, math.Min(1, v)) * math.MaxInt16)
	return int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, v)))
}

// ToPCM16 converts samples to signed 16-bit PCM with PCM16.
func ToPCM16(samples []float32) []int16 {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = PCM16(s)
	}
	return pcm
}
