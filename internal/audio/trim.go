package audio

import "math"

// TrimOptions controls silence detection in Trim.
type TrimOptions struct {
	// TopDB is the threshold in decibels below the reference; frames at or
	// below -TopDB dB (after clamping to maxDB-TopDB) count as silence.
	TopDB float64
	// FrameLength is the analysis window in samples.
	FrameLength int
	// HopLength is the distance between consecutive windows in samples.
	HopLength int
}

// DefaultTrimOptions returns TopDB 60, FrameLength 2048 and HopLength 512.
func DefaultTrimOptions() TrimOptions {
	return TrimOptions{TopDB: 60, FrameLength: 2048, HopLength: 512}
}

func (o TrimOptions) withDefaults() TrimOptions {
	d := DefaultTrimOptions()
	if o.TopDB <= 0 {
		o.TopDB = d.TopDB
	}
	if o.FrameLength <= 0 {
		o.FrameLength = d.FrameLength
	}
	if o.HopLength <= 0 {
		o.HopLength = d.HopLength
	}
	return o
}

// minAmplitude floors frame RMS before the dB conversion (-100 dB).
const minAmplitude = 1e-5

// Trim removes leading and trailing silence. It returns a sub-slice of
// samples covering [start, end); when every frame is silent it returns an
// empty slice and [0, 0]. Zero-valued options fall back to
// DefaultTrimOptions. Trim does not modify samples.
func Trim(samples []float32, opts TrimOptions) (trimmed []float32, start, end int) {
	opts = opts.withDefaults()

	db := FrameDB(samples, opts.FrameLength, opts.HopLength)
	if len(db) == 0 {
		return samples[:0:0], 0, 0
	}

	maxDB := math.Inf(-1)
	for _, v := range db {
		if v > maxDB {
			maxDB = v
		}
	}
	floor := maxDB - opts.TopDB

	first, last := -1, -1
	for i, v := range db {
		if math.Max(v, floor) > -opts.TopDB {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	if first < 0 {
		return samples[:0:0], 0, 0
	}

	start = first * opts.HopLength
	end = min(len(samples), (last+1)*opts.HopLength)

	return samples[start:end], start, end
}

// FrameCount returns the number of complete analysis frames in n samples.
func FrameCount(n, frameLength, hopLength int) int {
	if frameLength <= 0 || hopLength <= 0 || n < frameLength {
		return 0
	}
	return 1 + (n-frameLength)/hopLength
}

// FrameRMS computes the root-mean-square of every complete frame.
// Squares are accumulated in float64 in sample order.
func FrameRMS(samples []float32, frameLength, hopLength int) []float64 {
	frames := FrameCount(len(samples), frameLength, hopLength)
	rms := make([]float64, frames)

	for f := 0; f < frames; f++ {
		window := samples[f*hopLength : f*hopLength+frameLength]

		var sum float64
		for _, s := range window {
			v := float64(s)
			sum += v * v
		}
		rms[f] = math.Sqrt(sum / float64(frameLength))
	}

	return rms
}

// FrameDB converts per-frame RMS to decibels relative to an amplitude of 1.0,
// flooring the amplitude at 1e-5.
func FrameDB(samples []float32, frameLength, hopLength int) []float64 {
	rms := FrameRMS(samples, frameLength, hopLength)
	for i, v := range rms {
		rms[i] = AmplitudeToDB(v)
	}
	return rms
}

// AmplitudeToDB returns 20*log10(max(a, 1e-5)).
func AmplitudeToDB(a float64) float64 {
	return 20 * math.Log10(math.Max(a, minAmplitude))
}
