package tts

// StyleDim is the dimensionality of every style vector handed to the model.
const StyleDim = 256

// SelectStyle returns the style vector for an utterance of tokenCount tokens.
// The bucket index is tokenCount clamped to [0, len(v.StyleVectors)-1]; the
// vector is zero-padded or truncated to StyleDim without touching the stored
// data. A vector that already has StyleDim values is returned as is, so
// callers must not mutate the result.
func SelectStyle(v Voice, tokenCount int) []float32 {
	if len(v.StyleVectors) == 0 {
		return make([]float32, StyleDim)
	}

	idx := tokenCount
	if idx < 0 {
		idx = 0
	}
	if last := len(v.StyleVectors) - 1; idx > last {
		idx = last
	}

	return fitStyle(v.StyleVectors[idx])
}

func fitStyle(vec []float32) []float32 {
	switch {
	case len(vec) == StyleDim:
		return vec
	case len(vec) > StyleDim:
		return append([]float32(nil), vec[:StyleDim]...)
	default:
		out := make([]float32, StyleDim)
		copy(out, vec)
		return out
	}
}
