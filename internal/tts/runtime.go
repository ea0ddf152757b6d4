package tts

import (
	"context"
)

// GenerateConfig controls a single batch generation call.
type GenerateConfig struct {
	// Style is the 256-value conditioning vector for the batch.
	Style []float32
	// Speed is the speaking rate in [0.5, 2.0].
	Speed float64
}

// Runtime abstracts acoustic model execution so the service pipeline
// (phonemization, tokenization, style selection, trimming) does not depend
// on how the waveform is produced. Tokens are passed unpadded.
type Runtime interface {
	GenerateAudio(ctx context.Context, tokens []int64, cfg GenerateConfig) ([]float32, error)
	Close()
}
