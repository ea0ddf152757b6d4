package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/go-phonotts/internal/audio"
	"github.com/example/go-phonotts/internal/config"
	"github.com/example/go-phonotts/internal/g2p"
	"github.com/example/go-phonotts/internal/text"
	"github.com/example/go-phonotts/internal/tokenizer"
)

// ErrNoTokens is returned when no batch of the input maps to any vocabulary
// token, e.g. text made only of symbols the vocabulary lacks.
var ErrNoTokens = errors.New("text produced no phoneme tokens")

// IsInvalidInput reports whether err was caused by the caller's request
// rather than by the pipeline or the model.
func IsInvalidInput(err error) bool {
	return errors.Is(err, text.ErrEmptyText) ||
		errors.Is(err, tokenizer.ErrPhonemesTooLong) ||
		errors.Is(err, ErrUnknownVoice) ||
		errors.Is(err, ErrNoTokens) ||
		errors.Is(err, config.ErrInvalidSpeed)
}

type phonemizer interface {
	Phonemize(input, lang string) string
	PhonemizeContext(ctx context.Context, input, lang string) string
}

// Options selects voice, rate and language for one call. Zero fields fall
// back to the service configuration.
type Options struct {
	Voice VoiceRef
	Speed float64
	Lang  string
}

// Result is the audio for one utterance or one batch.
type Result struct {
	Audio           []float32 `json:"-"`
	SampleRate      int       `json:"sample_rate"`
	DurationSeconds float64   `json:"duration_seconds"`
	Phonemes        string    `json:"phonemes"`
}

func newResult(samples []float32, phonemes string) Result {
	return Result{
		Audio:           samples,
		SampleRate:      audio.SampleRate,
		DurationSeconds: audio.Duration(len(samples), audio.SampleRate),
		Phonemes:        phonemes,
	}
}

// PCMChunk is one streamed batch.
type PCMChunk struct {
	Result
	ChunkIndex int
	Final      bool
}

type Service struct {
	runtime    Runtime
	tokenizer  tokenizer.Tokenizer
	phonemizer phonemizer
	voices     *VoiceManager
	ttsCfg     config.TTSConfig
	log        *slog.Logger
}

// NewService wires loaded assets and a runtime into the synthesis pipeline.
// The primary G2P engine is built here from an immutable snapshot of the
// dictionary merged with the lexicon.
func NewService(a *Assets, rt Runtime, cfg config.TTSConfig) (*Service, error) {
	if a == nil || a.Vocab == nil {
		return nil, errors.New("vocabulary is required")
	}
	if a.Voices == nil {
		return nil, ErrNoVoices
	}

	engine, err := newEngine(a, cfg)
	if err != nil {
		return nil, err
	}

	return &Service{
		runtime:    rt,
		tokenizer:  a.Vocab,
		phonemizer: g2p.NewPhonemizer(a.Lexicon, engine),
		voices:     a.Voices,
		ttsCfg:     cfg,
		log:        slog.Default(),
	}, nil
}

// Open loads every asset and the acoustic model named by cfg.
func Open(ctx context.Context, cfg config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := LoadAssets(ctx, cfg.Paths)
	if err != nil {
		return nil, err
	}

	rt, err := NewONNXRuntime(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := NewService(a, rt, cfg.TTS)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return svc, nil
}

func newEngine(a *Assets, cfg config.TTSConfig) (g2p.Engine, error) {
	name, err := config.NormalizeG2PEngine(cfg.G2PEngine)
	if err != nil {
		return nil, err
	}

	switch name {
	case config.G2PEngineEspeak:
		return g2p.NewEspeakEngine(cfg.EspeakPath, cfg.Lang), nil
	default:
		var overlay map[string]string
		if a.Lexicon != nil {
			overlay = a.Lexicon.Snapshot()
		}
		return g2p.NewDictEngine(a.Dictionary, overlay), nil
	}
}

func (s *Service) Close() {
	if s.runtime != nil {
		s.runtime.Close()
	}
}

func (s *Service) ListVoices() []Voice {
	if s.voices == nil {
		return nil
	}
	return s.voices.ListVoices()
}

// Phonemize runs the linguistic front end on the whole text without
// batching and returns the phoneme string and its tokens.
func (s *Service) Phonemize(input, lang string) (string, []int64, error) {
	normalized, err := text.Normalize(input)
	if err != nil {
		return "", nil, err
	}
	if lang == "" {
		lang = s.ttsCfg.Lang
	}

	phonemes := s.phonemizer.Phonemize(normalized, lang)
	tokens, err := s.tokenizer.Encode(phonemes)
	if err != nil {
		return phonemes, nil, err
	}
	return phonemes, tokens, nil
}

// Synthesize renders text to a single 24 kHz waveform.
func (s *Service) Synthesize(ctx context.Context, input string, opts Options) (Result, error) {
	job, err := s.prepare(ctx, input, opts)
	if err != nil {
		return Result{}, err
	}

	parts := make([][]float32, 0, len(job.batches))
	phonemes := make([]string, 0, len(job.batches))
	for i, b := range job.batches {
		samples, err := s.render(ctx, job, b, i)
		if err != nil {
			return Result{}, err
		}
		parts = append(parts, samples)
		phonemes = append(phonemes, b.phonemes)
	}

	return newResult(audio.Concatenate(parts...), strings.Join(phonemes, " ")), nil
}

// SynthesizeStream renders text batch by batch, sending one PCMChunk per
// batch on out. out is always closed before SynthesizeStream returns. Every
// batch is phonemized and length-checked before the first model call.
func (s *Service) SynthesizeStream(ctx context.Context, input string, opts Options, out chan<- PCMChunk) error {
	defer close(out)

	job, err := s.prepare(ctx, input, opts)
	if err != nil {
		return err
	}

	for i, b := range job.batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		samples, err := s.render(ctx, job, b, i)
		if err != nil {
			return err
		}

		chunk := PCMChunk{
			Result:     newResult(samples, b.phonemes),
			ChunkIndex: i,
			Final:      i == len(job.batches)-1,
		}

		select {
		case out <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

type batch struct {
	text     string
	phonemes string
	tokens   []int64
}

type job struct {
	voice   Voice
	speed   float64
	batches []batch
}

func (s *Service) prepare(ctx context.Context, input string, opts Options) (job, error) {
	if s.runtime == nil {
		return job{}, errors.New("tts runtime is not initialized")
	}

	normalized, err := text.Normalize(input)
	if err != nil {
		return job{}, err
	}

	ref := opts.Voice
	if ref.IsZero() {
		ref = VoiceByID(s.ttsCfg.Voice)
	}
	if s.voices == nil {
		return job{}, ErrNoVoices
	}
	voice, err := s.voices.Resolve(ref)
	if err != nil {
		return job{}, err
	}

	speed := opts.Speed
	if speed == 0 {
		speed = s.ttsCfg.Speed
	}
	if err := config.ValidateSpeed(speed); err != nil {
		return job{}, err
	}

	lang := opts.Lang
	if lang == "" {
		lang = s.ttsCfg.Lang
	}

	j := job{voice: voice, speed: speed}
	for _, chunk := range text.Batches(normalized, s.ttsCfg.MaxBatchChars) {
		phonemes := s.phonemizer.PhonemizeContext(ctx, chunk, lang)
		tokens, err := s.tokenizer.Encode(phonemes)
		if err != nil {
			return job{}, fmt.Errorf("batch %d: %w", len(j.batches), err)
		}
		if len(tokens) == 0 {
			continue
		}
		j.batches = append(j.batches, batch{text: chunk, phonemes: phonemes, tokens: tokens})
	}

	if err := ctx.Err(); err != nil {
		return job{}, err
	}
	if len(j.batches) == 0 {
		return job{}, ErrNoTokens
	}
	return j, nil
}

func (s *Service) render(ctx context.Context, j job, b batch, index int) ([]float32, error) {
	start := time.Now()

	style := SelectStyle(j.voice, len(b.tokens))
	samples, err := s.runtime.GenerateAudio(ctx, b.tokens, GenerateConfig{Style: style, Speed: j.speed})
	if err != nil {
		return nil, fmt.Errorf("generate batch %d: %w", index, err)
	}

	raw := len(samples)
	if s.ttsCfg.Trim {
		samples = audio.ApplyHooks(samples, audio.TrimHook(s.trimOptions()))
	}

	s.log.Debug("batch synthesized",
		"batch", index,
		"voice", j.voice.ID,
		"tokens", len(b.tokens),
		"samples", len(samples),
		"trimmed", raw-len(samples),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return samples, nil
}

func (s *Service) trimOptions() audio.TrimOptions {
	return audio.TrimOptions{
		TopDB:       s.ttsCfg.TrimTopDB,
		FrameLength: s.ttsCfg.TrimFrameLength,
		HopLength:   s.ttsCfg.TrimHopLength,
	}
}
