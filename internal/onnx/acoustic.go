package onnx

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

const (
	// BoundaryToken pads both ends of every token sequence.
	BoundaryToken int64 = 0
	// StyleDim is the length of a voice style vector.
	StyleDim = 256
)

var ErrEmptyWaveform = errors.New("acoustic model returned an empty waveform")

// AcousticConfig names the graph inputs and output of the acoustic model.
// Zero values fall back to the names used by the published Kokoro exports.
type AcousticConfig struct {
	InputIDs string
	Style    string
	Speed    string
	Output   string
}

func (c AcousticConfig) withDefaults() AcousticConfig {
	if c.InputIDs == "" {
		c.InputIDs = "input_ids"
	}
	if c.Style == "" {
		c.Style = "style"
	}
	if c.Speed == "" {
		c.Speed = "speed"
	}
	if c.Output == "" {
		c.Output = "waveform"
	}
	return c
}

// graphRunner is the slice of *Runner the acoustic model needs.
type graphRunner interface {
	Run(ctx context.Context, inputs map[string]*Tensor) (map[string]*Tensor, error)
	Close()
}

// AcousticModel runs a tokens x style x speed -> waveform graph.
type AcousticModel struct {
	runner graphRunner
	cfg    AcousticConfig
}

// LoadAcousticModel opens the ONNX graph at path.
func LoadAcousticModel(path string, rcfg RunnerConfig, acfg AcousticConfig) (*AcousticModel, error) {
	r, err := NewRunner("acoustic", path, rcfg)
	if err != nil {
		return nil, err
	}
	return NewAcousticModel(r, acfg), nil
}

func NewAcousticModel(r graphRunner, cfg AcousticConfig) *AcousticModel {
	return &AcousticModel{runner: r, cfg: cfg.withDefaults()}
}

// Generate pads tokens with BoundaryToken, runs the graph and returns the raw
// 24 kHz waveform. The caller's token slice is left untouched.
func (m *AcousticModel) Generate(ctx context.Context, tokens []int64, style []float32, speed float32) ([]float32, error) {
	inputs, err := m.buildInputs(tokens, style, speed)
	if err != nil {
		return nil, err
	}

	outputs, err := m.runner.Run(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("acoustic model: %w", err)
	}

	out, ok := outputs[m.cfg.Output]
	if !ok {
		if len(outputs) != 1 {
			return nil, fmt.Errorf("acoustic model: missing output %q (have %v)", m.cfg.Output, outputNames(outputs))
		}
		for _, only := range outputs {
			out = only
		}
	}

	wave, err := ExtractFloat32(out)
	if err != nil {
		return nil, fmt.Errorf("acoustic model output: %w", err)
	}
	if len(wave) == 0 {
		return nil, ErrEmptyWaveform
	}
	return wave, nil
}

func (m *AcousticModel) Close() {
	if m.runner != nil {
		m.runner.Close()
	}
}

func (m *AcousticModel) buildInputs(tokens []int64, style []float32, speed float32) (map[string]*Tensor, error) {
	if len(style) != StyleDim {
		return nil, fmt.Errorf("style vector has %d values, want %d", len(style), StyleDim)
	}
	if speed <= 0 {
		return nil, fmt.Errorf("speed must be positive, got %v", speed)
	}

	ids, err := NewTensor(PadTokens(tokens), []int64{1, int64(len(tokens) + 2)})
	if err != nil {
		return nil, fmt.Errorf("input ids: %w", err)
	}
	styleT, err := NewTensor(style, []int64{1, StyleDim})
	if err != nil {
		return nil, fmt.Errorf("style: %w", err)
	}
	speedT, err := NewTensor([]float32{speed}, []int64{1})
	if err != nil {
		return nil, fmt.Errorf("speed: %w", err)
	}

	return map[string]*Tensor{
		m.cfg.InputIDs: ids,
		m.cfg.Style:    styleT,
		m.cfg.Speed:    speedT,
	}, nil
}

// PadTokens returns a new slice of [BoundaryToken, tokens..., BoundaryToken].
func PadTokens(tokens []int64) []int64 {
	padded := make([]int64, 0, len(tokens)+2)
	padded = append(padded, BoundaryToken)
	padded = append(padded, tokens...)
	return append(padded, BoundaryToken)
}

func outputNames(outputs map[string]*Tensor) []string {
	names := make([]string, 0, len(outputs))
	for name := range outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
