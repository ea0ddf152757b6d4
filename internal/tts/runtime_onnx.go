package tts

import (
	"context"
	"fmt"

	"github.com/example/go-phonotts/internal/config"
	"github.com/example/go-phonotts/internal/onnx"
)

type acousticModel interface {
	Generate(ctx context.Context, tokens []int64, style []float32, speed float32) ([]float32, error)
	Close()
}

type onnxRuntime struct {
	model acousticModel
}

func newONNXRuntime(model acousticModel) Runtime {
	return &onnxRuntime{model: model}
}

// NewONNXRuntime bootstraps ONNX Runtime and loads the acoustic model named
// by cfg.Paths.ModelPath.
func NewONNXRuntime(cfg config.Config) (Runtime, error) {
	if cfg.Paths.ModelPath == "" {
		return nil, fmt.Errorf("paths.model_path: %w", config.ErrEmptyPath)
	}

	info, err := onnx.Bootstrap(cfg.Runtime)
	if err != nil {
		return nil, fmt.Errorf("bootstrap onnx runtime: %w", err)
	}

	model, err := onnx.LoadAcousticModel(cfg.Paths.ModelPath, onnx.RunnerConfig{
		LibraryPath: info.LibraryPath,
	}, onnx.AcousticConfig{})
	if err != nil {
		return nil, fmt.Errorf("load acoustic model: %w", err)
	}

	return newONNXRuntime(model), nil
}

func (r *onnxRuntime) GenerateAudio(ctx context.Context, tokens []int64, cfg GenerateConfig) ([]float32, error) {
	return r.model.Generate(ctx, tokens, cfg.Style, float32(cfg.Speed))
}

func (r *onnxRuntime) Close() {
	if r.model != nil {
		r.model.Close()
	}
}
