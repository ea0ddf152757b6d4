package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/go-phonotts/internal/audio"
	"github.com/example/go-phonotts/internal/config"
	"github.com/example/go-phonotts/internal/tts"
	"github.com/spf13/cobra"
)

// synthService is the part of *tts.Service the synth command drives.
type synthService interface {
	Synthesize(ctx context.Context, text string, opts tts.Options) (tts.Result, error)
	SynthesizeStream(ctx context.Context, text string, opts tts.Options, out chan<- tts.PCMChunk) error
	Close()
}

var openService = func(ctx context.Context, cfg config.Config) (synthService, error) {
	return tts.Open(ctx, cfg)
}

func newSynthCmd() *cobra.Command {
	var text string
	var out string
	var stream bool

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text to WAV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			inputText, err := readSynthText(text, os.Stdin)
			if err != nil {
				return err
			}

			svc, err := openService(cmd.Context(), cfg)
			if err != nil {
				return mapSynthError(err)
			}
			defer svc.Close()

			if stream {
				err = synthesizeStreaming(cmd.Context(), svc, inputText, out, os.Stdout)
			} else {
				err = synthesizeToFile(cmd.Context(), svc, inputText, out, os.Stdout)
			}
			return mapSynthError(err)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().BoolVar(&stream, "stream", false, "Write audio batch by batch with a streaming WAV header")

	return cmd
}

func synthesizeToFile(ctx context.Context, svc synthService, text, outPath string, stdout io.Writer) error {
	res, err := svc.Synthesize(ctx, text, tts.Options{})
	if err != nil {
		return err
	}

	wavData, err := audio.EncodeWAVPCM16(res.Audio, res.SampleRate)
	if err != nil {
		return err
	}

	slog.Info("synthesis complete",
		slog.String("phonemes", res.Phonemes),
		slog.Float64("audio_seconds", res.DurationSeconds),
		slog.String("out", outPath),
	)
	return writeSynthOutput(outPath, wavData, stdout)
}

func synthesizeStreaming(ctx context.Context, svc synthService, text, outPath string, stdout io.Writer) (err error) {
	w := stdout
	if outPath != "-" {
		f, createErr := os.Create(outPath)
		if createErr != nil {
			return createErr
		}
		defer func() {
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
		}()
		w = f
	} else if w == nil {
		return fmt.Errorf("stdout writer is nil")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make(chan tts.PCMChunk, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.SynthesizeStream(ctx, text, tts.Options{}, chunks)
	}()

	if _, err := audio.WriteWAVHeaderStreaming(w); err != nil {
		cancel()
		for range chunks { //nolint:revive
		}
		<-errCh
		return err
	}

	var writeErr error
	for chunk := range chunks {
		if writeErr != nil {
			continue
		}
		if _, err := audio.WritePCM16Samples(w, chunk.Audio); err != nil {
			writeErr = err
			cancel()
			continue
		}
		slog.Debug("batch written",
			slog.Int("chunk", chunk.ChunkIndex),
			slog.Bool("final", chunk.Final),
			slog.String("phonemes", chunk.Phonemes),
		)
	}

	if err := <-errCh; err != nil {
		return err
	}
	return writeErr
}

func writeSynthOutput(outPath string, wavData []byte, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(wavData)
		return err
	}
	return os.WriteFile(outPath, wavData, 0o644)
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}
	return input, nil
}

func mapSynthError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, config.ErrEmptyPath) {
		return fmt.Errorf("synth failed: set --paths-model-path or PHONOTTS_PATHS_MODEL_PATH: %w", err)
	}

	if tts.IsInvalidInput(err) {
		return fmt.Errorf("synth failed: invalid input: %w", err)
	}

	return fmt.Errorf("synth failed: %w", err)
}
