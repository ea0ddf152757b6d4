package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/example/go-phonotts/internal/audio"
	"github.com/spf13/cobra"
)

func newTrimCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "trim <input.wav>",
		Short: "Trim leading and trailing silence from a 24 kHz mono WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			opts := audio.TrimOptions{
				TopDB:       cfg.TTS.TrimTopDB,
				FrameLength: cfg.TTS.TrimFrameLength,
				HopLength:   cfg.TTS.TrimHopLength,
			}
			return trimFile(args[0], out, opts)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output WAV path ('-' for stdout; default overwrites the input)")

	return cmd
}

func trimFile(inPath, outPath string, opts audio.TrimOptions) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}

	samples, err := audio.DecodeWAV(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", inPath, err)
	}

	trimmed, start, end := audio.Trim(samples, opts)
	slog.Info("trimmed silence",
		slog.String("in", inPath),
		slog.Int("samples", len(samples)),
		slog.Int("start", start),
		slog.Int("end", end),
	)

	encoded, err := audio.EncodeWAV(trimmed)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = inPath
	}
	return writeSynthOutput(outPath, encoded, os.Stdout)
}
