package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/example/go-phonotts/internal/config"
	"github.com/example/go-phonotts/internal/doctor"
	"github.com/example/go-phonotts/internal/g2p"
	"github.com/example/go-phonotts/internal/onnx"
	"github.com/example/go-phonotts/internal/tokenizer"
	"github.com/example/go-phonotts/internal/tts"
	"github.com/spf13/cobra"
)

const espeakProbeTimeout = 5 * time.Second

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local runtime and asset checks",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			engine, err := config.NormalizeG2PEngine(cfg.TTS.G2PEngine)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "g2p engine: %s\n", engine)

			result := doctor.Run(doctorConfig(cfg, engine), os.Stdout)
			if err := cfg.Validate(); err != nil {
				result.AddFailure("config: " + err.Error())
			}

			if result.Failed() {
				for _, f := range result.Failures() {
					// #nosec G705 -- Writes plain diagnostic text to stderr for CLI output, not HTML rendering.
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	return cmd
}

func doctorConfig(cfg config.Config, engine string) doctor.Config {
	return doctor.Config{
		ORTRuntime: func() (string, error) {
			return probeORTRuntime(cfg.Runtime)
		},
		SkipORT: strings.TrimSpace(cfg.Paths.ModelPath) == "",
		EspeakVersion: func() (string, error) {
			return probeEspeakVersion(cfg.TTS.EspeakPath)
		},
		SkipEspeak:    engine != config.G2PEngineEspeak,
		Assets:        collectAssets(cfg.Paths),
		ValidateAsset: validateAsset,
	}
}

func probeORTRuntime(rc config.RuntimeConfig) (string, error) {
	info, err := onnx.DetectRuntime(rc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s (%s)", info.LibraryPath, info.Version), nil
}

func probeEspeakVersion(exe string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), espeakProbeTimeout)
	defer cancel()

	line, err := g2p.NewEspeakEngine(exe, "").Version(ctx)
	if err != nil {
		return "", fmt.Errorf("espeak-ng --version failed: %w", err)
	}
	return line, nil
}

const (
	assetModel      = "acoustic model"
	assetVocab      = "vocabulary"
	assetVoices     = "voices"
	assetLexicon    = "lexicon"
	assetDictionary = "dictionary"
)

func collectAssets(p config.PathsConfig) []doctor.Asset {
	return []doctor.Asset{
		{Name: assetModel, Path: p.ModelPath, Optional: true},
		{Name: assetVocab, Path: p.VocabPath},
		{Name: assetVoices, Path: p.VoicesPath},
		{Name: assetLexicon, Path: p.LexiconPath, Optional: true},
		{Name: assetDictionary, Path: p.DictionaryPath, Optional: true},
	}
}

// validateAsset parses each table with the loader the pipeline uses.
func validateAsset(a doctor.Asset) error {
	switch a.Name {
	case assetVocab:
		_, err := tokenizer.LoadVocab(a.Path)
		return err
	case assetVoices:
		_, err := tts.LoadVoices(a.Path)
		return err
	case assetLexicon, assetDictionary:
		_, err := g2p.LoadLexicon(a.Path)
		return err
	default:
		return nil
	}
}
