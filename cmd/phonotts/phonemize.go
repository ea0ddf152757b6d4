package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/go-phonotts/internal/tts"
	"github.com/spf13/cobra"
)

type phonemizeOutput struct {
	Phonemes string  `json:"phonemes"`
	Tokens   []int64 `json:"tokens"`
}

func newPhonemizeCmd() *cobra.Command {
	var text string
	var asJSON bool
	var showTokens bool

	cmd := &cobra.Command{
		Use:   "phonemize",
		Short: "Print the phoneme string (and optionally token ids) for text",
		Long:  "Runs the linguistic front end only. The acoustic model and ONNX Runtime are not loaded.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			inputText, err := readSynthText(text, os.Stdin)
			if err != nil {
				return err
			}

			assets, err := tts.LoadAssets(cmd.Context(), cfg.Paths)
			if err != nil {
				return err
			}
			svc, err := tts.NewService(assets, nil, cfg.TTS)
			if err != nil {
				return err
			}

			phonemes, tokens, err := svc.Phonemize(inputText, cfg.TTS.Lang)
			if err != nil {
				return err
			}

			return writePhonemes(os.Stdout, phonemeOutputFor(phonemes, tokens), asJSON, showTokens)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to phonemize (if empty, read from stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print phonemes and tokens as JSON")
	cmd.Flags().BoolVar(&showTokens, "tokens", false, "Also print the token ids")

	return cmd
}

func phonemeOutputFor(phonemes string, tokens []int64) phonemizeOutput {
	if tokens == nil {
		tokens = []int64{}
	}
	return phonemizeOutput{Phonemes: phonemes, Tokens: tokens}
}

func writePhonemes(w io.Writer, out phonemizeOutput, asJSON, showTokens bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(out)
	}

	if _, err := fmt.Fprintln(w, out.Phonemes); err != nil {
		return err
	}
	if !showTokens {
		return nil
	}

	ids := make([]string, len(out.Tokens))
	for i, id := range out.Tokens {
		ids[i] = fmt.Sprint(id)
	}
	_, err := fmt.Fprintln(w, strings.Join(ids, " "))
	return err
}
