package tts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-phonotts/internal/assets"
	"github.com/example/go-phonotts/internal/config"
	"github.com/example/go-phonotts/internal/g2p"
	"github.com/example/go-phonotts/internal/tokenizer"
)

// Assets are the read-only tables a Service is built from.
type Assets struct {
	Vocab      *tokenizer.Vocab
	Lexicon    *g2p.Lexicon
	Dictionary map[string]string
	Voices     *VoiceManager
}

// LoadAssets reads vocabulary, lexicon, dictionary and voices concurrently.
// A missing vocabulary or an empty voice table is fatal; a lexicon or
// dictionary that cannot be read is logged and replaced by an empty one.
// Loaders that have not started yet are skipped once ctx is done or another
// loader has failed.
func LoadAssets(ctx context.Context, paths config.PathsConfig) (*Assets, error) {
	var a Assets

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		vocab, err := tokenizer.LoadVocab(paths.VocabPath)
		if err != nil {
			return fmt.Errorf("vocabulary: %w", err)
		}
		a.Vocab = vocab
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		voices, err := LoadVoices(paths.VoicesPath)
		if err != nil {
			return fmt.Errorf("voices: %w", err)
		}
		a.Voices = voices
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		a.Lexicon = loadOptionalLexicon(paths.LexiconPath)
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		a.Dictionary = loadOptionalDictionary(paths.DictionaryPath)
		return nil
	})

	start := time.Now()
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("assets loaded",
		"vocab", a.Vocab.Len(),
		"lexicon", a.Lexicon.Len(),
		"dictionary", len(a.Dictionary),
		"voices", a.Voices.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &a, nil
}

func loadOptionalLexicon(path string) *g2p.Lexicon {
	if path == "" {
		return g2p.NewLexicon()
	}

	lex, err := g2p.LoadLexicon(path)
	if err != nil {
		slog.Warn("lexicon unavailable, continuing without it", "path", path, "error", err)
		return g2p.NewLexicon()
	}
	return lex
}

func loadOptionalDictionary(path string) map[string]string {
	if path == "" {
		return nil
	}

	dict, err := assets.LoadStringMap(path)
	if err != nil {
		slog.Warn("dictionary unavailable, continuing without it", "path", path, "error", err)
		return nil
	}
	return dict
}
