package g2p

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/go-phonotts/internal/text"
)

// Source identifies which stage of the cascade produced a word's phonemes.
type Source int

const (
	SourceLexicon Source = iota
	SourceEngine
	SourceRules
	SourceSpellOut
)

func (s Source) String() string {
	switch s {
	case SourceLexicon:
		return "lexicon"
	case SourceEngine:
		return "engine"
	case SourceRules:
		return "rules"
	case SourceSpellOut:
		return "spell-out"
	default:
		return "unknown"
	}
}

// Phonemizer turns text into a phoneme string. Word segments go through the
// lexicon, the primary engine, the grapheme rules and finally spell-out;
// punctuation and whitespace segments are copied unchanged.
type Phonemizer struct {
	lexicon *Lexicon
	engine  Engine
	log     *slog.Logger

	unsupported sync.Map // language tags already reported
}

// Option configures a Phonemizer.
type Option func(*Phonemizer)

// WithLogger sets the logger used for fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Phonemizer) { p.log = l }
}

// NewPhonemizer returns a Phonemizer. lexicon and engine may be nil, in which
// case that stage is skipped.
func NewPhonemizer(lexicon *Lexicon, engine Engine, opts ...Option) *Phonemizer {
	p := &Phonemizer{
		lexicon: lexicon,
		engine:  engine,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Phonemize converts text. Only English is supported; any other language tag
// takes the same English path.
func (p *Phonemizer) Phonemize(input, lang string) string {
	return p.PhonemizeContext(context.Background(), input, lang)
}

// PhonemizeContext is Phonemize with engine calls bound to ctx. Once ctx is
// done the engine is no longer consulted and words fall through to the rules.
func (p *Phonemizer) PhonemizeContext(ctx context.Context, input, lang string) string {
	if !isEnglish(lang) {
		if _, seen := p.unsupported.LoadOrStore(lang, struct{}{}); !seen {
			p.log.Debug("language not supported, using English rules", slog.String("lang", lang))
		}
	}

	var b strings.Builder
	for _, seg := range text.Split(input) {
		if seg.Kind != text.KindWord {
			b.WriteString(seg.Text)
			continue
		}
		ph, _ := p.word(ctx, seg.Text)
		b.WriteString(ph)
	}

	return b.String()
}

// Word phonemizes a single word and reports which stage produced the result.
func (p *Phonemizer) Word(word string) (string, Source) {
	return p.word(context.Background(), word)
}

func (p *Phonemizer) word(ctx context.Context, word string) (string, Source) {
	if ph, ok := p.lexicon.Lookup(word); ok {
		return ph, SourceLexicon
	}

	if p.engine != nil && ctx.Err() == nil {
		ph, _, err := p.convert(ctx, word)
		switch {
		case err != nil:
			p.log.Debug("g2p engine failed", slog.String("word", word), slog.String("error", err.Error()))
		case usable(ph):
			return ph, SourceEngine
		}
	}

	if ph := ApplyRules(word); ph != "" {
		return ph, SourceRules
	}

	return SpellOut(word), SourceSpellOut
}

func (p *Phonemizer) convert(ctx context.Context, word string) (string, []Token, error) {
	if ce, ok := p.engine.(ContextEngine); ok {
		return ce.ConvertContext(ctx, word)
	}
	return p.engine.Convert(word)
}

func isEnglish(lang string) bool {
	return lang == "" || strings.HasPrefix(strings.ToLower(lang), "en")
}
