// Package g2p converts English text to phoneme strings: a lexicon lookup, a
// primary dictionary or subprocess engine, and two deterministic fallbacks
// (grapheme rules, then letter-by-letter spell-out).
package g2p

import "context"

// UnknownSentinel is returned by an Engine in place of phonemes for words it
// cannot pronounce.
const UnknownSentinel = "❓"

// UnknownPlaceholder is emitted by ApplyRules for a character that has no rule.
// It is not part of any phoneme vocabulary, so the tokenizer drops it.
const UnknownPlaceholder = UnknownSentinel

// Token describes how an engine pronounced one word of its input.
type Token struct {
	Text     string `json:"text"`
	Phonemes string `json:"phonemes"`
}

// Engine is the primary grapheme-to-phoneme capability. Convert returns a
// phoneme string for text, or UnknownSentinel / "" when the caller must fall
// back to the rule cascade.
type Engine interface {
	Convert(text string) (string, []Token, error)
}

// ContextEngine is an Engine whose conversions can be cancelled. The
// Phonemizer prefers ConvertContext when the engine provides it.
type ContextEngine interface {
	Engine
	ConvertContext(ctx context.Context, text string) (string, []Token, error)
}

// usable reports whether an engine result can be emitted as-is.
func usable(phonemes string) bool {
	return phonemes != "" && phonemes != UnknownSentinel
}
