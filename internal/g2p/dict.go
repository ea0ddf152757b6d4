package g2p

import (
	"strings"

	"github.com/example/go-phonotts/internal/text"
)

// DictEngine is a pronunciation-dictionary Engine. Its dictionary is a private
// snapshot fixed at construction, so later changes to the maps passed in have
// no effect.
type DictEngine struct {
	dict map[string]string
}

// NewDictEngine builds the engine from a base dictionary and optional overlay
// dictionaries (typically the custom lexicon). Overlays are applied in order
// and win over the base. All keys are lowercased.
func NewDictEngine(base map[string]string, overlays ...map[string]string) *DictEngine {
	size := len(base)
	for _, o := range overlays {
		size += len(o)
	}

	merged := NewLexicon()
	merged.entries = make(map[string]string, size)
	merged.Merge(base)
	for _, o := range overlays {
		merged.Merge(o)
	}

	return &DictEngine{dict: merged.entries}
}

// Len returns the number of dictionary entries.
func (e *DictEngine) Len() int { return len(e.dict) }

// Convert looks up every word of text. Whitespace and punctuation pass through
// unchanged. Unknown words are rendered as UnknownSentinel, so a single
// unknown word yields exactly the sentinel.
func (e *DictEngine) Convert(input string) (string, []Token, error) {
	var b strings.Builder
	var tokens []Token

	for _, seg := range text.Split(input) {
		if seg.Kind != text.KindWord {
			b.WriteString(seg.Text)
			continue
		}

		ph, ok := e.dict[strings.ToLower(seg.Text)]
		if !ok || ph == "" {
			ph = UnknownSentinel
		}
		b.WriteString(ph)
		tokens = append(tokens, Token{Text: seg.Text, Phonemes: ph})
	}

	return b.String(), tokens, nil
}
