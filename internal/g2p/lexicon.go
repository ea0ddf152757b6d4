package g2p

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/go-phonotts/internal/assets"
)

// Lexicon maps lowercase words to known phoneme strings.
// It is mutated only while the pipeline is being assembled (Merge, Load);
// afterwards it is read-only and safe for concurrent Lookup calls.
type Lexicon struct {
	entries map[string]string
}

// NewLexicon returns an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{entries: make(map[string]string)}
}

// LoadLexicon reads a word → phonemes mapping from a JSON or YAML file.
func LoadLexicon(path string) (*Lexicon, error) {
	m, err := assets.LoadStringMap(path)
	if err != nil {
		return nil, fmt.Errorf("load lexicon: %w", err)
	}

	lex := NewLexicon()
	lex.Merge(m)

	return lex, nil
}

// Merge adds entries under lowercased keys. Existing keys are overwritten
// silently. Keys are applied in sorted order so that case variants of the
// same word resolve the same way on every run.
func (l *Lexicon) Merge(entries map[string]string) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		lower := strings.ToLower(k)
		if lower == "" {
			continue
		}
		l.entries[lower] = entries[k]
	}
}

// Lookup returns the phonemes for word, ignoring case.
func (l *Lexicon) Lookup(word string) (string, bool) {
	if l == nil {
		return "", false
	}
	ph, ok := l.entries[strings.ToLower(word)]
	return ph, ok
}

// Len returns the number of entries.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// Snapshot returns a copy of the entries.
func (l *Lexicon) Snapshot() map[string]string {
	out := make(map[string]string, l.Len())
	if l == nil {
		return out
	}
	for k, v := range l.entries {
		out[k] = v
	}
	return out
}
