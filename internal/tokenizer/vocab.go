package tokenizer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/example/go-phonotts/internal/assets"
)

// MaxPhonemeLength is the longest phoneme string (in runes) the acoustic
// model accepts; two more positions are taken by the boundary tokens.
const MaxPhonemeLength = 510

var (
	// ErrEmptyPath is returned when LoadVocab is called with an empty path.
	ErrEmptyPath = errors.New("vocabulary path must not be empty")
	// ErrPhonemesTooLong is returned by Encode when the input exceeds the
	// vocabulary's maximum phoneme length.
	ErrPhonemesTooLong = errors.New("phoneme string too long")
	// ErrEmptyVocab is returned when a vocabulary file has no usable entries.
	ErrEmptyVocab = errors.New("vocabulary has no entries")
)

// Vocab is an immutable phoneme rune → id table. It is safe for concurrent use.
type Vocab struct {
	ids map[rune]int64
}

// vocabConfig matches model config files that nest the table under "vocab".
type vocabConfig struct {
	Vocab map[string]int64 `json:"vocab" yaml:"vocab"`
}

// NewVocab builds a vocabulary from a string → id mapping. Keys that are not
// exactly one rune and negative ids are skipped.
func NewVocab(table map[string]int64) (*Vocab, error) {
	v := &Vocab{
		ids: make(map[rune]int64, len(table)),
	}

	skipped := 0
	for key, id := range table {
		r, size := utf8.DecodeRuneInString(key)
		if size == 0 || size != len(key) || r == utf8.RuneError || id < 0 {
			skipped++
			continue
		}
		v.ids[r] = id
	}

	if skipped > 0 {
		slog.Warn("skipped vocabulary entries", "skipped", skipped, "kept", len(v.ids))
	}

	if len(v.ids) == 0 {
		return nil, ErrEmptyVocab
	}

	return v, nil
}

// LoadVocab reads a vocabulary from a JSON or YAML file. The file may be a
// bare mapping or a model config holding the mapping under "vocab".
func LoadVocab(path string) (*Vocab, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	format := assets.FormatOf(path)

	var cfg vocabConfig
	if err := assets.Decode(data, format, &cfg); err == nil && len(cfg.Vocab) > 0 {
		return NewVocab(cfg.Vocab)
	}

	var table map[string]int64
	if err := assets.Decode(data, format, &table); err != nil {
		return nil, fmt.Errorf("decode vocabulary %q: %w", path, err)
	}

	return NewVocab(table)
}

// Len returns the number of phoneme runes in the table.
func (v *Vocab) Len() int { return len(v.ids) }

// ID returns the id for phoneme rune r.
func (v *Vocab) ID(r rune) (int64, bool) {
	id, ok := v.ids[r]
	return id, ok
}

// Encode maps phonemes to token ids one rune at a time. Runes missing from the
// table are dropped. No boundary padding is added.
func (v *Vocab) Encode(phonemes string) ([]int64, error) {
	n := utf8.RuneCountInString(phonemes)
	if n > MaxPhonemeLength {
		return nil, fmt.Errorf("%w: %d phonemes exceeds limit of %d", ErrPhonemesTooLong, n, MaxPhonemeLength)
	}

	tokens := make([]int64, 0, n)
	for _, r := range phonemes {
		if id, ok := v.ids[r]; ok {
			tokens = append(tokens, id)
		}
	}

	return tokens, nil
}
