// Package tokenizer maps phoneme strings to the integer token ids consumed by
// the acoustic model.
package tokenizer

// Tokenizer encodes a phoneme string into token ids.
type Tokenizer interface {
	// Encode maps each phoneme rune to its id, dropping runes without one.
	Encode(phonemes string) ([]int64, error)
}
