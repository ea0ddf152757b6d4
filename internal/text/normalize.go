package text

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// Normalize prepares raw input text for phonemization.
// It composes the text to NFC so accented letters stay inside a single word
// run, normalizes line endings to \n, and rejects empty or whitespace-only
// input. All other whitespace and punctuation, including at the edges, is
// kept because it is carried into the phoneme string.
func Normalize(s string) (string, error) {
	s = norm.NFC.String(s)

	// Normalize line endings: CRLF → LF, then bare CR → LF.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	if strings.TrimSpace(s) == "" {
		return "", ErrEmptyText
	}

	return s, nil
}
