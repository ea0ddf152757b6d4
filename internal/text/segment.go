package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a Segment.
type Kind int

const (
	KindWord Kind = iota
	KindPunctuation
	KindWhitespace
)

func (k Kind) String() string {
	switch k {
	case KindWord:
		return "word"
	case KindPunctuation:
		return "punctuation"
	case KindWhitespace:
		return "whitespace"
	default:
		return "unknown"
	}
}

// Segment is a maximal run of runes of a single Kind, holding the exact
// source text it covers.
type Segment struct {
	Text string
	Kind Kind
}

// Split partitions s into ordered, non-empty segments. Word runs (letters,
// numbers, underscore) take priority, then punctuation runs (anything that is
// neither a word rune nor whitespace), then whitespace runs. Concatenating the
// Text of every segment reproduces s exactly.
func Split(s string) []Segment {
	if s == "" {
		return nil
	}

	var segments []Segment
	start := 0
	current := kindOf(firstRune(s))

	for i, r := range s {
		k := kindOf(r)
		if k == current {
			continue
		}
		segments = append(segments, Segment{Text: s[start:i], Kind: current})
		start = i
		current = k
	}
	segments = append(segments, Segment{Text: s[start:], Kind: current})

	return segments
}

// Join concatenates segment texts in order.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

func kindOf(r rune) Kind {
	switch {
	case isWordRune(r):
		return KindWord
	case unicode.IsSpace(r):
		return KindWhitespace
	default:
		return KindPunctuation
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
