package text

import "strings"

// Batches splits text into synthesis batches.
// If maxChars is 0 or negative the whole text is a single batch. Otherwise
// sentences (ending at a punctuation run containing '.', '!' or '?') are
// grouped while the batch stays within maxChars; a sentence that alone
// exceeds maxChars is kept intact. Whitespace between batches is dropped.
func Batches(text string, maxChars int) []string {
	if maxChars <= 0 {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return []string{text}
	}

	var batches []string
	var current strings.Builder

	for _, s := range sentences {
		if current.Len() == 0 {
			current.WriteString(s)
			continue
		}
		// Would appending this sentence (with a space separator) exceed the limit?
		if current.Len()+1+len(s) > maxChars {
			batches = append(batches, current.String())
			current.Reset()
			current.WriteString(s)
		} else {
			current.WriteByte(' ')
			current.WriteString(s)
		}
	}
	if current.Len() > 0 {
		batches = append(batches, current.String())
	}

	return batches
}

// splitSentences walks the segments of text and cuts after every punctuation
// run that contains a sentence terminator, keeping the terminator attached.
// Empty sentences are dropped.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, seg := range Split(text) {
		current.WriteString(seg.Text)
		if seg.Kind == KindPunctuation && strings.ContainsAny(seg.Text, ".!?") {
			flush()
		}
	}
	flush()

	return sentences
}
