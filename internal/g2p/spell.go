package g2p

import "strings"

// letterNames holds the spoken name of each letter.
var letterNames = map[rune]string{
	'a': "ˈeɪ", 'b': "bˈi", 'c': "sˈi", 'd': "dˈi", 'e': "ˈi", 'f': "ˈɛf",
	'g': "dʒˈi", 'h': "ˈeɪtʃ", 'i': "ˈaɪ", 'j': "dʒˈeɪ", 'k': "kˈeɪ",
	'l': "ˈɛl", 'm': "ˈɛm", 'n': "ˈɛn", 'o': "ˈoʊ", 'p': "pˈi", 'q': "kjˈu",
	'r': "ˈɑɹ", 's': "ˈɛs", 't': "tˈi", 'u': "jˈu", 'v': "vˈi",
	'w': "dˈʌbəlju", 'x': "ˈɛks", 'y': "wˈaɪ", 'z': "zˈi",
}

// SpellOut reads a word letter by letter: each letter or digit is replaced by
// its spoken name and the names are joined by single spaces. Characters
// without a name are skipped.
func SpellOut(word string) string {
	var names []string

	for _, r := range strings.ToLower(word) {
		if name, ok := letterNames[r]; ok {
			names = append(names, name)
		} else if name, ok := digitNames[r]; ok {
			names = append(names, name)
		}
	}

	return strings.Join(names, " ")
}
