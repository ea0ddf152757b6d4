package g2p

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// graphemeRules maps multi-letter grapheme sequences to phonemes. Matching is
// longest-key-first at every position.
var graphemeRules = map[string]string{
	// suffixes and four-letter clusters
	"tion": "ʃən",
	"sion": "ʒən",
	"ough": "ʌf",
	"ight": "aɪt",
	"eous": "iəs",
	"ious": "iəs",
	"ture": "tʃɚ",
	"sure": "ʃɚ",
	"ould": "ʊd",
	"ound": "aʊnd",
	"ence": "əns",
	"ance": "əns",
	"ment": "mənt",
	"ness": "nəs",
	"able": "əbəl",
	"ible": "əbəl",
	"ally": "əli",
	"less": "ləs",

	// trigraphs
	"ful": "fəl",
	"ing": "ɪŋ",
	"ght": "t",
	"tch": "tʃ",
	"dge": "dʒ",
	"sch": "sk",
	"chr": "kɹ",
	"que": "k",
	"igh": "aɪ",
	"air": "ɛɹ",
	"ear": "ɪɹ",

	// digraphs
	"ph": "f",
	"th": "θ",
	"sh": "ʃ",
	"ch": "tʃ",
	"wh": "w",
	"wr": "ɹ",
	"kn": "n",
	"gn": "n",
	"ck": "k",
	"ng": "ŋ",
	"gh": "",
	"qu": "kw",
	"ee": "i",
	"ea": "i",
	"oo": "u",
	"ou": "aʊ",
	"ow": "oʊ",
	"ai": "eɪ",
	"ay": "eɪ",
	"oi": "ɔɪ",
	"oy": "ɔɪ",
	"au": "ɔ",
	"aw": "ɔ",
	"er": "ɚ",
	"ir": "ɝ",
	"ur": "ɝ",
	"ar": "ɑɹ",
	"or": "ɔɹ",
	"le": "əl",
}

// letterRules is the single-grapheme table.
var letterRules = map[rune]string{
	'a': "æ", 'b': "b", 'c': "k", 'd': "d", 'e': "ɛ", 'f': "f", 'g': "ɡ",
	'h': "h", 'i': "ɪ", 'j': "dʒ", 'k': "k", 'l': "l", 'm': "m", 'n': "n",
	'o': "ɑ", 'p': "p", 'q': "k", 'r': "ɹ", 's': "s", 't': "t", 'u': "ʌ",
	'v': "v", 'w': "w", 'x': "ks", 'y': "j", 'z': "z",
}

// digitNames spells out digits.
var digitNames = map[rune]string{
	'0': "zˈɪɹoʊ",
	'1': "wˈʌn",
	'2': "tˈu",
	'3': "θɹˈi",
	'4': "fˈɔɹ",
	'5': "fˈaɪv",
	'6': "sˈɪks",
	'7': "sˈɛvən",
	'8': "ˈeɪt",
	'9': "nˈaɪn",
}

// ruleKeys holds the keys of graphemeRules, longest first, ties ordered
// lexicographically.
var ruleKeys = sortedRuleKeys(graphemeRules)

func sortedRuleKeys(rules map[string]string) []string {
	keys := make([]string, 0, len(rules))
	for k := range rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(keys[i]), utf8.RuneCountInString(keys[j])
		if li != lj {
			return li > lj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// ApplyRules converts a single word with the grapheme rule cascade. At each
// position the longest matching multi-letter rule is applied; otherwise the
// letter or digit table is consulted, and anything else becomes
// UnknownPlaceholder. Pieces are concatenated without separators.
func ApplyRules(word string) string {
	return applyRules(strings.ToLower(word), ruleKeys, graphemeRules)
}

func applyRules(word string, keys []string, rules map[string]string) string {
	var b strings.Builder

	for i := 0; i < len(word); {
		rest := word[i:]

		if key, ok := longestPrefix(rest, keys); ok {
			b.WriteString(rules[key])
			i += len(key)
			continue
		}

		r, size := utf8.DecodeRuneInString(rest)
		if ph, ok := letterRules[r]; ok {
			b.WriteString(ph)
		} else if ph, ok := digitNames[r]; ok {
			b.WriteString(ph)
		} else {
			b.WriteString(UnknownPlaceholder)
		}
		i += size
	}

	return b.String()
}

func longestPrefix(s string, keys []string) (string, bool) {
	for _, k := range keys {
		if strings.HasPrefix(s, k) {
			return k, true
		}
	}
	return "", false
}
