package g2p

import (
	"strings"
	"testing"
)

func TestApplyRules(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"hello", "hɛllɑ"},
		{"world", "wɔɹld"},
		{"Nation", "næʃən"},
		{"night", "naɪt"},
		{"phone", "fɑnɛ"},
		{"catch", "kætʃ"},
		{"chrome", "kɹɑmɛ"},
		{"r2d2", "ɹtˈudtˈu"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := ApplyRules(tt.word); got != tt.want {
				t.Errorf("ApplyRules(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}

func TestApplyRules_LongestMatchWins(t *testing.T) {
	// "chr" and "ch" both match at position 0.
	if got := ApplyRules("chr"); got != "kɹ" {
		t.Errorf("ApplyRules(chr) = %q, want %q", got, "kɹ")
	}

	keys := sortedRuleKeys(map[string]string{"ab": "2", "abc": "3"})
	rules := map[string]string{"ab": "2", "abc": "3"}
	if got := applyRules("abc", keys, rules); got != "3" {
		t.Errorf("applyRules(abc) = %q, want 3-char rule", got)
	}
	if got := applyRules("abd", keys, rules); got != "2d" {
		t.Errorf("applyRules(abd) = %q, want %q", got, "2d")
	}
}

func TestSortedRuleKeys_LengthThenLexicographic(t *testing.T) {
	keys := sortedRuleKeys(map[string]string{"b": "", "ab": "", "aa": "", "abcd": "", "xyz": ""})
	want := []string{"abcd", "xyz", "aa", "ab", "b"}

	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("sortedRuleKeys = %v, want %v", keys, want)
	}
}

func TestApplyRules_UnknownCharacters(t *testing.T) {
	if got := ApplyRules("日本"); got != UnknownPlaceholder+UnknownPlaceholder {
		t.Errorf("ApplyRules(日本) = %q, want two placeholders", got)
	}
	if got := ApplyRules("aé"); got != "æ"+UnknownPlaceholder {
		t.Errorf("ApplyRules(aé) = %q", got)
	}
}

func TestApplyRules_EmptyRuleOutput(t *testing.T) {
	if got := ApplyRules("gh"); got != "" {
		t.Errorf("ApplyRules(gh) = %q, want empty", got)
	}
}

func TestApplyRules_Deterministic(t *testing.T) {
	words := []string{"extraordinary", "Thoughtfulness", "sch00l", "queue", "x_y"}
	for _, w := range words {
		first := ApplyRules(w)
		for i := 0; i < 50; i++ {
			if got := ApplyRules(w); got != first {
				t.Fatalf("ApplyRules(%q) changed between calls: %q vs %q", w, first, got)
			}
		}
	}
}

func TestSpellOut(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"abc", "ˈeɪ bˈi sˈi"},
		{"GH", "dʒˈi ˈeɪtʃ"},
		{"a1", "ˈeɪ wˈʌn"},
		{"a-b", "ˈeɪ bˈi"},
		{"日本", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := SpellOut(tt.word); got != tt.want {
				t.Errorf("SpellOut(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}
