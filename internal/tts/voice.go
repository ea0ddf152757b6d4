package tts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

var (
	ErrNoVoices     = errors.New("no usable voices")
	ErrUnknownVoice = errors.New("unknown voice")
)

// suggestThreshold is the minimum Jaro-Winkler score for a "did you mean".
const suggestThreshold = 0.8

type Voice struct {
	ID           string      `json:"id"`
	DisplayName  string      `json:"name"`
	LanguageCode string      `json:"language"`
	Gender       string      `json:"gender"`
	StyleVectors [][]float32 `json:"-"`
}

// Styles reports how many token-count buckets the voice carries.
func (v Voice) Styles() int { return len(v.StyleVectors) }

// VoiceRef names the voice for one synthesis call: either an id resolved
// against a VoiceManager or a fully specified Voice.
type VoiceRef struct {
	id     string
	direct *Voice
}

func VoiceByID(id string) VoiceRef { return VoiceRef{id: id} }

func DirectVoice(v Voice) VoiceRef { return VoiceRef{direct: &v} }

// IsZero reports whether the ref names nothing, in which case the
// configured default voice applies.
func (r VoiceRef) IsZero() bool {
	return r.direct == nil && strings.TrimSpace(r.id) == ""
}

func (r VoiceRef) String() string {
	if r.direct != nil {
		return r.direct.ID
	}
	return r.id
}

// VoiceManager holds the immutable voice table.
type VoiceManager struct {
	voices []Voice
	byID   map[string]Voice
}

// NewVoiceManager indexes voices by id. Duplicate ids keep the first entry.
func NewVoiceManager(voices []Voice) (*VoiceManager, error) {
	m := &VoiceManager{byID: make(map[string]Voice, len(voices))}

	for _, v := range voices {
		if v.ID == "" || len(v.StyleVectors) == 0 {
			continue
		}
		if _, exists := m.byID[v.ID]; exists {
			continue
		}
		m.byID[v.ID] = v
		m.voices = append(m.voices, v)
	}

	if len(m.voices) == 0 {
		return nil, ErrNoVoices
	}

	sort.Slice(m.voices, func(i, j int) bool { return m.voices[i].ID < m.voices[j].ID })

	return m, nil
}

func (m *VoiceManager) ListVoices() []Voice {
	return append([]Voice(nil), m.voices...)
}

func (m *VoiceManager) Len() int { return len(m.voices) }

func (m *VoiceManager) Voice(id string) (Voice, bool) {
	v, ok := m.byID[id]
	return v, ok
}

// Resolve turns ref into a concrete Voice. Direct voices must carry at least
// one style vector. Unknown ids fail with ErrUnknownVoice; no other voice is
// substituted.
func (m *VoiceManager) Resolve(ref VoiceRef) (Voice, error) {
	if ref.direct != nil {
		v := *ref.direct
		if len(v.StyleVectors) == 0 {
			return Voice{}, fmt.Errorf("voice %q has no style vectors: %w", v.ID, ErrUnknownVoice)
		}
		return v, nil
	}

	id := strings.TrimSpace(ref.id)
	if v, ok := m.byID[id]; ok {
		return v, nil
	}

	if s := m.suggest(id); s != "" {
		return Voice{}, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownVoice, id, s)
	}
	return Voice{}, fmt.Errorf("%w %q", ErrUnknownVoice, id)
}

func (m *VoiceManager) suggest(id string) string {
	if id == "" {
		return ""
	}

	want := strings.ToLower(id)
	best, bestScore := "", 0.0
	for _, v := range m.voices {
		score := matchr.JaroWinkler(want, strings.ToLower(v.ID), false)
		if score > bestScore {
			best, bestScore = v.ID, score
		}
	}

	if bestScore < suggestThreshold {
		return ""
	}
	return best
}

// describeVoice fills display metadata from the conventional id scheme
// "<lang><gender>_<name>", e.g. "af_heart" is an American English female
// voice called Heart. Unrecognized ids get a title-cased display name only.
func describeVoice(v *Voice) {
	prefix, name, ok := strings.Cut(v.ID, "_")
	if !ok {
		prefix, name = "", v.ID
	}

	if v.DisplayName == "" {
		v.DisplayName = titleCase(name)
	}

	if len(prefix) != 2 {
		return
	}

	if v.LanguageCode == "" {
		v.LanguageCode = languageCodes[prefix[0]]
	}
	if v.Gender == "" {
		switch prefix[1] {
		case 'f':
			v.Gender = "female"
		case 'm':
			v.Gender = "male"
		}
	}
}

var languageCodes = map[byte]string{
	'a': "en-us",
	'b': "en-gb",
	'e': "es",
	'f': "fr-fr",
	'h': "hi",
	'i': "it",
	'j': "ja",
	'p': "pt-br",
	'z': "cmn",
}

func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
