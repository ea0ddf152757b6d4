package tts

import (
	"errors"
	"strings"
	"testing"
)

func testVoices() []Voice {
	return []Voice{
		{ID: "af_heart", StyleVectors: [][]float32{constVector(StyleDim, 0.1)}},
		{ID: "bm_george", StyleVectors: [][]float32{constVector(StyleDim, 0.2)}},
		{ID: "af_bella", StyleVectors: [][]float32{constVector(StyleDim, 0.3)}},
	}
}

func TestNewVoiceManager(t *testing.T) {
	voices := append(testVoices(),
		Voice{ID: "af_heart", StyleVectors: [][]float32{constVector(StyleDim, 9)}},
		Voice{ID: "empty"},
		Voice{StyleVectors: [][]float32{{1}}},
	)

	m, err := NewVoiceManager(voices)
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}

	list := m.ListVoices()
	ids := []string{list[0].ID, list[1].ID, list[2].ID}
	if strings.Join(ids, ",") != "af_bella,af_heart,bm_george" {
		t.Fatalf("ListVoices order = %v", ids)
	}

	v, ok := m.Voice("af_heart")
	if !ok || v.StyleVectors[0][0] != 0.1 {
		t.Fatalf("duplicate id should keep first entry, got %+v", v)
	}
}

func TestNewVoiceManager_NoVoices(t *testing.T) {
	_, err := NewVoiceManager([]Voice{{ID: "empty"}})
	if !errors.Is(err, ErrNoVoices) {
		t.Fatalf("err = %v, want ErrNoVoices", err)
	}
}

func TestResolve(t *testing.T) {
	m, err := NewVoiceManager(testVoices())
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	t.Run("by id", func(t *testing.T) {
		v, err := m.Resolve(VoiceByID("bm_george"))
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if v.ID != "bm_george" {
			t.Fatalf("ID = %q", v.ID)
		}
	})

	t.Run("by id with surrounding space", func(t *testing.T) {
		if _, err := m.Resolve(VoiceByID(" af_bella ")); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	})

	t.Run("direct voice bypasses table", func(t *testing.T) {
		custom := Voice{ID: "custom", StyleVectors: [][]float32{{1, 2}}}
		v, err := m.Resolve(DirectVoice(custom))
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if v.ID != "custom" {
			t.Fatalf("ID = %q", v.ID)
		}
	})

	t.Run("direct voice without styles", func(t *testing.T) {
		if _, err := m.Resolve(DirectVoice(Voice{ID: "bare"})); err == nil {
			t.Fatal("expected error for voice without style vectors")
		}
	})

	t.Run("unknown id suggests closest", func(t *testing.T) {
		_, err := m.Resolve(VoiceByID("af_hart"))
		if !errors.Is(err, ErrUnknownVoice) {
			t.Fatalf("err = %v, want ErrUnknownVoice", err)
		}
		if !strings.Contains(err.Error(), `did you mean "af_heart"`) {
			t.Fatalf("err = %v, want suggestion", err)
		}
	})

	t.Run("unrelated id has no suggestion", func(t *testing.T) {
		_, err := m.Resolve(VoiceByID("zzzzzzzz"))
		if !errors.Is(err, ErrUnknownVoice) {
			t.Fatalf("err = %v, want ErrUnknownVoice", err)
		}
		if strings.Contains(err.Error(), "did you mean") {
			t.Fatalf("unexpected suggestion in %v", err)
		}
	})
}

func TestVoiceRef(t *testing.T) {
	if !(VoiceRef{}).IsZero() {
		t.Error("zero VoiceRef should be IsZero")
	}
	if !VoiceByID("  ").IsZero() {
		t.Error("blank id should be IsZero")
	}
	if VoiceByID("af_heart").IsZero() {
		t.Error("named id should not be IsZero")
	}
	if DirectVoice(Voice{}).IsZero() {
		t.Error("direct voice should not be IsZero")
	}
	if got := DirectVoice(Voice{ID: "x"}).String(); got != "x" {
		t.Errorf("String = %q, want x", got)
	}
}

func TestDescribeVoice(t *testing.T) {
	tests := []struct {
		id   string
		want Voice
	}{
		{"af_heart", Voice{DisplayName: "Heart", LanguageCode: "en-us", Gender: "female"}},
		{"bm_george", Voice{DisplayName: "George", LanguageCode: "en-gb", Gender: "male"}},
		{"narrator", Voice{DisplayName: "Narrator"}},
		{"xx_deep_voice", Voice{DisplayName: "Deep Voice"}},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			v := Voice{ID: tt.id}
			describeVoice(&v)

			if v.DisplayName != tt.want.DisplayName || v.LanguageCode != tt.want.LanguageCode || v.Gender != tt.want.Gender {
				t.Fatalf("got %q/%q/%q, want %q/%q/%q",
					v.DisplayName, v.LanguageCode, v.Gender,
					tt.want.DisplayName, tt.want.LanguageCode, tt.want.Gender)
			}
		})
	}
}

func TestDescribeVoice_KeepsExplicitMetadata(t *testing.T) {
	v := Voice{ID: "af_heart", DisplayName: "Warm", Gender: "neutral"}
	describeVoice(&v)

	if v.DisplayName != "Warm" || v.Gender != "neutral" || v.LanguageCode != "en-us" {
		t.Fatalf("got %+v", v)
	}
}

func TestResolve_SuggestionIgnoresCase(t *testing.T) {
	m, err := NewVoiceManager([]Voice{
		{ID: "NARRATOR", StyleVectors: [][]float32{{0.1}}},
		{ID: "af_heart", StyleVectors: [][]float32{{0.2}}},
	})
	if err != nil {
		t.Fatalf("NewVoiceManager: %v", err)
	}

	_, err = m.Resolve(VoiceByID("narrator"))
	if !errors.Is(err, ErrUnknownVoice) {
		t.Fatalf("err = %v, want ErrUnknownVoice", err)
	}
	if !strings.Contains(err.Error(), `did you mean "NARRATOR"`) {
		t.Fatalf("err = %v, want suggestion of NARRATOR", err)
	}
}
