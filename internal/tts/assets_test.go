package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/go-phonotts/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
	return path
}

func writeAssets(t *testing.T) config.PathsConfig {
	t.Helper()

	dir := t.TempDir()
	return config.PathsConfig{
		VocabPath:      writeFile(t, dir, "vocab.json", `{"vocab": {"h": 1, "ə": 2, "l": 3, " ": 4}}`),
		LexiconPath:    writeFile(t, dir, "lexicon.yaml", "hello: həl\n"),
		DictionaryPath: writeFile(t, dir, "dict.json", `{"world": "wɜːld"}`),
		VoicesPath:     writeFile(t, dir, "voices.json", `{"af_heart": [[0.1]]}`),
	}
}

func TestLoadAssets(t *testing.T) {
	a, err := LoadAssets(context.Background(), writeAssets(t))
	if err != nil {
		t.Fatalf("LoadAssets: %v", err)
	}

	if a.Vocab.Len() != 4 {
		t.Errorf("vocab = %d entries, want 4", a.Vocab.Len())
	}
	if ph, ok := a.Lexicon.Lookup("HELLO"); !ok || ph != "həl" {
		t.Errorf("lexicon lookup = %q, %v", ph, ok)
	}
	if a.Dictionary["world"] != "wɜːld" {
		t.Errorf("dictionary = %v", a.Dictionary)
	}
	if a.Voices.Len() != 1 {
		t.Errorf("voices = %d, want 1", a.Voices.Len())
	}
}

func TestLoadAssets_MissingVocabIsFatal(t *testing.T) {
	paths := writeAssets(t)
	paths.VocabPath = filepath.Join(t.TempDir(), "missing.json")

	if _, err := LoadAssets(context.Background(), paths); err == nil {
		t.Fatal("expected error for missing vocabulary")
	}
}

func TestLoadAssets_MissingVoicesIsFatal(t *testing.T) {
	paths := writeAssets(t)
	paths.VoicesPath = filepath.Join(t.TempDir(), "missing.json")

	if _, err := LoadAssets(context.Background(), paths); err == nil {
		t.Fatal("expected error for missing voices")
	}
}

func TestLoadAssets_BadLexiconIsNotFatal(t *testing.T) {
	paths := writeAssets(t)
	paths.LexiconPath = filepath.Join(t.TempDir(), "missing.json")
	paths.DictionaryPath = writeFile(t, t.TempDir(), "dict.json", "{not json")

	a, err := LoadAssets(context.Background(), paths)
	if err != nil {
		t.Fatalf("LoadAssets: %v", err)
	}
	if a.Lexicon.Len() != 0 {
		t.Errorf("lexicon = %d entries, want empty", a.Lexicon.Len())
	}
	if a.Dictionary != nil {
		t.Errorf("dictionary = %v, want nil", a.Dictionary)
	}
}

func TestLoadAssets_OptionalPathsMayBeEmpty(t *testing.T) {
	paths := writeAssets(t)
	paths.LexiconPath = ""
	paths.DictionaryPath = ""

	a, err := LoadAssets(context.Background(), paths)
	if err != nil {
		t.Fatalf("LoadAssets: %v", err)
	}
	if a.Lexicon == nil {
		t.Fatal("expected empty lexicon, got nil")
	}
}

func TestLoadAssets_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := LoadAssets(ctx, writeAssets(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if a != nil {
		t.Errorf("assets = %+v, want nil", a)
	}
}
