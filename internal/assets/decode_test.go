package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return path
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"lexicon.json", FormatJSON},
		{"lexicon.yaml", FormatYAML},
		{"LEXICON.YML", FormatYAML},
		{"lexicon", FormatJSON},
		{"dir.yaml/lexicon.txt", FormatJSON},
	}

	for _, tt := range tests {
		if got := FormatOf(tt.path); got != tt.want {
			t.Errorf("FormatOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLoadStringMap_JSON(t *testing.T) {
	path := writeFile(t, "lex.json", `{"hello":"həlˈO","world":"wˈɜɹld"}`)

	m, err := LoadStringMap(path)
	if err != nil {
		t.Fatalf("LoadStringMap: %v", err)
	}

	if m["hello"] != "həlˈO" || m["world"] != "wˈɜɹld" {
		t.Errorf("unexpected map %v", m)
	}
}

func TestLoadStringMap_YAML(t *testing.T) {
	path := writeFile(t, "lex.yaml", "hello: həlˈO\nworld: wˈɜɹld\n")

	m, err := LoadStringMap(path)
	if err != nil {
		t.Fatalf("LoadStringMap: %v", err)
	}

	if len(m) != 2 || m["hello"] != "həlˈO" {
		t.Errorf("unexpected map %v", m)
	}
}

func TestLoadStringMap_Errors(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := LoadStringMap("")
		if !errors.Is(err, ErrEmptyPath) {
			t.Fatalf("want ErrEmptyPath, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadStringMap(filepath.Join(t.TempDir(), "missing.json"))
		if err == nil {
			t.Fatal("want error for missing file")
		}
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := LoadStringMap(writeFile(t, "empty.json", "  \n"))
		if err == nil {
			t.Fatal("want error for empty document")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := LoadStringMap(writeFile(t, "bad.json", "{bad"))
		if err == nil {
			t.Fatal("want error for invalid json")
		}
	})
}
