// Package assets reads the text-serialized lookup tables (vocabulary,
// lexicon, pronunciation dictionary) from disk.
package assets

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyPath is returned when a loader is called with an empty path.
var ErrEmptyPath = errors.New("asset path must not be empty")

// Format is the serialization of an asset file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from the file extension. Anything that is not
// .yaml or .yml is treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile reads path and decodes it into v according to FormatOf(path).
func ReadFile(path string, v any) error {
	if path == "" {
		return ErrEmptyPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read asset: %w", err)
	}

	if err := Decode(data, FormatOf(path), v); err != nil {
		return fmt.Errorf("decode asset %q: %w", path, err)
	}

	return nil
}

// Decode unmarshals data in the given format into v.
func Decode(data []byte, format Format, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty document")
	}

	switch format {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatJSON:
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported asset format %q", format)
	}
}

// LoadStringMap reads a flat key → string mapping.
func LoadStringMap(path string) (map[string]string, error) {
	var m map[string]string
	if err := ReadFile(path, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]string{}
	}
	return m, nil
}
