package tts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/example/go-phonotts/internal/assets"
)

// LoadReport counts what the voice parser had to repair.
type LoadReport struct {
	Voices          int
	SkippedVoices   []string
	ZeroedVectors   int
	SkippedValues   int
	TruncatedDepths int
}

// Repaired reports whether any entry was skipped, zeroed or cut short.
func (r LoadReport) Repaired() bool {
	return len(r.SkippedVoices) > 0 || r.ZeroedVectors > 0 || r.SkippedValues > 0 || r.TruncatedDepths > 0
}

// LoadVoices reads a voice table (JSON or YAML, chosen by extension).
func LoadVoices(path string) (*VoiceManager, error) {
	var raw map[string]any
	if err := assets.ReadFile(path, &raw); err != nil {
		return nil, fmt.Errorf("load voices: %w", err)
	}

	voices, report := ParseVoices(raw)
	if report.Repaired() {
		slog.Warn("voice table had malformed entries",
			"path", path,
			"voices", report.Voices,
			"skipped_voices", report.SkippedVoices,
			"zeroed_vectors", report.ZeroedVectors,
			"skipped_values", report.SkippedValues,
			"truncated_depths", report.TruncatedDepths,
		)
	}

	mgr, err := NewVoiceManager(voices)
	if err != nil {
		return nil, fmt.Errorf("load voices from %s: %w", path, err)
	}
	return mgr, nil
}

// ParseVoices converts a decoded voice table into voices. Each entry is
// either a list of style vectors or an object with "styles" plus optional
// "name", "language" and "gender". Entries that are neither, or that carry
// no vectors, are skipped. A vector that is not a flat numeric list becomes
// a zero vector so later bucket indices keep their position; a value that
// is not numeric becomes 0.
func ParseVoices(raw map[string]any) ([]Voice, LoadReport) {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		voices []Voice
		report LoadReport
	)
	for _, id := range ids {
		v, ok := parseVoice(id, raw[id], &report)
		if !ok {
			report.SkippedVoices = append(report.SkippedVoices, id)
			continue
		}
		voices = append(voices, v)
	}
	report.Voices = len(voices)

	return voices, report
}

func parseVoice(id string, entry any, report *LoadReport) (Voice, bool) {
	if strings.TrimSpace(id) == "" {
		return Voice{}, false
	}

	v := Voice{ID: id}

	var styles any
	switch e := entry.(type) {
	case []any:
		styles = e
	case map[string]any:
		styles = e["styles"]
		v.DisplayName, _ = e["name"].(string)
		v.LanguageCode, _ = e["language"].(string)
		v.Gender, _ = e["gender"].(string)
	default:
		return Voice{}, false
	}

	list, ok := styles.([]any)
	if !ok || len(list) == 0 {
		return Voice{}, false
	}

	v.StyleVectors = make([][]float32, 0, len(list))
	for _, item := range list {
		vec, ok := parseVector(item, report)
		if !ok {
			report.ZeroedVectors++
			vec = make([]float32, StyleDim)
		}
		v.StyleVectors = append(v.StyleVectors, vec)
	}

	describeVoice(&v)

	return v, true
}

// maxUnwrap bounds how many single-element nesting levels are peeled off.
const maxUnwrap = 4

// parseVector accepts a flat numeric list, optionally wrapped in extra
// single-element list levels such as [[v0, v1, ...]].
func parseVector(item any, report *LoadReport) ([]float32, bool) {
	list, ok := item.([]any)
	if !ok {
		return nil, false
	}

	for depth := 0; len(list) == 1; depth++ {
		inner, ok := list[0].([]any)
		if !ok {
			break
		}
		if depth == maxUnwrap {
			report.TruncatedDepths++
			return nil, false
		}
		list = inner
	}

	if len(list) == 0 {
		return nil, false
	}

	vec := make([]float32, len(list))
	for i, raw := range list {
		if _, nested := raw.([]any); nested {
			return nil, false
		}
		f, ok := parseValue(raw)
		if !ok {
			report.SkippedValues++
			continue
		}
		vec[i] = f
	}
	return vec, true
}

// parseValue is the typed per-entry parser. It returns ok=false (skipped)
// for values that do not carry a finite number; callers substitute 0.
func parseValue(raw any) (float32, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return float32(f), true
}
