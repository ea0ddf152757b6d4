package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

// fakeBinder wraps a pflag.FlagSet to satisfy the flagBinder interface.
type fakeBinder struct {
	fs *pflag.FlagSet
}

func (f *fakeBinder) Flags() *pflag.FlagSet { return f.fs }

func newFlagBinder(defaults Config, args ...string) (*fakeBinder, error) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &fakeBinder{fs: fs}, nil
}

// --- DefaultConfig ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Paths.VocabPath != "models/vocab.json" {
		t.Errorf("VocabPath = %q; want %q", cfg.Paths.VocabPath, "models/vocab.json")
	}

	if cfg.Paths.VoicesPath != "models/voices.json" {
		t.Errorf("VoicesPath = %q; want %q", cfg.Paths.VoicesPath, "models/voices.json")
	}

	if cfg.Server.Workers != 2 {
		t.Errorf("Server.Workers = %d; want 2", cfg.Server.Workers)
	}

	if cfg.TTS.Speed != 1.0 {
		t.Errorf("TTS.Speed = %v; want 1.0", cfg.TTS.Speed)
	}

	if cfg.TTS.G2PEngine != G2PEngineDict {
		t.Errorf("TTS.G2PEngine = %q; want %q", cfg.TTS.G2PEngine, G2PEngineDict)
	}

	if cfg.TTS.MaxBatchChars != 0 {
		t.Errorf("TTS.MaxBatchChars = %d; want 0", cfg.TTS.MaxBatchChars)
	}

	if cfg.TTS.TrimTopDB != 60 || cfg.TTS.TrimFrameLength != 2048 || cfg.TTS.TrimHopLength != 512 {
		t.Errorf("trim defaults = %v/%d/%d; want 60/2048/512",
			cfg.TTS.TrimTopDB, cfg.TTS.TrimFrameLength, cfg.TTS.TrimHopLength)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "info")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v; want nil", err)
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty vocab path", func(c *Config) { c.Paths.VocabPath = "  " }, ErrEmptyPath},
		{"empty voices path", func(c *Config) { c.Paths.VoicesPath = "" }, ErrEmptyPath},
		{"speed too slow", func(c *Config) { c.TTS.Speed = 0.4 }, ErrInvalidSpeed},
		{"speed too fast", func(c *Config) { c.TTS.Speed = 2.01 }, ErrInvalidSpeed},
		{"speed lower bound", func(c *Config) { c.TTS.Speed = 0.5 }, nil},
		{"speed upper bound", func(c *Config) { c.TTS.Speed = 2.0 }, nil},
		{"empty lexicon is allowed", func(c *Config) { c.Paths.LexiconPath = "" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v; want nil", err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_UnknownEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTS.G2PEngine = "festival"

	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil; want error for unknown engine")
	}
}

// --- NormalizeG2PEngine ---

func TestNormalizeG2PEngine(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"dict canonical", "dict", "dict", false},
		{"espeak canonical", "espeak", "espeak", false},
		{"espeak-ng alias", "espeak-ng", "espeak", false},
		{"lexicon alias", "lexicon", "dict", false},
		{"mixed case", "ESpeak", "espeak", false},
		{"with spaces", "  dict  ", "dict", false},
		{"empty defaults to dict", "", "dict", false},
		{"invalid value", "festival", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeG2PEngine(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("NormalizeG2PEngine(%q) = %q, nil; want error", tt.input, got)
				}

				return
			}

			if err != nil {
				t.Errorf("NormalizeG2PEngine(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("NormalizeG2PEngine(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

// --- RegisterFlags ---

func TestRegisterFlags(t *testing.T) {
	defaults := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, defaults)

	checks := []struct {
		flag string
		want string
	}{
		{"paths-vocab-path", "models/vocab.json"},
		{"paths-voices-path", "models/voices.json"},
		{"server-listen-addr", ":8080"},
		{"g2p-engine", "dict"},
		{"speed", "1"},
		{"trim-top-db", "60"},
		{"log-level", "info"},
	}

	for _, c := range checks {
		f := fs.Lookup(c.flag)
		if f == nil {
			t.Errorf("flag %q not registered", c.flag)
			continue
		}

		if f.DefValue != c.want {
			t.Errorf("flag %q default = %q; want %q", c.flag, f.DefValue, c.want)
		}
	}
}

func TestBindingsHaveFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs, DefaultConfig())

	for _, b := range bindings {
		if fs.Lookup(b.flag) == nil {
			t.Errorf("binding %q refers to unregistered flag %q", b.key, b.flag)
		}
	}
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	defaults := DefaultConfig()
	binder, err := newFlagBinder(defaults)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.ModelPath != defaults.Paths.ModelPath {
		t.Errorf("ModelPath = %q; want %q", cfg.Paths.ModelPath, defaults.Paths.ModelPath)
	}

	if cfg.TTS.Voice != defaults.TTS.Voice {
		t.Errorf("TTS.Voice = %q; want %q", cfg.TTS.Voice, defaults.TTS.Voice)
	}

	if !cfg.TTS.Trim {
		t.Error("TTS.Trim = false; want true")
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	defaults := DefaultConfig()
	binder, err := newFlagBinder(defaults,
		"--g2p-engine=espeak",
		"--workers=8",
		"--speed=1.25",
		"--max-batch-chars=200",
		"--log-level=debug",
	)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TTS.G2PEngine != "espeak" {
		t.Errorf("TTS.G2PEngine = %q; want %q", cfg.TTS.G2PEngine, "espeak")
	}

	if cfg.Server.Workers != 8 {
		t.Errorf("Server.Workers = %d; want 8", cfg.Server.Workers)
	}

	if cfg.TTS.Speed != 1.25 {
		t.Errorf("TTS.Speed = %v; want 1.25", cfg.TTS.Speed)
	}

	if cfg.TTS.MaxBatchChars != 200 {
		t.Errorf("TTS.MaxBatchChars = %d; want 200", cfg.TTS.MaxBatchChars)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "debug")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PHONOTTS_LOG_LEVEL", "warn")
	t.Setenv("PHONOTTS_SERVER_LISTEN_ADDR", ":9999")
	t.Setenv("PHONOTTS_TTS_VOICE", "bm_george")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "warn")
	}

	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":9999")
	}

	if cfg.TTS.Voice != "bm_george" {
		t.Errorf("TTS.Voice = %q; want %q", cfg.TTS.Voice, "bm_george")
	}
}

func TestLoad_ORTLibraryEnvAliases(t *testing.T) {
	t.Setenv("PHONOTTS_ORT_LIB", "/opt/ort/libonnxruntime.so")

	cfg, err := Load(LoadOptions{Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Runtime.ORTLibraryPath != "/opt/ort/libonnxruntime.so" {
		t.Errorf("Runtime.ORTLibraryPath = %q; want env value", cfg.Runtime.ORTLibraryPath)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "phonotts.yaml")

	content := `
log_level: error
server:
  workers: 16
  listen_addr: ":7777"
tts:
  g2p_engine: espeak
  trim: false
`

	if err := os.WriteFile(cfgFile, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()
	binder, err := newFlagBinder(defaults)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, ConfigFile: cfgFile, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q; want %q", cfg.LogLevel, "error")
	}

	if cfg.Server.Workers != 16 {
		t.Errorf("Server.Workers = %d; want 16", cfg.Server.Workers)
	}

	if cfg.Server.ListenAddr != ":7777" {
		t.Errorf("Server.ListenAddr = %q; want %q", cfg.Server.ListenAddr, ":7777")
	}

	if cfg.TTS.G2PEngine != "espeak" {
		t.Errorf("TTS.G2PEngine = %q; want %q", cfg.TTS.G2PEngine, "espeak")
	}

	if cfg.TTS.Trim {
		t.Error("TTS.Trim = true; want false from config file")
	}
}

func TestLoad_FlagBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "phonotts.yaml")

	if err := os.WriteFile(cfgFile, []byte("server:\n  workers: 16\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	defaults := DefaultConfig()
	binder, err := newFlagBinder(defaults, "--workers=3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(LoadOptions{Cmd: binder, ConfigFile: cfgFile, Defaults: defaults})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Workers != 3 {
		t.Errorf("Server.Workers = %d; want 3", cfg.Server.Workers)
	}
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "bad.yaml")

	if err := os.WriteFile(cfgFile, []byte(":\t:bad yaml:::"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := Load(LoadOptions{ConfigFile: cfgFile, Defaults: DefaultConfig()})
	if err == nil {
		t.Error("Load() = nil; want error for invalid config file")
	}
}

func TestLoad_MissingExplicitConfigFile(t *testing.T) {
	_, err := Load(LoadOptions{
		ConfigFile: "/nonexistent/path/phonotts.yaml",
		Defaults:   DefaultConfig(),
	})
	if err == nil {
		t.Error("Load() = nil; want error for missing explicit config file")
	}
}

func TestLoad_NilCmd(t *testing.T) {
	cfg, err := Load(LoadOptions{Cmd: nil, Defaults: DefaultConfig()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Workers != 2 {
		t.Errorf("Server.Workers = %d; want default 2", cfg.Server.Workers)
	}
}
