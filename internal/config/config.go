package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	ErrEmptyPath    = errors.New("required asset path is empty")
	ErrInvalidSpeed = errors.New("speed out of range")
)

const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

type Config struct {
	Paths    PathsConfig   `mapstructure:"paths"`
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	Server   ServerConfig  `mapstructure:"server"`
	TTS      TTSConfig     `mapstructure:"tts"`
	LogLevel string        `mapstructure:"log_level"`
}

type PathsConfig struct {
	ModelPath      string `mapstructure:"model_path"`
	VocabPath      string `mapstructure:"vocab_path"`
	LexiconPath    string `mapstructure:"lexicon_path"`
	DictionaryPath string `mapstructure:"dictionary_path"`
	VoicesPath     string `mapstructure:"voices_path"`
}

type RuntimeConfig struct {
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTVersion     string `mapstructure:"ort_version"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	Workers         int    `mapstructure:"workers"`
	MaxTextBytes    int    `mapstructure:"max_text_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type TTSConfig struct {
	Voice           string  `mapstructure:"voice"`
	Lang            string  `mapstructure:"lang"`
	Speed           float64 `mapstructure:"speed"`
	G2PEngine       string  `mapstructure:"g2p_engine"`
	EspeakPath      string  `mapstructure:"espeak_path"`
	MaxBatchChars   int     `mapstructure:"max_batch_chars"`
	Trim            bool    `mapstructure:"trim"`
	TrimTopDB       float64 `mapstructure:"trim_top_db"`
	TrimFrameLength int     `mapstructure:"trim_frame_length"`
	TrimHopLength   int     `mapstructure:"trim_hop_length"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			ModelPath:      "models/kokoro.onnx",
			VocabPath:      "models/vocab.json",
			LexiconPath:    "models/lexicon.json",
			DictionaryPath: "",
			VoicesPath:     "models/voices.json",
		},
		Runtime: RuntimeConfig{
			ORTLibraryPath: "",
			ORTVersion:     "",
		},
		Server: ServerConfig{
			ListenAddr:      ":8080",
			Workers:         2,
			MaxTextBytes:    4096,
			RequestTimeout:  60,
			ShutdownTimeout: 30,
		},
		TTS: TTSConfig{
			Voice:           "af_heart",
			Lang:            "en-us",
			Speed:           1.0,
			G2PEngine:       G2PEngineDict,
			EspeakPath:      "",
			MaxBatchChars:   0,
			Trim:            true,
			TrimTopDB:       60,
			TrimFrameLength: 2048,
			TrimHopLength:   512,
		},
		LogLevel: "info",
	}
}

// Validate checks the settings every command depends on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Paths.VocabPath) == "" {
		return fmt.Errorf("paths.vocab_path: %w", ErrEmptyPath)
	}
	if strings.TrimSpace(c.Paths.VoicesPath) == "" {
		return fmt.Errorf("paths.voices_path: %w", ErrEmptyPath)
	}
	if err := ValidateSpeed(c.TTS.Speed); err != nil {
		return fmt.Errorf("tts.speed: %w", err)
	}
	if _, err := NormalizeG2PEngine(c.TTS.G2PEngine); err != nil {
		return err
	}
	if c.TTS.TrimFrameLength < 0 || c.TTS.TrimHopLength < 0 {
		return fmt.Errorf("trim frame/hop lengths must be non-negative, got %d/%d", c.TTS.TrimFrameLength, c.TTS.TrimHopLength)
	}
	return nil
}

func ValidateSpeed(speed float64) error {
	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("%w: %.2f (expected %.1f..%.1f)", ErrInvalidSpeed, speed, MinSpeed, MaxSpeed)
	}
	return nil
}

// binding ties a viper key to its command-line flag.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"paths.model_path", "paths-model-path"},
	{"paths.vocab_path", "paths-vocab-path"},
	{"paths.lexicon_path", "paths-lexicon-path"},
	{"paths.dictionary_path", "paths-dictionary-path"},
	{"paths.voices_path", "paths-voices-path"},
	{"runtime.ort_library_path", "ort-lib"},
	{"runtime.ort_version", "runtime-ort-version"},
	{"server.listen_addr", "server-listen-addr"},
	{"server.workers", "workers"},
	{"server.max_text_bytes", "max-text-bytes"},
	{"server.request_timeout", "request-timeout"},
	{"server.shutdown_timeout", "shutdown-timeout"},
	{"tts.voice", "voice"},
	{"tts.lang", "lang"},
	{"tts.speed", "speed"},
	{"tts.g2p_engine", "g2p-engine"},
	{"tts.espeak_path", "espeak-path"},
	{"tts.max_batch_chars", "max-batch-chars"},
	{"tts.trim", "trim"},
	{"tts.trim_top_db", "trim-top-db"},
	{"tts.trim_frame_length", "trim-frame-length"},
	{"tts.trim_hop_length", "trim-hop-length"},
	{"log_level", "log-level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-model-path", defaults.Paths.ModelPath, "Path to the ONNX acoustic model")
	fs.String("paths-vocab-path", defaults.Paths.VocabPath, "Path to the phoneme vocabulary (JSON or YAML)")
	fs.String("paths-lexicon-path", defaults.Paths.LexiconPath, "Path to the pronunciation lexicon (JSON or YAML)")
	fs.String("paths-dictionary-path", defaults.Paths.DictionaryPath, "Path to an extra pronunciation dictionary for the dict engine")
	fs.String("paths-voices-path", defaults.Paths.VoicesPath, "Path to the voice style table (JSON)")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("runtime-ort-version", defaults.Runtime.ORTVersion, "Expected ONNX Runtime version")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("workers", defaults.Server.Workers, "Max concurrent synthesis requests")
	fs.Int("max-text-bytes", defaults.Server.MaxTextBytes, "Max request text size in bytes")
	fs.Int("request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("voice", defaults.TTS.Voice, "Default voice id")
	fs.String("lang", defaults.TTS.Lang, "Language code passed to the phonemizer")
	fs.Float64("speed", defaults.TTS.Speed, "Speaking rate (0.5..2.0)")
	fs.String("g2p-engine", defaults.TTS.G2PEngine, "Primary grapheme-to-phoneme engine (dict|espeak)")
	fs.String("espeak-path", defaults.TTS.EspeakPath, "Path to the espeak-ng executable")
	fs.Int("max-batch-chars", defaults.TTS.MaxBatchChars, "Split text into sentence batches of at most N characters (0 = single batch)")
	fs.Bool("trim", defaults.TTS.Trim, "Trim leading and trailing silence from each batch")
	fs.Float64("trim-top-db", defaults.TTS.TrimTopDB, "Silence threshold below peak in dB")
	fs.Int("trim-frame-length", defaults.TTS.TrimFrameLength, "Silence trimming frame length in samples")
	fs.Int("trim-hop-length", defaults.TTS.TrimHopLength, "Silence trimming hop length in samples")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, err
		}
	}

	v.SetEnvPrefix("PHONOTTS")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "PHONOTTS_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("phonotts")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("paths.vocab_path", c.Paths.VocabPath)
	v.SetDefault("paths.lexicon_path", c.Paths.LexiconPath)
	v.SetDefault("paths.dictionary_path", c.Paths.DictionaryPath)
	v.SetDefault("paths.voices_path", c.Paths.VoicesPath)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_version", c.Runtime.ORTVersion)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.workers", c.Server.Workers)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("tts.voice", c.TTS.Voice)
	v.SetDefault("tts.lang", c.TTS.Lang)
	v.SetDefault("tts.speed", c.TTS.Speed)
	v.SetDefault("tts.g2p_engine", c.TTS.G2PEngine)
	v.SetDefault("tts.espeak_path", c.TTS.EspeakPath)
	v.SetDefault("tts.max_batch_chars", c.TTS.MaxBatchChars)
	v.SetDefault("tts.trim", c.TTS.Trim)
	v.SetDefault("tts.trim_top_db", c.TTS.TrimTopDB)
	v.SetDefault("tts.trim_frame_length", c.TTS.TrimFrameLength)
	v.SetDefault("tts.trim_hop_length", c.TTS.TrimHopLength)
	v.SetDefault("log_level", c.LogLevel)
}

// bindFlags binds every known flag present on fs to its nested key, so a
// flag only overrides file and env values when it was set explicitly.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, b := range bindings {
		f := fs.Lookup(b.flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(b.key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", b.flag, err)
		}
	}
	return nil
}
