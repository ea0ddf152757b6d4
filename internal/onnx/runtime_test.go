package onnx

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/example/go-phonotts/internal/config"
)

func resetRuntimeStateForTest() {
	bootstrapOnce = sync.Once{}
	bootstrapInfo = RuntimeInfo{}
	bootstrapErr = nil
	shutdownFlag.Store(false)
}

func writeFakeLib(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("fake"), 0o644); err != nil {
		t.Fatalf("write fake lib: %v", err)
	}

	return path
}

func TestDetectRuntimePrefersPHONOTTSORTLIB(t *testing.T) {
	tmp := t.TempDir()
	lib := writeFakeLib(t, tmp, "libonnxruntime.so")

	t.Setenv("PHONOTTS_ORT_LIB", lib)
	t.Setenv("ORT_LIBRARY_PATH", filepath.Join(tmp, "does-not-exist"))

	info, err := DetectRuntime(config.RuntimeConfig{})
	if err != nil {
		t.Fatalf("DetectRuntime failed: %v", err)
	}
	if info.LibraryPath != lib {
		t.Fatalf("expected %q, got %q", lib, info.LibraryPath)
	}
}

func TestDetectRuntimeConfigBeatsEnv(t *testing.T) {
	tmp := t.TempDir()
	fromCfg := writeFakeLib(t, tmp, "cfg.so")
	fromEnv := writeFakeLib(t, tmp, "env.so")

	t.Setenv("PHONOTTS_ORT_LIB", fromEnv)

	info, err := DetectRuntime(config.RuntimeConfig{ORTLibraryPath: fromCfg})
	if err != nil {
		t.Fatalf("DetectRuntime failed: %v", err)
	}
	if info.LibraryPath != fromCfg {
		t.Fatalf("expected %q, got %q", fromCfg, info.LibraryPath)
	}
}

func TestDetectRuntimeMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.so")

	info, err := DetectRuntime(config.RuntimeConfig{ORTLibraryPath: missing})
	if err == nil {
		t.Fatal("expected error for missing library")
	}
	if info.LibraryPath != missing {
		t.Fatalf("expected path %q in info, got %q", missing, info.LibraryPath)
	}
}

func TestDetectRuntimeVersion(t *testing.T) {
	tmp := t.TempDir()
	lib := writeFakeLib(t, tmp, "libonnxruntime.so.1.22.0")

	t.Setenv("ORT_VERSION", "")

	tests := []struct {
		name string
		cfg  config.RuntimeConfig
		want string
	}{
		{"inferred from file name", config.RuntimeConfig{ORTLibraryPath: lib}, "1.22.0"},
		{"explicit config wins", config.RuntimeConfig{ORTLibraryPath: lib, ORTVersion: "1.20.1"}, "1.20.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := DetectRuntime(tt.cfg)
			if err != nil {
				t.Fatalf("DetectRuntime failed: %v", err)
			}
			if info.Version != tt.want {
				t.Fatalf("Version = %q, want %q", info.Version, tt.want)
			}
		})
	}
}

func TestBootstrapRunsOnce(t *testing.T) {
	resetRuntimeStateForTest()
	t.Cleanup(resetRuntimeStateForTest)

	tmp := t.TempDir()
	lib1 := writeFakeLib(t, tmp, "lib1.so")
	lib2 := writeFakeLib(t, tmp, "lib2.so")

	t.Setenv("PHONOTTS_ORT_LIB", "")

	info1, err := Bootstrap(config.RuntimeConfig{ORTLibraryPath: lib1})
	if err != nil {
		t.Fatalf("first bootstrap failed: %v", err)
	}
	info2, err := Bootstrap(config.RuntimeConfig{ORTLibraryPath: lib2})
	if err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	if info1.LibraryPath != lib1 {
		t.Fatalf("expected first lib path %q, got %q", lib1, info1.LibraryPath)
	}
	if info2.LibraryPath != lib1 {
		t.Fatalf("expected once semantics to keep %q, got %q", lib1, info2.LibraryPath)
	}
	if got := os.Getenv("PHONOTTS_ORT_LIB"); got != lib1 {
		t.Fatalf("PHONOTTS_ORT_LIB = %q, want %q", got, lib1)
	}

	if err := Shutdown(); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if err := Shutdown(); err != nil {
		t.Fatalf("second shutdown failed: %v", err)
	}
}
