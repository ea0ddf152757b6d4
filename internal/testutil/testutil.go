// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls Skipf with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireONNXRuntime(t)
//	    model := testutil.RequireModelFile(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"testing"
)

// RequireONNXRuntime skips the test if no ONNX Runtime shared library can be
// located. It checks (in order): the ORT_LIBRARY_PATH env var, then the
// PHONOTTS_ORT_LIB env var, then common system library paths. It returns the
// library path when one is found.
func RequireONNXRuntime(tb testing.TB) string {
	tb.Helper()

	for _, env := range []string{"ORT_LIBRARY_PATH", "PHONOTTS_ORT_LIB"} {
		if p := os.Getenv(env); p != "" {
			// #nosec G703 -- Integration tests intentionally accept explicit env-provided local library paths.
			_, err := os.Stat(p)
			if err == nil {
				return p
			}

			tb.Skipf("ONNX Runtime library not found at %s=%q", env, p)
			return ""
		}
	}
	// Fall back to common system locations.
	candidates := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/x86_64-linux-gnu/libonnxruntime.so",
	}
	for _, p := range candidates {
		_, err := os.Stat(p)
		if err == nil {
			return p
		}
	}

	tb.Skipf("ONNX Runtime shared library not found; set ORT_LIBRARY_PATH or PHONOTTS_ORT_LIB")
	return ""
}

// RequireModelFile skips the test unless PHONOTTS_PATHS_MODEL_PATH names an
// existing acoustic model file, and returns that path.
func RequireModelFile(tb testing.TB) string {
	tb.Helper()

	p := os.Getenv("PHONOTTS_PATHS_MODEL_PATH")
	if p == "" {
		tb.Skipf("acoustic model not configured; set PHONOTTS_PATHS_MODEL_PATH")
		return ""
	}

	if _, err := os.Stat(p); err != nil {
		tb.Skipf("acoustic model not found at %q: %v", p, err)
		return ""
	}

	return p
}

// RequireEspeak skips the test if no espeak-ng (or espeak) executable is
// available, and returns the resolved path.
func RequireEspeak(tb testing.TB) string {
	tb.Helper()

	candidates := []string{"espeak-ng", "espeak"}
	if p := os.Getenv("PHONOTTS_TTS_ESPEAK_PATH"); p != "" {
		candidates = []string{p}
	}

	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path
		}
	}

	tb.Skipf("espeak binary not available (tried %v); set PHONOTTS_TTS_ESPEAK_PATH to override", candidates)
	return ""
}
