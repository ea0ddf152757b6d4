// Package doctor provides environment preflight checks for phonotts.
package doctor

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Minimum espeak-ng release that supports --ipa with --stdin.
const (
	minEspeakMajor = 1
	minEspeakMinor = 49
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Asset is a file the pipeline loads at startup.
type Asset struct {
	Name     string
	Path     string
	Optional bool
}

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// ORTRuntime describes the resolved ONNX Runtime library.
	ORTRuntime VersionFunc
	// SkipORT skips the runtime check (no acoustic model configured).
	SkipORT bool
	// EspeakVersion returns the first line of `espeak-ng --version`.
	EspeakVersion VersionFunc
	// SkipEspeak skips the espeak check (dictionary engine selected).
	SkipEspeak bool
	Assets     []Asset
	// ValidateAsset parses an asset after the existence check. Optional.
	ValidateAsset func(Asset) error
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- onnx runtime -----------------------------------------------------
	switch {
	case cfg.SkipORT:
		fmt.Fprintf(w, "%s onnx runtime: skipped\n", PassMark)
	case cfg.ORTRuntime == nil:
		res.fail("onnx runtime: no probe configured")
		fmt.Fprintf(w, "%s onnx runtime: no probe configured\n", FailMark)
	default:
		desc, err := cfg.ORTRuntime()
		if err != nil {
			res.fail(fmt.Sprintf("onnx runtime: %v", err))
			fmt.Fprintf(w, "%s onnx runtime: not found (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s onnx runtime: %s\n", PassMark, desc)
		}
	}

	// ---- espeak-ng --------------------------------------------------------
	switch {
	case cfg.SkipEspeak:
		fmt.Fprintf(w, "%s espeak-ng: skipped\n", PassMark)
	case cfg.EspeakVersion == nil:
		res.fail("espeak-ng: no probe configured")
		fmt.Fprintf(w, "%s espeak-ng: no probe configured\n", FailMark)
	default:
		line, err := cfg.EspeakVersion()
		if err != nil {
			res.fail(fmt.Sprintf("espeak-ng: %v", err))
			fmt.Fprintf(w, "%s espeak-ng: not found (%v)\n", FailMark, err)
		} else if verErr := checkEspeakVersion(line); verErr != nil {
			res.fail(fmt.Sprintf("espeak-ng: %v", verErr))
			fmt.Fprintf(w, "%s espeak-ng %s: %v\n", FailMark, line, verErr)
		} else {
			fmt.Fprintf(w, "%s espeak-ng: %s\n", PassMark, line)
		}
	}

	// ---- asset files ------------------------------------------------------
	for _, a := range cfg.Assets {
		checkAsset(cfg, a, w, &res)
	}

	return res
}

func checkAsset(cfg Config, a Asset, w io.Writer, res *Result) {
	if strings.TrimSpace(a.Path) == "" {
		if a.Optional {
			fmt.Fprintf(w, "%s %s: not configured\n", PassMark, a.Name)
			return
		}
		res.fail(fmt.Sprintf("%s: path is empty", a.Name))
		fmt.Fprintf(w, "%s %s: path is empty\n", FailMark, a.Name)
		return
	}

	if _, err := os.Stat(a.Path); err != nil {
		if a.Optional {
			fmt.Fprintf(w, "%s %s %s: missing (optional)\n", PassMark, a.Name, a.Path)
			return
		}
		res.fail(fmt.Sprintf("%s %q: %v", a.Name, a.Path, err))
		fmt.Fprintf(w, "%s %s %s: not found\n", FailMark, a.Name, a.Path)
		return
	}

	if cfg.ValidateAsset != nil {
		if err := cfg.ValidateAsset(a); err != nil {
			res.fail(fmt.Sprintf("%s %q: %v", a.Name, a.Path, err))
			fmt.Fprintf(w, "%s %s %s: %v\n", FailMark, a.Name, a.Path, err)
			return
		}
	}

	fmt.Fprintf(w, "%s %s: %s\n", PassMark, a.Name, a.Path)
}

// checkEspeakVersion returns an error if the version embedded in line is
// older than 1.49. line is e.g. "eSpeak NG text-to-speech: 1.51  Data at: ...".
func checkEspeakVersion(line string) error {
	ver := extractVersion(line)
	if ver == "" {
		return fmt.Errorf("cannot find a version in %q", line)
	}
	major, minor, err := parseMajorMinor(ver)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", ver, err)
	}
	if major < minEspeakMajor || (major == minEspeakMajor && minor < minEspeakMinor) {
		return fmt.Errorf("requires espeak-ng >=%d.%d, got %d.%d", minEspeakMajor, minEspeakMinor, major, minor)
	}
	return nil
}

// extractVersion returns the first whitespace-separated field of line that
// parses as major.minor.
func extractVersion(line string) string {
	for _, field := range strings.Fields(line) {
		field = strings.Trim(field, "(),;:")
		if _, _, err := parseMajorMinor(field); err == nil {
			return field
		}
	}
	return ""
}

func parseMajorMinor(ver string) (major, minor int, err error) {
	parts := strings.SplitN(ver, ".", 3)
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("unexpected version format %q", ver)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad major in %q: %w", ver, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad minor in %q: %w", ver, err)
	}
	return major, minor, nil
}
