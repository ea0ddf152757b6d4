package g2p

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// EspeakEngine phonemizes through an espeak-ng subprocess.
type EspeakEngine struct {
	// ExecutablePath defaults to "espeak-ng".
	ExecutablePath string
	// Voice is the espeak voice, e.g. "en-us".
	Voice string
	// Timeout bounds a single subprocess call. Zero means 5s.
	Timeout time.Duration
}

// NewEspeakEngine returns an engine for the given executable and voice.
func NewEspeakEngine(executablePath, voice string) *EspeakEngine {
	return &EspeakEngine{ExecutablePath: executablePath, Voice: voice}
}

func (e *EspeakEngine) executable() string {
	if e.ExecutablePath == "" {
		return "espeak-ng"
	}
	return e.ExecutablePath
}

func (e *EspeakEngine) args() []string {
	args := []string{"-q", "--ipa", "--stdin"}
	if strings.TrimSpace(e.Voice) != "" {
		args = append(args, "-v", e.Voice)
	}
	return args
}

// Convert runs espeak-ng on text and returns its IPA transcription with line
// breaks folded into single spaces. Empty output is reported as
// UnknownSentinel.
func (e *EspeakEngine) Convert(text string) (string, []Token, error) {
	return e.ConvertContext(context.Background(), text)
}

// ConvertContext is Convert bound to ctx: the subprocess is killed when ctx
// is done or the engine timeout elapses, whichever comes first.
func (e *EspeakEngine) ConvertContext(parent context.Context, text string) (string, []Token, error) {
	if err := parent.Err(); err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(text) == "" {
		return "", nil, nil
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.executable(), e.args()...)
	cmd.Stdin = strings.NewReader(text)
	cmd.WaitDelay = time.Second

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if perr := parent.Err(); perr != nil {
			return "", nil, fmt.Errorf("espeak-ng: %w", perr)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", nil, fmt.Errorf("espeak-ng timed out after %s", timeout)
		}
		return "", nil, fmt.Errorf("espeak-ng: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	phonemes := strings.Join(strings.Fields(out.String()), " ")
	if phonemes == "" {
		phonemes = UnknownSentinel
	}

	return phonemes, []Token{{Text: text, Phonemes: phonemes}}, nil
}

// Version returns the first line of `espeak-ng --version`.
func (e *EspeakEngine) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.executable(), "--version").Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line, nil
}
