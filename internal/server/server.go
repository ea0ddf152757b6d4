package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/go-phonotts/internal/audio"
	"github.com/example/go-phonotts/internal/config"
	"github.com/example/go-phonotts/internal/tts"
)

// RequestIDHeader carries the request id echoed on every response.
const RequestIDHeader = "X-Request-ID"

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Synthesizer renders a whole utterance.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts tts.Options) (tts.Result, error)
}

// StreamingSynthesizer renders an utterance batch by batch. Implementations
// must close out before returning.
type StreamingSynthesizer interface {
	SynthesizeStream(ctx context.Context, text string, opts tts.Options, out chan<- tts.PCMChunk) error
}

// Phonemizer exposes the linguistic front end without the acoustic model.
type Phonemizer interface {
	Phonemize(text, lang string) (string, []int64, error)
}

// VoiceLister returns the list of available voices.
type VoiceLister interface {
	ListVoices() []tts.Voice
}

// Backend is everything Server needs; *tts.Service implements it.
type Backend interface {
	Synthesizer
	StreamingSynthesizer
	Phonemizer
	VoiceLister
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
	streamer       StreamingSynthesizer
	phonemizer     Phonemizer
}

func defaultOptions() options {
	return options{
		maxTextBytes:   4096,
		workers:        2,
		requestTimeout: 60 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent synthesis calls.
// Zero disables throttling.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request synthesis deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStreamer enables POST /tts/stream.
func WithStreamer(s StreamingSynthesizer) Option {
	return func(o *options) { o.streamer = s }
}

// WithPhonemizer enables POST /phonemize.
func WithPhonemizer(p Phonemizer) Option {
	return func(o *options) { o.phonemizer = p }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	synth   Synthesizer
	voices  VoiceLister
	opts    options
	sem     chan struct{}
	log     *slog.Logger
	metrics *metrics
}

// NewHandler returns an http.Handler serving /health, /voices, /metrics,
// POST /tts, and, when enabled by options, POST /tts/stream and POST /phonemize.
func NewHandler(synth Synthesizer, voices VoiceLister, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}

	h := &handler{
		synth:   synth,
		voices:  voices,
		opts:    opts,
		log:     opts.logger,
		metrics: newMetrics(),
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.metrics.instrument("/health", h.handleHealth))
	mux.HandleFunc("/voices", h.metrics.instrument("/voices", h.handleVoices))
	mux.HandleFunc("/phonemize", h.metrics.instrument("/phonemize", h.handlePhonemize))
	mux.HandleFunc("/tts", h.metrics.instrument("/tts", h.handleTTS))
	mux.HandleFunc("/tts/stream", h.metrics.instrument("/tts/stream", h.handleTTSStream))
	mux.Handle("/metrics", h.metrics.handler())

	return withRequestID(mux)
}

type requestIDKey struct{}

// withRequestID echoes a caller-supplied X-Request-ID or assigns a new one.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (h *handler) logger(r *http.Request) *slog.Logger {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

func (h *handler) handleVoices(w http.ResponseWriter, _ *http.Request) {
	var voices []tts.Voice
	if h.voices != nil {
		voices = h.voices.ListVoices()
	}
	if voices == nil {
		voices = []tts.Voice{}
	}
	writeJSON(w, http.StatusOK, voices)
}

type ttsRequest struct {
	Text  string  `json:"text"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
	Lang  string  `json:"lang"`
}

func (req ttsRequest) options() tts.Options {
	return tts.Options{
		Voice: tts.VoiceByID(req.Voice),
		Speed: req.Speed,
		Lang:  req.Lang,
	}
}

type phonemizeRequest struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
}

type phonemizeResponse struct {
	Phonemes string  `json:"phonemes"`
	Tokens   []int64 `json:"tokens"`
}

// decodeRequest reads a POST body into dst. It writes the error response
// itself and reports whether to continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if r.Body == nil || r.Body == http.NoBody {
		writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// checkText enforces the text presence and size limits.
func (h *handler) checkText(w http.ResponseWriter, text string) bool {
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "text field is required")
		return false
	}
	if h.opts.maxTextBytes > 0 && len(text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return false
	}
	return true
}

// acquire takes a worker slot, honouring cancellation while waiting. The
// returned release func must be called once the slot is no longer needed.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if h.sem == nil {
		h.metrics.inflight.Inc()
		return func() { h.metrics.inflight.Dec() }, true
	}

	select {
	case h.sem <- struct{}{}:
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return nil, false
	}
	h.metrics.inflight.Inc()
	return func() {
		h.metrics.inflight.Dec()
		<-h.sem
	}, true
}

func (h *handler) handlePhonemize(w http.ResponseWriter, r *http.Request) {
	if h.opts.phonemizer == nil {
		writeError(w, http.StatusNotImplemented, "phonemization is not enabled")
		return
	}

	var req phonemizeRequest
	if !decodeRequest(w, r, &req) || !h.checkText(w, req.Text) {
		return
	}

	phonemes, tokens, err := h.opts.phonemizer.Phonemize(req.Text, req.Lang)
	if err != nil {
		h.fail(w, r, "/phonemize", err, slog.Int("text_len", len(req.Text)))
		return
	}
	if tokens == nil {
		tokens = []int64{}
	}

	writeJSON(w, http.StatusOK, phonemizeResponse{Phonemes: phonemes, Tokens: tokens})
}

func (h *handler) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if !decodeRequest(w, r, &req) || !h.checkText(w, req.Text) {
		return
	}

	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	log := h.logger(r)
	start := time.Now()
	res, err := h.synth.Synthesize(ctx, req.Text, req.options())
	durationMS := time.Since(start).Milliseconds()

	if err != nil {
		h.fail(w, r, "/tts", err,
			slog.String("voice", req.Voice),
			slog.Int("text_len", len(req.Text)),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	wav, err := audio.EncodeWAV(res.Audio)
	if err != nil {
		h.fail(w, r, "/tts", fmt.Errorf("encode wav: %w", err))
		return
	}
	h.metrics.observeSynthesis("/tts", start, res.DurationSeconds)

	log.InfoContext(r.Context(), "synthesis complete",
		slog.String("voice", req.Voice),
		slog.Int("text_len", len(req.Text)),
		slog.Int64("duration_ms", durationMS),
		slog.Float64("audio_seconds", res.DurationSeconds),
		slog.Int("wav_bytes", len(wav)),
	)

	w.Header().Set("Content-Type", "audio/wav")
	setResultHeaders(w.Header(), res)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wav)
}

func (h *handler) handleTTSStream(w http.ResponseWriter, r *http.Request) {
	if h.opts.streamer == nil {
		writeError(w, http.StatusNotImplemented, "streaming is not enabled")
		return
	}

	var req ttsRequest
	if !decodeRequest(w, r, &req) || !h.checkText(w, req.Text) {
		return
	}

	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	log := h.logger(r)
	start := time.Now()

	chunks := make(chan tts.PCMChunk, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.opts.streamer.SynthesizeStream(ctx, req.Text, req.options(), chunks)
	}()

	// Nothing is written until the first batch arrives, so request errors
	// raised before any audio still map to a proper status code.
	first, ok := <-chunks
	if !ok {
		err := <-errCh
		if err == nil {
			err = tts.ErrNoTokens
		}
		h.fail(w, r, "/tts/stream", err,
			slog.String("voice", req.Voice),
			slog.Int("text_len", len(req.Text)),
		)
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	if _, err := audio.WriteWAVHeaderStreaming(w); err != nil {
		cancel()
		drain(chunks)
		log.WarnContext(r.Context(), "stream write failed", slog.String("error", err.Error()))
		return
	}

	var (
		audioSeconds float64
		sent         int
		writeErr     error
	)
	write := func(chunk tts.PCMChunk) {
		if writeErr != nil {
			return
		}
		if _, err := audio.WritePCM16Samples(w, chunk.Audio); err != nil {
			writeErr = err
			cancel()
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		audioSeconds += chunk.DurationSeconds
		sent++
	}

	write(first)
	for chunk := range chunks {
		write(chunk)
	}

	err := <-errCh
	if err == nil {
		err = writeErr
	}
	if err != nil {
		h.metrics.synthFailures.WithLabelValues(failureReason(err)).Inc()
		log.WarnContext(r.Context(), "stream ended early",
			slog.String("voice", req.Voice),
			slog.Int("chunks", sent),
			slog.String("error", err.Error()),
		)
		return
	}

	h.metrics.observeSynthesis("/tts/stream", start, audioSeconds)
	log.InfoContext(r.Context(), "stream complete",
		slog.String("voice", req.Voice),
		slog.Int("text_len", len(req.Text)),
		slog.Int("chunks", sent),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		slog.Float64("audio_seconds", audioSeconds),
	)
}

func drain(ch <-chan tts.PCMChunk) {
	for range ch { //nolint:revive
	}
}

// setResultHeaders exposes synthesis metadata. Phonemes are IPA, so they are
// percent-encoded to keep the header ASCII.
func setResultHeaders(hdr http.Header, res tts.Result) {
	hdr.Set("X-Phonemes", url.PathEscape(res.Phonemes))
	hdr.Set("X-Duration-Seconds", strconv.FormatFloat(res.DurationSeconds, 'f', 3, 64))
	hdr.Set("X-Sample-Rate", strconv.Itoa(res.SampleRate))
}

// fail logs err and writes the matching error response.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, route string, err error, attrs ...slog.Attr) {
	status := statusFor(err)
	h.metrics.synthFailures.WithLabelValues(failureReason(err)).Inc()

	args := make([]any, 0, len(attrs)+2)
	for _, a := range attrs {
		args = append(args, a)
	}
	args = append(args, slog.String("route", route), slog.String("error", err.Error()))

	log := h.logger(r)
	switch status {
	case http.StatusGatewayTimeout:
		log.WarnContext(r.Context(), "synthesis timed out", args...)
		writeError(w, status, "synthesis timed out")
	case http.StatusBadRequest:
		log.InfoContext(r.Context(), "rejected request", args...)
		writeError(w, status, err.Error())
	default:
		log.ErrorContext(r.Context(), "synthesis failed", args...)
		writeError(w, status, err.Error())
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case tts.IsInvalidInput(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func failureReason(err error) string {
	switch statusFor(err) {
	case http.StatusGatewayTimeout:
		return "timeout"
	case http.StatusBadRequest:
		return "invalid_input"
	default:
		return "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

type Server struct {
	cfg             config.Config
	backend         Backend
	log             *slog.Logger
	shutdownTimeout time.Duration
}

func New(cfg config.Config, backend Backend) *Server {
	timeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Server{
		cfg:             cfg,
		backend:         backend,
		log:             slog.Default(),
		shutdownTimeout: timeout,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithLogger overrides the request logger.
func (s *Server) WithLogger(l *slog.Logger) *Server {
	if l != nil {
		s.log = l
	}
	return s
}

// Handler builds the HTTP handler from the server configuration.
func (s *Server) Handler() (http.Handler, error) {
	if s.backend == nil {
		return nil, errors.New("server requires a synthesis backend")
	}

	timeout := time.Duration(s.cfg.Server.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultOptions().requestTimeout
	}

	return NewHandler(s.backend, s.backend,
		WithStreamer(s.backend),
		WithPhonemizer(s.backend),
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(timeout),
		WithLogger(s.log),
	), nil
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	h, err := s.Handler()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.log.Info("http server listening",
		slog.String("addr", s.cfg.Server.ListenAddr),
		slog.Int("workers", s.cfg.Server.Workers),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		s.log.Info("http server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
