package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/soundadvice/voice-client/internal/advisory"
	"github.com/soundadvice/voice-client/internal/audio"
	"github.com/soundadvice/voice-client/internal/config"
	"github.com/soundadvice/voice-client/internal/observability"
	"github.com/soundadvice/voice-client/internal/resilience"
	"github.com/soundadvice/voice-client/internal/transcript"
	"github.com/soundadvice/voice-client/internal/transport"
)

// State is the recording lifecycle state
type State int

const (
	StateIdle State = iota
	StateRecording
)

// String returns the state name
func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

var (
	// ErrAlreadyRecording is returned by Start while a session is active
	ErrAlreadyRecording = errors.New("a recording session is already active")
	// ErrNotRecording is returned by Stop when no session is active
	ErrNotRecording = errors.New("no recording session is active")
)

// CaptureOpener acquires a capture device for a new session. Injectable
// so lifecycle tests run without an audio host.
type CaptureOpener func() (audio.Capture, error)

// Recorder is the recording lifecycle state machine. It owns every
// per-session resource: the capture device, the streaming transport,
// the bounded frame queue, and the advice poller. At most one session
// is active at a time; Start and Stop are the only operator actions.
type Recorder struct {
	cfg      *config.Config
	api      *advisory.Client
	doc      *transcript.Document
	open     CaptureOpener
	baseLogger zerolog.Logger

	mu        sync.Mutex
	state     State
	sessionID string

	// Resources of the active session; nil while idle
	capture       audio.Capture
	client        *transport.Client
	poller        *advisory.Poller
	frames        chan []byte
	pumpDone      chan struct{}
	assemblerDone chan struct{}
	metrics       *observability.SessionMetrics
	logger        zerolog.Logger

	// Advice of the most recently ended session, shown while idle
	lastAdvice string
}

// NewRecorder creates an idle recorder. The transcript document and the
// advisory API client outlive individual sessions; the document is
// reset at every Start.
func NewRecorder(cfg *config.Config, api *advisory.Client) *Recorder {
	r := &Recorder{
		cfg:        cfg,
		api:        api,
		doc:        transcript.NewDocument(),
		baseLogger: observability.WithComponent("session"),
	}
	r.open = func() (audio.Capture, error) {
		return audio.NewDevice(cfg.SampleRate, cfg.FrameSize, cfg.Channels)
	}
	return r
}

// SetCaptureOpener overrides how the capture device is acquired
func (r *Recorder) SetCaptureOpener(open CaptureOpener) {
	r.open = open
}

// Start begins a new recording session. Valid only while idle. On any
// acquisition or connection failure the partial session is torn down,
// the recorder stays idle, and the error is returned; nothing retries.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return ErrAlreadyRecording
	}

	// A new session starts from a clean slate
	r.doc.Reset()
	r.lastAdvice = ""

	sessionID := uuid.New().String()
	logger := observability.WithSession(sessionID)

	capture, err := r.open()
	if err != nil {
		return fmt.Errorf("failed to acquire capture device: %w", err)
	}

	client, err := transport.Dial(ctx, r.cfg.ServerWSURL)
	if err != nil {
		capture.Close()
		return fmt.Errorf("failed to open streaming connection: %w", err)
	}

	frames := make(chan []byte, r.cfg.FrameQueueSize)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for frame := range frames {
			client.SendFrame(frame)
		}
	}()

	assembler := transcript.NewAssembler(r.doc, r.cfg.AcceptPartials, logger)
	assemblerDone := make(chan struct{})
	go func() {
		defer close(assemblerDone)
		assembler.Run(client.Events())
	}()

	breaker := resilience.NewCircuitBreaker("advisory", r.cfg.BreakerMaxFailures, r.cfg.BreakerResetTimeout())
	poller := advisory.NewPoller(r.api, r.doc, r.cfg.AdviceInterval(), r.cfg.AdviceSkipEmpty, breaker, logger)
	poller.Start(context.Background())

	// Start the device last so frames only flow once everything is wired.
	// The callback encodes synchronously and offers the frame to the
	// bounded queue; a full queue drops the frame rather than buffering.
	err = capture.Start(func(samples []float32) {
		observability.RecordFrameCaptured()
		observability.RecordAudioLevel(audio.RMS(samples))
		encoded := audio.EncodeFrame(samples)
		select {
		case frames <- encoded:
		default:
			observability.RecordFrameDropped("queue_full")
		}
	})
	if err != nil {
		poller.Stop()
		client.Close()
		<-assemblerDone
		close(frames)
		<-pumpDone
		capture.Close()
		return fmt.Errorf("failed to start capture: %w", err)
	}

	r.capture = capture
	r.client = client
	r.poller = poller
	r.frames = frames
	r.pumpDone = pumpDone
	r.assemblerDone = assemblerDone
	r.sessionID = sessionID
	r.logger = logger
	r.metrics = observability.NewSessionMetrics(sessionID)
	r.state = StateRecording

	logger.Info().Str("server", r.cfg.ServerWSURL).Msg("Recording started")
	return nil
}

// Stop ends the active recording session. Valid only while recording.
// The device is silenced first so no frame outlives the session, then
// the pump drains, EOS is sent if the connection is still open, the
// transport closes, and the advice timer is cancelled. All of this
// completes before Stop returns.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return ErrNotRecording
	}

	if err := r.capture.Stop(); err != nil {
		r.logger.Warn().Err(err).Msg("Error stopping capture device")
		observability.RecordError("capture_stop_error", "session")
	}
	if err := r.capture.Close(); err != nil {
		r.logger.Warn().Err(err).Msg("Error releasing capture device")
		observability.RecordError("capture_close_error", "session")
	}

	close(r.frames)
	<-r.pumpDone

	if err := r.client.SendEOS(); err != nil {
		r.logger.Warn().Err(err).Msg("Error sending end-of-stream")
	}
	r.client.Close()
	<-r.assemblerDone

	r.poller.Stop()
	r.lastAdvice = r.poller.Advice()

	r.metrics.RecordSessionEnd()
	r.logger.Info().Int("segments", r.doc.Len()).Msg("Recording stopped")

	r.capture = nil
	r.client = nil
	r.poller = nil
	r.frames = nil
	r.pumpDone = nil
	r.assemblerDone = nil
	r.metrics = nil
	r.state = StateIdle
	return nil
}

// State returns the current lifecycle state
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SessionID returns the ID of the current or most recent session
func (r *Recorder) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID
}

// Transcript returns the current transcript document snapshot
func (r *Recorder) Transcript() string {
	return r.doc.Snapshot()
}

// Advice returns the latest advisory snapshot: the active session's
// while recording, the last session's while idle
func (r *Recorder) Advice() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording {
		return r.poller.Advice()
	}
	return r.lastAdvice
}

// Status returns the snapshot served by the /status endpoint
func (r *Recorder) Status() observability.RecorderStatus {
	r.mu.Lock()
	state := r.state
	sessionID := r.sessionID
	var advice string
	if state == StateRecording {
		advice = r.poller.Advice()
	} else {
		advice = r.lastAdvice
	}
	r.mu.Unlock()

	return observability.RecorderStatus{
		State:         state.String(),
		SessionID:     sessionID,
		TranscriptLen: r.doc.Len(),
		Advice:        advice,
	}
}
