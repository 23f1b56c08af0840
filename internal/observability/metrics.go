package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_client_active_sessions",
		Help: "Number of active recording sessions (0 or 1)",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_client_sessions_total",
		Help: "Total number of recording sessions started",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_client_session_duration_seconds",
		Help:    "Duration of recording sessions in seconds",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
	})

	// Audio pipeline metrics
	framesCaptured = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_client_frames_captured_total",
		Help: "Total audio frames produced by the capture device",
	})

	framesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_client_frames_sent_total",
		Help: "Total encoded frames written to the streaming transport",
	})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_client_frames_dropped_total",
		Help: "Total encoded frames dropped before transmission",
	}, []string{"reason"}) // reason: "queue_full" or "transport_not_ready"

	audioBytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_client_audio_bytes_sent_total",
		Help: "Total encoded audio bytes written to the streaming transport",
	})

	audioLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_client_audio_level_rms",
		Help: "RMS level of the most recently captured audio frame",
	})

	// Transcript metrics
	transcriptEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_client_transcript_events_total",
		Help: "Total inbound transcript events by outcome",
	}, []string{"outcome"}) // outcome: accepted, partial_dropped, ignored, malformed

	// Advice polling metrics
	advicePolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_client_advice_polls_total",
		Help: "Total advice polling ticks by outcome",
	}, []string{"outcome"}) // outcome: success, error, skipped_empty, breaker_open, stale

	adviceLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_client_advice_latency_seconds",
		Help:    "Advisory endpoint request latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// Circuit breaker metrics
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_client_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_client_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})
)

// SessionMetrics tracks metrics for a single recording session
type SessionMetrics struct {
	sessionID string
	startTime time.Time
	mu        sync.Mutex
	ended     bool
}

// NewSessionMetrics creates a metrics tracker for one session and records its start
func NewSessionMetrics(sessionID string) *SessionMetrics {
	activeSessions.Inc()
	totalSessions.Inc()
	return &SessionMetrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionEnd records the end of the session. Safe to call more than once.
func (m *SessionMetrics) RecordSessionEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return
	}
	m.ended = true
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordFrameCaptured records one frame produced by the capture device
func RecordFrameCaptured() {
	framesCaptured.Inc()
}

// RecordFrameSent records one encoded frame written to the transport
func RecordFrameSent(bytes int) {
	framesSent.Inc()
	audioBytesSent.Add(float64(bytes))
}

// RecordFrameDropped records one dropped frame with the drop reason
func RecordFrameDropped(reason string) {
	framesDropped.WithLabelValues(reason).Inc()
}

// RecordAudioLevel records the RMS level of the latest captured frame
func RecordAudioLevel(rms float64) {
	audioLevel.Set(rms)
}

// RecordTranscriptEvent records an inbound transcript event outcome
func RecordTranscriptEvent(outcome string) {
	transcriptEvents.WithLabelValues(outcome).Inc()
}

// RecordAdvicePoll records one advice polling tick outcome
func RecordAdvicePoll(outcome string) {
	advicePolls.WithLabelValues(outcome).Inc()
}

// RecordAdviceLatency records the latency of a completed advisory request
func RecordAdviceLatency(d time.Duration) {
	adviceLatency.Observe(d.Seconds())
}

// UpdateCircuitBreakerState updates the circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	breakerState.WithLabelValues(service).Set(float64(state))
}

// RecordError records an error by type and component
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}
