package advisory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/soundadvice/voice-client/internal/observability"
	"github.com/soundadvice/voice-client/internal/resilience"
	"github.com/soundadvice/voice-client/internal/transcript"
)

// Poller periodically sends the current transcript snapshot to the
// advisory endpoint and retains the latest response. One Poller exists
// per recording session; Stop cancels its timer unconditionally so no
// timer outlives the session. A response that resolves after Stop is
// discarded, never applied.
type Poller struct {
	client    *Client
	doc       *transcript.Document
	interval  time.Duration
	skipEmpty bool
	breaker   *resilience.CircuitBreaker
	logger    zerolog.Logger

	mu     sync.RWMutex
	advice string

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a poller reading doc and polling through client
func NewPoller(client *Client, doc *transcript.Document, interval time.Duration, skipEmpty bool, breaker *resilience.CircuitBreaker, logger zerolog.Logger) *Poller {
	return &Poller{
		client:    client,
		doc:       doc,
		interval:  interval,
		skipEmpty: skipEmpty,
		breaker:   breaker,
		logger:    logger,
	}
}

// Start begins polling on a fixed interval until Stop is called or ctx
// is cancelled
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
}

// Stop cancels the polling timer and waits for the loop to exit.
// Idempotent; safe to call on a poller that never started.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

// Advice returns the latest advisory snapshot
func (p *Poller) Advice() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.advice
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Msg("Advice poller stopping")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick performs one poll: snapshot the transcript, call the advisory
// endpoint, and replace the snapshot on success. Failures keep the
// previous advice and do not stop the timer.
func (p *Poller) tick(ctx context.Context) {
	snapshot := p.doc.Snapshot()
	if p.skipEmpty && snapshot == "" {
		observability.RecordAdvicePoll("skipped_empty")
		return
	}

	var advice string
	start := time.Now()
	err := p.breaker.Call(func() error {
		var callErr error
		advice, callErr = p.client.Advice(ctx, snapshot)
		return callErr
	})
	observability.UpdateCircuitBreakerState("advisory", int(p.breaker.GetState()))

	if err != nil {
		if errors.Is(err, resilience.ErrOpen) {
			observability.RecordAdvicePoll("breaker_open")
			return
		}
		observability.RecordAdvicePoll("error")
		observability.RecordError("advice_poll_error", "advisory")
		p.logger.Warn().Err(err).Msg("Advice poll failed, keeping previous snapshot")
		return
	}
	observability.RecordAdviceLatency(time.Since(start))

	// The session may have ended while the request was in flight; a
	// stale result must not overwrite newer state.
	select {
	case <-ctx.Done():
		observability.RecordAdvicePoll("stale")
		p.logger.Debug().Msg("Discarding advice response for ended session")
		return
	default:
	}

	p.mu.Lock()
	p.advice = advice
	p.mu.Unlock()
	observability.RecordAdvicePoll("success")
	p.logger.Debug().Int("chars", len(advice)).Msg("Advice snapshot updated")
}
