package transcript

import (
	"github.com/rs/zerolog"

	"github.com/soundadvice/voice-client/internal/observability"
	"github.com/soundadvice/voice-client/internal/transport"
)

// Assembler applies inbound transcript events to a Document in arrival
// order. By default only final fragments are accepted and partials are
// discarded, which keeps the document stable; acceptPartials enables the
// permissive mode where every fragment is appended.
type Assembler struct {
	doc            *Document
	acceptPartials bool
	logger         zerolog.Logger
}

// NewAssembler creates an assembler writing to doc
func NewAssembler(doc *Document, acceptPartials bool, logger zerolog.Logger) *Assembler {
	return &Assembler{
		doc:            doc,
		acceptPartials: acceptPartials,
		logger:         logger,
	}
}

// Apply processes one decoded event. Returns whether the event mutated
// the document.
func (a *Assembler) Apply(ev transport.Event) bool {
	if ev.Type != transport.EventTypeTranscript {
		observability.RecordTranscriptEvent("ignored")
		a.logger.Debug().Str("type", ev.Type).Msg("Ignoring non-transcript event")
		return false
	}

	if ev.IsPartial && !a.acceptPartials {
		observability.RecordTranscriptEvent("partial_dropped")
		return false
	}

	a.doc.Append(ev.Text)
	observability.RecordTranscriptEvent("accepted")
	a.logger.Debug().Str("text", ev.Text).Bool("is_partial", ev.IsPartial).Msg("Transcript segment accepted")
	return true
}

// Run consumes events until the channel closes
func (a *Assembler) Run(events <-chan transport.Event) {
	for ev := range events {
		a.Apply(ev)
	}
	a.logger.Debug().Msg("Event channel closed, assembler stopping")
}
