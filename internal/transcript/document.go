package transcript

import (
	"strings"
	"sync"
)

// Separator joins accepted segments in the rendered document
const Separator = "\n"

// Document is the single authoritative transcript: an append-only
// ordered sequence of accepted text segments. It has exactly one writer
// (the Assembler); the read lock exists so the advice poller and export
// actions can snapshot it concurrently.
type Document struct {
	mu       sync.RWMutex
	segments []string
}

// NewDocument creates an empty transcript document
func NewDocument() *Document {
	return &Document{}
}

// Append adds one accepted segment in arrival order
func (d *Document) Append(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.segments = append(d.segments, text)
}

// Snapshot returns the full document as a single string, segments
// joined by Separator
func (d *Document) Snapshot() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strings.Join(d.segments, Separator)
}

// Len returns the number of accepted segments
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.segments)
}

// Reset clears the document. Called once at the start of every session.
func (d *Document) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.segments = nil
}
