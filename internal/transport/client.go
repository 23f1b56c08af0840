package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/soundadvice/voice-client/internal/observability"
)

// EventTypeTranscript is the kind tag of transcript events
const EventTypeTranscript = "transcript"

// Event is a decoded inbound message from the streaming server
type Event struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	IsPartial bool   `json:"is_partial"`
}

// controlMessage is the client-to-server control envelope
type controlMessage struct {
	Event string `json:"event"`
}

const eosEvent = "EOS"

// Client owns one bidirectional streaming connection. Encoded audio
// frames go out as binary messages; transcript events come back as JSON
// text messages on Events(). A Client serves exactly one recording
// session and is not reusable after Close.
type Client struct {
	conn   *websocket.Conn
	logger zerolog.Logger

	writeMu sync.Mutex // gorilla allows one concurrent writer

	mu    sync.RWMutex
	ready bool

	closeOnce sync.Once
	events    chan Event
}

// Dial opens the streaming connection and starts the read loop
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial streaming server at %s: %w", url, err)
	}

	c := &Client{
		conn:   conn,
		logger: observability.WithComponent("transport"),
		ready:  true,
		events: make(chan Event, 64),
	}

	go c.readLoop()

	c.logger.Debug().Str("url", url).Msg("Streaming connection open")
	return c, nil
}

// readLoop decodes inbound text messages and delivers them on the event
// channel. Undecodable payloads are discarded without surfacing an
// error. The channel is closed when the connection dies; no reconnect is
// attempted.
func (c *Client) readLoop() {
	defer close(c.events)

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn().Err(err).Msg("Streaming connection read error")
				observability.RecordError("read_error", "transport")
			}
			c.mu.Lock()
			c.ready = false
			c.mu.Unlock()
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			observability.RecordTranscriptEvent("malformed")
			c.logger.Debug().Err(err).Msg("Discarding undecodable server payload")
			continue
		}

		select {
		case c.events <- ev:
		default:
			c.logger.Warn().Str("type", ev.Type).Msg("Event channel full, dropping server event")
			observability.RecordError("event_channel_full", "transport")
		}
	}
}

// Events returns the inbound event channel. It is closed when the
// connection ends.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Ready reports whether the connection is open and writable
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// SendFrame transmits one encoded audio frame as a binary message.
// Frames offered while the connection is not ready are dropped; there
// is no queue and no retry. Returns whether the frame was sent.
func (c *Client) SendFrame(frame []byte) bool {
	if !c.Ready() {
		observability.RecordFrameDropped("transport_not_ready")
		return false
	}

	c.writeMu.Lock()
	err := c.conn.WriteMessage(websocket.BinaryMessage, frame)
	c.writeMu.Unlock()

	if err != nil {
		c.mu.Lock()
		c.ready = false
		c.mu.Unlock()
		c.logger.Warn().Err(err).Msg("Streaming connection write error, abandoning")
		observability.RecordError("write_error", "transport")
		observability.RecordFrameDropped("transport_not_ready")
		return false
	}

	observability.RecordFrameSent(len(frame))
	return true
}

// SendEOS signals end of audio to the server. Only attempted while the
// connection is still open; no acknowledgment is awaited.
func (c *Client) SendEOS() error {
	if !c.Ready() {
		return nil
	}

	payload, err := json.Marshal(controlMessage{Event: eosEvent})
	if err != nil {
		return fmt.Errorf("failed to encode EOS message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to send EOS message: %w", err)
	}
	return nil
}

// Close tears down the connection from the client side. Fire and
// forget; safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.ready = false
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}
