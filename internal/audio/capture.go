package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// FrameFunc receives one captured audio frame. The slice is only valid
// for the duration of the call; implementations must not retain it.
type FrameFunc func(samples []float32)

// Capture is a microphone input device producing fixed-size frames of
// float32 samples at a fixed sample rate.
type Capture interface {
	// Start begins frame production, invoking onFrame once per buffer.
	// An unavailable device or denied permission fails here, once.
	Start(onFrame FrameFunc) error

	// Stop halts frame production. No onFrame call is made after Stop
	// returns.
	Stop() error

	// Close releases the underlying device and audio host resources.
	Close() error
}

// Device is the PortAudio implementation of Capture. It requests the
// default input device with the configured channel count, sample rate
// and frames per buffer.
type Device struct {
	sampleRate int
	frameSize  int
	channels   int

	mu      sync.Mutex
	stream  *portaudio.Stream
	running bool
	closed  bool
}

// NewDevice initializes the audio host and prepares a capture device.
// The device is not started until Start is called.
func NewDevice(sampleRate, frameSize, channels int) (*Device, error) {
	if channels != 1 {
		return nil, fmt.Errorf("only mono capture is supported, got %d channels", channels)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audio host: %w", err)
	}

	return &Device{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		channels:   channels,
	}, nil
}

// Start opens the default input stream and begins capture
func (d *Device) Start(onFrame FrameFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return fmt.Errorf("capture device is closed")
	}
	if d.running {
		return fmt.Errorf("capture device is already running")
	}

	stream, err := portaudio.OpenDefaultStream(
		d.channels, 0, float64(d.sampleRate), d.frameSize,
		func(in []float32) {
			onFrame(in)
		},
	)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	d.stream = stream
	d.running = true
	return nil
}

// Stop halts capture and closes the input stream
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}
	d.running = false

	if err := d.stream.Stop(); err != nil {
		d.stream.Close()
		d.stream = nil
		return fmt.Errorf("failed to stop input stream: %w", err)
	}

	err := d.stream.Close()
	d.stream = nil
	if err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	return nil
}

// Close stops capture if needed and releases the audio host
func (d *Device) Close() error {
	if err := d.Stop(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate audio host: %w", err)
	}
	return nil
}
