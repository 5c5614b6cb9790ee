// internal/audio/capture.go
package audio

import (
	"context"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// Capture delivers microphone or line-in samples to a callback. It is the
// external input path for the detector.
type Capture struct {
	device
	callbackPtr atomic.Pointer[SampleCallback]
	received    atomic.Uint64
}

// New creates a new audio capture instance
func New(cfg Config) *Capture {
	c := &Capture{}
	c.setup(malgo.Capture, cfg)
	return c
}

// SetCallback sets a callback for real-time sample processing.
// The callback is invoked directly from the audio thread.
func (c *Capture) SetCallback(cb SampleCallback) {
	if cb == nil {
		c.callbackPtr.Store(nil)
	} else {
		c.callbackPtr.Store(&cb)
	}
}

// Start begins audio capture
func (c *Capture) Start(ctx context.Context) error {
	return c.start(ctx, c.onFrames)
}

// Received returns the number of samples delivered so far
func (c *Capture) Received() uint64 {
	return c.received.Load()
}

func (c *Capture) onFrames(_, inputSamples []byte, _ uint32) {
	if len(inputSamples) == 0 {
		return
	}

	block := bytesToInt16(inputSamples)
	c.received.Add(uint64(len(block)))

	if cbPtr := c.callbackPtr.Load(); cbPtr != nil {
		(*cbPtr)(block)
	}
}
