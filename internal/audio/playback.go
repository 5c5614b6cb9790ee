package audio

import (
	"context"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// Producer fills a caller-owned buffer with the next samples
type Producer interface {
	ProduceInto(buf []int16) error
}

// Playback is the pull-based output sink: every device callback asks the
// producer for exactly as many frames as the device wants.
type Playback struct {
	device
	producer  Producer
	tapPtr    atomic.Pointer[SampleCallback]
	scratch   []int16 // only touched from the audio thread
	underruns atomic.Uint64
}

// NewPlayback creates a playback device pulling from p
func NewPlayback(cfg Config, p Producer) *Playback {
	pb := &Playback{producer: p}
	pb.setup(malgo.Playback, cfg)
	return pb
}

// SetTap registers a callback that sees every block sent to the device.
// This is the loopback path.
func (p *Playback) SetTap(cb SampleCallback) {
	if cb == nil {
		p.tapPtr.Store(nil)
	} else {
		p.tapPtr.Store(&cb)
	}
}

// Start begins playback
func (p *Playback) Start(ctx context.Context) error {
	return p.start(ctx, p.onFrames)
}

// Underruns counts callbacks that were filled with silence because the
// producer refused (e.g. generator stopped)
func (p *Playback) Underruns() uint64 {
	return p.underruns.Load()
}

func (p *Playback) onFrames(outputSamples, _ []byte, frameCount uint32) {
	p.fill(outputSamples, int(frameCount))
}

// fill writes frames samples to out
func (p *Playback) fill(out []byte, frames int) {
	if frames > len(out)/2 {
		frames = len(out) / 2
	}
	if cap(p.scratch) < frames {
		p.scratch = make([]int16, frames)
	}
	block := p.scratch[:frames]

	if err := p.producer.ProduceInto(block); err != nil {
		p.underruns.Add(1)
		clear(out)
		return
	}
	putInt16(out, block)

	if tapPtr := p.tapPtr.Load(); tapPtr != nil {
		(*tapPtr)(block)
	}
}
