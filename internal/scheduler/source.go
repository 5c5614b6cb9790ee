package scheduler

import (
	"sync"

	"github.com/ColonelBlimp/dtmfscope/internal/codec"
)

// Source supplies one SampleBlock per tick. n is the tick's nominal block
// length; sources that deliver whatever has accumulated may return any
// length, including zero. io.EOF ends a finite source.
type Source interface {
	Next(n int) ([]int16, error)
}

// Sink receives every block the scheduler analysed (e.g. for output).
type Sink interface {
	Write(block []int16) error
}

// Producer is a pull-based sample generator
type Producer interface {
	Produce(n int) ([]int16, error)
}

// GeneratorSource drains exactly n samples from a Producer each tick.
type GeneratorSource struct {
	producer Producer
}

// NewGeneratorSource wraps p
func NewGeneratorSource(p Producer) *GeneratorSource {
	return &GeneratorSource{producer: p}
}

// Next pulls n samples
func (s *GeneratorSource) Next(n int) ([]int16, error) {
	return s.producer.Produce(n)
}

// DropFunc is told how many samples overflow discarded
type DropFunc func(n int)

// Loopback collects blocks pushed from a device callback and hands the
// accumulated samples to the scheduler on its next tick. When full, the
// oldest samples are discarded.
type Loopback struct {
	mu       sync.Mutex
	buf      []int16
	capacity int
	codec    codec.Codec
	onDrop   DropFunc
	dropped  uint64
}

// NewLoopback creates a loopback holding at most capacity samples. c may
// be nil for a lossless path.
func NewLoopback(capacity int, c codec.Codec) *Loopback {
	if capacity < 1 {
		capacity = 1
	}
	if c == nil {
		c = codec.Linear{}
	}
	return &Loopback{
		buf:      make([]int16, 0, capacity),
		capacity: capacity,
		codec:    c,
	}
}

// SetDropFunc registers an overflow observer. Set before pushing.
func (l *Loopback) SetDropFunc(fn DropFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onDrop = fn
}

// Push copies block into the loopback through the codec. Safe to call
// from an audio callback; it never blocks on the consumer beyond the copy.
func (l *Loopback) Push(block []int16) {
	if len(block) == 0 {
		return
	}
	received := codec.RoundTrip(l.codec, block)

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(received) > l.capacity {
		l.drop(len(received) - l.capacity)
		received = received[len(received)-l.capacity:]
	}
	if over := len(l.buf) + len(received) - l.capacity; over > 0 {
		l.drop(over)
		l.buf = append(l.buf[:0], l.buf[over:]...)
	}
	l.buf = append(l.buf, received...)
}

func (l *Loopback) drop(n int) {
	l.dropped += uint64(n)
	if l.onDrop != nil {
		l.onDrop(n)
	}
}

// Next returns every sample pushed since the previous call, regardless of n.
func (l *Loopback) Next(int) ([]int16, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.buf) == 0 {
		return nil, nil
	}
	block := make([]int16, len(l.buf))
	copy(block, l.buf)
	l.buf = l.buf[:0]
	return block, nil
}

// Buffered returns the number of samples waiting
func (l *Loopback) Buffered() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buf)
}

// Dropped returns the total number of samples lost to overflow
func (l *Loopback) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// SinkFunc adapts a function to Sink
type SinkFunc func(block []int16) error

// Write calls f
func (f SinkFunc) Write(block []int16) error {
	return f(block)
}
