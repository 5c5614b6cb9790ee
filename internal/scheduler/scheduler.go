// Package scheduler drives the periodic analysis cycle: take a block from a
// source, optionally stream it out, measure it with the detector bank and
// publish the result.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ColonelBlimp/dtmfscope/internal/dsp"
	"github.com/ColonelBlimp/dtmfscope/internal/metrics"
)

var (
	// ErrInvalidPeriod indicates the tick period must be positive
	ErrInvalidPeriod = errors.New("tick period must be positive")
	// ErrBlockTooSmall indicates the period holds less than one sample
	ErrBlockTooSmall = errors.New("tick period is shorter than one sample")
	// ErrNoSamples indicates the source had nothing for this tick
	ErrNoSamples = errors.New("no samples available")
	// ErrSourceRequired indicates a nil source
	ErrSourceRequired = errors.New("sample source is required")
)

// Config holds scheduler timing.
type Config struct {
	// SampleRate in Hz (from config: sample_rate)
	SampleRate float64
	// Period between ticks (from config: tick_ms)
	Period time.Duration
}

// DefaultConfig returns 8 kHz with a 10 ms tick
func DefaultConfig() Config {
	return Config{
		SampleRate: 8000,
		Period:     10 * time.Millisecond,
	}
}

// ResultCallback receives each published result with its tick number.
// Called on the scheduler goroutine; must be fast and non-blocking.
type ResultCallback func(tick uint64, r dsp.Result)

// Option configures a Scheduler
type Option func(*Scheduler)

// WithSink streams every analysed block to sink before detection
func WithSink(sink Sink) Option {
	return func(s *Scheduler) {
		s.sink = sink
	}
}

// WithLogger sets the logger for skipped ticks
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics records tick activity
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// Scheduler owns the tick. The latest result is replaced as a whole, so a
// reader sees either the previous result or the new one, never a mix.
type Scheduler struct {
	config    Config
	source    Source
	bank      *dsp.Bank
	blockSize int

	sink    Sink
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	mu          sync.Mutex // one tick at a time
	latest      atomic.Pointer[dsp.Result]
	ticks       atomic.Uint64
	callbackPtr atomic.Pointer[ResultCallback]
}

// New creates a scheduler reading from src.
func New(cfg Config, src Source, opts ...Option) (*Scheduler, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if cfg.Period <= 0 {
		return nil, ErrInvalidPeriod
	}

	bank, err := dsp.NewBank(cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("detector bank: %w", err)
	}

	blockSize := int(math.Round(cfg.SampleRate * cfg.Period.Seconds()))
	if blockSize < 1 {
		return nil, ErrBlockTooSmall
	}

	s := &Scheduler{
		config:    cfg,
		source:    src,
		bank:      bank,
		blockSize: blockSize,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// SetCallback sets the callback for published results.
func (s *Scheduler) SetCallback(cb ResultCallback) {
	if cb == nil {
		s.callbackPtr.Store(nil)
	} else {
		s.callbackPtr.Store(&cb)
	}
}

// Tick runs one cycle. On any failure the previous result stays published
// and the error is returned; io.EOF is passed through from a finite source.
func (s *Scheduler) Tick() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	block, err := s.source.Next(s.blockSize)
	if errors.Is(err, io.EOF) {
		return io.EOF
	}
	if err != nil {
		s.metrics.SkipTick(metrics.ReasonSource)
		return fmt.Errorf("source: %w", err)
	}
	if len(block) == 0 {
		s.metrics.SkipTick(metrics.ReasonEmpty)
		return ErrNoSamples
	}

	if s.sink != nil {
		if err := s.sink.Write(block); err != nil {
			s.metrics.SkipTick(metrics.ReasonSink)
			return fmt.Errorf("sink: %w", err)
		}
	}

	r, err := s.bank.Detect(block)
	if err != nil {
		s.metrics.SkipTick(metrics.ReasonDetect)
		return fmt.Errorf("detect: %w", err)
	}

	s.latest.Store(&r)
	n := s.ticks.Add(1)
	s.metrics.ObserveTick(time.Since(start), len(block), r)

	if cbPtr := s.callbackPtr.Load(); cbPtr != nil {
		(*cbPtr)(n, r)
	}
	return nil
}

// Run ticks every Period until ctx is cancelled or the source reports
// io.EOF. Failed ticks are logged and skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Period)
	defer ticker.Stop()

	var skipped uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if done := s.step(&skipped); done {
				return nil
			}
		}
	}
}

// Drain ticks back to back, without waiting on the clock, until the source
// reports io.EOF or ctx is cancelled. Used for offline analysis of finite
// sources: a failed tick ends the drain with its error.
func (s *Scheduler) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.Tick()
		switch {
		case err == nil, errors.Is(err, ErrNoSamples):
		case errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}

func (s *Scheduler) step(skipped *uint64) (done bool) {
	err := s.Tick()
	switch {
	case err == nil:
		return false
	case errors.Is(err, io.EOF):
		return true
	case errors.Is(err, ErrNoSamples):
		// routine while a device is warming up
		return false
	default:
		*skipped++
		s.log.WithFields(logrus.Fields{
			"tick":    s.ticks.Load(),
			"skipped": *skipped,
			"error":   err,
		}).Debug("tick skipped")
		return false
	}
}

// Latest returns the most recent result. ok is false before the first
// successful tick.
func (s *Scheduler) Latest() (r dsp.Result, ok bool) {
	p := s.latest.Load()
	if p == nil {
		return dsp.Result{}, false
	}
	return *p, true
}

// Ticks returns the number of published results
func (s *Scheduler) Ticks() uint64 {
	return s.ticks.Load()
}

// BlockSize returns the nominal samples per tick
func (s *Scheduler) BlockSize() int {
	return s.blockSize
}

// Config returns the current configuration
func (s *Scheduler) Config() Config {
	return s.config
}
