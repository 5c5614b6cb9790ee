// internal/dsp/goertzel.go
package dsp

import (
	"errors"
	"math"
)

var (
	// ErrInvalidBlockSize indicates the sample block is empty
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
	// ErrInvalidResult indicates the computation produced NaN or Inf
	ErrInvalidResult = errors.New("goertzel produced a non-finite magnitude")
)

// GoertzelConfig holds configuration for a single-frequency Goertzel filter.
type GoertzelConfig struct {
	// TargetFrequency is the frequency to measure in Hz
	TargetFrequency float64
	// SampleRate is the audio sample rate in Hz (from config: sample_rate)
	SampleRate float64
}

// Goertzel measures the magnitude of one frequency in a block of 16-bit PCM.
// The trigonometric terms are computed once; the filter keeps no state
// between blocks, so any block length is accepted on every call.
type Goertzel struct {
	config      GoertzelConfig
	coefficient float64 // 2 * cos(omega)
	sine        float64 // sin(omega)
	cosine      float64 // cos(omega)
}

// NewGoertzel creates a filter for the given configuration.
// Returns an error if the configuration is invalid.
func NewGoertzel(cfg GoertzelConfig) (*Goertzel, error) {
	if cfg.SampleRate <= 0 || math.IsNaN(cfg.SampleRate) || math.IsInf(cfg.SampleRate, 0) {
		return nil, ErrInvalidSampleRate
	}
	nyquist := cfg.SampleRate / 2.0
	if !(cfg.TargetFrequency > 0 && cfg.TargetFrequency < nyquist) {
		return nil, ErrInvalidFrequency
	}

	omega := 2.0 * math.Pi * cfg.TargetFrequency / cfg.SampleRate
	cosine := math.Cos(omega)

	return &Goertzel{
		config:      cfg,
		coefficient: 2.0 * cosine,
		sine:        math.Sin(omega),
		cosine:      cosine,
	}, nil
}

// Magnitude computes the magnitude of the target frequency over the whole block.
// The real and imaginary parts are normalised by N/2, so a full-scale sine of
// amplitude A at the target frequency reads approximately A.
func (g *Goertzel) Magnitude(block []int16) (float64, error) {
	if len(block) == 0 {
		return 0, ErrInvalidBlockSize
	}

	m := g.computeMagnitude(block)
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, ErrInvalidResult
	}
	return m, nil
}

// computeMagnitude is the core Goertzel recurrence. Caller ensures len(block) > 0.
func (g *Goertzel) computeMagnitude(block []int16) float64 {
	var q0, q1, q2 float64
	coeff := g.coefficient

	for _, s := range block {
		q0 = coeff*q1 - q2 + float64(s)
		q2 = q1
		q1 = q0
	}

	half := float64(len(block)) / 2.0
	re := (q1 - q2*g.cosine) / half
	im := (q2 * g.sine) / half

	return math.Sqrt(re*re + im*im)
}

// Config returns the current configuration (for testing and inspection)
func (g *Goertzel) Config() GoertzelConfig {
	return g.config
}

// Coefficient returns the pre-computed Goertzel coefficient (for testing)
func (g *Goertzel) Coefficient() float64 {
	return g.coefficient
}

// Magnitude is the stateless form of the filter: one block, one frequency.
func Magnitude(block []int16, sampleRate, targetFrequency float64) (float64, error) {
	if len(block) == 0 {
		return 0, ErrInvalidBlockSize
	}
	g, err := NewGoertzel(GoertzelConfig{TargetFrequency: targetFrequency, SampleRate: sampleRate})
	if err != nil {
		return 0, err
	}
	return g.Magnitude(block)
}
