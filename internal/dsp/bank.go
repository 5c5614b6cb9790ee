package dsp

import "fmt"

// NumFrequencies is the number of canonical DTMF frequencies
const NumFrequencies = 8

// MeterRange is the reference full-scale magnitude used by calibrated meters.
// Larger magnitudes saturate the meter.
const MeterRange = 10000.0

// Frequencies are the canonical DTMF frequencies in Hz, low group first.
var Frequencies = [NumFrequencies]float64{697, 770, 852, 941, 1209, 1336, 1477, 1633}

// Result holds one magnitude per canonical frequency, indexed like Frequencies.
// A Result is a value: every analysis block produces a fresh one.
type Result [NumFrequencies]float64

// At returns the magnitude for the given canonical frequency.
// ok is false if freq is not one of Frequencies.
func (r Result) At(freq float64) (mag float64, ok bool) {
	for i, f := range Frequencies {
		if f == freq {
			return r[i], true
		}
	}
	return 0, false
}

// Strongest returns the index of the largest magnitude within [from, to).
func (r Result) Strongest(from, to int) int {
	best := from
	for i := from; i < to; i++ {
		if r[i] > r[best] {
			best = i
		}
	}
	return best
}

// Bank runs one Goertzel filter per canonical DTMF frequency.
type Bank struct {
	sampleRate float64
	filters    [NumFrequencies]*Goertzel
}

// NewBank creates a detector bank for the given sample rate.
// Every canonical frequency must lie below Nyquist.
func NewBank(sampleRate float64) (*Bank, error) {
	b := &Bank{sampleRate: sampleRate}
	for i, f := range Frequencies {
		g, err := NewGoertzel(GoertzelConfig{TargetFrequency: f, SampleRate: sampleRate})
		if err != nil {
			return nil, fmt.Errorf("filter %v Hz: %w", f, err)
		}
		b.filters[i] = g
	}
	return b, nil
}

// Detect measures all eight frequencies over block. On error the returned
// Result is the zero value and must be discarded; callers keep their last one.
func (b *Bank) Detect(block []int16) (Result, error) {
	var r Result
	if len(block) == 0 {
		return r, ErrInvalidBlockSize
	}
	for i, g := range b.filters {
		m, err := g.Magnitude(block)
		if err != nil {
			return Result{}, err
		}
		r[i] = m
	}
	return r, nil
}

// SampleRate returns the rate the bank was built for
func (b *Bank) SampleRate() float64 {
	return b.sampleRate
}
