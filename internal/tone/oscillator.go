// Package tone synthesizes DTMF key tones as 16-bit PCM.
package tone

import "math"

const twoPi = 2 * math.Pi

// Oscillator produces a sine wave with continuous phase across calls.
// It is not safe for concurrent use; each lane owns its oscillator.
type Oscillator struct {
	sampleRate float64
	amplitude  float64
	frequency  float64
	phase      float64 // radians, kept in [0, 2π)
	phaseInc   float64
}

// NewOscillator creates a muted oscillator (0 Hz) at phase 0.
func NewOscillator(sampleRate, amplitude float64) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		amplitude:  amplitude,
	}
}

// SetFrequency changes the frequency without touching the phase.
func (o *Oscillator) SetFrequency(freq float64) {
	o.frequency = freq
	o.phaseInc = twoPi * freq / o.sampleRate
}

// Frequency returns the current frequency in Hz
func (o *Oscillator) Frequency() float64 {
	return o.frequency
}

// Phase returns the current phase in radians
func (o *Oscillator) Phase() float64 {
	return o.phase
}

// Reset returns the phase to 0
func (o *Oscillator) Reset() {
	o.phase = 0
}

// Next advances the phase by one sample and returns amplitude*sin(phase).
// A muted oscillator returns 0 and does not advance.
func (o *Oscillator) Next() float64 {
	if o.frequency == 0 {
		return 0
	}
	o.phase += o.phaseInc
	if o.phase >= twoPi {
		o.phase = math.Mod(o.phase, twoPi)
	}
	return o.amplitude * math.Sin(o.phase)
}
