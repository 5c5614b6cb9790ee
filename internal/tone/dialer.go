package tone

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
	"unicode"
)

// ErrEmptySequence indicates a dial string with no keys or pauses
var ErrEmptySequence = errors.New("dial sequence is empty")

// Step is one segment of a dial sequence. Key 0 is a pause.
type Step struct {
	Key      rune
	Duration time.Duration
}

// ParseSequence turns a dial string into steps: each key is held for hold
// and followed by gap of silence. Whitespace is ignored and ',' inserts a
// pause of hold+gap.
func ParseSequence(keys string, hold, gap time.Duration) ([]Step, error) {
	if hold <= 0 || gap < 0 {
		return nil, fmt.Errorf("hold %v, gap %v: durations must be positive", hold, gap)
	}

	var steps []Step
	for _, k := range keys {
		switch {
		case unicode.IsSpace(k):
			continue
		case k == ',':
			steps = append(steps, Step{Duration: hold + gap})
			continue
		}
		if _, err := Lookup(k); err != nil {
			return nil, err
		}
		steps = append(steps, Step{Key: unicode.ToUpper(k), Duration: hold})
		if gap > 0 {
			steps = append(steps, Step{Duration: gap})
		}
	}

	if len(steps) == 0 {
		return nil, ErrEmptySequence
	}
	return steps, nil
}

// Keyer is the control surface a Dialer drives
type Keyer interface {
	SetKey(key rune) error
	Silence()
}

// StepCallback is called at the start of every step
type StepCallback func(step Step)

// Dialer plays a sequence in real time by switching a Keyer's tone.
type Dialer struct {
	keyer  Keyer
	onStep StepCallback
}

// NewDialer creates a dialer for k. onStep may be nil.
func NewDialer(k Keyer, onStep StepCallback) *Dialer {
	return &Dialer{keyer: k, onStep: onStep}
}

// Play walks the steps, blocking for their total duration. The keyer is
// always left silent, including on cancellation.
func (d *Dialer) Play(ctx context.Context, steps []Step) error {
	defer d.keyer.Silence()

	for _, step := range steps {
		if step.Key == 0 {
			d.keyer.Silence()
		} else if err := d.keyer.SetKey(step.Key); err != nil {
			return err
		}
		if d.onStep != nil {
			d.onStep(step)
		}

		timer := time.NewTimer(step.Duration)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Sequence plays steps through a started generator by sample count, so key
// changes land on exact sample offsets whatever block length is pulled.
type Sequence struct {
	gen   *Generator
	steps []Step
	index int
	left  int // samples remaining in steps[index]
}

// NewSequence creates a sequence positioned before the first step
func NewSequence(g *Generator, steps []Step) *Sequence {
	return &Sequence{gen: g, steps: steps, index: -1}
}

// Samples returns the total length of the sequence in samples
func (s *Sequence) Samples() int {
	var total int
	for _, step := range s.steps {
		total += SamplesFor(step.Duration, s.gen.SampleRate())
	}
	return total
}

// Produce returns the next n samples. The block after the last step is
// short; once the sequence is exhausted Produce returns io.EOF and the
// generator is left silent.
func (s *Sequence) Produce(n int) ([]int16, error) {
	if n < 0 {
		return nil, ErrInvalidLength
	}

	out := make([]int16, 0, n)
	for len(out) < n {
		if s.left == 0 {
			err := s.advance()
			if errors.Is(err, io.EOF) && len(out) > 0 {
				return out, nil
			}
			if err != nil {
				return nil, err
			}
			continue
		}

		k := min(n-len(out), s.left)
		block, err := s.gen.Produce(k)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		s.left -= k
	}
	return out, nil
}

func (s *Sequence) advance() error {
	if s.index >= len(s.steps)-1 {
		s.index = len(s.steps)
		s.gen.Silence()
		return io.EOF
	}
	s.index++

	step := s.steps[s.index]
	if step.Key == 0 {
		s.gen.Silence()
	} else if err := s.gen.SetKey(step.Key); err != nil {
		return err
	}
	s.left = SamplesFor(step.Duration, s.gen.SampleRate())
	return nil
}

// SamplesFor converts a duration to a whole number of samples
func SamplesFor(d time.Duration, sampleRate float64) int {
	return int(math.Round(d.Seconds() * sampleRate))
}
