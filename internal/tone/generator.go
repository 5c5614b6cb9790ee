package tone

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
)

// DefaultAmplitude is the per-lane peak. Two lanes at this level sum to at
// most 32766, so a dual tone never clips.
const DefaultAmplitude = 16383.0

var (
	// ErrInvalidState indicates the generator is not in the required lifecycle state
	ErrInvalidState = errors.New("generator not started")
	// ErrAlreadyStarted indicates Start was called twice without Stop
	ErrAlreadyStarted = errors.New("generator already started")
	// ErrInvalidFrequency indicates a key outside the keypad or an unusable frequency
	ErrInvalidFrequency = errors.New("invalid tone frequency")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidAmplitude indicates the lane amplitude would clip 16-bit PCM
	ErrInvalidAmplitude = errors.New("amplitude must be between 0 and 16383")
	// ErrInvalidLength indicates a negative block length
	ErrInvalidLength = errors.New("block length must not be negative")
)

// State is the observable generator state
type State int

const (
	// Idle means not started; Produce fails
	Idle State = iota
	// Silent means started with both lanes muted
	Silent
	// ActiveTone means started with a tone pair set
	ActiveTone
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Silent:
		return "silent"
	case ActiveTone:
		return "active"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Generator mixes a low-group and a high-group oscillator into mono 16-bit PCM.
//
// The tone pair is published through an atomic pointer, so SetTone never
// waits on sample production and a producer always sees both lanes from the
// same SetTone call. Producers are serialised by mu; Stop takes the same
// lock and therefore waits for an in-flight Produce to finish.
type Generator struct {
	sampleRate float64
	amplitude  float64

	tone atomic.Pointer[Pair]

	mu      sync.Mutex
	started atomic.Bool
	lo, hi  *Oscillator
}

// NewGenerator creates an idle generator.
func NewGenerator(sampleRate, amplitude float64) (*Generator, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, ErrInvalidSampleRate
	}
	if !(amplitude >= 0 && amplitude <= DefaultAmplitude) {
		return nil, ErrInvalidAmplitude
	}

	g := &Generator{
		sampleRate: sampleRate,
		amplitude:  amplitude,
		lo:         NewOscillator(sampleRate, amplitude),
		hi:         NewOscillator(sampleRate, amplitude),
	}
	g.tone.Store(&Pair{})
	return g, nil
}

// Start moves the generator from Idle to Silent with both phases at 0.
// A pair set while Idle is discarded.
func (g *Generator) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.started.Load() {
		return ErrAlreadyStarted
	}
	g.tone.Store(&Pair{})
	g.lo.Reset()
	g.hi.Reset()
	g.started.Store(true)
	return nil
}

// Stop returns the generator to Idle and silences it. It blocks until any
// in-flight Produce call has returned.
func (g *Generator) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started.Load() {
		return ErrInvalidState
	}
	g.started.Store(false)
	g.tone.Store(&Pair{})
	g.lo.SetFrequency(0)
	g.hi.SetFrequency(0)
	g.lo.Reset()
	g.hi.Reset()
	return nil
}

// SetTone sets both lane frequencies as one unit. 0 mutes a lane.
// On error the current pair is left unchanged.
func (g *Generator) SetTone(low, high float64) error {
	if err := g.checkFrequency(low); err != nil {
		return err
	}
	if err := g.checkFrequency(high); err != nil {
		return err
	}
	g.tone.Store(&Pair{Low: low, High: high})
	return nil
}

// SetKey sets the pair for a keypad character.
func (g *Generator) SetKey(key rune) error {
	p, err := Lookup(key)
	if err != nil {
		return err
	}
	return g.SetTone(p.Low, p.High)
}

// Silence mutes both lanes
func (g *Generator) Silence() {
	g.tone.Store(&Pair{})
}

func (g *Generator) checkFrequency(f float64) error {
	if math.IsNaN(f) || f < 0 || f >= g.sampleRate/2 {
		return fmt.Errorf("%v Hz: %w", f, ErrInvalidFrequency)
	}
	return nil
}

// Tone returns the current frequency pair
func (g *Generator) Tone() Pair {
	return *g.tone.Load()
}

// State reports Idle, Silent or ActiveTone
func (g *Generator) State() State {
	if !g.started.Load() {
		return Idle
	}
	if g.Tone().Silent() {
		return Silent
	}
	return ActiveTone
}

// SampleRate returns the output sample rate in Hz
func (g *Generator) SampleRate() float64 {
	return g.sampleRate
}

// Produce returns the next n samples.
func (g *Generator) Produce(n int) ([]int16, error) {
	if n < 0 {
		return nil, ErrInvalidLength
	}
	block := make([]int16, n)
	if err := g.ProduceInto(block); err != nil {
		return nil, err
	}
	return block, nil
}

// ProduceInto fills buf with the next len(buf) samples. Used from device
// callbacks where the buffer is owned by the caller.
func (g *Generator) ProduceInto(buf []int16) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.started.Load() {
		return ErrInvalidState
	}

	for i := range buf {
		p := g.tone.Load()
		if p.Low != g.lo.Frequency() {
			g.lo.SetFrequency(p.Low)
		}
		if p.High != g.hi.Frequency() {
			g.hi.SetFrequency(p.High)
		}
		buf[i] = toPCM(g.lo.Next() + g.hi.Next())
	}
	return nil
}

// toPCM rounds to the nearest integer and clamps to the int16 range
func toPCM(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
