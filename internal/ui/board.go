package ui

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell"

	"github.com/ColonelBlimp/dtmfscope/internal/dsp"
	"github.com/ColonelBlimp/dtmfscope/internal/tone"
)

const (
	meterLeft  = 10 // label column width
	meterWidth = 40
	meterTop   = 7
)

var (
	styleText   = tcell.StyleDefault
	styleKey    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	stylePushed = tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	styleLow    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleHigh   = tcell.StyleDefault.Foreground(tcell.ColorBlue)
)

// Board is the interactive keypad. Key presses sound a tone for the hold
// time; meters show the latest published result.
type Board struct {
	screen     tcell.Screen
	keyer      tone.Keyer
	hold       time.Duration
	meterRange float64
	floor      float64

	mu      sync.Mutex
	result  dsp.Result
	pressed rune
	press   uint64 // generation of the current press
	release *time.Timer
	status  string
}

// NewBoard draws on screen, which the caller initializes and finalizes.
// Terminals report no key release, so each press lasts hold.
func NewBoard(screen tcell.Screen, k tone.Keyer, hold time.Duration, meterRange float64) *Board {
	return &Board{
		screen:     screen,
		keyer:      k,
		hold:       hold,
		meterRange: meterRange,
		floor:      meterRange / 4,
	}
}

// Update stores a result for the next frame. Safe to use as a scheduler
// callback.
func (b *Board) Update(_ uint64, r dsp.Result) {
	b.mu.Lock()
	b.result = r
	b.mu.Unlock()
}

// SetStatus shows msg on the bottom line.
func (b *Board) SetStatus(msg string) {
	b.mu.Lock()
	b.status = msg
	b.mu.Unlock()
}

// Press sounds key until the hold time passes or another key is pressed.
func (b *Board) Press(key rune) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.keyer.SetKey(key); err != nil {
		return err
	}
	if b.release != nil {
		b.release.Stop()
	}
	b.press++
	gen := b.press
	b.pressed = unicode.ToUpper(key)
	b.release = time.AfterFunc(b.hold, func() {
		b.releaseKey(gen)
	})
	return nil
}

func (b *Board) releaseKey(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.press {
		return
	}
	b.pressed = 0
	b.keyer.Silence()
}

// Pressed returns the key currently sounding, or 0.
func (b *Board) Pressed() rune {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// Run redraws every refresh and handles input until ESC, Ctrl-C or ctx
// is done. The keyer is silenced on return.
func (b *Board) Run(ctx context.Context, refresh time.Duration) error {
	events := make(chan tcell.Event)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			ev := b.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	defer b.stop()

	frames := time.NewTicker(refresh)
	defer frames.Stop()

	b.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-frames.C:
			b.Draw()
		case ev := <-events:
			if b.handle(ev) {
				return nil
			}
		}
	}
}

// handle reacts to one event and reports whether to quit.
func (b *Board) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyESC, tcell.KeyCtrlC:
			return true
		case tcell.KeyRune:
			if err := b.Press(ev.Rune()); err != nil {
				b.SetStatus(fmt.Sprintf("%q is not a keypad key", ev.Rune()))
			} else {
				b.SetStatus("")
			}
		}
	case *tcell.EventResize:
		b.screen.Sync()
	}
	return false
}

func (b *Board) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.release != nil {
		b.release.Stop()
	}
	b.press++
	b.pressed = 0
	b.keyer.Silence()
}

// Draw renders one frame.
func (b *Board) Draw() {
	b.mu.Lock()
	r, pressed, status := b.result, b.pressed, b.status
	b.mu.Unlock()

	s := b.screen
	s.Clear()

	drawText(s, 0, 0, "DTMF scope  keys 0-9 * # A-D, [ESC] to quit", styleText)

	for row, keys := range tone.Keypad {
		for col, k := range keys {
			style := styleKey
			if k == pressed {
				style = stylePushed
			}
			drawText(s, 2+col*5, 2+row, fmt.Sprintf("[%c]", k), style)
		}
	}

	heard := "-"
	if k, ok := Guess(r, b.floor); ok {
		heard = string(k)
	}
	drawText(s, 24, 3, "heard: "+heard, styleText)

	for i, f := range dsp.Frequencies {
		y := meterTop + i
		style := styleLow
		if i >= 4 {
			style = styleHigh
		}
		drawText(s, 0, y, fmt.Sprintf("%4.0f Hz", f), styleText)
		n := barWidth(r[i], b.meterRange, meterWidth)
		for x := 0; x < meterWidth; x++ {
			c := ' '
			if x < n {
				c = tcell.RuneBlock
			}
			s.SetContent(meterLeft+x, y, c, nil, style)
		}
		drawText(s, meterLeft+meterWidth+1, y, fmt.Sprintf("%8.0f", r[i]), styleText)
	}

	if status != "" {
		drawText(s, 0, meterTop+dsp.NumFrequencies+1, status, styleText)
	}

	s.Show()
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
