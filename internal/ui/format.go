// Package ui presents detection results: plain-text rows for the command
// line and a terminal keypad with live meters.
package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/ColonelBlimp/dtmfscope/internal/dsp"
	"github.com/ColonelBlimp/dtmfscope/internal/tone"
)

const columnWidth = 8

// Header labels the columns printed by FormatResult.
func Header() string {
	var sb strings.Builder
	for _, f := range dsp.Frequencies {
		fmt.Fprintf(&sb, "%*.0f", columnWidth, f)
	}
	return sb.String()
}

// FormatResult prints the eight magnitudes as one aligned row.
func FormatResult(r dsp.Result) string {
	var sb strings.Builder
	for _, m := range r {
		fmt.Fprintf(&sb, "%*.1f", columnWidth, m)
	}
	return sb.String()
}

// Guess names the key whose row and column tones are the strongest of their
// groups, provided both reach floor.
func Guess(r dsp.Result, floor float64) (rune, bool) {
	lo := r.Strongest(0, 4)
	hi := r.Strongest(4, dsp.NumFrequencies)
	if r[lo] < floor || r[hi] < floor {
		return 0, false
	}
	return tone.Key(tone.Pair{Low: dsp.Frequencies[lo], High: dsp.Frequencies[hi]})
}

// barWidth scales mag against rangeMax to at most width cells.
func barWidth(mag, rangeMax float64, width int) int {
	if width <= 0 || !(rangeMax > 0) || !(mag > 0) {
		return 0
	}
	n := int(math.Round(mag / rangeMax * float64(width)))
	if n > width {
		return width
	}
	return n
}
