package tone

import (
	"fmt"
	"unicode"
)

// Low-group (row) and high-group (column) DTMF frequencies in Hz
var (
	RowFrequencies    = [4]float64{697, 770, 852, 941}
	ColumnFrequencies = [4]float64{1209, 1336, 1477, 1633}
)

// Keypad is the standard 4x4 DTMF layout, indexed [row][column].
var Keypad = [4][4]rune{
	{'1', '2', '3', 'A'},
	{'4', '5', '6', 'B'},
	{'7', '8', '9', 'C'},
	{'*', '0', '#', 'D'},
}

// Pair is a (low, high) frequency pair. The zero Pair is silence.
type Pair struct {
	Low  float64
	High float64
}

// Silent reports whether both lanes are muted
func (p Pair) Silent() bool {
	return p.Low == 0 && p.High == 0
}

// Lookup maps a keypad character to its frequency pair.
// Letters are accepted in either case.
func Lookup(key rune) (Pair, error) {
	key = unicode.ToUpper(key)
	for r, row := range Keypad {
		for c, k := range row {
			if k == key {
				return Pair{Low: RowFrequencies[r], High: ColumnFrequencies[c]}, nil
			}
		}
	}
	return Pair{}, fmt.Errorf("key %q: %w", key, ErrInvalidFrequency)
}

// Key is the reverse of Lookup. ok is false for silence or a non-keypad pair.
func Key(p Pair) (key rune, ok bool) {
	for r, lo := range RowFrequencies {
		if lo != p.Low {
			continue
		}
		for c, hi := range ColumnFrequencies {
			if hi == p.High {
				return Keypad[r][c], true
			}
		}
	}
	return 0, false
}
