package tone

import (
	"errors"
	"testing"
)

func TestLookup_KeypadTable(t *testing.T) {
	tests := []struct {
		key  rune
		low  float64
		high float64
	}{
		{'1', 697, 1209}, {'2', 697, 1336}, {'3', 697, 1477}, {'A', 697, 1633},
		{'4', 770, 1209}, {'5', 770, 1336}, {'6', 770, 1477}, {'B', 770, 1633},
		{'7', 852, 1209}, {'8', 852, 1336}, {'9', 852, 1477}, {'C', 852, 1633},
		{'*', 941, 1209}, {'0', 941, 1336}, {'#', 941, 1477}, {'D', 941, 1633},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			p, err := Lookup(tt.key)
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tt.key, err)
			}
			if p.Low != tt.low || p.High != tt.high {
				t.Errorf("Lookup(%q) = %+v, want {%v %v}", tt.key, p, tt.low, tt.high)
			}
		})
	}
}

func TestLookup_LowerCaseLetters(t *testing.T) {
	for _, k := range "abcd" {
		lower, err := Lookup(k)
		if err != nil {
			t.Fatalf("Lookup(%q) error = %v", k, err)
		}
		upper, _ := Lookup(k - 'a' + 'A')
		if lower != upper {
			t.Errorf("Lookup(%q) = %+v, upper case gives %+v", k, lower, upper)
		}
	}
}

func TestLookup_InvalidKeys(t *testing.T) {
	for _, k := range []rune{'E', 'x', ' ', 0, '+', 'é'} {
		_, err := Lookup(k)
		if !errors.Is(err, ErrInvalidFrequency) {
			t.Errorf("Lookup(%q) error = %v, want ErrInvalidFrequency", k, err)
		}
	}
}

func TestKey_ReverseLookup(t *testing.T) {
	for _, row := range Keypad {
		for _, k := range row {
			p, _ := Lookup(k)
			got, ok := Key(p)
			if !ok || got != k {
				t.Errorf("Key(%+v) = %q, %v; want %q, true", p, got, ok, k)
			}
		}
	}

	if _, ok := Key(Pair{}); ok {
		t.Error("Key(silence) reported a key")
	}
	if _, ok := Key(Pair{Low: 697, High: 941}); ok {
		t.Error("Key of two low-group tones reported a key")
	}
}

func TestPair_Silent(t *testing.T) {
	if !(Pair{}).Silent() {
		t.Error("zero Pair is not silent")
	}
	if (Pair{Low: 697, High: 1209}).Silent() {
		t.Error("active Pair reported silent")
	}
}
