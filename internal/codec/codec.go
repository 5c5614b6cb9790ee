// Package codec simulates telephony transport of 16-bit PCM on the loopback path.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zaf/g711"
)

// Codec names accepted in config (key: codec)
const (
	NameNone = "none"
	NameULaw = "ulaw"
	NameALaw = "alaw"
)

// ErrUnknownCodec indicates an unsupported codec name
var ErrUnknownCodec = errors.New("unknown codec")

// Codec converts PCM blocks to a wire format and back.
type Codec interface {
	Name() string
	Encode(block []int16) []byte
	Decode(frames []byte) []int16
}

// New returns the codec registered under name
func New(name string) (Codec, error) {
	switch name {
	case NameNone, "":
		return Linear{}, nil
	case NameULaw:
		return ULaw{}, nil
	case NameALaw:
		return ALaw{}, nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownCodec)
	}
}

// RoundTrip encodes and decodes block, returning what a receiver would hear.
func RoundTrip(c Codec, block []int16) []int16 {
	return c.Decode(c.Encode(block))
}

// Linear is 16-bit little-endian PCM, lossless.
type Linear struct{}

func (Linear) Name() string { return NameNone }

func (Linear) Encode(block []int16) []byte {
	out := make([]byte, 2*len(block))
	for i, s := range block {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func (Linear) Decode(frames []byte) []int16 {
	out := make([]int16, len(frames)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(frames[2*i:]))
	}
	return out
}

// ULaw is G.711 mu-law, one byte per sample.
type ULaw struct{}

func (ULaw) Name() string { return NameULaw }

func (ULaw) Encode(block []int16) []byte {
	out := make([]byte, len(block))
	for i, s := range block {
		out[i] = g711.EncodeUlawFrame(s)
	}
	return out
}

func (ULaw) Decode(frames []byte) []int16 {
	out := make([]int16, len(frames))
	for i, f := range frames {
		out[i] = g711.DecodeUlawFrame(f)
	}
	return out
}

// ALaw is G.711 A-law, one byte per sample.
type ALaw struct{}

func (ALaw) Name() string { return NameALaw }

func (ALaw) Encode(block []int16) []byte {
	out := make([]byte, len(block))
	for i, s := range block {
		out[i] = g711.EncodeAlawFrame(s)
	}
	return out
}

func (ALaw) Decode(frames []byte) []int16 {
	out := make([]int16, len(frames))
	for i, f := range frames {
		out[i] = g711.DecodeAlawFrame(f)
	}
	return out
}
