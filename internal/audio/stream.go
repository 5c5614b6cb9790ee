package audio

import (
	"io"
	"math"

	"github.com/faiface/beep"
)

const pcmScale = math.MaxInt16

// SamplesStreamer streams a finite recording once.
func SamplesStreamer(samples []int16) beep.Streamer {
	return beep.StreamerFunc(func(out [][2]float64) (n int, ok bool) {
		if len(samples) == 0 {
			return 0, false
		}
		n = copy2(out, samples)
		samples = samples[n:]
		return n, true
	})
}

func copy2(out [][2]float64, samples []int16) int {
	n := len(out)
	if len(samples) < n {
		n = len(samples)
	}
	for i := 0; i < n; i++ {
		f := float64(samples[i]) / pcmScale
		out[i] = [2]float64{f, f}
	}
	return n
}

// StreamerSource reads a beep.Streamer as mono 16-bit blocks for the
// scheduler. Stereo input is averaged.
type StreamerSource struct {
	streamer beep.Streamer
	buf      [][2]float64
}

// NewStreamerSource wraps s
func NewStreamerSource(s beep.Streamer) *StreamerSource {
	return &StreamerSource{streamer: s}
}

// Next returns up to n samples, then io.EOF or the streamer's error.
func (s *StreamerSource) Next(n int) ([]int16, error) {
	if cap(s.buf) < n {
		s.buf = make([][2]float64, n)
	}
	buf := s.buf[:n]

	filled := 0
	for filled < n {
		k, ok := s.streamer.Stream(buf[filled:])
		filled += k
		if !ok || k == 0 {
			break
		}
	}

	if filled == 0 {
		if err := s.streamer.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	block := make([]int16, filled)
	for i := range block {
		block[i] = floatToPCM((buf[i][0] + buf[i][1]) / 2)
	}
	return block, nil
}

func floatToPCM(v float64) int16 {
	v = math.Round(v * pcmScale)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
