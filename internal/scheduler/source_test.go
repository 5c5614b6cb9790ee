package scheduler

import (
	"io"
	"sync"
	"testing"

	"github.com/ColonelBlimp/dtmfscope/internal/codec"
)

func seq(from, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(from + i)
	}
	return out
}

func TestLoopback_AccumulatesAnySize(t *testing.T) {
	lb := NewLoopback(1000, nil)
	lb.Push(seq(0, 96))
	lb.Push(seq(96, 3))
	lb.Push(nil)
	lb.Push(seq(99, 1))

	if lb.Buffered() != 100 {
		t.Errorf("Buffered() = %d, want 100", lb.Buffered())
	}

	block, err := lb.Next(80)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(block) != 100 {
		t.Fatalf("Next returned %d samples, want all 100", len(block))
	}
	for i, s := range block {
		if s != int16(i) {
			t.Fatalf("sample %d = %d, order not preserved", i, s)
		}
	}

	block, err = lb.Next(80)
	if err != nil || block != nil {
		t.Errorf("second Next = %v, %v; want nil, nil", block, err)
	}
}

func TestLoopback_NextReturnsCopy(t *testing.T) {
	lb := NewLoopback(100, nil)
	lb.Push(seq(0, 10))
	block, _ := lb.Next(10)

	lb.Push(seq(50, 10))
	if block[0] != 0 {
		t.Errorf("returned block was overwritten by a later push: %v", block)
	}
}

func TestLoopback_OverflowDropsOldest(t *testing.T) {
	lb := NewLoopback(100, nil)

	var reported int
	lb.SetDropFunc(func(n int) { reported += n })

	lb.Push(seq(0, 80))
	lb.Push(seq(80, 80))

	if lb.Dropped() != 60 || reported != 60 {
		t.Errorf("Dropped() = %d, reported %d; want 60", lb.Dropped(), reported)
	}

	block, _ := lb.Next(0)
	if len(block) != 100 || block[0] != 60 || block[99] != 159 {
		t.Errorf("kept %d samples [%d..%d], want 100 samples [60..159]", len(block), block[0], block[len(block)-1])
	}
}

func TestLoopback_OversizedPush(t *testing.T) {
	lb := NewLoopback(50, nil)
	lb.Push(seq(0, 120))

	block, _ := lb.Next(0)
	if len(block) != 50 || block[0] != 70 {
		t.Errorf("kept %d samples from %d, want 50 from 70", len(block), block[0])
	}
	if lb.Dropped() != 70 {
		t.Errorf("Dropped() = %d, want 70", lb.Dropped())
	}
}

func TestLoopback_AppliesCodec(t *testing.T) {
	lb := NewLoopback(100, codec.ULaw{})
	in := []int16{0, 1000, -1000, 30000}
	lb.Push(in)

	block, _ := lb.Next(0)
	want := codec.RoundTrip(codec.ULaw{}, in)
	for i := range want {
		if block[i] != want[i] {
			t.Errorf("sample %d = %d, want companded %d", i, block[i], want[i])
		}
	}
}

func TestLoopback_ConcurrentPushAndNext(t *testing.T) {
	lb := NewLoopback(10000, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			lb.Push(seq(0, 80))
		}
	}()

	total := 0
	for total < 8000 {
		block, _ := lb.Next(80)
		total += len(block)
	}
	wg.Wait()

	if total != 8000 || lb.Dropped() != 0 {
		t.Errorf("received %d samples with %d dropped, want 8000 and 0", total, lb.Dropped())
	}
}

func TestSliceSource(t *testing.T) {
	src := newSliceSource(seq(0, 200))

	sizes := []int{}
	for {
		block, err := src.Next(80)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		sizes = append(sizes, len(block))
	}

	want := []int{80, 80, 40}
	if len(sizes) != len(want) {
		t.Fatalf("block sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("block %d has %d samples, want %d", i, sizes[i], want[i])
		}
	}
}

func TestGeneratorSource(t *testing.T) {
	g := createTestGenerator(t, '3')
	src := NewGeneratorSource(g)

	for _, n := range []int{80, 96, 1} {
		block, err := src.Next(n)
		if err != nil {
			t.Fatalf("Next(%d) failed: %v", n, err)
		}
		if len(block) != n {
			t.Errorf("Next(%d) returned %d samples", n, len(block))
		}
	}
}

// sliceSource serves a finite recording n samples at a time.
type sliceSource struct {
	samples []int16
	pos     int
}

// newSliceSource wraps samples without copying
func newSliceSource(samples []int16) *sliceSource {
	return &sliceSource{samples: samples}
}

// Next returns up to n samples, then io.EOF
func (s *sliceSource) Next(n int) ([]int16, error) {
	if s.pos >= len(s.samples) {
		return nil, io.EOF
	}
	end := s.pos + n
	if end > len(s.samples) {
		end = len(s.samples)
	}
	block := s.samples[s.pos:end]
	s.pos = end
	return block, nil
}
