//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/ColonelBlimp/dtmfscope/internal/tone"
)

// These tests require actual audio hardware and are skipped by default.
// Run with: go test -tags=integration ./internal/audio

func TestCapture_Init_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	err := capture.Init()
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if capture.ctx == nil {
		t.Error("Init() did not set context")
	}
}

func TestCapture_ListDevices_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	devices, err := capture.ListDevices()
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}

	t.Logf("Found %d capture devices:", len(devices))
	for i, d := range devices {
		t.Logf("  [%d] %s", i, d.Name())
	}
}

func TestCapture_Callback_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	callbackCalled := make(chan int, 1)
	capture.SetCallback(func(block []int16) {
		select {
		case callbackCalled <- len(block):
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case n := <-callbackCalled:
		t.Logf("Callback received %d samples", n)
		if n == 0 {
			t.Error("Received empty sample block")
		}
	case <-ctx.Done():
		t.Error("Timeout waiting for callback")
	}
}

func TestCapture_ContextCancellation_Integration(t *testing.T) {
	capture := New(DefaultConfig())
	defer capture.Close()

	if err := capture.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := capture.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !capture.IsRunning() {
		t.Error("IsRunning() = false after Start()")
	}

	cancel()

	// Give goroutine time to handle cancellation
	time.Sleep(100 * time.Millisecond)

	if capture.IsRunning() {
		t.Error("IsRunning() = true after context cancellation")
	}
}

func TestPlayback_Tap_Integration(t *testing.T) {
	g, err := tone.NewGenerator(float64(DefaultConfig().SampleRate), tone.DefaultAmplitude)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := g.SetKey('5'); err != nil {
		t.Fatalf("SetKey() error = %v", err)
	}

	pb := NewPlayback(DefaultConfig(), g)
	defer pb.Close()

	if err := pb.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tapped := make(chan struct{}, 1)
	pb.SetTap(func([]int16) {
		select {
		case tapped <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := pb.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-tapped:
	case <-ctx.Done():
		t.Error("Timeout waiting for playback tap")
	}

	if pb.Underruns() != 0 {
		t.Errorf("Underruns() = %d with a running generator", pb.Underruns())
	}
}
