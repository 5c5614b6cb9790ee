package audio

import (
	"context"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeviceIndex != -1 {
		t.Errorf("DefaultConfig().DeviceIndex = %d, want -1", cfg.DeviceIndex)
	}
	if cfg.SampleRate != 8000 {
		t.Errorf("DefaultConfig().SampleRate = %d, want 8000", cfg.SampleRate)
	}
	if cfg.BufferSize != 80 {
		t.Errorf("DefaultConfig().BufferSize = %d, want 80", cfg.BufferSize)
	}
}

func TestNew(t *testing.T) {
	cfg := Config{
		DeviceIndex: 2,
		SampleRate:  44100,
		BufferSize:  441,
	}

	capture := New(cfg)

	if capture == nil {
		t.Fatal("New() returned nil")
	}
	if capture.config.DeviceIndex != 2 {
		t.Errorf("capture.config.DeviceIndex = %d, want 2", capture.config.DeviceIndex)
	}
	if capture.config.SampleRate != 44100 {
		t.Errorf("capture.config.SampleRate = %d, want 44100", capture.config.SampleRate)
	}
	if kindName(capture.kind) != "capture" {
		t.Errorf("capture kind = %s, want capture", kindName(capture.kind))
	}
}

func TestCapture_IsRunning_InitialState(t *testing.T) {
	capture := New(DefaultConfig())

	if capture.IsRunning() {
		t.Error("IsRunning() = true for new capture, want false")
	}
}

func TestCapture_SetCallback(t *testing.T) {
	capture := New(DefaultConfig())

	capture.SetCallback(func(block []int16) {})

	if capture.callbackPtr.Load() == nil {
		t.Error("SetCallback() did not set callback")
	}
}

func TestCapture_SetCallback_Nil(t *testing.T) {
	capture := New(DefaultConfig())

	capture.SetCallback(func(block []int16) {})
	capture.SetCallback(nil)

	if capture.callbackPtr.Load() != nil {
		t.Error("SetCallback(nil) should clear callback")
	}
}

func TestCapture_OnFrames(t *testing.T) {
	capture := New(DefaultConfig())

	var got []int16
	capture.SetCallback(func(block []int16) {
		got = append(got, block...)
	})

	// 1, -1, 32767, -32768 as little-endian S16
	capture.onFrames(nil, []byte{0x01, 0x00, 0xFF, 0xFF, 0xFF, 0x7F, 0x00, 0x80}, 4)

	want := []int16{1, -1, 32767, -32768}
	if len(got) != len(want) {
		t.Fatalf("callback got %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], want[i])
		}
	}
	if capture.Received() != 4 {
		t.Errorf("Received() = %d, want 4", capture.Received())
	}
}

func TestCapture_OnFrames_Empty(t *testing.T) {
	capture := New(DefaultConfig())

	called := false
	capture.SetCallback(func(block []int16) { called = true })
	capture.onFrames(nil, nil, 0)

	if called {
		t.Error("callback invoked for an empty buffer")
	}
}

func TestCapture_ListDevices_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	_, err := capture.ListDevices()
	if err != ErrNotInitialized {
		t.Errorf("ListDevices() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	err := capture.Start(context.Background())
	if err != ErrNotInitialized {
		t.Errorf("Start() error = %v, want ErrNotInitialized", err)
	}
}

func TestCapture_Start_AlreadyRunning(t *testing.T) {
	capture := New(DefaultConfig())

	// Manually set running state to simulate already running
	capture.running.Store(true)

	err := capture.Start(context.Background())
	if err != ErrAlreadyRunning {
		t.Errorf("Start() when running error = %v, want ErrAlreadyRunning", err)
	}
}

func TestCapture_Stop_NotRunning(t *testing.T) {
	capture := New(DefaultConfig())

	err := capture.Stop()
	if err != ErrNotRunning {
		t.Errorf("Stop() error = %v, want ErrNotRunning", err)
	}
}

func TestCapture_Close_NotInitialized(t *testing.T) {
	capture := New(DefaultConfig())

	if err := capture.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestBytesToInt16_Empty(t *testing.T) {
	result := bytesToInt16([]byte{})
	if len(result) != 0 {
		t.Errorf("bytesToInt16(empty) length = %d, want 0", len(result))
	}
}

func TestBytesToInt16_OddLength(t *testing.T) {
	// Trailing half sample is dropped
	result := bytesToInt16([]byte{0x34, 0x12, 0xFF})

	if len(result) != 1 {
		t.Fatalf("bytesToInt16(3 bytes) length = %d, want 1", len(result))
	}
	if result[0] != 0x1234 {
		t.Errorf("bytesToInt16(3 bytes)[0] = %#x, want 0x1234", result[0])
	}
}

func TestPutInt16_RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 12345, -12345, 32767, -32768}
	out := make([]byte, 2*len(samples))

	putInt16(out, samples)
	back := bytesToInt16(out)

	for i := range samples {
		if back[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, back[i], samples[i])
		}
	}
}
