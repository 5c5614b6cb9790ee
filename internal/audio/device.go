// internal/audio/device.go
package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotInitialized = errors.New("audio device not initialized")
	ErrAlreadyRunning = errors.New("audio device already running")
	ErrNotRunning     = errors.New("audio device not running")
)

// Config holds audio device configuration. Devices are always mono S16.
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // e.g., 8000
	BufferSize  uint32 // frames per callback
}

// DefaultConfig returns 8 kHz with one 10 ms period per callback
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  8000,
		BufferSize:  80,
	}
}

// SampleCallback is called directly from the audio thread with a block of
// samples. It must be non-blocking and must not retain the slice.
type SampleCallback func(block []int16)

// device is the malgo lifecycle shared by Capture and Playback.
type device struct {
	kind    malgo.DeviceType
	config  Config
	log     logrus.FieldLogger
	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	dev     *malgo.Device
	running atomic.Bool
}

func (d *device) setup(kind malgo.DeviceType, cfg Config) {
	d.kind = kind
	d.config = cfg
	d.log = logrus.StandardLogger()
}

// SetLogger replaces the logger. Set before Init.
func (d *device) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		d.log = log
	}
}

// Init initializes the audio backend
func (d *device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		d.log.WithField("backend", "malgo").Debug(message)
	})
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	d.ctx = ctx

	return nil
}

// ListDevices returns available devices of this direction
func (d *device) ListDevices() ([]malgo.DeviceInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.listDevicesLocked()
}

func (d *device) listDevicesLocked() ([]malgo.DeviceInfo, error) {
	if d.ctx == nil {
		return nil, ErrNotInitialized
	}

	infos, err := d.ctx.Devices(d.kind)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	return infos, nil
}

// start opens the device with onData as its callback and stops it when
// ctx is cancelled.
func (d *device) start(ctx context.Context, onData malgo.DataProc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return ErrAlreadyRunning
	}
	if d.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DefaultDeviceConfig(d.kind)
	deviceConfig.SampleRate = d.config.SampleRate
	deviceConfig.PeriodSizeInFrames = d.config.BufferSize

	sub := malgo.SubConfig{
		Format:   malgo.FormatS16,
		Channels: 1,
	}

	// Select specific device if requested
	if d.config.DeviceIndex >= 0 {
		devices, err := d.listDevicesLocked()
		if err != nil {
			return err
		}
		if d.config.DeviceIndex >= len(devices) {
			return fmt.Errorf("device index %d out of range (have %d devices)",
				d.config.DeviceIndex, len(devices))
		}
		sub.DeviceID = devices[d.config.DeviceIndex].ID.Pointer()
	}

	if d.kind == malgo.Playback {
		deviceConfig.Playback = sub
	} else {
		deviceConfig.Capture = sub
	}

	dev, err := malgo.InitDevice(d.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onData})
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}

	if err := dev.Start(); err != nil {
		dev.Uninit()
		return fmt.Errorf("start device: %w", err)
	}

	d.dev = dev
	d.running.Store(true)
	d.log.WithFields(logrus.Fields{
		"kind":        kindName(d.kind),
		"sample_rate": d.config.SampleRate,
		"buffer_size": d.config.BufferSize,
	}).Info("audio device started")

	// Wait for context cancellation
	go func() {
		<-ctx.Done()
		_ = d.Stop()
	}()

	return nil
}

// Stop stops the device
func (d *device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return ErrNotRunning
	}

	d.stopLocked()
	d.log.WithField("kind", kindName(d.kind)).Info("audio device stopped")
	return nil
}

func (d *device) stopLocked() {
	if d.dev != nil {
		_ = d.dev.Stop()
		d.dev.Uninit()
		d.dev = nil
	}
	d.running.Store(false)
}

// Close releases all audio resources
func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		d.stopLocked()
	}

	if d.ctx != nil {
		if err := d.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		d.ctx.Free()
		d.ctx = nil
	}
	return nil
}

// IsRunning returns true if the device is active
func (d *device) IsRunning() bool {
	return d.running.Load()
}

func kindName(k malgo.DeviceType) string {
	switch k {
	case malgo.Playback:
		return "playback"
	case malgo.Capture:
		return "capture"
	default:
		return "duplex"
	}
}

// bytesToInt16 converts little-endian S16 bytes to samples
func bytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}
	return samples
}

// putInt16 writes samples into out as little-endian S16
func putInt16(out []byte, samples []int16) {
	for i, s := range samples {
		out[2*i] = byte(s)
		out[2*i+1] = byte(uint16(s) >> 8)
	}
}
