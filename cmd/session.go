// cmd/session.go
package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfscope/internal/audio"
	"github.com/ColonelBlimp/dtmfscope/internal/codec"
	"github.com/ColonelBlimp/dtmfscope/internal/config"
	"github.com/ColonelBlimp/dtmfscope/internal/metrics"
	"github.com/ColonelBlimp/dtmfscope/internal/recovery"
	"github.com/ColonelBlimp/dtmfscope/internal/scheduler"
	"github.com/ColonelBlimp/dtmfscope/internal/tone"
)

// loopbackTicks is how many ticks of samples the loopback holds before
// dropping the oldest
const loopbackTicks = 50

// loadSettings reads and validates config and builds the logger.
func loadSettings(cmd *cobra.Command) (*config.Settings, *logrus.Logger, error) {
	settings, err := config.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := settings.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return settings, log, nil
}

// newGenerator creates a started generator for settings
func newGenerator(s *config.Settings) (*tone.Generator, error) {
	gen, err := tone.NewGenerator(s.SampleRate, s.Amplitude)
	if err != nil {
		return nil, err
	}
	if err := gen.Start(); err != nil {
		return nil, err
	}
	return gen, nil
}

// session is the live pipeline: the generator feeds the playback device,
// the loopback collects what is played (or captured) and the scheduler
// measures it every tick.
type session struct {
	settings *config.Settings
	log      logrus.FieldLogger

	gen      *tone.Generator
	playback *audio.Playback
	capture  *audio.Capture
	loopback *scheduler.Loopback
	sched    *scheduler.Scheduler
	registry *prometheus.Registry
}

func newSession(s *config.Settings, log logrus.FieldLogger) (*session, error) {
	gen, err := newGenerator(s)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	c, err := codec.New(s.Codec)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	loop := scheduler.NewLoopback(loopbackTicks*s.BlockSize(), c)
	loop.SetDropFunc(m.DropSamples)

	sched, err := scheduler.New(s.SchedulerConfig(), loop,
		scheduler.WithLogger(log),
		scheduler.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	ss := &session{
		settings: s,
		log:      log,
		gen:      gen,
		loopback: loop,
		sched:    sched,
		registry: registry,
	}

	ss.playback = audio.NewPlayback(s.PlaybackConfig(), gen)
	ss.playback.SetLogger(log)

	switch s.InputMode {
	case config.ModeCapture:
		ss.capture = audio.New(s.CaptureConfig())
		ss.capture.SetLogger(log)
		ss.capture.SetCallback(loop.Push)
	default:
		ss.playback.SetTap(loop.Push)
	}

	return ss, nil
}

// start opens the devices, then runs the scheduler and the optional
// metrics endpoint until ctx is done. cancel is called if either fails.
func (ss *session) start(ctx context.Context, cancel context.CancelFunc) error {
	if err := ss.playback.Init(); err != nil {
		return fmt.Errorf("audio playback: %w", err)
	}
	if err := ss.playback.Start(ctx); err != nil {
		return fmt.Errorf("audio playback: %w", err)
	}

	if ss.capture != nil {
		if err := ss.capture.Init(); err != nil {
			return fmt.Errorf("audio capture: %w", err)
		}
		if err := ss.capture.Start(ctx); err != nil {
			return fmt.Errorf("audio capture: %w", err)
		}
	}

	if addr := ss.settings.MetricsAddr; addr != "" {
		recovery.Go(func() {
			if err := metrics.Serve(ctx, addr, ss.registry, ss.log); err != nil {
				ss.log.WithError(err).Error("metrics server stopped")
				cancel()
			}
		}, cancel)
	}

	recovery.Go(func() {
		_ = ss.sched.Run(ctx)
	}, cancel)

	ss.log.WithFields(logrus.Fields{
		"mode":       ss.settings.InputMode,
		"codec":      ss.settings.Codec,
		"block_size": ss.sched.BlockSize(),
	}).Info("session started")
	return nil
}

// close silences the generator and releases the devices.
func (ss *session) close() {
	ss.gen.Silence()
	if ss.capture != nil {
		if err := ss.capture.Close(); err != nil {
			ss.log.WithError(err).Warn("close capture")
		}
	}
	if err := ss.playback.Close(); err != nil {
		ss.log.WithError(err).Warn("close playback")
	}
	if err := ss.gen.Stop(); err != nil {
		ss.log.WithError(err).Debug("stop generator")
	}
	if dropped := ss.loopback.Dropped(); dropped > 0 {
		ss.log.WithField("samples", dropped).Warn("loopback overflowed")
	}

	fields := logrus.Fields{
		"ticks":     ss.sched.Ticks(),
		"underruns": ss.playback.Underruns(),
		"pending":   ss.loopback.Buffered(),
	}
	if ss.capture != nil {
		fields["captured"] = ss.capture.Received()
	}
	ss.log.WithFields(fields).Info("session closed")
}
