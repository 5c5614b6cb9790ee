package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfscope/internal/audio"
	"github.com/ColonelBlimp/dtmfscope/internal/scheduler"
	"github.com/ColonelBlimp/dtmfscope/internal/tone"
)

var renderCmd = &cobra.Command{
	Use:   "render <keys>",
	Short: "Render a dial sequence to a WAV file",
	Long: `Renders keys (0-9, *, #, A-D; ',' pauses) as 16-bit mono WAV at the
configured sample rate, using key_hold_ms and key_gap_ms for timing.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("output", "o", "dtmf.wav", "output WAV file")
}

func runRender(cmd *cobra.Command, args []string) error {
	settings, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	steps, err := tone.ParseSequence(args[0], settings.KeyHold(), settings.KeyGap())
	if err != nil {
		return err
	}

	gen, err := newGenerator(settings)
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	defer gen.Stop()

	// pull the sequence tick by tick, collecting every block the
	// scheduler analyses
	seq := tone.NewSequence(gen, steps)
	samples := make([]int16, 0, seq.Samples())
	collect := scheduler.SinkFunc(func(block []int16) error {
		samples = append(samples, block...)
		return nil
	})

	sched, err := scheduler.New(settings.SchedulerConfig(), scheduler.NewGeneratorSource(seq),
		scheduler.WithSink(collect),
		scheduler.WithLogger(log),
	)
	if err != nil {
		return err
	}
	if err := sched.Drain(cmd.Context()); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := audio.WriteWAV(f, samples, int(settings.SampleRate)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	duration := time.Duration(float64(len(samples)) / settings.SampleRate * float64(time.Second))
	log.WithFields(logrus.Fields{
		"steps": len(steps),
		"ticks": sched.Ticks(),
	}).Debug("rendered")
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d samples (%v) to %s\n", len(samples), duration.Round(time.Millisecond), output)
	return nil
}
