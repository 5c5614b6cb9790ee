package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfscope/internal/audio"
	"github.com/ColonelBlimp/dtmfscope/internal/config"
	"github.com/ColonelBlimp/dtmfscope/internal/dsp"
	"github.com/ColonelBlimp/dtmfscope/internal/scheduler"
	"github.com/ColonelBlimp/dtmfscope/internal/ui"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Measure DTMF energy in an audio file tick by tick",
	Long: `Decodes a WAV, MP3, FLAC or Ogg Vorbis file, resamples it to the configured
sample rate and prints the eight Goertzel magnitudes for every tick. The key
column names the strongest row and column tones when both reach --floor.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Float64("floor", dsp.MeterRange/4, "minimum magnitude for the key column")
	analyzeCmd.Flags().Bool("changes", false, "print only ticks where the key column changes")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	settings, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	floor, _ := cmd.Flags().GetFloat64("floor")
	changes, _ := cmd.Flags().GetBool("changes")

	src, closer, err := audio.OpenSource(args[0], int(settings.SampleRate))
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := analyzeSource(cmd.Context(), cmd.OutOrStdout(), settings, log, src, floor, changes); err != nil {
		return fmt.Errorf("analyze %s: %w", args[0], err)
	}
	return nil
}

// analyzeSource drains src and writes one row per tick. Row times come from
// the samples consumed, so a skipped tick does not shift later rows.
func analyzeSource(ctx context.Context, out io.Writer, settings *config.Settings, log logrus.FieldLogger,
	src scheduler.Source, floor float64, changes bool) error {
	var start, consumed int
	offset := scheduler.SinkFunc(func(block []int16) error {
		start = consumed
		consumed += len(block)
		return nil
	})

	sched, err := scheduler.New(settings.SchedulerConfig(), src,
		scheduler.WithSink(offset),
		scheduler.WithLogger(log),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%8s%s  key\n", "ms", ui.Header())

	rate := time.Duration(settings.SampleRate)
	last := rune(-1)
	sched.SetCallback(func(_ uint64, r dsp.Result) {
		key, ok := ui.Guess(r, floor)
		if !ok {
			key = '-'
		}
		if changes && key == last {
			return
		}
		last = key
		at := time.Duration(start) * time.Second / rate
		fmt.Fprintf(out, "%8d%s  %c\n", at.Milliseconds(), ui.FormatResult(r), key)
	})

	if err := sched.Drain(ctx); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"ticks":   sched.Ticks(),
		"samples": consumed,
	}).Debug("analysis finished")
	return nil
}
