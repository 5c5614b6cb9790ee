package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfscope/internal/dsp"
	"github.com/ColonelBlimp/dtmfscope/internal/tone"
	"github.com/ColonelBlimp/dtmfscope/internal/ui"
)

var dialCmd = &cobra.Command{
	Use:   "dial <keys>",
	Short: "Play a dial sequence through the speaker",
	Long: `Plays keys (0-9, *, #, A-D; ',' pauses) in real time. The played or captured
signal is analyzed every tick; --print writes each result as a row.`,
	Args: cobra.ExactArgs(1),
	RunE: runDial,
}

func init() {
	dialCmd.Flags().Bool("print", false, "print the magnitudes of every tick")
}

func runDial(cmd *cobra.Command, args []string) error {
	settings, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	printRows, _ := cmd.Flags().GetBool("print")

	steps, err := tone.ParseSequence(args[0], settings.KeyHold(), settings.KeyGap())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ss, err := newSession(settings, log)
	if err != nil {
		return err
	}
	defer ss.close()

	if printRows {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Header())
		ss.sched.SetCallback(func(_ uint64, r dsp.Result) {
			fmt.Fprintln(out, ui.FormatResult(r))
		})
	}

	if err := ss.start(ctx, cancel); err != nil {
		return err
	}

	dialer := tone.NewDialer(ss.gen, func(step tone.Step) {
		log.WithFields(logrus.Fields{
			"key":      keyName(step.Key),
			"duration": step.Duration,
		}).Debug("step")
	})
	if err := dialer.Play(ctx, steps); err != nil && ctx.Err() == nil {
		return err
	}

	// let the last blocks reach the detector
	time.Sleep(2 * settings.TickPeriod())
	return nil
}

func keyName(k rune) string {
	if k == 0 {
		return "pause"
	}
	return string(k)
}
