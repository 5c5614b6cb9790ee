package cmd

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfscope/internal/recovery"
	"github.com/ColonelBlimp/dtmfscope/internal/ui"
)

// frameRate is how often the board redraws
const frameRate = 30

var keypadCmd = &cobra.Command{
	Use:   "keypad",
	Short: "Interactive keypad with live frequency meters",
	Long: `Opens a terminal keypad. Each key press plays its DTMF pair for key_hold_ms
while eight meters show the magnitudes measured from the loopback or the
capture device.`,
	Args: cobra.NoArgs,
	RunE: runKeypad,
}

func runKeypad(cmd *cobra.Command, _ []string) error {
	settings, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ss, err := newSession(settings, log)
	if err != nil {
		return err
	}
	defer ss.close()

	// logs would scribble over the board; hold them until the terminal
	// is restored
	var held bytes.Buffer
	log.SetOutput(&held)
	defer func() {
		log.SetOutput(cmd.ErrOrStderr())
		_, _ = cmd.ErrOrStderr().Write(held.Bytes())
	}()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()

	board := ui.NewBoard(screen, ss.gen, settings.KeyHold(), settings.MeterRange)
	ss.sched.SetCallback(board.Update)

	if err := ss.start(ctx, cancel); err != nil {
		return err
	}

	return recovery.Guard(func() error {
		return board.Run(ctx, time.Second/frameRate)
	})
}
