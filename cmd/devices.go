package cmd

import (
	"fmt"
	"io"

	"github.com/gen2brain/malgo"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/dtmfscope/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio playback and capture devices",
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

// deviceLister is the part of an audio device needed for enumeration
type deviceLister interface {
	Init() error
	ListDevices() ([]malgo.DeviceInfo, error)
	Close() error
}

func runDevices(cmd *cobra.Command, _ []string) error {
	settings, log, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	playback := audio.NewPlayback(settings.PlaybackConfig(), nil)
	playback.SetLogger(log)
	capture := audio.New(settings.CaptureConfig())
	capture.SetLogger(log)

	out := cmd.OutOrStdout()
	if err := listDevices(out, "Playback devices", playback); err != nil {
		return err
	}
	return listDevices(out, "Capture devices", capture)
}

func listDevices(out io.Writer, title string, d deviceLister) error {
	defer d.Close()

	if err := d.Init(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	infos, err := d.ListDevices()
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}

	fmt.Fprintf(out, "%s:\n", title)
	if len(infos) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for i, info := range infos {
		fmt.Fprintf(out, "  [%d] %s\n", i, info.Name())
	}
	return nil
}
