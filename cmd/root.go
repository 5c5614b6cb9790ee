// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/ColonelBlimp/dtmfscope/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "dtmfscope",
	Short: "DTMF tone generator and Goertzel analyzer",
	Long: `Plays DTMF key tones and measures the energy at each of the eight DTMF
frequencies with a Goertzel filter bank, live from the speaker loopback or an
input device, or offline from an audio file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("device", "d", -1, "capture device index (-1 for default)")
	rootCmd.PersistentFlags().Int("playback-device", -1, "playback device index (-1 for default)")
	rootCmd.PersistentFlags().StringP("mode", "m", config.ModeLoopback, "analysis input: loopback or capture")
	rootCmd.PersistentFlags().StringP("codec", "c", "none", "loopback line codec: none, ulaw or alaw")
	rootCmd.PersistentFlags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	rootCmd.AddCommand(keypadCmd, dialCmd, renderCmd, analyzeCmd, devicesCmd)
}

// bindFlags ties the global flags to their config keys. Done on every
// initialization so a viper reset does not lose the overrides.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	viper.BindPFlag("capture_device_index", flags.Lookup("device"))
	viper.BindPFlag("playback_device_index", flags.Lookup("playback-device"))
	viper.BindPFlag("input_mode", flags.Lookup("mode"))
	viper.BindPFlag("codec", flags.Lookup("codec"))
	viper.BindPFlag("metrics_addr", flags.Lookup("metrics-addr"))
	viper.BindPFlag("debug", flags.Lookup("debug"))
}

func initConfig() {
	bindFlags()
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
