// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/dtmfscope/internal/audio"
	"github.com/ColonelBlimp/dtmfscope/internal/codec"
	"github.com/ColonelBlimp/dtmfscope/internal/dsp"
	"github.com/ColonelBlimp/dtmfscope/internal/scheduler"
)

const (
	AppName       = "dtmfscope"
	ConfigType    = "yaml"
	DefaultConfig = `# DTMF Scope Configuration

# Audio devices
capture_device_index: -1   # -1 for default device ('dtmfscope devices' lists them)
playback_device_index: -1  # -1 for default device
sample_rate: 8000          # Hz, shared by generator, devices and detector
buffer_size: 80            # device period in frames

# Analysis
tick_ms: 10                # scheduler period; block size = sample_rate * tick_ms / 1000
input_mode: "loopback"     # loopback = analyze what is played, capture = analyze the input device
codec: "none"              # none, ulaw or alaw applied on the loopback path

# Tone generation
amplitude: 16383           # peak per tone, two tones sum to at most 32766
key_hold_ms: 120           # tone length for keypad presses and dial sequences
key_gap_ms: 80             # silence between dialed keys

# Presentation
meter_range: 10000         # magnitude that fills a meter bar

# Observability
metrics_addr: ""           # e.g. ":9464" to expose /metrics, empty to disable
log_level: "info"          # trace, debug, info, warn, error
debug: false               # shorthand for log_level debug
`
)

// Input modes
const (
	ModeLoopback = "loopback"
	ModeCapture  = "capture"
)

// Lowest sample rate that keeps every DTMF frequency below Nyquist
const minSampleRate = 2*1633 + 1

// Settings holds all application configuration
type Settings struct {
	// Audio devices
	CaptureDeviceIndex  int     `mapstructure:"capture_device_index"`
	PlaybackDeviceIndex int     `mapstructure:"playback_device_index"`
	SampleRate          float64 `mapstructure:"sample_rate"`
	BufferSize          int     `mapstructure:"buffer_size"`

	// Analysis
	TickMS    int    `mapstructure:"tick_ms"`
	InputMode string `mapstructure:"input_mode"`
	Codec     string `mapstructure:"codec"`

	// Tone generation
	Amplitude float64 `mapstructure:"amplitude"`
	KeyHoldMS int     `mapstructure:"key_hold_ms"`
	KeyGapMS  int     `mapstructure:"key_gap_ms"`

	// Presentation
	MeterRange float64 `mapstructure:"meter_range"`

	// Observability
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`
	Debug       bool   `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/dtmfscope/
func Init() error {
	setDefaults()

	// Support both config.yaml and .config.yaml
	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config found - create default in ~/.config/dtmfscope/
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("capture_device_index", -1)
	viper.SetDefault("playback_device_index", -1)
	viper.SetDefault("sample_rate", 8000)
	viper.SetDefault("buffer_size", 80)
	viper.SetDefault("tick_ms", 10)
	viper.SetDefault("input_mode", ModeLoopback)
	viper.SetDefault("codec", codec.NameNone)
	viper.SetDefault("amplitude", 16383)
	viper.SetDefault("key_hold_ms", 120)
	viper.SetDefault("key_gap_ms", 80)
	viper.SetDefault("meter_range", dsp.MeterRange)
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("debug", false)
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Audio devices
	if s.CaptureDeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("capture_device_index must be -1 or a device index, got %d", s.CaptureDeviceIndex))
	}
	if s.PlaybackDeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("playback_device_index must be -1 or a device index, got %d", s.PlaybackDeviceIndex))
	}
	if s.SampleRate < minSampleRate || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between %d and 192000 Hz, got %v", minSampleRate, s.SampleRate))
	}
	if s.BufferSize < 16 || s.BufferSize > 8192 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 16 and 8192, got %d", s.BufferSize))
	}

	// Analysis
	if s.TickMS < 1 || s.TickMS > 1000 {
		errs = append(errs, fmt.Errorf("tick_ms must be between 1 and 1000, got %d", s.TickMS))
	} else if s.BlockSize() < 1 {
		errs = append(errs, fmt.Errorf("tick_ms %d at %v Hz yields no samples per tick", s.TickMS, s.SampleRate))
	}
	if s.InputMode != ModeLoopback && s.InputMode != ModeCapture {
		errs = append(errs, fmt.Errorf("input_mode must be %s or %s, got %q", ModeLoopback, ModeCapture, s.InputMode))
	}
	if _, err := codec.New(s.Codec); err != nil {
		errs = append(errs, fmt.Errorf("codec: %w", err))
	}

	// Tone generation
	if s.Amplitude <= 0 || s.Amplitude > 16383 {
		errs = append(errs, fmt.Errorf("amplitude must be between 1 and 16383, got %v", s.Amplitude))
	}
	if s.KeyHoldMS < 10 || s.KeyHoldMS > 10000 {
		errs = append(errs, fmt.Errorf("key_hold_ms must be between 10 and 10000, got %d", s.KeyHoldMS))
	}
	if s.KeyGapMS < 0 || s.KeyGapMS > 10000 {
		errs = append(errs, fmt.Errorf("key_gap_ms must be between 0 and 10000, got %d", s.KeyGapMS))
	}

	// Presentation
	if !(s.MeterRange > 0) || math.IsInf(s.MeterRange, 0) {
		errs = append(errs, fmt.Errorf("meter_range must be positive, got %v", s.MeterRange))
	}

	if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TickPeriod is the scheduler period
func (s *Settings) TickPeriod() time.Duration {
	return time.Duration(s.TickMS) * time.Millisecond
}

// BlockSize is the number of samples analyzed per tick
func (s *Settings) BlockSize() int {
	return int(math.Round(s.SampleRate * s.TickPeriod().Seconds()))
}

// KeyHold is how long a key sounds
func (s *Settings) KeyHold() time.Duration {
	return time.Duration(s.KeyHoldMS) * time.Millisecond
}

// KeyGap is the silence after a dialed key
func (s *Settings) KeyGap() time.Duration {
	return time.Duration(s.KeyGapMS) * time.Millisecond
}

// CaptureConfig returns the input device configuration
func (s *Settings) CaptureConfig() audio.Config {
	return audio.Config{
		DeviceIndex: s.CaptureDeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		BufferSize:  uint32(s.BufferSize),
	}
}

// PlaybackConfig returns the output device configuration
func (s *Settings) PlaybackConfig() audio.Config {
	return audio.Config{
		DeviceIndex: s.PlaybackDeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		BufferSize:  uint32(s.BufferSize),
	}
}

// SchedulerConfig returns the tick configuration
func (s *Settings) SchedulerConfig() scheduler.Config {
	return scheduler.Config{
		SampleRate: s.SampleRate,
		Period:     s.TickPeriod(),
	}
}

// NewLogger builds a logger writing to w at the configured level.
// Debug forces at least debug level.
func (s *Settings) NewLogger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	if s.Debug && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return log, nil
}
