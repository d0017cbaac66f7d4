package app

import (
	"fmt"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"gopkg.in/yaml.v3"

	"github.com/tejashwikalptaru/soundstage/internal/domain"
	"github.com/tejashwikalptaru/soundstage/internal/logger"
	"github.com/tejashwikalptaru/soundstage/internal/service"
)

// Supported output devices.
const (
	DeviceEbiten = "ebiten"
	DeviceMock   = "mock"
)

// Config holds application configuration.
// Fields tagged for YAML can be overridden from a config file with LoadConfig.
type Config struct {
	// AppID is the unique application identifier
	AppID string `yaml:"-"`

	// AppName is the display name
	AppName string `yaml:"-"`

	// Device selects the output device: "ebiten" or "mock"
	Device string `yaml:"device"`

	// SampleRate is the output sample rate in Hz
	SampleRate int `yaml:"sample_rate"`

	// PoolSize is the number of pre-allocated slots; 0 disables pooling
	PoolSize int `yaml:"pool_size"`

	// TickRate is the number of manager ticks per second
	TickRate int `yaml:"tick_rate"`

	// MasterVolume is the initial linear master volume
	MasterVolume float64 `yaml:"master_volume"`

	// Listener is the listener position in world space
	Listener [3]float64 `yaml:"listener"`

	// Emitter is where desk cues are played from
	Emitter [3]float64 `yaml:"emitter"`

	// BankPath is the sound bank YAML file; empty disables cues
	BankPath string `yaml:"bank"`

	// WatchBank reloads the bank when its file changes
	WatchBank bool `yaml:"watch_bank"`

	// RestoreState applies the master volume and mute state saved by the
	// previous session over MasterVolume
	RestoreState bool `yaml:"restore_state"`

	// LogLevel controls logging verbosity: debug, info, warn or error
	LogLevel string `yaml:"log_level"`

	// LogFormat is "text" or "json"
	LogFormat string `yaml:"log_format"`

	// TestFyneApp allows injecting a test Fyne app for testing (nil for production)
	TestFyneApp fyne.App `yaml:"-"`
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()
	return Config{
		AppID:        "com.soundstage.app",
		AppName:      "Soundstage",
		Device:       DeviceEbiten,
		SampleRate:   44100,
		PoolSize:     service.DefaultPoolSize,
		TickRate:     60,
		MasterVolume: 1,
		WatchBank:    true,
		RestoreState: true,
		LogLevel:     loggerCfg.Level.String(),
		LogFormat:    loggerCfg.Format,
	}
}

// LoadConfig overlays the YAML file at path onto base.
// Keys missing from the file keep their base values.
func LoadConfig(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return base, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	switch {
	case c.Device != DeviceEbiten && c.Device != DeviceMock:
		return domain.NewValidationError("device", c.Device, "must be ebiten or mock")
	case c.SampleRate <= 0:
		return domain.NewValidationError("sample_rate", c.SampleRate, "must be positive")
	case c.PoolSize < 0:
		return domain.NewValidationError("pool_size", c.PoolSize, "must not be negative")
	case c.TickRate <= 0:
		return domain.NewValidationError("tick_rate", c.TickRate, "must be positive")
	case c.MasterVolume < 0 || c.MasterVolume > 1:
		return domain.NewValidationError("master_volume", c.MasterVolume, "must be in [0, 1]")
	case c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json":
		return domain.NewValidationError("log_format", c.LogFormat, "must be text or json")
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		return domain.NewValidationError("log_level", c.LogLevel, "must be debug, info, warn or error")
	}
	return nil
}

// TickInterval returns the driver tick period.
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return service.DefaultTickInterval
	}
	return time.Second / time.Duration(c.TickRate)
}

// LoggerConfig returns the logger configuration for this config.
func (c Config) LoggerConfig() logger.Config {
	cfg := logger.DefaultConfig()
	if level, ok := logger.ParseLevel(c.LogLevel); ok {
		cfg.Level = level
	}
	if c.LogFormat != "" {
		cfg.Format = c.LogFormat
	}
	return cfg
}
