package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/swingworks/swingsense/internal/sensor"
	"github.com/swingworks/swingsense/internal/sensor/ble"
	"github.com/swingworks/swingsense/internal/swing"
)

// Sensor driver names accepted in the configuration file.
const (
	DriverReplay    = "replay"
	DriverSynthetic = "synthetic"
	DriverBLE       = "ble"
)

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Detection DetectionConfig `yaml:"detection"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// Level maps the configured log level name onto a slog level. Unknown or
// empty values default to Info.
func (s Settings) Level() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SensorConfig selects and configures the motion sample source.
type SensorConfig struct {
	Driver    string                 `yaml:"driver"`
	Replay    sensor.ReplayConfig    `yaml:"replay"`
	Synthetic sensor.SyntheticConfig `yaml:"synthetic"`
	BLE       ble.Config             `yaml:"ble"`
}

// DetectionConfig tunes the swing detector.
type DetectionConfig struct {
	Sensitivity    float64 `yaml:"sensitivity"`
	BufferCapacity int     `yaml:"bufferCapacity"`
	TailSize       int     `yaml:"tailSize"`

	// PracticeMode runs detection without persisting swings.
	PracticeMode bool `yaml:"practiceMode"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// ServerConfig configures the local state API.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoadConfig reads and validates the YAML configuration file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err = config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.Sensor.Driver {
	case DriverReplay:
		if c.Sensor.Replay.Path == "" {
			return fmt.Errorf("sensor: replay driver requires a recording path")
		}
	case DriverSynthetic:
		// Defaults cover everything.
	case DriverBLE:
		if c.Sensor.BLE.DeviceName == "" {
			return fmt.Errorf("sensor: ble driver requires a device name")
		}
	case "":
		return fmt.Errorf("sensor: driver is required")
	default:
		return fmt.Errorf("sensor: unknown driver '%s'", c.Sensor.Driver)
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		c.Server.Addr = "localhost:8690"
	}
	return nil
}

// detectorConfig maps the detection section onto the engine configuration,
// filling defaults for anything left unset.
func (c *Config) detectorConfig() swing.Config {
	cfg := swing.DefaultConfig()
	if c.Detection.Sensitivity != 0 {
		cfg.Sensitivity = c.Detection.Sensitivity
	}
	if c.Detection.BufferCapacity != 0 {
		cfg.BufferCapacity = c.Detection.BufferCapacity
	}
	if c.Detection.TailSize != 0 {
		cfg.TailSize = c.Detection.TailSize
	}
	return cfg
}
