package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	DeviceName string         `yaml:"device_name" default:"ble_temp_sensor"`
	Sampling   SamplingConfig `yaml:"sampling"`
	Sensor     SensorConfig   `yaml:"sensor"`
	BLE        BLEConfig      `yaml:"ble"`
	LogLevel   string         `yaml:"log_level" default:"info"`
}

// SamplingConfig holds the sampling cadence and batch size.
type SamplingConfig struct {
	PeriodMS int `yaml:"period_ms" default:"100"`
	Capacity int `yaml:"capacity" default:"10"`
}

// Period returns the sampling period as a duration.
func (s SamplingConfig) Period() time.Duration {
	return time.Duration(s.PeriodMS) * time.Millisecond
}

// SensorConfig selects the temperature source.
type SensorConfig struct {
	Kind string `yaml:"kind" default:"sysfs"` // "sysfs", "simulated" or "die"
	Path string `yaml:"path" default:"/sys/class/thermal/thermal_zone0/temp"`
}

// BLEConfig holds the GATT service layout.
type BLEConfig struct {
	ServiceUUID   string `yaml:"service_uuid" default:"5c3a0001-8f0e-4b1a-9d6c-2f1e7a4b9c01"`
	BatchCharUUID string `yaml:"batch_char_uuid" default:"5c3a0002-8f0e-4b1a-9d6c-2f1e7a4b9c01"`
	NameCharUUID  string `yaml:"name_char_uuid" default:"5c3a0003-8f0e-4b1a-9d6c-2f1e7a4b9c01"`
}

// maxDeviceNameLen mirrors ble.MaxNameLen; config does not import ble.
const maxDeviceNameLen = 23

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ble-temp-sensor")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config populated from the struct's default tags.
func Default() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in sensor.path is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Sensor.Path = expandTilde(cfg.Sensor.Path)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.DeviceName == "" {
		return fmt.Errorf("device_name must not be empty")
	}
	if len(c.DeviceName) > maxDeviceNameLen {
		return fmt.Errorf("device_name must be at most %d bytes, got %d", maxDeviceNameLen, len(c.DeviceName))
	}

	if c.Sampling.PeriodMS <= 0 {
		return fmt.Errorf("sampling.period_ms must be > 0")
	}
	if int64(c.Sampling.PeriodMS) > math.MaxUint32 {
		return fmt.Errorf("sampling.period_ms must be at most %d", uint32(math.MaxUint32))
	}
	if c.Sampling.Capacity < 1 {
		return fmt.Errorf("sampling.capacity must be >= 1")
	}

	switch c.Sensor.Kind {
	case "sysfs":
		if c.Sensor.Path == "" {
			return fmt.Errorf("sensor.path must not be empty for sysfs sensor")
		}
	case "simulated", "die":
	default:
		return fmt.Errorf("sensor.kind must be \"sysfs\", \"simulated\" or \"die\", got %q", c.Sensor.Kind)
	}

	for key, v := range map[string]string{
		"ble.service_uuid":    c.BLE.ServiceUUID,
		"ble.batch_char_uuid": c.BLE.BatchCharUUID,
		"ble.name_char_uuid":  c.BLE.NameCharUUID,
	} {
		if _, err := uuid.Parse(v); err != nil {
			return fmt.Errorf("%s: invalid UUID %q: %w", key, v, err)
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// ParseLogLevel maps a config log level to slog. Unknown values map to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
