package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DeviceName != "ble_temp_sensor" {
		t.Errorf("DeviceName = %q, want %q", cfg.DeviceName, "ble_temp_sensor")
	}
	if cfg.Sampling.PeriodMS != 100 {
		t.Errorf("Sampling.PeriodMS = %d, want 100", cfg.Sampling.PeriodMS)
	}
	if cfg.Sampling.Capacity != 10 {
		t.Errorf("Sampling.Capacity = %d, want 10", cfg.Sampling.Capacity)
	}
	if cfg.Sensor.Kind != "sysfs" {
		t.Errorf("Sensor.Kind = %q, want %q", cfg.Sensor.Kind, "sysfs")
	}
	if cfg.Sensor.Path != "/sys/class/thermal/thermal_zone0/temp" {
		t.Errorf("Sensor.Path = %q", cfg.Sensor.Path)
	}
	if cfg.BLE.ServiceUUID == "" {
		t.Error("BLE.ServiceUUID should not be empty")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestSamplingPeriod(t *testing.T) {
	s := SamplingConfig{PeriodMS: 250}
	if got := s.Period(); got != 250*time.Millisecond {
		t.Errorf("Period() = %v, want 250ms", got)
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
device_name: porch
sampling:
  period_ms: 500
  capacity: 4
sensor:
  kind: simulated
ble:
  service_uuid: 0000181a-0000-1000-8000-00805f9b34fb
log_level: debug
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DeviceName != "porch" {
		t.Errorf("DeviceName = %q, want %q", cfg.DeviceName, "porch")
	}
	if cfg.Sampling.PeriodMS != 500 {
		t.Errorf("Sampling.PeriodMS = %d, want 500", cfg.Sampling.PeriodMS)
	}
	if cfg.Sampling.Capacity != 4 {
		t.Errorf("Sampling.Capacity = %d, want 4", cfg.Sampling.Capacity)
	}
	if cfg.Sensor.Kind != "simulated" {
		t.Errorf("Sensor.Kind = %q, want %q", cfg.Sensor.Kind, "simulated")
	}
	if cfg.BLE.ServiceUUID != "0000181a-0000-1000-8000-00805f9b34fb" {
		t.Errorf("BLE.ServiceUUID = %q", cfg.BLE.ServiceUUID)
	}
	if cfg.BLE.BatchCharUUID != Default().BLE.BatchCharUUID {
		t.Errorf("BLE.BatchCharUUID = %q, want default", cfg.BLE.BatchCharUUID)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("log_level: warn\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Sampling.Capacity != 10 || cfg.Sampling.PeriodMS != 100 {
		t.Errorf("Sampling = %+v, want defaults", cfg.Sampling)
	}
	if cfg.DeviceName != "ble_temp_sensor" {
		t.Errorf("DeviceName = %q, want default", cfg.DeviceName)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
sensor:
  path: ~/thermal/temp
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := filepath.Join(home, "thermal/temp")
	if cfg.Sensor.Path != expected {
		t.Errorf("Sensor.Path = %q, want %q", cfg.Sensor.Path, expected)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("sampling: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should return error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty device name",
			modify:  func(c *Config) { c.DeviceName = "" },
			wantErr: true,
		},
		{
			name:    "device name too long for advertisement",
			modify:  func(c *Config) { c.DeviceName = strings.Repeat("x", 24) },
			wantErr: true,
		},
		{
			name:    "zero period",
			modify:  func(c *Config) { c.Sampling.PeriodMS = 0 },
			wantErr: true,
		},
		{
			name:    "period wider than 32 bits",
			modify:  func(c *Config) { c.Sampling.PeriodMS = 1<<32 + 1 },
			wantErr: true,
		},
		{
			name:    "zero capacity",
			modify:  func(c *Config) { c.Sampling.Capacity = 0 },
			wantErr: true,
		},
		{
			name:    "capacity one",
			modify:  func(c *Config) { c.Sampling.Capacity = 1 },
			wantErr: false,
		},
		{
			name:    "invalid sensor kind",
			modify:  func(c *Config) { c.Sensor.Kind = "i2c" },
			wantErr: true,
		},
		{
			name:    "sysfs without path",
			modify:  func(c *Config) { c.Sensor.Path = "" },
			wantErr: true,
		},
		{
			name:    "simulated without path",
			modify:  func(c *Config) { c.Sensor.Kind = "simulated"; c.Sensor.Path = "" },
			wantErr: false,
		},
		{
			name:    "die without path",
			modify:  func(c *Config) { c.Sensor.Kind = "die"; c.Sensor.Path = "" },
			wantErr: false,
		},
		{
			name:    "invalid service uuid",
			modify:  func(c *Config) { c.BLE.ServiceUUID = "not-a-uuid" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join("ble-temp-sensor", "config.yaml")) {
		t.Errorf("DefaultConfigPath() = %q, want suffix ble-temp-sensor/config.yaml", path)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
