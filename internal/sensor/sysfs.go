package sensor

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// DefaultThermalZone is the Linux thermal zone normally backed by the SoC sensor.
const DefaultThermalZone = "/sys/class/thermal/thermal_zone0/temp"

// Sysfs reads a Linux thermal zone file reporting millidegrees Celsius.
type Sysfs struct {
	Path string
}

// NewSysfs returns a source for the given thermal zone file.
func NewSysfs(path string) *Sysfs {
	if path == "" {
		path = DefaultThermalZone
	}
	return &Sysfs{Path: path}
}

// Init verifies the thermal zone is readable.
func (s *Sysfs) Init() error {
	if _, err := s.read(); err != nil {
		return fmt.Errorf("sensor: init %s: %w", s.Path, err)
	}
	return nil
}

func (s *Sysfs) Read() int16 {
	v, err := s.read()
	if err != nil {
		slog.Warn("[SENSOR] read failed", "path", s.Path, "error", err)
		return Invalid
	}
	return v
}

func (s *Sysfs) read() (int16, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, err
	}
	mc, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", strings.TrimSpace(string(data)), err)
	}
	return FromMilliCelsius(mc), nil
}
