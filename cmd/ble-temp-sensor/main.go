package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/chaz8081/ble-temp-sensor/internal/app"
	"github.com/chaz8081/ble-temp-sensor/internal/ble"
	"github.com/chaz8081/ble-temp-sensor/internal/config"
	"github.com/chaz8081/ble-temp-sensor/internal/sensor"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "ble-temp-sensor",
	Short: "BLE peripheral that samples die temperature and serves batches over GATT",
	Long: `Samples the on-die temperature sensor on a fixed period, buffers readings
into fixed-size batches and exposes the latest batch through a GATT
characteristic. The device advertises whenever no central is connected.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.Flags().String("config", "", "path to config file (default: ~/.config/ble-temp-sensor/config.yaml)")
	rootCmd.Flags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.Flags().Bool("simulate", false, "use the simulated temperature sensor")
}

func run(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if simulate, _ := cmd.Flags().GetBool("simulate"); simulate {
		cfg.Sensor.Kind = "simulated"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	printBanner(cfg)

	source, err := newSource(cfg.Sensor)
	if err != nil {
		return err
	}
	radio, err := ble.NewTinyGoRadio()
	if err != nil {
		return err
	}
	a, err := app.Setup(cfg, radio, source)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = a.Run(ctx, radio.Events())
	slog.Info("shutting down",
		"state", a.Controller.State(),
		"batches", a.Pipeline.Batches(),
		"advertising_starts", a.Controller.StartCount(),
	)
	return err
}

func newSource(c config.SensorConfig) (sensor.Source, error) {
	switch c.Kind {
	case "simulated":
		// 25 °C in quarter-degree units.
		return sensor.NewSimulated(100, time.Now().UnixNano()), nil
	case "die":
		return sensor.NewDie()
	default:
		return sensor.NewSysfs(c.Path), nil
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		slog.Info("config loaded", "path", defaultPath)
		return cfg, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking %s: %w", defaultPath, err)
	}

	slog.Info("no config file found, using defaults")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	title := color.New(color.FgCyan, color.Bold)
	title.Println("=== ble-temp-sensor ===")
	fmt.Printf("  Name:     %s\n", cfg.DeviceName)
	fmt.Printf("  Sampling: every %s, %d per batch\n", cfg.Sampling.Period(), cfg.Sampling.Capacity)
	fmt.Printf("  Sensor:   %s\n", describeSensor(cfg.Sensor))
	fmt.Printf("  Service:  %s\n", cfg.BLE.ServiceUUID)
	fmt.Printf("  Log:      %s\n", cfg.LogLevel)
	title.Println("=======================")
}

func describeSensor(c config.SensorConfig) string {
	if c.Kind != "sysfs" {
		return c.Kind
	}
	return "sysfs (" + c.Path + ")"
}
