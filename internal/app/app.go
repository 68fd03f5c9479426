// Package app wires the sensor, sampling pipeline, GATT surface and
// connectivity controller together in the firmware's startup order.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/chaz8081/ble-temp-sensor/internal/ble"
	"github.com/chaz8081/ble-temp-sensor/internal/config"
	"github.com/chaz8081/ble-temp-sensor/internal/sampler"
	"github.com/chaz8081/ble-temp-sensor/internal/sensor"
)

// Peripheral is a radio that can also host the attribute table.
type Peripheral interface {
	ble.Radio
	ble.GATTServer
}

// App holds the running components. Fields are exposed for status reporting.
type App struct {
	Controller *ble.Controller
	Surface    *ble.GATTSurface
	Pipeline   *sampler.Pipeline
}

// Setup performs the one-time startup sequence. Any error it returns is a
// startup invariant violation: the caller should exit rather than continue.
func Setup(cfg *config.Config, radio Peripheral, source sensor.Source) (*App, error) {
	slog.Info("hello", "device", cfg.DeviceName)

	if err := source.Init(); err != nil {
		return nil, fmt.Errorf("app: init sensor: %w", err)
	}

	if err := radio.Enable(); err != nil {
		return nil, fmt.Errorf("app: enable radio: %w", err)
	}

	uuids, err := surfaceUUIDs(cfg.BLE)
	if err != nil {
		return nil, err
	}
	surface := ble.NewGATTSurface(radio, uuids)
	if err := surface.Register(func() {
		slog.Info("[BLE] attribute table ready", "service", uuids.Service)
	}); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if err := surface.SetDeviceName(cfg.DeviceName); err != nil {
		return nil, fmt.Errorf("app: set device name: %w", err)
	}

	pipeline, err := sampler.New(source, surface, sampler.Options{
		Capacity: cfg.Sampling.Capacity,
		Period:   cfg.Sampling.Period(),
	})
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	ctrl := ble.NewController(radio, cfg.DeviceName)
	if err := ctrl.Init(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	ctrl.Start()
	slog.Info("[BLE] adv started")

	return &App{
		Controller: ctrl,
		Surface:    surface,
		Pipeline:   pipeline,
	}, nil
}

// Run starts sampling in its own goroutine and processes link events on the
// calling goroutine until ctx is cancelled.
func (a *App) Run(ctx context.Context, events <-chan ble.LinkEvent) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.Pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("[SAMPLER] stopped", "error", err)
		}
	}()

	err := a.Controller.Run(ctx, events)
	cancel()
	wg.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func surfaceUUIDs(c config.BLEConfig) (ble.SurfaceUUIDs, error) {
	var uuids ble.SurfaceUUIDs
	for _, f := range []struct {
		dst *uuid.UUID
		src string
	}{
		{&uuids.Service, c.ServiceUUID},
		{&uuids.Batch, c.BatchCharUUID},
		{&uuids.Name, c.NameCharUUID},
	} {
		u, err := uuid.Parse(f.src)
		if err != nil {
			return ble.SurfaceUUIDs{}, fmt.Errorf("app: parse UUID %q: %w", f.src, err)
		}
		*f.dst = u
	}
	return uuids, nil
}
