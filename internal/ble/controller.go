package ble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrNotInitialized is recorded when Start runs before Init resolved the identity.
var ErrNotInitialized = errors.New("ble: controller not initialized")

// State is the controller's view of the link.
type State int

const (
	StateIdle State = iota
	StateAdvertising
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAdvertising:
		return "advertising"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Controller keeps the peripheral discoverable whenever it is not connected.
// Any event that leaves the device without a link re-arms advertising in the
// same turn. There is no backoff: a rejected advertising command is logged and
// the next link event triggers another attempt.
type Controller struct {
	radio Radio
	name  string

	mu          sync.Mutex
	identity    Identity
	initialized bool
	state       State
	mtu         uint16
	starts      int
	lastErr     error
}

// NewController creates a controller advertising under name.
func NewController(radio Radio, name string) *Controller {
	return &Controller{radio: radio, name: name}
}

// Init resolves the device's address identity. It must succeed before Start;
// failure is a startup invariant violation and is returned to the caller.
func (c *Controller) Init() error {
	id, err := c.radio.Address()
	if err != nil {
		return fmt.Errorf("ble: resolve identity: %w", err)
	}
	c.mu.Lock()
	c.identity = id
	c.initialized = true
	c.mu.Unlock()

	slog.Info("[BLE] identity resolved", "address", id.Address, "type", id.Type)
	return nil
}

// Start configures the advertising data and begins open-ended, undirected
// connectable, general-discoverable advertising. Failures are logged and not
// retried; the controller still treats itself as advertising so the next link
// event re-arms it. Before Init nothing reaches the radio and the controller
// stays idle.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked()
}

func (c *Controller) startLocked() {
	c.starts++
	if !c.initialized {
		c.state = StateIdle
		c.lastErr = ErrNotInitialized
		slog.Error("[BLE] error enabling advertisement", "error", ErrNotInitialized)
		return
	}
	c.state = StateAdvertising

	fields := AdvertisementFields{
		Flags:        FlagGeneralDiscoverable | FlagBREDRUnsupported,
		TxPowerAuto:  true,
		Name:         c.name,
		NameComplete: true,
	}
	if err := c.radio.SetAdvertisementFields(fields); err != nil {
		c.lastErr = fmt.Errorf("ble: set advertisement fields: %w", err)
		slog.Error("[BLE] error setting advertisement data", "error", err)
		return
	}

	params := AdvertisingParams{
		ConnMode: ConnModeUndirected,
		DiscMode: DiscModeGeneral,
		Duration: Forever,
	}
	if err := c.radio.StartAdvertising(c.identity.Type, params); err != nil {
		c.lastErr = fmt.Errorf("ble: start advertising: %w", err)
		slog.Error("[BLE] error enabling advertisement", "error", err)
		return
	}
	c.lastErr = nil
	slog.Debug("[BLE] advertising", "name", c.name, "starts", c.starts)
}

// HandleEvent applies one link event to the state machine.
func (c *Controller) HandleEvent(ev LinkEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case Connected:
		if e.Status == 0 {
			slog.Info("[BLE] connection established", "status", e.Status)
			c.state = StateConnected
			return
		}
		slog.Info("[BLE] connection failed", "status", e.Status)
		c.startLocked()

	case Disconnected:
		slog.Info("[BLE] disconnect", "reason", e.Reason)
		c.startLocked()

	case AdvertisingEnded:
		slog.Info("[BLE] adv complete")
		c.startLocked()

	case MTUChanged:
		slog.Info("[BLE] mtu update event", "conn_handle", e.ConnHandle, "mtu", e.Value)
		c.mtu = e.Value

	default:
		slog.Warn("[BLE] ignoring unknown link event", "event", fmt.Sprintf("%T", ev))
	}
}

// Run processes events one at a time, in delivery order, until ctx is
// cancelled or the channel is closed.
func (c *Controller) Run(ctx context.Context, events <-chan LinkEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(ev)
		}
	}
}

// State returns the current link state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MTU returns the last negotiated MTU, or 0 if none was reported.
func (c *Controller) MTU() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mtu
}

// StartCount returns how many times advertising has been (re)issued.
func (c *Controller) StartCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.starts
}

// LastError returns the error from the most recent Start, or nil if it succeeded.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Identity returns the address resolved by Init.
func (c *Controller) Identity() Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identity
}
