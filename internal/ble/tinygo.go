//go:build linux || baremetal

package ble

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"tinygo.org/x/bluetooth"
)

// eventQueueSize bounds link events waiting for the controller's loop.
const eventQueueSize = 16

// TinyGoRadio wraps tinygo-org/bluetooth in the peripheral role.
// The stack reports connects and disconnects through a single adapter-level
// handler; it does not surface disconnect reasons, advertising timeouts or MTU
// exchanges, so Disconnected always carries ReasonRemoteTerminated.
//
// The handler fires for every device the host knows about, not only our
// peer, so the first connected device is tracked and everything else is
// dropped until it disconnects.
type TinyGoRadio struct {
	adapter *bluetooth.Adapter
	adv     *bluetooth.Advertisement
	events  chan LinkEvent

	// mu protects the fields below.
	mu         sync.Mutex
	started    bool
	configured bool
	fields     AdvertisementFields
	peer       string
}

// NewTinyGoRadio creates a radio on the default adapter.
func NewTinyGoRadio() (*TinyGoRadio, error) {
	return &TinyGoRadio{
		adapter: bluetooth.DefaultAdapter,
		events:  make(chan LinkEvent, eventQueueSize),
	}, nil
}

func (r *TinyGoRadio) Enable() error {
	if err := r.adapter.Enable(); err != nil {
		return fmt.Errorf("ble: enable adapter: %w", err)
	}
	r.adv = r.adapter.DefaultAdvertisement()

	r.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		r.onConnect(device.Address.String(), connected)
	})
	return nil
}

// onConnect maps the stack's connect callback to link events for the single
// peer we serve.
func (r *TinyGoRadio) onConnect(addr string, connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case connected && r.peer == "":
		r.peer = addr
		r.deliver(Connected{Status: 0})
	case connected:
		slog.Debug("[BLE] ignoring connect while a peer is held", "addr", addr, "peer", r.peer)
	case r.peer != "" && addr == r.peer:
		r.peer = ""
		r.deliver(Disconnected{Reason: ReasonRemoteTerminated})
	default:
		slog.Debug("[BLE] ignoring disconnect from unknown device", "addr", addr)
	}
}

// deliver queues ev without blocking the stack's callback goroutine.
func (r *TinyGoRadio) deliver(ev LinkEvent) {
	select {
	case r.events <- ev:
	default:
		slog.Warn("[BLE] event queue full, dropping link event", "event", fmt.Sprintf("%T", ev))
	}
}

func (r *TinyGoRadio) Address() (Identity, error) {
	addr, err := r.adapter.Address()
	if err != nil {
		return Identity{}, fmt.Errorf("ble: read adapter address: %w", err)
	}
	return Identity{
		Address: addr.MAC.String(),
		Type:    inferAddressType(addr.MAC),
	}, nil
}

// inferAddressType classifies a little-endian MAC. Random static addresses
// have the two most significant bits set.
func inferAddressType(mac bluetooth.MAC) AddressType {
	switch mac[5] >> 6 {
	case 0b11:
		return AddressRandomStatic
	case 0b01:
		return AddressRandomPrivate
	default:
		return AddressPublic
	}
}

// SetAdvertisementFields configures the default advertisement. An unchanged
// field set is not reconfigured, so reissuing advertising never registers a
// second advertisement with the stack.
func (r *TinyGoRadio) SetAdvertisementFields(fields AdvertisementFields) error {
	if r.adv == nil {
		return fmt.Errorf("ble: adapter not enabled")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.configured && fields == r.fields {
		return nil
	}
	if r.started {
		if err := r.adv.Stop(); err != nil {
			slog.Debug("[BLE] stop before reconfigure", "error", err)
		}
		r.started = false
	}

	// Flags are always general-discoverable and BR/EDR-unsupported on this
	// stack, and the TX power level is not exposed; only the name is ours to set.
	if fields.Flags != FlagGeneralDiscoverable|FlagBREDRUnsupported || fields.TxPowerAuto {
		slog.Debug("[BLE] advertisement flags and tx power are managed by the stack", "flags", fields.Flags)
	}
	if err := r.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName: fields.Name,
	}); err != nil {
		return err
	}
	r.configured = true
	r.fields = fields
	return nil
}

func (r *TinyGoRadio) StartAdvertising(addrType AddressType, params AdvertisingParams) error {
	if r.adv == nil {
		return fmt.Errorf("ble: adapter not enabled")
	}
	if params.ConnMode != ConnModeUndirected || params.DiscMode != DiscModeGeneral || params.Duration != Forever {
		return fmt.Errorf("ble: unsupported advertising params %+v", params)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// Some stacks keep the advertisement registered after a central connects,
	// so a previously started advertisement is always stopped first.
	if r.started {
		if err := r.adv.Stop(); err != nil {
			slog.Debug("[BLE] stop before restart", "error", err)
		}
		r.started = false
	}
	if err := r.adv.Start(); err != nil {
		return err
	}
	r.started = true
	return nil
}

func (r *TinyGoRadio) Events() <-chan LinkEvent {
	return r.events
}

// AddService registers a primary service with the stack's attribute table.
func (r *TinyGoRadio) AddService(service uuid.UUID, chars []CharacteristicSpec) ([]CharacteristicHandle, error) {
	handles := make([]bluetooth.Characteristic, len(chars))
	configs := make([]bluetooth.CharacteristicConfig, len(chars))
	for i, c := range chars {
		flags := bluetooth.CharacteristicReadPermission
		if c.Notify {
			flags |= bluetooth.CharacteristicNotifyPermission
		}
		configs[i] = bluetooth.CharacteristicConfig{
			Handle: &handles[i],
			UUID:   bluetooth.NewUUID(c.UUID),
			Value:  c.Value,
			Flags:  flags,
		}
	}

	if err := r.adapter.AddService(&bluetooth.Service{
		UUID:            bluetooth.NewUUID(service),
		Characteristics: configs,
	}); err != nil {
		return nil, err
	}

	out := make([]CharacteristicHandle, len(handles))
	for i := range handles {
		out[i] = &handles[i]
	}
	return out, nil
}

// Compile-time checks that TinyGoRadio implements Radio and GATTServer.
var (
	_ Radio      = (*TinyGoRadio)(nil)
	_ GATTServer = (*TinyGoRadio)(nil)
)
