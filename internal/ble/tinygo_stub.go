//go:build !linux && !baremetal

package ble

import (
	"errors"

	"github.com/google/uuid"
)

// The tinygo peripheral role is only available on Linux (BlueZ) and on
// baremetal targets. This file keeps the package building elsewhere so the
// controller and surface can still be developed and tested.

// ErrUnsupportedPlatform is returned by NewTinyGoRadio on platforms without a
// peripheral-capable stack.
var ErrUnsupportedPlatform = errors.New("ble: peripheral role not supported on this platform")

// TinyGoRadio is unavailable on this platform.
type TinyGoRadio struct{}

// NewTinyGoRadio always fails on this platform.
func NewTinyGoRadio() (*TinyGoRadio, error) {
	return nil, ErrUnsupportedPlatform
}

func (*TinyGoRadio) Enable() error                                         { return ErrUnsupportedPlatform }
func (*TinyGoRadio) Address() (Identity, error)                            { return Identity{}, ErrUnsupportedPlatform }
func (*TinyGoRadio) SetAdvertisementFields(AdvertisementFields) error      { return ErrUnsupportedPlatform }
func (*TinyGoRadio) StartAdvertising(AddressType, AdvertisingParams) error { return ErrUnsupportedPlatform }
func (*TinyGoRadio) Events() <-chan LinkEvent                              { return nil }

func (*TinyGoRadio) AddService(uuid.UUID, []CharacteristicSpec) ([]CharacteristicHandle, error) {
	return nil, ErrUnsupportedPlatform
}

var (
	_ Radio      = (*TinyGoRadio)(nil)
	_ GATTServer = (*TinyGoRadio)(nil)
)
