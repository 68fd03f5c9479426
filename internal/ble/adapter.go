// Package ble implements the peripheral side of the temperature sensor: the
// connectivity controller that keeps the device advertising whenever it is not
// connected, and the GATT surface that exposes flushed sample batches.
package ble

import (
	"fmt"
	"time"
)

// AddressType identifies how the peripheral's own address was derived.
type AddressType uint8

const (
	AddressPublic AddressType = iota
	AddressRandomStatic
	AddressRandomPrivate
)

func (t AddressType) String() string {
	switch t {
	case AddressPublic:
		return "public"
	case AddressRandomStatic:
		return "random-static"
	case AddressRandomPrivate:
		return "random-private"
	default:
		return fmt.Sprintf("AddressType(%d)", uint8(t))
	}
}

// Identity is the device's own address, resolved once at startup.
type Identity struct {
	Address string
	Type    AddressType
}

// AdvFlags is the advertising data Flags field.
type AdvFlags uint8

const (
	FlagLimitedDiscoverable AdvFlags = 0x01
	FlagGeneralDiscoverable AdvFlags = 0x02
	FlagBREDRUnsupported    AdvFlags = 0x04
)

// AdvertisementFields is the advertising data set handed to the radio.
type AdvertisementFields struct {
	Flags        AdvFlags
	TxPowerAuto  bool // include a TX power level filled in by the stack
	Name         string
	NameComplete bool
}

// ConnMode is the advertising connectability mode.
type ConnMode uint8

const (
	ConnModeNone ConnMode = iota
	ConnModeDirected
	ConnModeUndirected
)

// DiscMode is the advertising discoverability mode.
type DiscMode uint8

const (
	DiscModeNone DiscMode = iota
	DiscModeLimited
	DiscModeGeneral
)

// Forever is an advertising duration with no timeout.
const Forever time.Duration = 0

// AdvertisingParams controls how advertising runs.
type AdvertisingParams struct {
	ConnMode ConnMode
	DiscMode DiscMode
	Duration time.Duration
}

// LinkEvent is a lifecycle notification from the radio stack. The set of
// implementations is closed: Connected, Disconnected, AdvertisingEnded and
// MTUChanged.
type LinkEvent interface {
	linkEvent()
}

// Connected reports a connection attempt. Status 0 means established.
type Connected struct {
	Status int
}

// Disconnected reports the end of a connection.
type Disconnected struct {
	Reason int
}

// AdvertisingEnded reports that advertising stopped without a connection.
type AdvertisingEnded struct{}

// MTUChanged reports a negotiated ATT MTU.
type MTUChanged struct {
	ConnHandle uint16
	Value      uint16
}

func (Connected) linkEvent()        {}
func (Disconnected) linkEvent()     {}
func (AdvertisingEnded) linkEvent() {}
func (MTUChanged) linkEvent()       {}

// ReasonRemoteTerminated is the HCI reason "remote user terminated connection".
const ReasonRemoteTerminated = 0x13

// Radio abstracts the BLE host stack for testing.
type Radio interface {
	// Enable powers on the stack. Returns once it is ready to accept commands.
	Enable() error
	// Address resolves the device's own address identity.
	Address() (Identity, error)
	// SetAdvertisementFields replaces the advertising data set.
	SetAdvertisementFields(fields AdvertisementFields) error
	// StartAdvertising begins advertising with the current data set. Calling it
	// while already advertising reissues the command.
	StartAdvertising(addrType AddressType, params AdvertisingParams) error
	// Events delivers link events in the order the stack raised them.
	Events() <-chan LinkEvent
}
