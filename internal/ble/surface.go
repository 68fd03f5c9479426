package ble

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/chaz8081/ble-temp-sensor/internal/ble/protocol"
	"github.com/chaz8081/ble-temp-sensor/internal/sampler"
)

// MaxNameLen is the longest name that fits a legacy advertisement next to the
// flags and TX power fields.
const MaxNameLen = 23

var (
	ErrNotRegistered = errors.New("ble: surface not registered")
	ErrNameEmpty     = errors.New("ble: device name must not be empty")
	ErrNameTooLong   = fmt.Errorf("ble: device name longer than %d bytes", MaxNameLen)
)

// Default UUIDs for the temperature service. These are vendor-specific 128-bit UUIDs.
var (
	DefaultServiceUUID   = uuid.MustParse("5c3a0001-8f0e-4b1a-9d6c-2f1e7a4b9c01")
	DefaultBatchCharUUID = uuid.MustParse("5c3a0002-8f0e-4b1a-9d6c-2f1e7a4b9c01")
	DefaultNameCharUUID  = uuid.MustParse("5c3a0003-8f0e-4b1a-9d6c-2f1e7a4b9c01")
)

// CharacteristicSpec describes one characteristic to register.
type CharacteristicSpec struct {
	UUID   uuid.UUID
	Value  []byte
	Notify bool
}

// CharacteristicHandle updates a registered characteristic's value and
// notifies subscribed peers.
type CharacteristicHandle interface {
	Write(p []byte) (n int, err error)
}

// GATTServer abstracts attribute table registration for testing.
type GATTServer interface {
	// AddService registers a primary service and returns one handle per
	// characteristic, in the same order.
	AddService(service uuid.UUID, chars []CharacteristicSpec) ([]CharacteristicHandle, error)
}

// Surface is the attribute store through which batches reach the peer.
type Surface interface {
	Register(ready func()) error
	SetDeviceName(name string) error
	Publish(batch sampler.Batch) error
}

// SurfaceUUIDs selects the service and characteristic UUIDs.
type SurfaceUUIDs struct {
	Service uuid.UUID
	Batch   uuid.UUID
	Name    uuid.UUID
}

// DefaultSurfaceUUIDs returns the built-in UUID set.
func DefaultSurfaceUUIDs() SurfaceUUIDs {
	return SurfaceUUIDs{
		Service: DefaultServiceUUID,
		Batch:   DefaultBatchCharUUID,
		Name:    DefaultNameCharUUID,
	}
}

// GATTSurface exposes the latest batch through a read/notify characteristic.
// Publish copies the batch under mu before writing, so a peer never observes a
// partially updated value.
type GATTSurface struct {
	server GATTServer
	uuids  SurfaceUUIDs

	mu        sync.Mutex
	batchChar CharacteristicHandle
	nameChar  CharacteristicHandle
	name      string
	latest    []byte
	published uint32
}

// NewGATTSurface creates an unregistered surface.
func NewGATTSurface(server GATTServer, uuids SurfaceUUIDs) *GATTSurface {
	return &GATTSurface{server: server, uuids: uuids}
}

var _ Surface = (*GATTSurface)(nil)
var _ sampler.Publisher = (*GATTSurface)(nil)

// Register adds the temperature service and then calls ready, if non-nil.
func (s *GATTSurface) Register(ready func()) error {
	s.mu.Lock()
	chars := []CharacteristicSpec{
		{UUID: s.uuids.Batch, Value: protocol.MarshalBatch(0, nil), Notify: true},
		{UUID: s.uuids.Name, Value: []byte(s.name)},
	}
	handles, err := s.server.AddService(s.uuids.Service, chars)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("ble: register service %s: %w", s.uuids.Service, err)
	}
	if len(handles) != len(chars) {
		s.mu.Unlock()
		return fmt.Errorf("ble: register service %s: got %d handles, want %d", s.uuids.Service, len(handles), len(chars))
	}
	s.batchChar = handles[0]
	s.nameChar = handles[1]
	s.mu.Unlock()

	slog.Info("[BLE] registered service", "uuid", s.uuids.Service, "batch_char", s.uuids.Batch)
	if ready != nil {
		ready()
	}
	return nil
}

// SetDeviceName sets the name served by the name characteristic. It may be
// called before or after Register.
func (s *GATTSurface) SetDeviceName(name string) error {
	if name == "" {
		return ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("%w: %q", ErrNameTooLong, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	if s.nameChar == nil {
		return nil
	}
	if _, err := s.nameChar.Write([]byte(name)); err != nil {
		return fmt.Errorf("ble: write device name: %w", err)
	}
	return nil
}

// Publish encodes batch and stores it as the batch characteristic value.
func (s *GATTSurface) Publish(batch sampler.Batch) error {
	payload := protocol.MarshalBatch(batch.Seq, batch.Samples)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batchChar == nil {
		return ErrNotRegistered
	}
	if _, err := s.batchChar.Write(payload); err != nil {
		return fmt.Errorf("ble: write batch %d: %w", batch.Seq, err)
	}
	s.latest = payload
	s.published = batch.Seq
	slog.Debug("[BLE] batch published", "seq", batch.Seq, "bytes", len(payload))
	return nil
}

// Latest returns a copy of the last published payload and its sequence number.
func (s *GATTSurface) Latest() ([]byte, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.latest))
	copy(out, s.latest)
	return out, s.published
}

// DeviceName returns the configured name.
func (s *GATTSurface) DeviceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}
