//go:build linux || baremetal

package ble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/bluetooth"
)

func TestInferAddressType(t *testing.T) {
	tests := []struct {
		name string
		mac  bluetooth.MAC
		want AddressType
	}{
		// MAC bytes are little-endian: mac[5] is the most significant octet.
		{"public", bluetooth.MAC{0x55, 0x44, 0x33, 0x22, 0x11, 0x00}, AddressPublic},
		{"random static", bluetooth.MAC{0x55, 0x44, 0x33, 0x22, 0x11, 0xC0}, AddressRandomStatic},
		{"resolvable private", bluetooth.MAC{0x55, 0x44, 0x33, 0x22, 0x11, 0x4A}, AddressRandomPrivate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferAddressType(tt.mac), "inferAddressType(%v)", tt.mac)
		})
	}
}

func TestTinyGoRadioRequiresEnable(t *testing.T) {
	r, err := NewTinyGoRadio()
	require.NoError(t, err)
	assert.Error(t, r.SetAdvertisementFields(AdvertisementFields{Name: "x"}), "SetAdvertisementFields before Enable")
	assert.Error(t, r.StartAdvertising(AddressPublic, AdvertisingParams{ConnMode: ConnModeUndirected, DiscMode: DiscModeGeneral}), "StartAdvertising before Enable")
}

type connectCall struct {
	addr      string
	connected bool
}

func TestOnConnectTracksPeer(t *testing.T) {
	const (
		peer  = "AA:BB:CC:DD:EE:01"
		other = "AA:BB:CC:DD:EE:02"
	)
	tests := []struct {
		name  string
		calls []connectCall
		want  []LinkEvent
	}{
		{
			name:  "connect then disconnect",
			calls: []connectCall{{peer, true}, {peer, false}},
			want:  []LinkEvent{Connected{Status: 0}, Disconnected{Reason: ReasonRemoteTerminated}},
		},
		{
			name:  "unknown device disconnects while idle",
			calls: []connectCall{{other, false}},
			want:  nil,
		},
		{
			name:  "unknown device disconnects while peer held",
			calls: []connectCall{{peer, true}, {other, false}},
			want:  []LinkEvent{Connected{Status: 0}},
		},
		{
			name:  "second device connects while peer held",
			calls: []connectCall{{peer, true}, {other, true}, {other, false}},
			want:  []LinkEvent{Connected{Status: 0}},
		},
		{
			name:  "repeated connect from peer",
			calls: []connectCall{{peer, true}, {peer, true}},
			want:  []LinkEvent{Connected{Status: 0}},
		},
		{
			name:  "new peer after disconnect",
			calls: []connectCall{{peer, true}, {peer, false}, {other, true}, {other, false}},
			want: []LinkEvent{
				Connected{Status: 0}, Disconnected{Reason: ReasonRemoteTerminated},
				Connected{Status: 0}, Disconnected{Reason: ReasonRemoteTerminated},
			},
		},
		{
			name:  "empty address never matches",
			calls: []connectCall{{"", false}},
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &TinyGoRadio{events: make(chan LinkEvent, eventQueueSize)}
			for _, c := range tt.calls {
				r.onConnect(c.addr, c.connected)
			}
			assert.Equal(t, tt.want, drainEvents(r.events))
		})
	}
}

func drainEvents(ch chan LinkEvent) []LinkEvent {
	var out []LinkEvent
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}
