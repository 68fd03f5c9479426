//go:build baremetal

package sensor

import "machine"

// Die reads the on-die temperature sensor through TinyGo's machine package.
type Die struct{}

// NewDie returns the on-die source.
func NewDie() (Source, error) {
	return Die{}, nil
}

func (Die) Init() error { return nil }

func (Die) Read() int16 {
	return FromMilliCelsius(int64(machine.ReadTemperature()))
}
