//go:build !baremetal

package sensor

import "errors"

// ErrNoDieSensor is returned by NewDie on hosted builds, where the on-die
// sensor is only reachable through a thermal zone (kind "sysfs").
var ErrNoDieSensor = errors.New("sensor: on-die sensor requires a baremetal build")

// NewDie fails outside baremetal builds.
func NewDie() (Source, error) {
	return nil, ErrNoDieSensor
}
