// Package sensor provides the temperature sample sources. Samples are raw
// on-die units of 0.25 °C, the resolution of the nRF52 TEMP peripheral.
package sensor

import "math"

// Invalid is returned by a source whose hardware read failed.
const Invalid int16 = math.MinInt16

// Source reads the current die temperature.
type Source interface {
	// Init prepares the sensor. Called once at startup.
	Init() error
	// Read returns one sample. It must be fast relative to the sampling period
	// and never blocks on I/O retries; failures map to Invalid.
	Read() int16
}

// Func adapts a plain function to a Source with a no-op Init.
type Func func() int16

func (f Func) Init() error { return nil }
func (f Func) Read() int16 { return f() }

// FromMilliCelsius converts millidegrees Celsius to raw quarter-degree units,
// saturating at the int16 range. Invalid is never produced by a conversion.
func FromMilliCelsius(mc int64) int16 {
	q := mc / 250
	switch {
	case q > math.MaxInt16:
		return math.MaxInt16
	case q <= math.MinInt16:
		return math.MinInt16 + 1
	}
	return int16(q)
}
