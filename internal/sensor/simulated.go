package sensor

import (
	"math/rand"
	"sync"
)

// Simulated is a bounded random walk around a base temperature, for hosts
// without a usable thermal zone.
type Simulated struct {
	mu   sync.Mutex
	rng  *rand.Rand
	base int16
	cur  int16
}

// NewSimulated starts the walk at base (raw units). The seed makes runs repeatable.
func NewSimulated(base int16, seed int64) *Simulated {
	return &Simulated{
		rng:  rand.New(rand.NewSource(seed)),
		base: base,
		cur:  base,
	}
}

func (s *Simulated) Init() error { return nil }

// Read moves at most one raw unit per call and stays within ±8 units (2 °C) of base.
func (s *Simulated) Read() int16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur + int16(s.rng.Intn(3)-1)
	if next > s.base+8 || next < s.base-8 {
		next = s.cur
	}
	s.cur = next
	return s.cur
}
