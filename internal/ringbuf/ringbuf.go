// Package ringbuf provides the fixed-capacity sample buffer that the sampling
// pipeline fills and drains. It is owned by a single goroutine and does no locking.
package ringbuf

import (
	"errors"
	"fmt"
)

// ErrFull is returned by Append when the buffer must be drained first.
var ErrFull = errors.New("ringbuf: buffer full")

// Buffer holds up to Cap() samples. The cursor always points at the next free
// slot; once it reaches capacity the buffer must be drained before the next Append.
type Buffer struct {
	slots  []int16
	cursor int
}

// New creates a buffer with the given capacity. Capacity must be >= 1.
func New(capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("ringbuf: capacity must be >= 1, got %d", capacity)
	}
	return &Buffer{slots: make([]int16, capacity)}, nil
}

// Append stores sample at the cursor and advances it. It reports whether the
// buffer became full as a result.
func (b *Buffer) Append(sample int16) (bool, error) {
	if b.cursor >= len(b.slots) {
		return true, ErrFull
	}
	b.slots[b.cursor] = sample
	b.cursor++
	return b.cursor == len(b.slots), nil
}

// Drain returns the buffered samples in insertion order and resets the cursor.
// The returned slice is a copy and stays valid after later appends.
func (b *Buffer) Drain() []int16 {
	out := make([]int16, b.cursor)
	copy(out, b.slots[:b.cursor])
	b.cursor = 0
	return out
}

// IsFull reports whether the cursor has reached capacity.
func (b *Buffer) IsFull() bool { return b.cursor == len(b.slots) }

// Len returns the number of buffered samples.
func (b *Buffer) Len() int { return b.cursor }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.slots) }
