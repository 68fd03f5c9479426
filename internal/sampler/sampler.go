// Package sampler runs the periodic temperature sampling loop. Readings are
// appended to a fixed-size ring buffer and flushed as one batch whenever the
// buffer fills.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chaz8081/ble-temp-sensor/internal/ringbuf"
	"github.com/chaz8081/ble-temp-sensor/internal/sensor"
)

// TickHz is the scheduler tick rate used to quantise the sampling period.
const TickHz = 1000

// Batch is one flushed buffer of samples.
type Batch struct {
	Seq     uint32  // starts at 1, increments per flush
	Samples []int16 // insertion order
}

// Publisher receives flushed batches. Publish is called from the sampling
// goroutine and must not retain Samples beyond the call unless it copies them.
type Publisher interface {
	Publish(batch Batch) error
}

// Options configures the pipeline.
type Options struct {
	Capacity int           // samples per batch (default 10)
	Period   time.Duration // time between reads (default 100ms)
}

// DefaultOptions matches the firmware constants: 10 readings every 100ms.
func DefaultOptions() Options {
	return Options{
		Capacity: 10,
		Period:   100 * time.Millisecond,
	}
}

// Pipeline owns the ring buffer; nothing else reads or writes it.
type Pipeline struct {
	source    sensor.Source
	buf       *ringbuf.Buffer
	publisher Publisher
	period    time.Duration

	seq     uint32
	batches atomic.Uint64

	now func() time.Time
}

// New creates a pipeline reading from source. publisher may be nil, in which
// case batches are only logged.
func New(source sensor.Source, publisher Publisher, opts Options) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("sampler: nil source")
	}
	if opts.Capacity == 0 {
		opts.Capacity = 10
	}
	if opts.Period <= 0 {
		opts.Period = 100 * time.Millisecond
	}
	buf, err := ringbuf.New(opts.Capacity)
	if err != nil {
		return nil, fmt.Errorf("sampler: %w", err)
	}
	return &Pipeline{
		source:    source,
		buf:       buf,
		publisher: publisher,
		period:    opts.Period,
		now:       time.Now,
	}, nil
}

// Step performs one sampling cycle without sleeping: read, append, and flush
// if the buffer became full. It reports whether a batch was flushed.
func (p *Pipeline) Step() bool {
	sample := p.source.Read()

	full, err := p.buf.Append(sample)
	if err != nil {
		// Unreachable while Step is the only writer: a full buffer is always
		// flushed in the same cycle that fills it.
		slog.Error("[SAMPLER] append failed", "error", err)
	}
	if !full {
		return false
	}
	p.flush()
	return true
}

// flush drains the buffer and hands the batch on. No samples are taken while
// it runs.
func (p *Pipeline) flush() {
	p.seq++
	batch := Batch{Seq: p.seq, Samples: p.buf.Drain()}
	p.batches.Add(1)

	slog.Info("[SAMPLER] buffer full", "seq", batch.Seq, "samples", FormatHex(batch.Samples))

	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(batch); err != nil {
		slog.Warn("[SAMPLER] publish failed", "seq", batch.Seq, "error", err)
	}
}

// Run samples until ctx is cancelled. A cycle that overruns the period starts
// the next one immediately; missed cycles are not made up.
func (p *Pipeline) Run(ctx context.Context) error {
	delay := TickDuration(Ticks(p.period, TickHz), TickHz)
	slog.Info("[SAMPLER] started", "period", p.period, "capacity", p.buf.Cap())

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		start := p.now()
		p.Step()

		remaining := delay - p.now().Sub(start)
		if remaining <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		timer.Reset(remaining)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Batches returns the number of batches flushed so far. Safe for concurrent use.
func (p *Pipeline) Batches() uint64 {
	return p.batches.Load()
}

// Ticks converts a period to whole scheduler ticks, rounding down but never
// below one tick. Periods beyond the 32-bit tick range saturate.
func Ticks(period time.Duration, hz int) uint32 {
	ticks := period.Milliseconds() * int64(hz) / 1000
	switch {
	case ticks < 1:
		return 1
	case ticks > math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(ticks)
}

// TickDuration converts a tick count back to wall time.
func TickDuration(ticks uint32, hz int) time.Duration {
	return time.Duration(ticks) * time.Second / time.Duration(hz)
}

// FormatHex renders samples as space-separated 16-bit two's-complement hex.
func FormatHex(samples []int16) string {
	var sb strings.Builder
	for i, s := range samples {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%04x", uint16(s))
	}
	return sb.String()
}
