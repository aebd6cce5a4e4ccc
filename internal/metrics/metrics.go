// Package metrics provides an optional, dependency-free metrics
// collector for the queuefile engine.
//
// It exposes counters and a small fixed-bucket duration histogram
// without requiring a metrics client library, so embedding the engine
// never drags in a transitive dependency a caller did not ask for.
// Anything needing richer aggregation can read a Snapshot and forward
// it to Prometheus, a statsd client, or a log line at whatever cadence
// it likes.
package metrics

import (
	"sync/atomic"
	"time"
)

// Recorder is the subset of Collector the engine depends on. Both
// *Collector and NoopCollector implement it, so the engine can hold a
// Recorder field and never nil-check before calling it.
type Recorder interface {
	RecordAppend(elementsWritten, payloadBytes int, d time.Duration)
	RecordRemove(n int, d time.Duration)
	RecordGrowth(oldLength, newLength int64)
	RecordShrink(oldLength, newLength int64)
	RecordCorruption()
	UpdateState(elementCount uint32, fileLength, usedBytes int64)
}

// Collector tracks queuefile engine operations.
type Collector struct {
	name string

	appendsTotal uint64Counter
	removesTotal uint64Counter
	elementsIn   uint64Counter
	elementsOut  uint64Counter
	bytesIn      uint64Counter
	bytesOut     uint64Counter

	growthsTotal uint64Counter
	shrinksTotal uint64Counter
	corruptions  uint64Counter

	appendDurations *durationHistogram
	removeDurations *durationHistogram

	elementCount atomic.Uint32
	fileLength   atomic.Int64
	usedBytes    atomic.Int64
}

type uint64Counter struct{ v atomic.Uint64 }

func (c *uint64Counter) add(n uint64) { c.v.Add(n) }
func (c *uint64Counter) load() uint64 { return c.v.Load() }

// NewCollector creates a metrics collector for a single queue file,
// identified by name for disambiguation when a process hosts several.
func NewCollector(name string) *Collector {
	return &Collector{
		name:            name,
		appendDurations: newDurationHistogram(),
		removeDurations: newDurationHistogram(),
	}
}

// RecordAppend records a committed write-stream close that added
// elementsWritten elements totalling payloadBytes.
func (c *Collector) RecordAppend(elementsWritten int, payloadBytes int, d time.Duration) {
	c.appendsTotal.add(1)
	c.elementsIn.add(uint64(elementsWritten))
	c.bytesIn.add(uint64(payloadBytes))
	c.appendDurations.observe(d)
}

// RecordRemove records a successful Remove(n) call.
func (c *Collector) RecordRemove(n int, d time.Duration) {
	c.removesTotal.add(1)
	c.elementsOut.add(uint64(n))
	c.removeDurations.observe(d)
}

// RecordGrowth records the file growing to accommodate a large append.
func (c *Collector) RecordGrowth(oldLength, newLength int64) {
	c.growthsTotal.add(1)
}

// RecordShrink records the file shrinking after a drain.
func (c *Collector) RecordShrink(oldLength, newLength int64) {
	c.shrinksTotal.add(1)
}

// RecordCorruption records a detected integrity failure.
func (c *Collector) RecordCorruption() {
	c.corruptions.add(1)
}

// UpdateState updates the point-in-time gauges. Call after any
// structural change (append close, remove, clear, growth, shrink).
func (c *Collector) UpdateState(elementCount uint32, fileLength, usedBytes int64) {
	c.elementCount.Store(elementCount)
	c.fileLength.Store(fileLength)
	c.usedBytes.Store(usedBytes)
}

// Snapshot is a point-in-time view of the collector's counters.
type Snapshot struct {
	Name string

	AppendsTotal uint64
	RemovesTotal uint64
	ElementsIn   uint64
	ElementsOut  uint64
	BytesIn      uint64
	BytesOut     uint64

	GrowthsTotal uint64
	ShrinksTotal uint64
	Corruptions  uint64

	AppendDurationP50 time.Duration
	AppendDurationP99 time.Duration
	RemoveDurationP50 time.Duration
	RemoveDurationP99 time.Duration

	ElementCount uint32
	FileLength   int64
	UsedBytes    int64
}

// GetSnapshot returns a snapshot of the current counters and gauges.
func (c *Collector) GetSnapshot() Snapshot {
	return Snapshot{
		Name:              c.name,
		AppendsTotal:      c.appendsTotal.load(),
		RemovesTotal:      c.removesTotal.load(),
		ElementsIn:        c.elementsIn.load(),
		ElementsOut:       c.elementsOut.load(),
		BytesIn:           c.bytesIn.load(),
		BytesOut:          c.bytesOut.load(),
		GrowthsTotal:      c.growthsTotal.load(),
		ShrinksTotal:      c.shrinksTotal.load(),
		Corruptions:       c.corruptions.load(),
		AppendDurationP50: c.appendDurations.percentile(0.50),
		AppendDurationP99: c.appendDurations.percentile(0.99),
		RemoveDurationP50: c.removeDurations.percentile(0.50),
		RemoveDurationP99: c.removeDurations.percentile(0.99),
		ElementCount:      c.elementCount.Load(),
		FileLength:        c.fileLength.Load(),
		UsedBytes:         c.usedBytes.Load(),
	}
}

// NoopCollector is a Collector-shaped sink that does nothing. It is
// used as the default when no collector is supplied, so the engine
// never has to nil-check before recording.
type NoopCollector struct{}

func (NoopCollector) RecordAppend(int, int, time.Duration) {}
func (NoopCollector) RecordRemove(int, time.Duration)      {}
func (NoopCollector) RecordGrowth(int64, int64)            {}
func (NoopCollector) RecordShrink(int64, int64)            {}
func (NoopCollector) RecordCorruption()                    {}
func (NoopCollector) UpdateState(uint32, int64, int64)      {}

// durationHistogram is a fixed-bucket histogram for observing
// operation latencies without pulling in an external dependency.
type durationHistogram struct {
	buckets [10]atomic.Uint64
}

func newDurationHistogram() *durationHistogram {
	return &durationHistogram{}
}

func (h *durationHistogram) observe(d time.Duration) {
	micros := d.Microseconds()
	var bucket int
	switch {
	case micros < 1:
		bucket = 0
	case micros < 10:
		bucket = 1
	case micros < 100:
		bucket = 2
	case micros < 1000:
		bucket = 3
	case micros < 10000:
		bucket = 4
	case micros < 100000:
		bucket = 5
	case micros < 1000000:
		bucket = 6
	case micros < 10000000:
		bucket = 7
	case micros < 100000000:
		bucket = 8
	default:
		bucket = 9
	}
	h.buckets[bucket].Add(1)
}

var bucketUpperBound = [10]time.Duration{
	500 * time.Nanosecond,
	5 * time.Microsecond,
	50 * time.Microsecond,
	500 * time.Microsecond,
	5 * time.Millisecond,
	50 * time.Millisecond,
	500 * time.Millisecond,
	5 * time.Second,
	50 * time.Second,
	100 * time.Second,
}

func (h *durationHistogram) percentile(p float64) time.Duration {
	var total uint64
	for i := range h.buckets {
		total += h.buckets[i].Load()
	}
	if total == 0 {
		return 0
	}

	target := uint64(float64(total) * p)
	var count uint64
	for i := range h.buckets {
		count += h.buckets[i].Load()
		if count >= target {
			return bucketUpperBound[i]
		}
	}
	return 0
}
