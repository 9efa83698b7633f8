package metrics

import (
	"math"
	"sync"
	"time"
)

// MinUnset is the minimum latency of an entry without observations.
const MinUnset int64 = math.MaxInt64

// LatencyStat is a thread-safe aggregate of the latencies observed for one
// tracked function. All latencies are raw nanoseconds.
type LatencyStat struct {
	mu    sync.Mutex
	max   int64
	min   int64
	count int64
	sum   int64
	unit  Unit

	// reg and identity are set for entries owned by a Registry. detached is
	// guarded by reg.clearMu and set once Clear has dropped the entry.
	reg      *Registry
	identity string
	detached bool
}

// StatSnapshot is an immutable copy of a LatencyStat.
type StatSnapshot struct {
	Count int64 `json:"count"`
	Sum   int64 `json:"sum_ns"`
	Min   int64 `json:"min_ns"`
	Max   int64 `json:"max_ns"`
	Unit  Unit  `json:"unit"`
}

// NewLatencyStat returns an empty entry displayed in DefaultUnit.
func NewLatencyStat() *LatencyStat {
	return newLatencyStat(DefaultUnit)
}

func newLatencyStat(unit Unit) *LatencyStat {
	return &LatencyStat{min: MinUnset, unit: unit}
}

// Record adds one observation. Negative latencies are recorded as zero.
// On a handle obtained before a registry Clear, the observation goes to the
// identity's current entry instead.
func (s *LatencyStat) Record(raw int64) {
	if s.reg == nil {
		s.record(raw)
		return
	}
	s.reg.clearMu.RLock()
	defer s.reg.clearMu.RUnlock()
	if s.detached {
		s.reg.getOrCreate(s.identity).record(raw)
		return
	}
	s.record(raw)
}

func (s *LatencyStat) record(raw int64) {
	if raw < 0 {
		raw = 0
	}
	s.mu.Lock()
	if raw > s.max {
		s.max = raw
	}
	if raw < s.min {
		s.min = raw
	}
	s.sum += raw
	s.count++
	s.mu.Unlock()
}

// RecordDuration adds one observation expressed as a time.Duration.
func (s *LatencyStat) RecordDuration(d time.Duration) {
	s.Record(int64(d))
}

// Average returns the mean latency in raw units, or 0 without observations.
func (s *LatencyStat) Average() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0
	}
	return float64(s.sum) / float64(s.count)
}

// Unit returns the display unit of the entry.
func (s *LatencyStat) Unit() Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unit
}

func (s *LatencyStat) setUnit(u Unit) {
	s.mu.Lock()
	s.unit = u
	s.mu.Unlock()
}

// Snapshot returns a copy of the entry state at the time of call. A handle
// held across a Clear keeps reporting its state from before the Clear.
func (s *LatencyStat) Snapshot() StatSnapshot {
	s.mu.Lock()
	snap := StatSnapshot{
		Count: s.count,
		Sum:   s.sum,
		Min:   s.min,
		Max:   s.max,
		Unit:  s.unit,
	}
	s.mu.Unlock()
	return snap
}

// Average returns Sum/Count, or 0 when Count is 0.
func (s StatSnapshot) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Count)
}

// HasSamples reports whether at least one observation was recorded.
func (s StatSnapshot) HasSamples() bool {
	return s.Count > 0
}
