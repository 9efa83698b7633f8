package metrics

import (
	"sort"
	"sync"
)

// Default is the process-wide registry used by the command-line tool.
var Default = NewRegistry()

// Registry maps function identities to their latency statistics.
// It is safe for concurrent use.
type Registry struct {
	// observers hold the read side; Clear holds the write side.
	clearMu sync.RWMutex
	stats   sync.Map // map[string]*LatencyStat
	units   sync.Map // map[string]Unit
}

// Entry pairs an identity with a copy of its statistics.
type Entry struct {
	Identity string
	Stat     StatSnapshot
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// GetOrCreate returns the entry for identity, creating it on first access.
// At most one entry is ever published per identity. Recording through the
// handle stays safe across Clear: later observations land in the entry that
// replaced it.
func (r *Registry) GetOrCreate(identity string) *LatencyStat {
	r.clearMu.RLock()
	defer r.clearMu.RUnlock()
	return r.getOrCreate(identity)
}

// getOrCreate requires clearMu to be held for reading.
func (r *Registry) getOrCreate(identity string) *LatencyStat {
	if v, ok := r.stats.Load(identity); ok {
		return v.(*LatencyStat)
	}

	unit := DefaultUnit
	if u, ok := r.units.Load(identity); ok {
		unit = u.(Unit)
	}
	fresh := newLatencyStat(unit)
	fresh.reg = r
	fresh.identity = identity
	v, loaded := r.stats.LoadOrStore(identity, fresh)
	stat := v.(*LatencyStat)
	if !loaded {
		// A SetUnit racing with the insert may have missed the new entry.
		if u, ok := r.units.Load(identity); ok && u.(Unit) != unit {
			stat.setUnit(u.(Unit))
		}
	}
	return stat
}

// Observe records one raw latency for identity.
func (r *Registry) Observe(identity string, raw int64) {
	r.clearMu.RLock()
	r.getOrCreate(identity).record(raw)
	r.clearMu.RUnlock()
}

// SetUnit registers the display unit for identity. The first registration
// wins: registering the same unit again is a no-op and registering a
// different one returns ErrUnitConflict.
func (r *Registry) SetUnit(identity string, unit Unit) error {
	if err := unit.Validate(); err != nil {
		return err
	}
	prev, loaded := r.units.LoadOrStore(identity, unit)
	if loaded {
		if prev.(Unit) != unit {
			return &UnitConflictError{Identity: identity, Registered: prev.(Unit), Requested: unit}
		}
		return nil
	}
	if v, ok := r.stats.Load(identity); ok {
		v.(*LatencyStat).setUnit(unit)
	}
	return nil
}

// UnitOf returns the registered display unit for identity.
func (r *Registry) UnitOf(identity string) (Unit, bool) {
	if u, ok := r.units.Load(identity); ok {
		return u.(Unit), true
	}
	return DefaultUnit, false
}

// Len returns the number of entries, including those without observations.
func (r *Registry) Len() int {
	n := 0
	r.stats.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Range calls fn with a copy of every entry until fn returns false.
func (r *Registry) Range(fn func(identity string, stat StatSnapshot) bool) {
	r.stats.Range(func(k, v interface{}) bool {
		return fn(k.(string), v.(*LatencyStat).Snapshot())
	})
}

// Snapshot returns a sorted copy of every entry with at least one
// observation. Latency keys compare raw values, never display values.
func (r *Registry) Snapshot(key SortKey, reverse bool) ([]Entry, error) {
	if !key.Valid() {
		return nil, unknownSortKey(string(key))
	}
	r.clearMu.RLock()
	entries := r.collect()
	r.clearMu.RUnlock()
	sortEntries(entries, key, reverse)
	return entries, nil
}

// SnapshotAndClear behaves like Snapshot followed by Clear, without letting
// an observation land between the two.
func (r *Registry) SnapshotAndClear(key SortKey, reverse bool) ([]Entry, error) {
	if !key.Valid() {
		return nil, unknownSortKey(string(key))
	}
	r.clearMu.Lock()
	entries := r.collect()
	r.detachAll()
	r.clearMu.Unlock()
	sortEntries(entries, key, reverse)
	return entries, nil
}

// Clear removes all statistics. Registered units are kept.
func (r *Registry) Clear() {
	r.clearMu.Lock()
	r.detachAll()
	r.clearMu.Unlock()
}

// detachAll drops every entry. It requires clearMu to be held for writing.
func (r *Registry) detachAll() {
	r.stats.Range(func(_, v interface{}) bool {
		v.(*LatencyStat).detached = true
		return true
	})
	r.stats.Clear()
}

func (r *Registry) collect() []Entry {
	entries := make([]Entry, 0)
	r.stats.Range(func(k, v interface{}) bool {
		snap := v.(*LatencyStat).Snapshot()
		if snap.Count > 0 {
			entries = append(entries, Entry{Identity: k.(string), Stat: snap})
		}
		return true
	})
	return entries
}

func sortEntries(entries []Entry, key SortKey, reverse bool) {
	sort.Slice(entries, func(i, j int) bool {
		c := key.compare(entries[i], entries[j])
		if c == 0 {
			return entries[i].Identity < entries[j].Identity
		}
		if reverse {
			return c > 0
		}
		return c < 0
	})
}
