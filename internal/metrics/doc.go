// Package metrics aggregates per-function call latency inside a running process.
//
// The metrics package keeps one [LatencyStat] per tracked function identity
// (the fully-qualified function name) and exposes read access for renderers.
// It records raw nanosecond latencies and only converts them to a display
// [Unit] when rows are formatted.
//
// # Registry
//
// The central [Registry] type maps identities to their statistics:
//
//	reg := metrics.NewRegistry()
//	reg.Observe("main.fetch", int64(12*time.Millisecond))
//
//	// Sorted copy of every entry that has at least one observation
//	entries, err := reg.Snapshot(metrics.SortByAverage, true)
//
// Entries are created lazily on first access and never removed individually;
// [Registry.Clear] resets the whole registry.
//
// # Units
//
// Display units are registered per identity with [Registry.SetUnit]. The first
// registration wins; unit configuration survives [Registry.Clear].
//
//	unit, _ := metrics.NewUnit("s", 1e9)
//	_ = reg.SetUnit("main.fetch", unit)
//
// # Formatting
//
// [FormatSnapshot] converts a snapshot into display rows, optionally clearing
// the registry in the same critical section so no observation is lost between
// the read and the reset:
//
//	rows, err := metrics.FormatSnapshot(reg, metrics.SortByCalls, false, true)
//
// # Thread Safety
//
// Each LatencyStat guards its fields with its own mutex, so unrelated
// identities never contend. Observers share the read side of a registry-wide
// RWMutex that only [Registry.Clear] takes exclusively.
package metrics
