// Package track wraps functions so every invocation is timed and recorded
// into a metrics.Registry under the wrapped function's identity.
//
// # Basic Usage
//
// Build a Tracker over a registry and wrap the functions to measure:
//
//	t := track.New(metrics.Default)
//	get := track.Func1(t, store.Get)
//	v, err := get("key")
//
// The identity is the fully qualified name of the wrapped function, for
// example "main.(*Store).Get". Use [Tracker.Named] to override it.
//
// # Units
//
// [Tracker.WithUnit] returns a derived tracker whose wrappers register a
// display unit for their identity. The first unit registered for an identity
// wins; later conflicting registrations are logged and ignored.
//
// # Sequences
//
// [Seq], [Seq1] and [Seq2] wrap functions that return lazy sequences. Each
// produced item is one observation: the time the producer spent computing
// it, excluding the time the consumer held it.
//
// # Errors and Panics
//
// Errors returned by the wrapped function are passed through unchanged. A
// panic is recorded as an observation and then re-raised with the same value.
package track
