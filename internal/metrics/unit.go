package metrics

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Unit describes how raw nanosecond latencies are displayed.
type Unit struct {
	Label   string  `json:"label" yaml:"label"`
	Divisor float64 `json:"divisor" yaml:"divisor"`
}

// DefaultUnit displays latencies in milliseconds.
var DefaultUnit = Unit{Label: "ms", Divisor: float64(time.Millisecond)}

var knownUnits = map[string]Unit{
	"ns": {Label: "ns", Divisor: float64(time.Nanosecond)},
	"us": {Label: "us", Divisor: float64(time.Microsecond)},
	"µs": {Label: "µs", Divisor: float64(time.Microsecond)},
	"ms": {Label: "ms", Divisor: float64(time.Millisecond)},
	"s":  {Label: "s", Divisor: float64(time.Second)},
}

// NewUnit returns a validated Unit.
func NewUnit(label string, divisor float64) (Unit, error) {
	u := Unit{Label: strings.TrimSpace(label), Divisor: divisor}
	if err := u.Validate(); err != nil {
		return Unit{}, err
	}
	return u, nil
}

// UnitFor resolves one of the well-known labels (ns, us, µs, ms, s).
func UnitFor(label string) (Unit, error) {
	u, ok := knownUnits[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return Unit{}, fmt.Errorf("%w: unknown unit label %q (supported: ns, us, ms, s)", ErrInvalidConfiguration, label)
	}
	return u, nil
}

// Validate reports whether the unit can be used to convert latencies.
func (u Unit) Validate() error {
	if strings.TrimSpace(u.Label) == "" {
		return fmt.Errorf("%w: unit label is required", ErrInvalidConfiguration)
	}
	if math.IsNaN(u.Divisor) || math.IsInf(u.Divisor, 0) || u.Divisor <= 0 {
		return fmt.Errorf("%w: unit %q divisor must be > 0, got %g", ErrInvalidConfiguration, u.Label, u.Divisor)
	}
	return nil
}

// Convert divides a raw latency by the unit divisor.
func (u Unit) Convert(raw float64) float64 {
	return raw / u.Divisor
}

func (u Unit) String() string {
	return fmt.Sprintf("%s (/%g)", u.Label, u.Divisor)
}
