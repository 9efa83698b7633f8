package metrics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfiguration is returned for a unit with a blank label or a
	// non-positive divisor.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrUnknownSortKey is returned when a snapshot is requested with a sort
	// key outside the recognized set.
	ErrUnknownSortKey = errors.New("unknown sort key")
	// ErrUnitConflict is returned when an identity already has a different
	// display unit registered.
	ErrUnitConflict = errors.New("unit already registered")
)

// UnitConflictError describes a rejected SetUnit call.
type UnitConflictError struct {
	Identity   string
	Registered Unit
	Requested  Unit
}

func (e *UnitConflictError) Error() string {
	return fmt.Sprintf("%s: %s keeps %s, ignoring %s", ErrUnitConflict, e.Identity, e.Registered, e.Requested)
}

func (e *UnitConflictError) Is(target error) bool {
	return target == ErrUnitConflict
}

func unknownSortKey(key string) error {
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnknownSortKey, key, strings.Join(sortKeyNames(), ", "))
}
