package domain

import (
	"fmt"
	"math"
)

// Ids and quantities are stored in 32-bit integer columns
const (
	MaxStoredInt = math.MaxInt32
	MinStoredInt = math.MinInt32
)

// CheckStoredInt rejects a value that does not fit the stores' integer columns
func CheckStoredInt(field string, v int) error {
	if v > MaxStoredInt || v < MinStoredInt {
		return fmt.Errorf("%w: %s=%d", ErrOutOfRange, field, v)
	}
	return nil
}

// CheckStoredIntPtr is CheckStoredInt for optional values; nil passes
func CheckStoredIntPtr(field string, v *int) error {
	if v == nil {
		return nil
	}
	return CheckStoredInt(field, *v)
}
