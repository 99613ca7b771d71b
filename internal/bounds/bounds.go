// Package bounds holds the error shared by every bounds-checked write into
// the lighting tables.
package bounds

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when an index, coordinate or enum value falls
// outside the fixed table it addresses. The rejected write has no effect.
var ErrOutOfRange = errors.New("out of range")

// Check returns a wrapped ErrOutOfRange when v is not in [0, n).
func Check(what string, v, n int) error {
	if v < 0 || v >= n {
		return fmt.Errorf("%s %d not in [0,%d): %w", what, v, n, ErrOutOfRange)
	}
	return nil
}
