package pricing

import (
	"errors"
	"math"
	"sort"
)

// SizeStep is the granularity every requested dimension is rounded up to.
const SizeStep = 10.0

// ErrOutOfRange is returned when no tabulated size can cover a request.
var ErrOutOfRange = errors.New("size out of range")

// RoundUp rounds v up to the next multiple of step. Exact multiples are kept.
func RoundUp(v, step float64) float64 {
	return math.Ceil(v/step) * step
}

// ResolveSize rounds requested up to SizeStep and returns the smallest
// available value that is greater than or equal to it. available must be
// sorted ascending.
func ResolveSize(requested float64, available []float64) (float64, error) {
	rounded := RoundUp(requested, SizeStep)
	i := sort.SearchFloat64s(available, rounded)
	if i == len(available) {
		return 0, ErrOutOfRange
	}
	return available[i], nil
}
