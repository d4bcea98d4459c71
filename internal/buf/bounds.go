// Package buf provides overflow-checked arithmetic for sizing requests
// before they reach the allocator. Request math runs on caller-supplied
// values, so every product and sum is validated instead of trusted.
package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would
// overflow uint64.
func AddOverflowSafe(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

// MulOverflowSafe multiplies a and b, returning ok = false when the result
// would overflow uint64. This is essential for count * elementSize
// calculations. Detection is a round-trip division check: a non-overflowing
// product divided by one factor yields the other.
func MulOverflowSafe(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/a != b {
		return 0, false
	}
	return r, true
}
