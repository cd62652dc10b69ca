// Package mathx adapts the teacher's x/mathx clamp helpers for govisa's own
// use: clamping chunk sizes and timeout values into legal
// ranges. The firmware-specific PWM ramp/map helpers (LerpU16, MapU16) had
// no desktop VISA analogue and were dropped — see DESIGN.md.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Between reports lo <= v && v <= hi (order-insensitive).
func Between[T constraints.Ordered](v, lo, hi T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}
