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

// AtLeast returns v, or lo when v is below it.
func AtLeast[T constraints.Ordered](v, lo T) T {
	if v < lo {
		return lo
	}
	return v
}

// MaxOf returns the largest value of an unsigned integer type.
func MaxOf[T constraints.Unsigned]() T { return ^T(0) }

// SatInc increments v by one, holding at the type's maximum.
func SatInc[T constraints.Unsigned](v T) T {
	if v == MaxOf[T]() {
		return v
	}
	return v + 1
}
