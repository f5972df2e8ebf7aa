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

// StepClamp adds n steps of size step (negative to subtract) to v and clamps
// the result to [lo, hi] after every step, so an intermediate overshoot can
// never wrap.
func StepClamp[T constraints.Signed](v, step T, n uint32, lo, hi T) T {
	for i := uint32(0); i < n; i++ {
		v = Clamp(v+step, lo, hi)
	}
	return v
}
