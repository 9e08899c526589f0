// math/core.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats/scalar"
)

// Degrees converts an angle expressed in radians to degrees
func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

// Radians converts an angle expressed in degrees to radians
func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

// SafeASin and SafeACos clamp their argument to [-1,1] first so that
// roundoff in a normalized dot product doesn't turn into a NaN.
func SafeASin(a float64) float64 {
	return gomath.Asin(Clamp(a, -1, 1))
}

func SafeACos(a float64) float64 {
	return gomath.Acos(Clamp(a, -1, 1))
}

func Sign[V constraints.Signed | constraints.Float](v V) V {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

func Clamp[T constraints.Ordered](x T, low T, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

func Lerp(x, a, b float64) float64 {
	return (1-x)*a + x*b
}

// Within reports whether a and b differ by no more than eps.
func Within(a, b, eps float64) bool {
	return scalar.EqualWithinAbs(a, b, eps)
}

// AlmostEqual compares with a tolerance scaled to the magnitude of the
// values; it is used where the original quantities may be large (e.g.,
// absolute times).
func AlmostEqual(a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, 1e-10, 1e-12)
}

// AlmostEqualTime is the comparison used for plan times.
func AlmostEqualTime(a, b float64) bool {
	return scalar.EqualWithinAbs(a, b, 1e-8)
}

func IsFinite(v float64) bool {
	return !gomath.IsNaN(v) && !gomath.IsInf(v, 0)
}

// QuadraticRoots returns the real roots of a*x^2 + b*x + c = 0, smallest
// first. ok is false if there are no real roots.
func QuadraticRoots(a, b, c float64) (r0, r1 float64, ok bool) {
	if a == 0 {
		if b == 0 {
			return 0, 0, false
		}
		r := -c / b
		return r, r, true
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, 0, false
	}
	sq := gomath.Sqrt(disc)
	r0, r1 = (-b-sq)/(2*a), (-b+sq)/(2*a)
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	return r0, r1, true
}
