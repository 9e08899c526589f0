// math/geom.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Vectors in the local Euclidean frame: X is east, Y is north and Z is
// up, all in meters.
type (
	Vec2 = r2.Vec
	Vec3 = r3.Vec
)

// Hat returns v normalized to unit length; the zero vector is returned
// unchanged.
func Hat(v Vec2) Vec2 {
	n := r2.Norm(v)
	if n == 0 {
		return v
	}
	return r2.Scale(1/n, v)
}

// Track returns the compass angle of v.
func Track(v Vec2) float64 {
	// Note that atan2() normally measures w.r.t. the +x axis and angles
	// are positive for counter-clockwise. We want to measure w.r.t. +y and
	// to have positive angles be clockwise. Happily, swapping the order of
	// values passed to atan2()--passing (x,y), gives what we want.
	return NormalizeTrack(gomath.Atan2(v.X, v.Y))
}

// TrackVec returns the vector with the given track and length.
func TrackVec(trk, length float64) Vec2 {
	s, c := gomath.Sincos(trk)
	return Vec2{X: length * s, Y: length * c}
}

// RotateCW rotates v clockwise by the given angle.
func RotateCW(v Vec2, angle float64) Vec2 {
	return r2.Rotate(v, -angle, Vec2{})
}

func Distance2(a, b Vec2) float64 {
	return r2.Norm(r2.Sub(a, b))
}

func Vec3To2(v Vec3) Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

func Vec2To3(v Vec2, z float64) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: z}
}

// LineLineIntersect returns the intersection of the line through p1 and
// p2 with the line through p3 and p4; ok is false if they are (nearly)
// parallel.
func LineLineIntersect(p1, p2, p3, p4 Vec2) (Vec2, bool) {
	d12 := r2.Sub(p1, p2)
	d34 := r2.Sub(p3, p4)
	denom := r2.Cross(d12, d34)
	if gomath.Abs(denom) < 1e-9 {
		return Vec2{}, false
	}
	c12 := r2.Cross(p1, p2)
	c34 := r2.Cross(p3, p4)
	numx := c12*d34.X - d12.X*c34
	numy := c12*d34.Y - d12.Y*c34
	return Vec2{X: numx / denom, Y: numy / denom}, true
}

// RayRayIntersect intersects the rays p0+s*d0 and p1+t*d1 and returns the
// intersection point along with s. ok is false for parallel rays.
func RayRayIntersect(p0, d0, p1, d1 Vec2) (Vec2, float64, bool) {
	denom := r2.Cross(d0, d1)
	if gomath.Abs(denom) < 1e-12 {
		return Vec2{}, 0, false
	}
	s := r2.Cross(r2.Sub(p1, p0), d1) / denom
	return r2.Add(p0, r2.Scale(s, d0)), s, true
}

// SignedPointLineDistance returns the distance from p to the line through
// p0 and p1; the result is positive if p is to the right of the line
// when traveling from p0 to p1.
func SignedPointLineDistance(p, p0, p1 Vec2) float64 {
	// https://en.wikipedia.org/wiki/Distance_from_a_point_to_a_line
	d := r2.Sub(p1, p0)
	n := r2.Norm(d)
	if n == 0 {
		return gomath.Inf(1)
	}
	return r2.Cross(r2.Sub(p, p0), d) / n
}

// RightOfLine returns +1 if p is to the right of the line through p0 in
// direction dir, -1 if it is to the left and 0 if it is on the line.
func RightOfLine(p0, dir, p Vec2) int {
	c := r2.Cross(r2.Sub(p, p0), dir)
	if c > 0 {
		return 1
	} else if c < 0 {
		return -1
	}
	return 0
}

// ClosestPointOnLine returns the point on the line through p0 and p1 that
// is closest to p.
func ClosestPointOnLine(p0, p1, p Vec2) Vec2 {
	d := r2.Sub(p1, p0)
	n2 := r2.Dot(d, d)
	if n2 == 0 {
		return p0
	}
	t := r2.Dot(r2.Sub(p, p0), d) / n2
	return r2.Add(p0, r2.Scale(t, d))
}
