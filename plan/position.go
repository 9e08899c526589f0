// plan/position.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"fmt"
	gomath "math"

	"github.com/mmp/kinplan/math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Position is a point in space, held either in a local Euclidean frame
// (meters) or as a geodetic latitude/longitude/altitude. All of the
// positions in a Plan are expected to use the same representation.
type Position struct {
	Geo bool
	XYZ math.Vec3      // valid if !Geo
	LLA math.LatLonAlt // valid if Geo
}

func MakeXYZ(x, y, z float64) Position {
	return Position{XYZ: math.Vec3{X: x, Y: y, Z: z}}
}

func MakeLLA(p math.LatLonAlt) Position {
	return Position{Geo: true, LLA: p}
}

// InvalidPosition is returned by operations that have no meaningful
// result.
var InvalidPosition = Position{XYZ: math.Vec3{X: gomath.NaN(), Y: gomath.NaN(), Z: gomath.NaN()}}

func (p Position) IsInvalid() bool {
	if p.Geo {
		return p.LLA.IsInvalid()
	}
	return !math.IsFinite(p.XYZ.X) || !math.IsFinite(p.XYZ.Y) || !math.IsFinite(p.XYZ.Z)
}

func (p Position) Alt() float64 {
	if p.Geo {
		return p.LLA.Alt
	}
	return p.XYZ.Z
}

func (p Position) WithAlt(alt float64) Position {
	if p.Geo {
		p.LLA.Alt = alt
	} else {
		p.XYZ.Z = alt
	}
	return p
}

// DistanceH returns the horizontal distance between p and q.
func (p Position) DistanceH(q Position) float64 {
	if p.Geo {
		return math.GCDistance(p.LLA, q.LLA)
	}
	return math.Distance2(math.Vec3To2(p.XYZ), math.Vec3To2(q.XYZ))
}

// DistanceV returns the (unsigned) altitude difference between p and q.
func (p Position) DistanceV(q Position) float64 {
	return gomath.Abs(p.Alt() - q.Alt())
}

// Track returns the track at p of the path from p to q.
func (p Position) Track(q Position) float64 {
	if p.Geo {
		return math.InitialCourse(p.LLA, q.LLA)
	}
	return math.Track(r2.Sub(math.Vec3To2(q.XYZ), math.Vec3To2(p.XYZ)))
}

// FinalTrack returns the track at p when arriving from q; for Euclidean
// positions it is the same as q.Track(p).
func (p Position) FinalTrack(from Position) float64 {
	if p.Geo {
		return math.FinalCourse(from.LLA, p.LLA)
	}
	return from.Track(p)
}

// LinearDist returns the position d meters from p along the given track;
// altitude is unchanged.
func (p Position) LinearDist(trk, d float64) Position {
	if p.Geo {
		return MakeLLA(math.GCDestination(p.LLA, trk, d))
	}
	v := math.TrackVec(trk, d)
	return MakeXYZ(p.XYZ.X+v.X, p.XYZ.Y+v.Y, p.XYZ.Z)
}

// Linear returns the position after flying with constant velocity v for
// dt seconds.
func (p Position) Linear(v Velocity, dt float64) Position {
	return p.LinearDist(v.Trk, v.Gs*dt).WithAlt(p.Alt() + v.Vs*dt)
}

// Interpolate returns the point the fraction f of the way from p to q.
func (p Position) Interpolate(q Position, f float64) Position {
	if p.Geo {
		return MakeLLA(math.GCInterpolate(p.LLA, q.LLA, f))
	}
	return Position{XYZ: r3.Add(p.XYZ, r3.Scale(f, r3.Sub(q.XYZ, p.XYZ)))}
}

func (p Position) MidPoint(q Position) Position {
	return p.Interpolate(q, 0.5)
}

// AlmostEquals reports whether p and q are within epsH horizontally and
// epsV vertically.
func (p Position) AlmostEquals(q Position, epsH, epsV float64) bool {
	return p.DistanceH(q) <= epsH && p.DistanceV(q) <= epsV
}

// Collinear reports whether p, q and r lie (nearly) on a common line in
// the horizontal plane.
func (p Position) Collinear(q, r Position) bool {
	fr := FrameAt(q)
	a, b, c := fr.Project2(p), fr.Project2(q), fr.Project2(r)
	return gomath.Abs(math.SignedPointLineDistance(b, a, c)) < 1e-3
}

func (p Position) String() string {
	if p.Geo {
		return fmt.Sprintf("(%.6f, %.6f, %.0fft)", p.LLA.LatDeg(), p.LLA.LonDeg(), math.MetersToFeet(p.LLA.Alt))
	}
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", p.XYZ.X, p.XYZ.Y, p.XYZ.Z)
}

///////////////////////////////////////////////////////////////////////////
// Frame

// Frame maps positions to a local Euclidean frame and back. For Euclidean
// positions it is the identity; for geodetic positions it is the
// azimuthal equidistant projection about a reference point.
type Frame struct {
	geo  bool
	proj math.Projection
}

// FrameAt returns the local frame whose origin is ref (for geodetic
// positions).
func FrameAt(ref Position) Frame {
	if !ref.Geo {
		return Frame{}
	}
	return Frame{geo: true, proj: math.ProjectionFor(ref.LLA)}
}

func (f Frame) Project(p Position) math.Vec3 {
	if !f.geo {
		return p.XYZ
	}
	return f.proj.Project(p.LLA)
}

func (f Frame) Project2(p Position) math.Vec2 {
	return math.Vec3To2(f.Project(p))
}

func (f Frame) Inverse(v math.Vec3) Position {
	if !f.geo {
		return Position{XYZ: v}
	}
	return MakeLLA(f.proj.Inverse(v))
}

// ProjectVelocity returns v, given at p, expressed in the local frame.
func (f Frame) ProjectVelocity(p Position, v Velocity) Velocity {
	if !f.geo {
		return v
	}
	return v.WithTrk(f.proj.ProjectTrack(p.LLA, v.Trk))
}

// InverseVelocity converts v, given at local point lp, back to a track
// on the earth.
func (f Frame) InverseVelocity(lp math.Vec3, v Velocity) Velocity {
	if !f.geo {
		return v
	}
	return v.WithTrk(f.proj.InverseTrack(math.Vec3To2(lp), v.Trk))
}

// Intersection returns the point where the horizontal paths from p1 with
// velocity v1 and from p2 with velocity v2 cross, along with the time it
// takes to get there from p1. The altitude of the result follows v1. If
// the paths are parallel, an invalid position and -1 are returned.
func Intersection(p1 Position, v1 Velocity, p2 Position, v2 Velocity) (Position, float64) {
	fr := FrameAt(p1)
	a, b := fr.Project2(p1), fr.Project2(p2)
	va, vb := fr.ProjectVelocity(p1, v1).Vec2(), fr.ProjectVelocity(p2, v2).Vec2()
	x, s, ok := math.RayRayIntersect(a, va, b, vb)
	if !ok {
		return InvalidPosition, -1
	}
	return fr.Inverse(math.Vec2To3(x, p1.Alt()+v1.Vs*s)), s
}
