// plan/velocity.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"fmt"
	gomath "math"

	"github.com/mmp/kinplan/math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Velocity is given as a compass track (radians), ground speed and
// vertical speed (m/s).
type Velocity struct {
	Trk, Gs, Vs float64
}

var InvalidVelocity = Velocity{Trk: gomath.NaN(), Gs: gomath.NaN(), Vs: gomath.NaN()}

func MakeVelocity(trk, gs, vs float64) Velocity {
	return Velocity{Trk: math.NormalizeTrack(trk), Gs: gs, Vs: vs}
}

// VelocityFromVec2 returns the velocity with horizontal components v
// (east, north) and vertical speed vs.
func VelocityFromVec2(v math.Vec2, vs float64) Velocity {
	return Velocity{Trk: math.Track(v), Gs: r2.Norm(v), Vs: vs}
}

func (v Velocity) WithTrk(trk float64) Velocity {
	v.Trk = math.NormalizeTrack(trk)
	return v
}

func (v Velocity) WithGs(gs float64) Velocity {
	v.Gs = gs
	return v
}

func (v Velocity) WithVs(vs float64) Velocity {
	v.Vs = vs
	return v
}

// Vec2 returns the horizontal velocity as an (east, north) vector.
func (v Velocity) Vec2() math.Vec2 {
	return math.TrackVec(v.Trk, v.Gs)
}

func (v Velocity) IsInvalid() bool {
	return !math.IsFinite(v.Trk) || !math.IsFinite(v.Gs) || !math.IsFinite(v.Vs)
}

// WithinEpsilon reports whether the 3D velocity vectors v and w differ
// by no more than eps.
func (v Velocity) WithinEpsilon(w Velocity, eps float64) bool {
	d := r2.Sub(v.Vec2(), w.Vec2())
	return gomath.Sqrt(r2.Dot(d, d)+math.Sqr(v.Vs-w.Vs)) <= eps
}

func (v Velocity) String() string {
	return fmt.Sprintf("[%.1f deg, %.1f kts, %.0f fpm]", math.Degrees(v.Trk), math.MSToKnots(v.Gs),
		math.MSToFPM(v.Vs))
}
