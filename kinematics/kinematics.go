// kinematics/kinematics.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package kinematics provides closed-form motion of a point mass under a
// constant turn rate, ground speed acceleration or vertical speed
// acceleration. Geodetic inputs are handled in the tangent plane at the
// starting position.
package kinematics

import (
	gomath "math"

	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"

	"gonum.org/v1/gonum/spatial/r2"
)

///////////////////////////////////////////////////////////////////////////
// Turns

// TurnRadius returns the radius of a coordinated turn at ground speed gs
// with the given bank angle. Zero bank gives an infinite radius and a
// bank of 90 degrees or more gives zero.
func TurnRadius(gs, bank float64) float64 {
	abank := math.Abs(bank)
	if abank >= gomath.Pi/2 {
		return 0
	} else if abank == 0 {
		return gomath.MaxFloat64
	}
	return gs * gs / (math.Gravity * gomath.Tan(abank))
}

func TurnRadiusByRate(gs, omega float64) float64 {
	if omega == 0 {
		return gomath.MaxFloat64
	}
	return math.Abs(gs / omega)
}

// TurnRate returns the (unsigned) turn rate in radians per second.
func TurnRate(gs, bank float64) float64 {
	if math.Abs(bank) < 1e-12 || gs <= 0 {
		return 0
	}
	return math.Gravity * gomath.Tan(math.Abs(bank)) / gs
}

// BankAngle returns the bank angle for a turn of radius r at ground speed
// gs.
func BankAngle(gs, r float64) float64 {
	if r <= 0 {
		return 0
	}
	return gomath.Atan(gs * gs / (r * math.Gravity))
}

// SpeedOfTurn returns the ground speed for which a turn with the given
// bank angle has radius r.
func SpeedOfTurn(r, bank float64) float64 {
	return gomath.Sqrt(math.Gravity * r * gomath.Tan(math.Abs(bank)))
}

// TurnTime returns the time to change track by deltaTrk.
func TurnTime(gs, deltaTrk, bank float64) float64 {
	omega := TurnRate(gs, bank)
	if omega == 0 {
		return gomath.MaxFloat64
	}
	return math.Abs(deltaTrk / omega)
}

func TurnTimeByRate(deltaTrk, omega float64) float64 {
	if omega == 0 {
		return gomath.MaxFloat64
	}
	return math.Abs(deltaTrk / omega)
}

// TurnCenter returns the center of the turn starting at so with velocity
// vo and signed turn rate omega (positive for right turns).
func TurnCenter(so plan.Position, vo plan.Velocity, omega float64) plan.Position {
	fr := plan.FrameAt(so)
	c := turnCenter(fr.Project2(so), fr.ProjectVelocity(so, vo).Vec2(), TurnRadiusByRate(vo.Gs, omega),
		int(math.Sign(omega)))
	return fr.Inverse(math.Vec2To3(c, so.Alt()))
}

func turnCenter(s, v math.Vec2, r float64, dir int) math.Vec2 {
	h := math.Hat(v)
	var perp math.Vec2
	if dir >= 0 {
		perp = math.Vec2{X: h.Y, Y: -h.X}
	} else {
		perp = math.Vec2{X: -h.Y, Y: h.X}
	}
	return r2.Add(s, r2.Scale(r, perp))
}

// TurnProject returns the position and velocity after turning for time t
// at the signed rate omega. Vertical speed is held constant.
func TurnProject(so plan.Position, vo plan.Velocity, t, omega float64) (plan.Position, plan.Velocity) {
	if omega == 0 {
		return so.Linear(vo, t), vo
	}
	fr := plan.FrameAt(so)
	s := fr.Project2(so)
	lv := fr.ProjectVelocity(so, vo)
	c := turnCenter(s, lv.Vec2(), TurnRadiusByRate(vo.Gs, omega), int(math.Sign(omega)))

	r := math.RotateCW(r2.Sub(s, c), omega*t)
	pos := math.Vec2To3(r2.Add(c, r), so.Alt()+vo.Vs*t)
	v := plan.MakeVelocity(math.Track(r)+math.Sign(omega)*gomath.Pi/2, vo.Gs, vo.Vs)
	return fr.Inverse(pos), fr.InverseVelocity(pos, v)
}

// TurnByDist returns the position and velocity after flying the arc
// distance d around center, starting at so, in direction dir (+1 for
// right turns) at ground speed gs.
func TurnByDist(so, center plan.Position, dir int, d, gs float64) (plan.Position, plan.Velocity) {
	fr := plan.FrameAt(center)
	c := fr.Project2(center)
	r0 := r2.Sub(fr.Project2(so), c)
	radius := r2.Norm(r0)
	if radius == 0 {
		return plan.InvalidPosition, plan.InvalidVelocity
	}
	r := math.RotateCW(r0, float64(dir)*d/radius)
	pos := math.Vec2To3(r2.Add(c, r), so.Alt())
	v := plan.MakeVelocity(math.Track(r)+float64(dir)*gomath.Pi/2, gs, 0)
	return fr.Inverse(pos), fr.InverseVelocity(pos, v)
}

///////////////////////////////////////////////////////////////////////////
// Ground speed and vertical speed

// GsAccelProject returns the position and velocity after accelerating
// along the current track at a for time t.
func GsAccelProject(so plan.Position, vo plan.Velocity, t, a float64) (plan.Position, plan.Velocity) {
	d := vo.Gs*t + 0.5*a*t*t
	pos := so.LinearDist(vo.Trk, d).WithAlt(so.Alt() + vo.Vs*t)
	v := vo.WithGs(vo.Gs + a*t)
	if so.Geo && d > 0 {
		v = v.WithTrk(pos.FinalTrack(so))
	}
	return pos, v
}

// VsAccelProject returns the position and velocity after accelerating
// vertically at a for time t while flying the current track and ground
// speed.
func VsAccelProject(so plan.Position, vo plan.Velocity, t, a float64) (plan.Position, plan.Velocity) {
	pos := so.LinearDist(vo.Trk, vo.Gs*t).WithAlt(so.Alt() + vo.Vs*t + 0.5*a*t*t)
	v := vo.WithVs(vo.Vs + a*t)
	if so.Geo && vo.Gs*t > 0 {
		v = v.WithTrk(pos.FinalTrack(so))
	}
	return pos, v
}

// GsAccelTime returns the time to change ground speed from gs to goal
// with acceleration magnitude a, or -1 if a is zero.
func GsAccelTime(gs, goal, a float64) float64 {
	if a == 0 {
		return -1
	}
	return math.Abs((goal - gs) / a)
}

func VsAccelTime(vs, goal, a float64) float64 {
	if a == 0 {
		return -1
	}
	return math.Abs((goal - vs) / a)
}

// GsAccelToDist returns the ground speed when distance d has been covered
// starting at gsIn with signed acceleration a, along with the time it
// takes. The time is negative if d can't be reached.
func GsAccelToDist(gsIn, d, a float64) (float64, float64) {
	if gsIn < 0 || d < 0 || (a < 0 && d > -0.5*gsIn*gsIn/a) {
		return 0, -1
	}
	t := TimeFromDistance(gsIn, a, d)
	return gsIn + a*t, t
}

// TimeFromDistance returns the time to cover distance d starting at
// ground speed gs with acceleration a, or -1 if d is never reached.
func TimeFromDistance(gs, a, d float64) float64 {
	if a == 0 {
		if gs <= 0 {
			return -1
		}
		return d / gs
	}
	r0, r1, ok := math.QuadraticRoots(0.5*a, gs, -d)
	if !ok {
		return -1
	}
	if r0 >= 0 {
		return r0
	} else if r1 >= 0 {
		return r1
	}
	return -1
}

// RTASpeedEps is how close, in m/s, the average speed a leg needs for its
// RTA must be to the incoming ground speed for no acceleration to be
// needed.
const RTASpeedEps = 1e-6

// GsAccelToRTA returns the ground speed to accelerate to, and the
// acceleration time, so that distance dist is covered in exactly rta
// seconds starting at gsIn and then holding the new ground speed. aMax is
// the acceleration magnitude. The time is zero if gsIn already covers
// dist in rta and negative if there is no solution.
func GsAccelToRTA(gsIn, dist, rta, aMax float64) (float64, float64) {
	if rta <= 0 {
		return gsIn, -1
	}
	if math.Within(dist/rta, gsIn, RTASpeedEps) {
		return gsIn, 0
	}
	a := math.Abs(aMax)
	if dist/rta < gsIn {
		a = -a
	}
	//  0 = (d - gs1*t2) - (a*t2)*t + (0.5*a)*t^2
	A, B, C := 0.5*a, -a*rta, dist-gsIn*rta
	t := -1.
	if r0, r1, ok := math.QuadraticRoots(A, B, C); ok {
		if r1 < rta && r1 >= 0 {
			t = r1
		} else if r0 < rta && r0 >= 0 {
			t = r0
		}
	}
	if t < 0 {
		return gsIn, -1
	}
	return gsIn + a*t, t
}

///////////////////////////////////////////////////////////////////////////
// Direct-to

// tangentPoint returns the point of tangency on the circle of radius r
// about the origin of the line through s; eps selects which of the two.
func tangentPoint(s math.Vec2, r float64, eps int) (math.Vec2, bool) {
	sq := r2.Dot(s, s)
	delta := sq - r*r
	if delta < 0 || sq == 0 {
		return math.Vec2{}, false
	}
	alpha := r * r / sq
	beta := r * gomath.Sqrt(delta) / sq
	e := float64(eps)
	return math.Vec2{X: alpha*s.X + e*beta*s.Y, Y: alpha*s.Y - e*beta*s.X}, true
}

// DirectToPoint finds where a turn of radius r starting at so with
// velocity vo ends heading directly at wp. It returns the end of turn
// position and velocity, the turn time and the direction of the turn
// (+1 for right). The time is negative if wp is inside the turn circle.
func DirectToPoint(so plan.Position, vo plan.Velocity, wp plan.Position, r float64) (plan.Position, plan.Velocity, float64, int) {
	fr := plan.FrameAt(so)
	s, g := fr.Project2(so), fr.Project2(wp)
	lv := fr.ProjectVelocity(so, vo)

	dir := 1
	if r2.Cross(r2.Sub(g, s), lv.Vec2()) < 0 {
		dir = -1
	}
	c := turnCenter(s, lv.Vec2(), r, dir)
	t, ok := tangentPoint(r2.Sub(g, c), r, -dir)
	if !ok {
		return plan.InvalidPosition, plan.InvalidVelocity, -1, 0
	}
	eot := r2.Add(c, t)

	delta := math.TurnDeltaDir(lv.Trk, math.Track(r2.Sub(g, eot)), dir)
	omega := float64(dir) * vo.Gs / r
	turnTime := math.Abs(delta / omega)
	pos, vel := TurnProject(so, vo, turnTime, omega)
	return pos, vel, turnTime, dir
}

// GenDirectToVertex returns the vertex of the linear path that flies from
// so along vo for timeBeforeTurn seconds and then turns with the given
// bank angle to head directly at wp. Also returned are the times from so
// to the vertex and to the end of the turn. An invalid position and
// negative times are returned if there's no solution.
func GenDirectToVertex(so plan.Position, vo plan.Velocity, wp plan.Position, bank, timeBeforeTurn float64) (plan.Position, float64, float64) {
	s := so.Linear(vo, timeBeforeTurn)
	r := TurnRadius(vo.Gs, bank)
	eot, veot, t, _ := DirectToPoint(s, vo, wp, r)
	if t < 0 {
		return plan.InvalidPosition, -1, -1
	}
	ip, st := plan.Intersection(s, vo, eot, veot)
	if ip.IsInvalid() {
		return plan.InvalidPosition, -1, -1
	}
	return ip, st + timeBeforeTurn, t + timeBeforeTurn
}
