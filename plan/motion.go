// plan/motion.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	gomath "math"

	"github.com/mmp/kinplan/math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Position returns the aircraft's position at time t. Within turns the
// position is on the arc about the BOT's center; within ground speed
// zones it advances along the leg with constant acceleration; within
// vertical speed zones the altitude follows the constant acceleration
// profile. Elsewhere, positions are interpolated. Times outside of the
// plan are extrapolated using the velocity at the first or last point.
func (p *Plan) Position(t float64) Position {
	n := len(p.points)
	switch {
	case n == 0:
		return InvalidPosition
	case n == 1:
		return p.points[0].Pos
	case t < p.points[0].Time:
		return p.points[0].Pos.Linear(p.InitialVelocity(0), t-p.points[0].Time)
	case t > p.points[n-1].Time:
		return p.points[n-1].Pos.Linear(p.FinalVelocity(n-2), t-p.points[n-1].Time)
	}

	seg := p.Segment(t)
	if seg == n-1 {
		return p.points[n-1].Pos
	}
	return p.horizontalAt(seg, t).WithAlt(p.altitudeAt(seg, t))
}

// horizontalAt returns the horizontal position at time t within segment
// seg; the altitude of the result is meaningless.
func (p *Plan) horizontalAt(seg int, t float64) Position {
	np0, np1 := p.points[seg], p.points[seg+1]

	if k := p.turnAt(seg); k >= 0 {
		bot := p.points[k]
		fr := FrameAt(bot.TCP.Center)
		c := fr.Project2(bot.TCP.Center)
		r := r2.Sub(fr.Project2(bot.Pos), c)
		rot := math.RotateCW(r, bot.TurnRate()*(t-bot.Time))
		return fr.Inverse(math.Vec2To3(r2.Add(c, rot), np0.Alt()))
	}

	if k := p.gsAt(seg); k >= 0 {
		bgs := p.points[k]
		a := bgs.TCP.GsAccel
		gsSeg := bgs.TCP.VelIn.Gs + a*(np0.Time-bgs.Time)
		dt := t - np0.Time
		return np0.Pos.LinearDist(np0.Pos.Track(np1.Pos), gsSeg*dt+0.5*a*dt*dt)
	}

	dt := np1.Time - np0.Time
	if dt <= 0 {
		return np0.Pos
	}
	return np0.Pos.Interpolate(np1.Pos, (t-np0.Time)/dt)
}

func (p *Plan) altitudeAt(seg int, t float64) float64 {
	np0, np1 := p.points[seg], p.points[seg+1]
	if k := p.vsAt(seg); k >= 0 {
		bvs := p.points[k]
		dt := t - bvs.Time
		return bvs.Alt() + bvs.TCP.VelIn.Vs*dt + 0.5*bvs.TCP.VsAccel*dt*dt
	}
	dt := np1.Time - np0.Time
	if dt <= 0 {
		return np0.Alt()
	}
	return math.Lerp((t-np0.Time)/dt, np0.Alt(), np1.Alt())
}

// Velocity returns the velocity at time t.
func (p *Plan) Velocity(t float64) Velocity {
	n := len(p.points)
	switch {
	case n < 2:
		return InvalidVelocity
	case t <= p.points[0].Time:
		return p.InitialVelocity(0)
	case t >= p.points[n-1].Time:
		return p.FinalVelocity(n - 2)
	}
	return p.velocityAt(p.Segment(t), t)
}

// InitialVelocity returns the velocity at the start of the segment that
// begins at point i; for the last point, the final velocity of the
// previous segment is returned.
func (p *Plan) InitialVelocity(i int) Velocity {
	n := len(p.points)
	if n < 2 || i < 0 {
		return InvalidVelocity
	}
	if i >= n-1 {
		return p.FinalVelocity(n - 2)
	}
	return p.velocityAt(i, p.points[i].Time)
}

// FinalVelocity returns the velocity at the end of the segment from
// point i to point i+1.
func (p *Plan) FinalVelocity(i int) Velocity {
	n := len(p.points)
	if n < 2 || i < 0 {
		return InvalidVelocity
	}
	i = math.Min(i, n-2)
	return p.velocityAt(i, p.points[i+1].Time)
}

func (p *Plan) velocityAt(seg int, t float64) Velocity {
	np0, np1 := p.points[seg], p.points[seg+1]
	dt := np1.Time - np0.Time

	var vs float64
	if k := p.vsAt(seg); k >= 0 {
		bvs := p.points[k]
		vs = bvs.TCP.VelIn.Vs + bvs.TCP.VsAccel*(t-bvs.Time)
	} else if dt > MinDt {
		vs = (np1.Alt() - np0.Alt()) / dt
	}

	if k := p.turnAt(seg); k >= 0 {
		bot := p.points[k]
		fr := FrameAt(bot.TCP.Center)
		c := fr.Project2(bot.TCP.Center)
		omega := bot.TurnRate()
		r := math.RotateCW(r2.Sub(fr.Project2(bot.Pos), c), omega*(t-bot.Time))
		trk := math.Track(r) + math.Sign(omega)*gomath.Pi/2
		v := MakeVelocity(trk, bot.TCP.VelIn.Gs, vs)
		return fr.InverseVelocity(math.Vec2To3(r2.Add(c, r), 0), v)
	}

	trk := p.legTrack(seg, t)
	if k := p.gsAt(seg); k >= 0 {
		bgs := p.points[k]
		return MakeVelocity(trk, bgs.TCP.VelIn.Gs+bgs.TCP.GsAccel*(t-bgs.Time), vs)
	}
	if dt <= MinDt {
		return MakeVelocity(trk, 0, vs)
	}
	return MakeVelocity(trk, np0.Pos.DistanceH(np1.Pos)/dt, vs)
}

// legTrack returns the track at time t on the straight segment seg.
func (p *Plan) legTrack(seg int, t float64) float64 {
	np0, np1 := p.points[seg], p.points[seg+1]
	if !np0.Pos.Geo || math.AlmostEqualTime(t, np0.Time) {
		return np0.Pos.Track(np1.Pos)
	}
	if math.AlmostEqualTime(t, np1.Time) {
		return np1.Pos.FinalTrack(np0.Pos)
	}
	pos := p.horizontalAt(seg, t)
	if pos.DistanceH(np1.Pos) < 1e-3 {
		return np1.Pos.FinalTrack(np0.Pos)
	}
	return pos.Track(np1.Pos)
}

// PathDistance returns the horizontal distance flown from point i to
// point j, following the arcs of turns.
func (p *Plan) PathDistance(i, j int) float64 {
	i, j = math.Max(i, 0), math.Min(j, len(p.points)-1)
	d := 0.
	for k := i; k < j; k++ {
		d += p.segmentDistance(k)
	}
	return d
}

func (p *Plan) PathDistanceTotal() float64 {
	return p.PathDistance(0, len(p.points)-1)
}

func (p *Plan) segmentDistance(seg int) float64 {
	chord := p.points[seg].Pos.DistanceH(p.points[seg+1].Pos)
	if k := p.turnAt(seg); k >= 0 {
		if r := math.Abs(p.points[k].TCP.Radius); r > 0 {
			return 2 * r * math.SafeASin(chord/(2*r))
		}
	}
	return chord
}

// AverageGroundSpeed returns the path distance from point i to point j
// divided by the time it takes.
func (p *Plan) AverageGroundSpeed(i, j int) float64 {
	if i < 0 || j >= len(p.points) || j <= i {
		return 0
	}
	dt := p.points[j].Time - p.points[i].Time
	if dt <= 0 {
		return 0
	}
	return p.PathDistance(i, j) / dt
}

// TimeFromDistance returns the time at which the path distance d from
// the first point is reached, or -1 if the plan is shorter than d.
func (p *Plan) TimeFromDistance(d float64) float64 {
	if len(p.points) == 0 || d < 0 {
		return -1
	}
	acc := 0.
	for seg := 0; seg < len(p.points)-1; seg++ {
		sd := p.segmentDistance(seg)
		if acc+sd >= d {
			np0, np1 := p.points[seg], p.points[seg+1]
			rem := d - acc
			if k := p.gsAt(seg); k >= 0 && p.turnAt(seg) < 0 {
				bgs := p.points[k]
				a := bgs.TCP.GsAccel
				gs := bgs.TCP.VelIn.Gs + a*(np0.Time-bgs.Time)
				if t, ok := firstPositiveRoot(0.5*a, gs, -rem); ok {
					return np0.Time + t
				}
			}
			if sd == 0 {
				return np0.Time
			}
			return np0.Time + (np1.Time-np0.Time)*rem/sd
		}
		acc += sd
	}
	return -1
}

func firstPositiveRoot(a, b, c float64) (float64, bool) {
	r0, r1, ok := math.QuadraticRoots(a, b, c)
	if !ok {
		return 0, false
	}
	if r0 >= 0 {
		return r0, true
	} else if r1 >= 0 {
		return r1, true
	}
	return 0, false
}
