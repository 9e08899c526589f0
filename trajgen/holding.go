// trajgen/holding.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	gomath "math"

	"github.com/mmp/kinplan/kinematics"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"
)

// turnGenerator3 returns the turn that starts at so with velocity vo and
// turns at rate omega (radians/s, positive right) for dt seconds. The
// source of the turn points is the vertex where the straight legs into
// and out of the turn would meet.
func turnGenerator3(so plan.NavPoint, vo plan.Velocity, omega, dt float64) (turn, bool) {
	if omega == 0 || dt <= 0 || vo.Gs < minGs {
		return turn{}, false
	}
	motPos, motVel := kinematics.TurnProject(so.Pos, vo, dt/2, omega)
	eotPos, eotVel := kinematics.TurnProject(so.Pos, vo, dt, omega)
	vertex, s := plan.Intersection(so.Pos, vo, eotPos, eotVel)
	if vertex.IsInvalid() || s < 0 {
		return turn{}, false
	}

	base := so.MakeStandardRetainSource().WithSource(vertex, so.Time+s).WithFixed(false)
	center := kinematics.TurnCenter(so.Pos, vo, omega)
	return turn{
		bot: base.MakeBOT(so.Pos, so.Time, vo, vo.Gs/omega, center).WithLabel(so.Label),
		mot: base.MakeMOT(motPos, so.Time+dt/2, motVel),
		eot: base.MakeEOT(eotPos, so.Time+dt, eotVel),
	}, true
}

// StandardHoldingPattern returns a kinematic racetrack plan that starts at
// so at time t: a leg of length legA, a 90 degree turn at rate omega, a
// leg of length legB, and so on around four sides until it is back where
// it started. Positive omega gives right turns.
func StandardHoldingPattern(so plan.Position, vo plan.Velocity, t, omega, legA, legB float64) *plan.Plan {
	p := plan.New("holding")
	v := vo.WithVs(0)
	if v.Gs < minGs || omega == 0 {
		p.AddError(plan.Unknown, -1, "holding pattern requires nonzero ground speed and turn rate")
		return p
	}
	dt := math.Abs(gomath.Pi / 2 / omega)

	pos, tm := so, t
	p.Add(plan.MakeNavPoint(pos, tm).WithLabel("hold"))
	for k := range 4 {
		leg := legA
		if k%2 == 1 {
			leg = legB
		}
		lt := math.Max(leg/v.Gs, 1)
		pos, tm = pos.Linear(v, lt), tm+lt

		tt, ok := turnGenerator3(plan.MakeNavPoint(pos, tm), v, omega, dt)
		if !ok {
			p.AddError(plan.TurnInfeasible, p.Size(), "unable to generate holding turn %d", k+1)
			return p
		}
		p.Add(tt.bot)
		p.Add(tt.mot)
		p.Add(tt.eot)
		pos, tm, v = tt.eot.Pos, tt.eot.Time, tt.eot.TCP.VelIn.WithVs(0)
	}
	return p
}
