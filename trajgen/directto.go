// trajgen/directto.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	gomath "math"

	"github.com/mmp/kinplan/kinematics"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"
)

var (
	// Retries of a direct-to leave at least this much time before the
	// following point.
	directToRetryMargin = 20.
	// Sampling parameters for finding where to rejoin a plan.
	directToMinStep  = 10.
	directToMinGsGap = math.KnotsToMS(10)
)

func failedPlan(name string, ty plan.ErrType, msg string, args ...any) *plan.Plan {
	p := plan.New(name)
	p.AddError(ty, -1, msg, args...)
	return p
}

// GenDirectToLinear returns the linear plan that starts at so at time to,
// flies along vo for tbt seconds, and then turns with the given bank
// angle to head for fp's first point, after which it follows fp. The
// returned plan carries an error if fp's first point can't be reached in
// time.
func GenDirectToLinear(fp *plan.Plan, so plan.Position, vo plan.Velocity, to, bank, tbt float64) *plan.Plan {
	if fp.Size() == 0 {
		return failedPlan(fp.Name, plan.Unknown, "direct-to target plan is empty")
	}
	lpc := fp.Copy()
	first := lpc.Point(0)
	if to >= first.Time {
		lpc.AddError(plan.Unknown, 0, "direct-to start time %.2f is not before the plan's first point", to)
		return lpc
	}

	vertex, tv, teot := kinematics.GenDirectToVertex(so, vo, first.Pos, bank, tbt)
	lpc.Add(plan.MakeNavPoint(so, to))
	switch {
	case vertex.IsInvalid() || !math.IsFinite(tv):
		lpc.AddError(plan.TurnInfeasible, 1, "turn radius is too large to reach the first point")
	case to+tv > first.Time:
		lpc.AddError(plan.TurnOverlapsEnd, 1, "direct-to vertex comes after the plan's first point")
	case teot < 0 || to+tv < 0:
		lpc.AddError(plan.Unknown, 1, "unable to generate direct-to")
	default:
		lpc.Add(plan.MakeNavPoint(vertex, to+tv))
		TrajLog(lpc.Name, TrajLogDirectTo, "vertex at t=%.2f, turn ends at t=%.2f", to+tv, to+teot)
	}
	return lpc
}

// GenDirectTo returns a kinematic plan that connects the state (so, vo,
// to) to fp's first point and then follows fp.
func GenDirectTo(fp *plan.Plan, so plan.Position, vo plan.Velocity, to float64, cfg Config, tbt float64) (*plan.Plan, error) {
	lpc := MakeLinearPlan(fp)
	lpc2 := GenDirectToLinear(lpc, so, vo, to, cfg.BankAngle, tbt)
	if lpc2.HasError() {
		return lpc2, lpc2.Err()
	}
	if lpc2.Size() < 2 {
		lpc2.AddError(plan.Unknown, -1, "direct-to plan has fewer than two points")
		return lpc2, lpc2.Err()
	}

	dcfg := cfg
	dcfg.RepairTurn = false
	dcfg.RepairGs, dcfg.RepairVs = true, true
	dcfg.GsMode = PreserveGs
	kpc, err := MakeKinematicPlan(lpc2, dcfg)
	if err != nil {
		return kpc, err
	}
	if kpc.Size() < 4 {
		kpc.AddError(plan.Unknown, -1, "direct-to kinematic plan has fewer than four points")
		return kpc, kpc.Err()
	}
	if d := math.TurnDelta(lpc2.InitialVelocity(1).Trk, kpc.InitialVelocity(3).Trk); d > maxTrackJump {
		kpc.AddError(plan.TurnOverlapsEnd, 1, "direct-to turn overlaps the following turn")
		return kpc, kpc.Err()
	}
	return kpc, nil
}

// GenDirectToRetry is like GenDirectTo but if the connection fails, the
// connection point is moved further along p and the direct-to is tried
// again. When the first leg is long enough, the next try is nextTry
// seconds along it; otherwise it is the plan's next point.
func GenDirectToRetry(p *plan.Plan, so plan.Position, vo plan.Velocity, to float64, cfg Config,
	tbt, nextTry float64) (*plan.Plan, error) {
	fp := MakeLinearPlan(p)
	for {
		kpc, err := GenDirectTo(fp, so, vo, to, cfg, tbt)
		if err == nil || fp.Size() <= 1 {
			return kpc, err
		}
		tm0, tm1 := fp.Time(0), fp.Time(1)
		if nextTry > 0 && tm0+nextTry+directToRetryMargin < tm1 {
			t := tm0 + nextTry
			fp.Add(plan.MakeNavPoint(fp.Position(t), t))
		}
		fp.Remove(0)
		TrajLog(fp.Name, TrajLogDirectTo, "retrying direct-to at t=%.2f", fp.FirstTime())
	}
}

// GenDirectToPoint returns a linear plan that flies from so at time to
// to the vertex of a direct-to turn and then straight to goal at vo's
// ground speed.
func GenDirectToPoint(name string, so plan.Position, vo plan.Velocity, to float64, goal plan.Position,
	bank, tbt float64) *plan.Plan {
	lpc := plan.New(name)
	lpc.Add(plan.MakeNavPoint(so, to))
	if vo.Gs < minGs {
		lpc.AddError(plan.GsZero, 0, "cannot fly direct-to at zero ground speed")
		return lpc
	}
	vertex, tv, teot := kinematics.GenDirectToVertex(so, vo, goal, bank, tbt)
	if tv < 0 || teot < 0 {
		lpc.AddError(plan.TurnInfeasible, 0, "could not generate direct-to maneuver")
		return lpc
	}
	vet := vertex.DistanceH(goal) / vo.Gs
	if tv+vet < teot {
		lpc.AddError(plan.TurnOverlapsEnd, 0, "direct-to turn takes too long")
		return lpc
	}
	lpc.Add(plan.MakeNavPoint(vertex, to+tv))
	lpc.Add(plan.MakeNavPoint(goal, to+tv+vet))
	return lpc
}

// bestTime samples base after s's time for the point where a direct-to
// from s with velocity v, turning at the given bank angle, best rejoins
// it: the turn must finish before the point's time and the ground speed
// needed afterward should be closest to v's. ok is false if there is no
// such point.
func bestTime(s plan.NavPoint, v plan.Velocity, base *plan.Plan, bank float64) (float64, bool) {
	r := kinematics.TurnRadius(v.Gs, bank)
	step := math.Max(directToMinStep, (base.LastTime()-s.Time)/20)
	best, bestDgs, ok := base.LastTime(), gomath.Inf(1), false
	for t := base.FirstTime(); t < base.LastTime(); t += step {
		if t <= s.Time {
			continue
		}
		eot, veot, dt, _ := kinematics.DirectToPoint(s.Pos, v, base.Position(t), r)
		t2 := s.Time + dt
		if dt < 0 || t2 >= t {
			continue
		}
		dgs := math.Abs(veot.Gs - eot.DistanceH(base.Position(t))/(t-t2))
		if dgs+directToMinGsGap < bestDgs {
			best, bestDgs, ok = t, dgs, true
		}
	}
	return best, ok
}

// BuildDirectTo returns a linear plan from s that rejoins base at the
// best reachable point and then follows it. If base can't be rejoined,
// the plan goes directly from s to base's last point.
func BuildDirectTo(name string, s plan.NavPoint, v plan.Velocity, base *plan.Plan, bank float64) *plan.Plan {
	lpc := plan.New(name)
	lpc.Add(s.MakeNewPoint())
	if base.Size() == 0 {
		return lpc
	}
	if t, ok := bestTime(s, v, base, bank); ok && v.Gs >= minGs {
		lpc.Add(plan.MakeNavPoint(base.Position(t), t))
		for _, np := range base.Points() {
			if np.Time > t+plan.MinDt {
				lpc.Add(np.MakeNewPoint())
			}
		}
		TrajLog(name, TrajLogDirectTo, "rejoining plan at t=%.2f", t)
		return lpc
	}
	lpc.Add(base.Point(base.Size() - 1).MakeNewPoint())
	return lpc
}
