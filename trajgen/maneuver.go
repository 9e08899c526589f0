// trajgen/maneuver.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"github.com/mmp/kinplan/kinematics"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"

	"github.com/google/uuid"
)

var (
	// Far end of the open-ended maneuver plans.
	maneuverHorizon = 100000.
	maneuverGsSpan  = 3600.
	// Direct-to delays are tried up to this many seconds.
	maneuverMaxDelay = 50.
)

// maneuverName returns a unique plan name derived from name.
func maneuverName(name string) string {
	return name + "-" + uuid.NewString()[:8]
}

// ManeuverToPosition returns a kinematic plan that flies from so at time
// to directly to goal at vo's ground speed, after flying straight for at
// least delay seconds. The delay is extended a second at a time until a
// feasible plan is found.
func ManeuverToPosition(name string, so plan.Position, vo plan.Velocity, to float64, goal plan.Position,
	cfg Config, delay float64) (*plan.Plan, error) {
	pc := plan.New(maneuverName(name))
	pc.Add(plan.MakeNavPoint(goal, to+maneuverHorizon))

	mcfg := cfg
	mcfg.RepairTurn, mcfg.RepairGs, mcfg.RepairVs = false, false, false
	mcfg.GsMode = PreserveGs

	var kpc *plan.Plan
	var err error
	for d := delay; d < maneuverMaxDelay; d++ {
		lpc := GenDirectToLinear(pc, so, vo, to, cfg.BankAngle, d)
		if lpc.HasError() {
			return lpc, lpc.Err()
		}
		lpc.LinearMakeGsConstant(0, lpc.Size()-1, vo.Gs)
		if lpc.HasError() {
			return lpc, lpc.Err()
		}
		if kpc, err = MakeKinematicPlan(lpc, mcfg); err == nil {
			return kpc, nil
		}
		TrajLog(pc.Name, TrajLogDirectTo, "maneuver with delay %.0f s failed: %v", d, err)
	}
	if kpc == nil {
		kpc = failedPlan(pc.Name, plan.Unknown, "no feasible maneuver with delay under %.0f s", maneuverMaxDelay)
		err = kpc.Err()
	}
	return kpc, err
}

// ManeuverToGs returns a kinematic plan that flies straight ahead from so
// at time to and, after delay seconds, changes ground speed to targetGs.
func ManeuverToGs(name string, so plan.Position, vo plan.Velocity, to, targetGs float64, cfg Config,
	delay float64) (*plan.Plan, error) {
	kpc := plan.New(maneuverName(name))
	if vo.Gs < minGs || targetGs < minGs {
		kpc.AddError(plan.GsZero, -1, "ground speed maneuver requires nonzero speeds")
		return kpc, kpc.Err()
	}
	delay = math.Max(delay, 0)
	v := vo.WithVs(0)
	start := plan.MakeNavPoint(so, to)
	np1 := plan.MakeNavPoint(so.Linear(v, delay), to+delay)
	farPos := so.Linear(v, delay+maneuverGsSpan)
	np2 := plan.MakeNavPoint(farPos, np1.Time+maneuverGsSpan)

	kpc.Add(start)
	bgs, egs, accelTime := gsAccelGenerator(np1, np2, targetGs, v, cfg, false)
	switch {
	case accelTime < 0:
		kpc.AddError(plan.GsAccelDist, 0, "unable to reach %.1f kts", math.MSToKnots(targetGs))
		return kpc, kpc.Err()
	case accelTime < cfg.MinTimeStep:
		kpc.Add(np2.WithTime(to + so.DistanceH(farPos)/targetGs))
		return kpc, nil
	}
	kpc.Add(bgs)
	kpc.Add(egs)
	kpc.Add(np2.WithTime(egs.Time + egs.Pos.DistanceH(farPos)/targetGs))
	return kpc, kpc.Err()
}

// ManeuverToTime returns a kinematic plan that flies straight from so at
// time to toward goal, changing ground speed after delay seconds so that
// goal is reached at time rta.
func ManeuverToTime(name string, so plan.Position, vo plan.Velocity, to float64, goal plan.Position, rta float64,
	cfg Config, delay float64) (*plan.Plan, error) {
	kpc := plan.New(maneuverName(name))
	delay = math.Max(delay, 0)
	if vo.Gs < minGs {
		kpc.AddError(plan.GsZero, -1, "time maneuver requires nonzero ground speed")
		return kpc, kpc.Err()
	}
	v := vo.WithTrk(so.Track(goal)).WithVs(0)
	kpc.Add(plan.MakeNavPoint(so, to))

	np1 := plan.MakeNavPoint(so.Linear(v, delay), to+delay)
	if rta <= np1.Time {
		kpc.AddError(plan.GsAccelDist, 0, "arrival time %.1f is too soon", rta)
		return kpc, kpc.Err()
	}
	d := np1.Pos.DistanceH(goal)
	gsOut, accelTime := kinematics.GsAccelToRTA(v.Gs, d, rta-np1.Time, cfg.GsAccel)
	end := plan.MakeNavPoint(goal, rta).WithFixed(true)
	switch {
	case accelTime < 0 || !math.IsFinite(accelTime):
		kpc.AddError(plan.GsAccelDist, 0, "unable to reach goal at %.1f", rta)
		return kpc, kpc.Err()
	case accelTime < cfg.MinTimeStep:
		kpc.Add(end)
		return kpc, nil
	}

	a := math.Sign(gsOut-v.Gs) * math.Abs(cfg.GsAccel)
	base := np1.MakeStandardRetainSource()
	bgs := base.MakeBGS(np1.Pos, np1.Time, a, v)
	ePos, eVel := kinematics.GsAccelProject(np1.Pos, v, accelTime, a)
	egs := base.MakeEGS(ePos, np1.Time+accelTime, eVel)
	kpc.Add(bgs)
	kpc.Add(egs)
	kpc.Add(end)
	return kpc, kpc.Err()
}

// ReconnectToPlan returns a kinematic plan that joins p from the state
// (so, vo, to), skipping the points of p that can't be reached before
// the direct-to turn starts.
func ReconnectToPlan(p *plan.Plan, so plan.Position, vo plan.Velocity, to float64, cfg Config,
	tbt, nextTry float64) (*plan.Plan, error) {
	lpc := MakeLinearPlan(p)
	lpc.Name = maneuverName(p.Name)
	for lpc.Size() > 0 && lpc.FirstTime() <= to+tbt {
		lpc.Remove(0)
	}
	if lpc.Size() == 0 {
		lpc.AddError(plan.Unknown, -1, "no points of %s remain after %.1f", p.Name, to+tbt)
		return lpc, lpc.Err()
	}
	return GenDirectToRetry(lpc, so, vo, to, cfg, tbt, nextTry)
}
