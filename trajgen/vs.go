// trajgen/vs.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"github.com/mmp/kinplan/kinematics"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"
)

var (
	maxPlanAlt   = math.FeetToMeters(60000)
	maxLinearVs  = math.FPMToMS(10000)
	vsZeroWindow = 1e-3
)

// vsBetween returns the average vertical speed between points i and j.
func vsBetween(p *plan.Plan, i, j int) float64 {
	dt := p.Time(j) - p.Time(i)
	if dt <= plan.MinDt {
		return 0
	}
	return (p.Point(j).Alt() - p.Point(i).Alt()) / dt
}

// vsAccelGenerator centers a vertical speed change from vs1 to vs2 on
// time t2, returning the zone's begin and end times and the acceleration
// time. The acceleration time is negative if the zone doesn't fit within
// [t1, tLast].
func vsAccelGenerator(t1, t2, tLast, vs1, vs2, a float64) (float64, float64, float64) {
	at := kinematics.VsAccelTime(vs1, vs2, a)
	if at < 0 {
		return 0, 0, -1
	}
	tb, te := t2-at/2, t2+at/2
	if tb < t1 || te > tLast {
		return tb, te, -1
	}
	return tb, te, at
}

// nextVsChangeTime returns the time of the first point after i where the
// vertical speed vs2 changes, or the plan's last time if it doesn't.
func nextVsChangeTime(p *plan.Plan, i int, vs2 float64, cfg Config) float64 {
	for j := i + 1; j+1 < p.Size(); j++ {
		if kinematics.VsAccelTime(vs2, vsBetween(p, j, j+1), cfg.VsAccel) > cfg.MinAccelTime {
			return p.Time(j)
		}
	}
	return p.LastTime()
}

// calcVsTimes returns the vertical speed zone for the change at point i.
// A zero acceleration means no zone is needed; ok is false if the change
// can't be made.
func calcVsTimes(p *plan.Plan, i int, cfg Config) (tb, te, a float64, ok bool) {
	vs1, vs2 := vsBetween(p, i-1, i), vsBetween(p, i, i+1)
	at := kinematics.VsAccelTime(vs1, vs2, cfg.VsAccel)
	if at <= cfg.MinAccelTime {
		return 0, 0, 0, true
	}
	tLast := nextVsChangeTime(p, i, vs2, cfg)
	tb, te, at = vsAccelGenerator(p.FirstTime(), p.Time(i), tLast, vs1, vs2, cfg.VsAccel)
	if at < 0 {
		return tb, te, 0, false
	}
	return tb, te, math.Sign(vs2-vs1) * math.Abs(cfg.VsAccel), true
}

// generateVsTCPs replaces each vertical speed discontinuity with a BVS
// and EVS centered on it, and recomputes the altitudes of the points
// within the new zone to follow the acceleration profile.
func generateVsTCPs(kpc *plan.Plan, cfg Config) *plan.Plan {
	traj := kpc.Copy()
	for i := 1; i+1 < traj.Size(); i++ {
		tb, te, a, ok := calcVsTimes(traj, i, cfg)
		if !ok {
			traj.AddError(plan.VsAccelDist, i, "not enough time to change vertical speed at point %d", i)
			return traj
		}
		if a == 0 {
			continue
		}
		if traj.InVsChange(tb) {
			traj.AddError(plan.VsAccelDist, i, "vertical speed change at point %d overlaps the previous one", i)
			return traj
		}
		if k := traj.PrevEVS(i); k >= 0 && tb < traj.Time(k) {
			traj.AddError(plan.VsAccelDist, i, "vertical speed change at point %d overlaps the previous one", i)
			return traj
		}

		np2 := traj.Point(i)
		vs1 := vsBetween(traj, i-1, i)
		vin := traj.Velocity(tb).WithVs(vs1)
		bPos, ePos := traj.Position(tb), traj.Position(te)
		eVel := traj.Velocity(te)

		remove := !np2.IsTCP() && !np2.TCP.Fixed
		base := np2.MakeStandardRetainSource().WithFixed(false)
		if np2.IsAltPreserve() {
			base = base.MakeAltPreserve()
		}
		bvs := base.MakeBVS(bPos, tb, a, vin)
		if remove {
			bvs = bvs.WithLabel(np2.Label)
		}
		evs := base.MakeEVS(ePos, te, eVel)

		if remove {
			traj.Remove(i)
		}
		ib := traj.Add(bvs)
		if ib < 0 {
			return traj
		}
		traj.SetVelIn(ib, traj.Point(ib).TCP.VelIn.WithVs(vs1))
		ie := traj.Add(evs)
		if ie < 0 {
			return traj
		}

		bAlt := traj.Point(ib).Alt()
		for j := ib + 1; j < ie; j++ {
			np := traj.Point(j)
			dt := np.Time - tb
			alt := bAlt + vs1*dt + 0.5*a*dt*dt
			if alt < 0 || alt > maxPlanAlt {
				traj.AddError(plan.Unknown, j, "altitude %.0f ft out of range in vertical speed change", math.MetersToFeet(alt))
				return traj
			}
			traj.SetAlt(j, alt)
			if (np.IsBeginTCP() || np.IsMOT()) && !np.TCP.VelIn.IsInvalid() {
				traj.SetVelIn(j, np.TCP.VelIn.WithVs(vs1+a*dt))
			}
		}
		TrajLog(traj.Name, TrajLogVs, "point %d: %.0f -> %.0f fpm over [%.2f, %.2f]", i, math.MSToFPM(vs1),
			math.MSToFPM(vs1+a*(te-tb)), tb, te)
		i = ie
	}
	return traj
}

// markVsChanges marks the points of lpc where the vertical speed changes
// enough, or the leg after is long enough, that the point's altitude must
// be kept when vertical speed zones are smoothed.
func markVsChanges(lpc *plan.Plan, cfg Config) *plan.Plan {
	kpc := lpc.Copy()
	if kpc.Size() < 2 {
		kpc.AddError(plan.Unknown, 0, "plan must have at least two points")
		return kpc
	}
	for i := 0; i+1 < kpc.Size(); i++ {
		if vs := vsBetween(kpc, i, i+1); math.Abs(vs) > maxLinearVs {
			kpc.AddWarning(plan.Unknown, i, "vertical speed %.0f fpm is excessive", math.MSToFPM(vs))
		}
	}
	for i := 1; i+1 < kpc.Size(); i++ {
		np := kpc.Point(i)
		if np.IsTCP() {
			continue
		}
		dvs := math.Abs(vsBetween(kpc, i, i+1) - vsBetween(kpc, i-1, i))
		if dvs >= cfg.MinVsChange || kpc.Time(i+1)-np.Time >= cfg.MinVsTime {
			kpc.Set(i, np.MakeAltPreserve())
		}
	}
	return kpc
}

// makeMarkedVsConstant relinearizes altitudes between the altitude
// preserving points, making the vertical speed constant between them.
func makeMarkedVsConstant(kpc *plan.Plan) *plan.Plan {
	traj := kpc.Copy()
	prev := 0
	for i := 1; i < traj.Size(); i++ {
		if !traj.Point(i).IsAltPreserve() && i != traj.Size()-1 {
			continue
		}
		t0, t1 := traj.Time(prev), traj.Time(i)
		a0, a1 := traj.Point(prev).Alt(), traj.Point(i).Alt()
		vs := 0.
		if t1-t0 > vsZeroWindow {
			vs = (a1 - a0) / (t1 - t0)
		}
		for j := prev + 1; j <= i; j++ {
			np := traj.Point(j)
			if j < i {
				traj.SetAlt(j, a0+vs*(np.Time-t0))
			}
			if np.IsTCP() && !np.TCP.VelIn.IsInvalid() {
				traj.SetVelIn(j, np.TCP.VelIn.WithVs(vs))
			}
		}
		prev = i
	}
	return traj
}

// cleanPlan merges points that are nearly coincident in time and resets
// the kind of every point to original.
func cleanPlan(p *plan.Plan) *plan.Plan {
	c := p.Copy()
	c.MergeClosePoints(plan.MinDt)
	for i := range c.Size() {
		c.Set(i, c.Point(i).MakeOriginal())
	}
	return c
}
