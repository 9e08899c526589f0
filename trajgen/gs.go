// trajgen/gs.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"github.com/mmp/kinplan/kinematics"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"
)

// Ground speed zones shorter than this aren't generated.
var minGsZoneDist = math.FeetToMeters(50)

// linearLegInto returns the index of the segment of the linear plan lpc
// that leads to np: the leg into its linear source point if it has one,
// otherwise the segment containing its time.
func linearLegInto(lpc *plan.Plan, np plan.NavPoint) int {
	if k := np.TCP.LinearIndex; k >= 1 && k < lpc.Size() {
		return k - 1
	}
	if lpc.Size() < 2 {
		return -1
	}
	seg := lpc.Segment(np.Time)
	if seg < 0 {
		if np.Time < lpc.FirstTime() {
			return 0
		}
		return lpc.Size() - 2
	}
	if lpc.Index(np.Time) >= 0 {
		seg--
	}
	return math.Clamp(seg, 0, lpc.Size()-2)
}

// fixGS retimes the kinematic plan traj so that the ground speed of each
// straight leg and each turn matches the linear plan lpc's. Each change
// is propagated downstream; in PreserveRTAs mode, the propagation stops
// at fixed points.
func fixGS(lpc, traj *plan.Plan, cfg Config) *plan.Plan {
	kpc := traj.Copy()
	preserveFixed := cfg.GsMode == PreserveRTAs
	for i := kpc.Size() - 1; i > 0; i-- {
		np := kpc.Point(i)
		if !np.IsBOT() && (np.IsTCP() || kpc.InTrkChange(np.Time)) {
			continue
		}
		seg := linearLegInto(lpc, np)
		if seg < 0 {
			continue
		}
		gs := lpc.InitialVelocity(seg).Gs
		if gs < minGs {
			kpc.AddError(plan.GsZero, i, "cannot fly the leg into point %d at zero ground speed", i)
			return kpc
		}
		if dt := kpc.LinearCalcTimeGSin(i, gs) - np.Time; !math.Within(dt, 0, plan.MinDt) {
			if !timeshift(kpc, i, dt, preserveFixed) {
				return kpc
			}
		}
	}
	return kpc
}

// timeshift shifts the points of traj from start on by dt. If points had
// to be dropped to keep a fixed point's time, a RemoveFixed error is
// recorded and false is returned.
func timeshift(traj *plan.Plan, start int, dt float64, preserveFixed bool) bool {
	n := traj.Size()
	if traj.TimeshiftPlan(start, dt, preserveFixed) {
		return true
	}
	traj.AddError(plan.RemoveFixed, start, "shifting by %.2f s drops %d points before a fixed point", dt, n-traj.Size())
	return false
}

// gsAccelGenerator returns the BGS and EGS of a change from the velocity
// vin to ground speed targetGs on the leg from np1 to np2, along with the
// acceleration time. If np1 is a TCP, the change starts MinTimeStep
// after it. When rta is set, the change is instead sized so that np2 is
// reached at its current time. The returned time is negative if the
// change can't be completed on the leg; if it is less than MinTimeStep no
// change is needed and the points are meaningless.
func gsAccelGenerator(np1, np2 plan.NavPoint, targetGs float64, vin plan.Velocity, cfg Config,
	rta bool) (plan.NavPoint, plan.NavPoint, float64) {
	offset := 0.
	if np1.IsTCP() {
		offset = cfg.MinTimeStep
	}
	v := vin.WithTrk(np1.Pos.Track(np2.Pos))
	gs1 := v.Gs
	bPos := np1.Pos.Linear(v, offset)
	tb := np1.Time + offset
	d := bPos.DistanceH(np2.Pos)

	var a, accelTime float64
	if rta {
		var gsOut float64
		gsOut, accelTime = kinematics.GsAccelToRTA(gs1, d, np2.Time-tb, cfg.GsAccel)
		if np2.Time <= tb || !math.IsFinite(accelTime) || accelTime < 0 {
			return plan.NavPoint{}, plan.NavPoint{}, -1
		}
		if accelTime < cfg.MinTimeStep {
			return plan.NavPoint{}, plan.NavPoint{}, accelTime
		}
		a = (gsOut - gs1) / accelTime
	} else {
		a = math.Sign(targetGs-gs1) * math.Abs(cfg.GsAccel)
		if a == 0 {
			return plan.NavPoint{}, plan.NavPoint{}, 0
		}
		accelTime = (targetGs - gs1) / a
		if accelTime < cfg.MinTimeStep {
			return plan.NavPoint{}, plan.NavPoint{}, accelTime
		}
		remaining := d - targetGs*cfg.MinTimeStep - accelTime*(gs1+targetGs)/2
		if remaining <= 0 {
			return plan.NavPoint{}, plan.NavPoint{}, -1
		}
	}

	base := np1.MakeStandardRetainSource()
	bgs := base.MakeBGS(bPos, tb, a, v)
	if offset == 0 {
		bgs = bgs.WithLabel(np1.Label)
	} else {
		bgs = bgs.WithFixed(false)
	}
	ePos, eVel := kinematics.GsAccelProject(bPos, v, accelTime, a)
	egs := base.MakeEGS(ePos, tb+accelTime, eVel).WithFixed(false)
	return bgs, egs, accelTime
}

// generateGsTCPs inserts a ground speed zone wherever the ground speed
// changes between legs. Legs are processed in order so that each zone
// starts from the speed actually reached at its beginning.
func generateGsTCPs(kpc *plan.Plan, cfg Config) *plan.Plan {
	traj := kpc.Copy()
	if cfg.GsMode == PreserveTimes && traj.Size() > 2 && traj.Point(1).IsBOT() {
		if !retimeTurn(traj, 1, traj.FinalVelocity(0).Gs) {
			return traj
		}
	}
	for i := 1; i+1 < traj.Size(); {
		next, ok := addGsZone(traj, i, cfg)
		if !ok {
			return traj
		}
		// In PreserveTimes mode the speed reaching a turn is set by the
		// times of the points around it, so the turn is flown at that speed.
		if cfg.GsMode == PreserveTimes && next < traj.Size() && traj.Point(next).IsBOT() {
			if !retimeTurn(traj, next, traj.FinalVelocity(next-1).Gs) {
				return traj
			}
		}
		i = next
	}
	return traj
}

// addGsZone adds the zone, if any, for the leg that starts at point i. It
// returns the index of the point that ended the leg, or false if an error
// was recorded on traj.
func addGsZone(traj *plan.Plan, i int, cfg Config) (int, bool) {
	np1, np2 := traj.Point(i), traj.Point(i+1)
	if traj.InTrkChange(np1.Time) {
		return i + 1, true
	}
	vin := traj.FinalVelocity(i - 1)
	targetGs := traj.InitialVelocity(i).Gs
	if vin.Gs < minGs || targetGs < minGs {
		traj.AddWarning(plan.GsZero, i, "no ground speed change generated for zero ground speed leg")
		return i + 1, true
	}

	preserveFixed := cfg.GsMode == PreserveRTAs
	rta := cfg.GsMode == PreserveTimes || (preserveFixed && np2.TCP.Fixed)
	bgs, egs, accelTime := gsAccelGenerator(np1, np2, targetGs, vin, cfg, rta)
	if accelTime < 0 {
		traj.AddError(plan.GsAccelDist, i, "not enough distance to change ground speed from %.1f to %.1f kts",
			math.MSToKnots(vin.Gs), math.MSToKnots(targetGs))
		return i + 1, false
	}
	if accelTime < cfg.MinTimeStep || bgs.Pos.DistanceH(egs.Pos) < minGsZoneDist {
		return i + 1, true
	}

	if !rta {
		// Flying the zone takes a different time than flying its distance
		// at targetGs, so np2 and everything after it move to keep
		// targetGs on the rest of the leg.
		dt := egs.Time + egs.Pos.DistanceH(np2.Pos)/targetGs - np2.Time
		if !math.Within(dt, 0, plan.MinDt) && !timeshift(traj, i+1, dt, preserveFixed) {
			return i + 1, false
		}
	}
	if traj.InTrkChange(bgs.Time) || traj.InTrkChange(egs.Time) {
		traj.AddError(plan.GsAccelOverlap, i, "ground speed change overlaps a turn")
		return i + 1, false
	}

	if np1.IsAltPreserve() {
		bgs = bgs.MakeAltPreserve()
	}
	if !np1.IsTCP() {
		traj.Remove(i)
	}
	if traj.Add(bgs) < 0 {
		return i + 1, false
	}
	ie := traj.Add(egs)
	if ie < 0 {
		return i + 1, false
	}
	TrajLog(traj.Name, TrajLogGs, "point %d: %.1f -> %.1f kts over %.2f s", i, math.MSToKnots(vin.Gs),
		math.MSToKnots(egs.TCP.VelIn.Gs), accelTime)
	return ie + 1, true
}

// retimeTurn changes the ground speed of the turn that begins at ib to
// gs. The BOT keeps its time and the rest of the turn is retimed along
// the same path. false is returned, with an error recorded on traj, if
// the turn would then end at or after the point that follows it.
func retimeTurn(traj *plan.Plan, ib int, gs float64) bool {
	bot := traj.Point(ib)
	ie := traj.NextEOT(ib)
	gs0 := bot.TCP.VelIn.Gs
	if ie < 0 || gs < minGs || gs0 < minGs || math.Within(gs, gs0, kinematics.RTASpeedEps) {
		return true
	}

	scale := gs0 / gs
	tb := bot.Time
	retime := func(t float64) float64 { return tb + (t-tb)*scale }
	if ie+1 < traj.Size() && retime(traj.Time(ie)) >= traj.Time(ie+1)-plan.MinDt {
		traj.AddError(plan.GsAccelDist, ib, "turn flown at %.1f kts ends after the next point", math.MSToKnots(gs))
		return false
	}

	setGs := func(j int) {
		if v := traj.Point(j).TCP.VelIn; !v.IsInvalid() {
			traj.SetVelIn(j, v.WithGs(gs))
		}
	}
	setGs(ib)
	// Retime in the direction the points move so that they stay in order.
	if scale > 1 {
		for j := ie; j > ib; j-- {
			setGs(j)
			traj.SetTime(j, retime(traj.Time(j)))
		}
	} else {
		for j := ib + 1; j <= ie; j++ {
			setGs(j)
			traj.SetTime(j, retime(traj.Time(j)))
		}
	}
	TrajLog(traj.Name, TrajLogGs, "turn at %d: flown at %.1f kts instead of %.1f", ib, math.MSToKnots(gs),
		math.MSToKnots(gs0))
	return true
}
