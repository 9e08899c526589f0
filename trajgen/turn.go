// trajgen/turn.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	gomath "math"

	"github.com/mmp/kinplan/kinematics"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// Track changes smaller than this are not turned.
	minTrackChange = math.Radians(1)
	// Largest allowed mismatch between the track into a BOT and the
	// track of the turn.
	maxTrackJump = math.Radians(10)
	// Geodetic legs are clipped to this length when a turn is fitted.
	maxTurnLeg = math.NMToMeters(10)
	// Slop allowed when comparing distances along a leg.
	turnDistEps = math.NMToMeters(0.0001)
)

// Ground speeds below this are treated as zero.
const minGs = 1e-6

type turn struct {
	bot, mot, eot plan.NavPoint
}

// turnGenerator fits a turn of radius r tangent to the legs np1-np2 and
// np2-np3. The turn is centered in time on the vertex np2 and is flown at
// the ground speed of the first leg. false is returned if the legs are
// collinear or the geometry is otherwise degenerate.
func turnGenerator(np1, np2, np3 plan.NavPoint, r float64) (turn, bool) {
	dt1 := np2.Time - np1.Time
	if r <= 0 || dt1 <= 0 {
		return turn{}, false
	}
	gs1 := np1.Pos.DistanceH(np2.Pos) / dt1
	if gs1 < minGs {
		return turn{}, false
	}
	vs1 := (np2.Alt() - np1.Alt()) / dt1
	vs2 := 0.
	if dt2 := np3.Time - np2.Time; dt2 > plan.MinDt {
		vs2 = (np3.Alt() - np2.Alt()) / dt2
	}

	p1, p2, p3 := np1.Pos, np2.Pos, np3.Pos
	if p2.Geo {
		if p2.DistanceH(p1) > maxTurnLeg {
			p1 = p2.LinearDist(p2.Track(p1), maxTurnLeg)
		}
		if p2.DistanceH(p3) > maxTurnLeg {
			p3 = p2.LinearDist(p2.Track(p3), maxTurnLeg)
		}
	}
	fr := plan.FrameAt(p2)
	a, vertex, c := fr.Project2(p1), fr.Project2(p2), fr.Project2(p3)

	ahat := math.Hat(r2.Sub(c, vertex))
	bhat := math.Hat(r2.Sub(a, vertex))
	v := r2.Add(ahat, bhat)
	va := r2.Dot(v, ahat)
	denom := r2.Dot(v, v) - va*va
	if denom < 1e-12 {
		return turn{}, false
	}
	w := r2.Scale(r/gomath.Sqrt(denom), v)
	center := r2.Add(vertex, w)
	bot := r2.Add(vertex, r2.Scale(r2.Dot(w, bhat), bhat))
	eot := r2.Add(vertex, r2.Scale(r2.Dot(w, ahat), ahat))
	mot := r2.Add(center, r2.Scale(r, math.Hat(r2.Sub(vertex, center))))

	alpha := 2 * math.SafeASin(r2.Norm(r2.Sub(bot, eot))/(2*r))
	turnTime := alpha * r / gs1
	trkIn := math.Track(r2.Sub(vertex, bot))
	dir := math.TurnDir(trkIn, math.Track(r2.Sub(c, vertex)))
	fdir := float64(dir)

	t2, alt2 := np2.Time, np2.Alt()
	local := func(p math.Vec2, alt float64) (plan.Position, math.Vec3) {
		lp := math.Vec2To3(p, alt)
		return fr.Inverse(lp), lp
	}
	botPos, botL := local(bot, alt2-vs1*turnTime/2)
	motPos, motL := local(mot, alt2)
	eotPos, eotL := local(eot, alt2+vs2*turnTime/2)
	centerPos, _ := local(center, alt2)

	vin := fr.InverseVelocity(botL, plan.MakeVelocity(trkIn, gs1, vs1))
	vmot := fr.InverseVelocity(motL, plan.MakeVelocity(trkIn+fdir*alpha/2, gs1, vs1))
	veot := fr.InverseVelocity(eotL, plan.MakeVelocity(trkIn+fdir*alpha, gs1, vs2))

	base := np2.MakeStandardRetainSource()
	return turn{
		bot: base.MakeBOT(botPos, t2-turnTime/2, vin, fdir*r, centerPos).WithLabel(np2.Label),
		mot: base.MakeMOT(motPos, t2, vmot),
		eot: base.MakeEOT(eotPos, t2+turnTime/2, veot),
	}, true
}

// prevTrackChange returns the index of the closest vertex before i where
// the track changes, or 0.
func prevTrackChange(p *plan.Plan, i int) int {
	for j := i - 1; j >= 1; j-- {
		if math.TurnDelta(p.FinalVelocity(j-1).Trk, p.InitialVelocity(j).Trk) > minTrackChange {
			return j
		}
	}
	return 0
}

// nextTrackChange returns the index of the closest vertex after i where
// the track changes, or the index of the last point.
func nextTrackChange(p *plan.Plan, i int) int {
	for j := i + 1; j+1 < p.Size(); j++ {
		if math.TurnDelta(p.FinalVelocity(j-1).Trk, p.InitialVelocity(j).Trk) > minTrackChange {
			return j
		}
	}
	return p.Size() - 1
}

// turnIsFeas reports whether the turn at vertex i of p fits between the
// neighboring track changes, both in time and in distance.
func turnIsFeas(p *plan.Plan, i int, bot, eot plan.NavPoint, buffer float64) bool {
	ip, in := prevTrackChange(p, i), nextTrackChange(p, i)
	vertex := p.Point(i).Pos
	switch {
	case bot.Time-buffer <= p.Time(ip):
		return false
	case eot.Time+buffer >= p.Time(in):
		return false
	case bot.Pos.DistanceH(vertex)+turnDistEps >= p.Point(ip).Pos.DistanceH(vertex):
		return false
	case vertex.DistanceH(eot.Pos)+turnDistEps >= vertex.DistanceH(p.Point(in).Pos):
		return false
	}
	return true
}

// clampedAlt returns the altitude of p at time t, clamped to the plan's
// time range.
func clampedAlt(p *plan.Plan, t float64) float64 {
	return p.Position(math.Clamp(t, p.FirstTime(), p.LastTime())).Alt()
}

// generateTurnTCPs replaces each vertex of kpc where the track changes
// with a turn cutting the corner.
func generateTurnTCPs(kpc *plan.Plan, cfg Config) *plan.Plan {
	traj := kpc.Copy()
	if cfg.BankAngle == 0 {
		traj.AddError(plan.Unknown, -1, "bank angle is zero")
		return traj
	}

	for i := 1; i+1 < kpc.Size(); i++ {
		np1, np2, np3 := kpc.Point(i-1), kpc.Point(i), kpc.Point(i+1)
		if np2.IsTCP() {
			continue
		}
		vf0, vi1 := kpc.FinalVelocity(i-1), kpc.InitialVelocity(i)
		if vi1.Gs < minGs || vf0.Gs < minGs {
			traj.AddWarning(plan.GsZero, i, "no turn generated for zero ground speed leg")
			continue
		}
		dTrk := math.TurnDelta(vf0.Trk, vi1.Trk)
		if dTrk < minTrackChange || kinematics.TurnTime(vf0.Gs, dTrk, cfg.BankAngle) < cfg.MinTimeStep {
			continue
		}

		r := kinematics.TurnRadius(vf0.Gs, cfg.BankAngle)
		if np2.TCP.Radius != 0 {
			r = math.Abs(np2.TCP.Radius)
		}
		if np3.Time-np2.Time < 0.1 && i+2 < kpc.Size() {
			np3 = kpc.Point(i + 2)
		}

		tt, ok := turnGenerator(np1, np2, np3, r)
		if !ok {
			traj.AddError(plan.Unknown, i, "unable to fit turn of radius %.0f m", r)
			return traj
		}
		tt.bot = tt.bot.WithAlt(clampedAlt(kpc, tt.bot.Time))
		tt.mot = tt.mot.WithAlt(clampedAlt(kpc, tt.mot.Time))
		tt.eot = tt.eot.WithAlt(clampedAlt(kpc, tt.eot.Time))
		if tt.bot.Pos.IsInvalid() || tt.mot.Pos.IsInvalid() || tt.eot.Pos.IsInvalid() {
			traj.AddError(plan.Unknown, i, "turn generated invalid points")
			return traj
		}

		if !turnIsFeas(kpc, i, tt.bot, tt.eot, cfg.MinTurnBuffer) {
			traj.AddError(plan.TurnInfeasible, i, "turn of %.1f deg with radius %.0f m does not fit between its neighbors",
				math.Degrees(dTrk), r)
			return traj
		}
		if tt.eot.Time-tt.bot.Time <= 2*cfg.MinTimeStep {
			continue
		}
		if traj.InTrkChange(tt.bot.Time) {
			traj.AddError(plan.TurnOverlapsBegin, i, "turn begins inside the previous turn")
			return traj
		}
		if traj.InTrkChange(tt.eot.Time) {
			traj.AddError(plan.TurnOverlapsEnd, i, "turn ends inside another turn")
			return traj
		}

		if jj := traj.Index(np2.Time); jj >= 0 {
			vp := traj.Point(jj)
			if vp.IsAltPreserve() {
				tt.mot = tt.mot.MakeAltPreserve()
			}
			if !vp.IsTCP() {
				traj.Remove(jj)
			}
		}
		// Turns are retimed as a unit, so none of their points are fixed.
		tt.bot, tt.mot, tt.eot = tt.bot.WithFixed(false), tt.mot.WithFixed(false), tt.eot.WithFixed(false)

		if traj.Add(tt.bot) < 0 || traj.Add(tt.eot) < 0 {
			return traj
		}
		im := traj.Add(tt.mot)
		if im < 0 {
			return traj
		}
		movePointsWithinTurn(traj, im)

		TrajLog(traj.Name, TrajLogTurn, "vertex %d: %.1f deg, r=%.0f m, BOT t=%.2f, EOT t=%.2f", i,
			math.Degrees(dTrk), r, tt.bot.Time, tt.eot.Time)

		if ib := traj.Index(tt.bot.Time); ib > 0 {
			if d := math.TurnDelta(traj.FinalVelocity(ib-1).Trk, traj.InitialVelocity(ib).Trk); d > maxTrackJump {
				traj.AddError(plan.Unknown, ib, "track into turn differs from the turn's by %.1f deg", math.Degrees(d))
				return traj
			}
		}
	}
	return traj
}

// movePointsWithinTurn puts the non-TCP points of the turn containing
// index ix onto the turn's arc, keeping their times and altitudes.
func movePointsWithinTurn(traj *plan.Plan, ix int) {
	b, e := traj.PrevBOT(ix+1), traj.NextEOT(ix)
	if b < 0 || e < 0 {
		return
	}
	for j := e - 1; j > b; j-- {
		np := traj.Point(j)
		if np.IsTCP() {
			continue
		}
		pos := traj.Position(np.Time).WithAlt(np.Alt())
		traj.Set(j, np.WithPos(pos))
	}
}

// generateTurnTCPsOver generates fly-over turns: each turn begins at its
// vertex and ends heading directly at the next point, which is then
// retimed to keep the leg's ground speed.
func generateTurnTCPsOver(kpc *plan.Plan, cfg Config) *plan.Plan {
	traj := kpc.Copy()
	if cfg.BankAngle == 0 {
		traj.AddError(plan.Unknown, -1, "bank angle is zero")
		return traj
	}

	j := 1
	for i := 1; i+1 < kpc.Size() && j+1 < traj.Size(); i++ {
		np := traj.Point(j)
		vin, vout := traj.FinalVelocity(j-1), traj.InitialVelocity(j)
		if vin.Gs < minGs {
			traj.AddWarning(plan.GsZero, j, "no turn generated for zero ground speed leg")
			j++
			continue
		}
		dTrk := math.TurnDelta(vin.Trk, vout.Trk)
		if np.IsTCP() || dTrk < minTrackChange || kinematics.TurnTime(vin.Gs, dTrk, cfg.BankAngle) < cfg.MinTimeStep {
			j++
			continue
		}

		r := kinematics.TurnRadius(vin.Gs, cfg.BankAngle)
		wp := traj.Point(j + 1)
		eotPos, eotVel, t, dir := kinematics.DirectToPoint(np.Pos, vin, wp.Pos, r)
		if t < 0 {
			traj.AddError(plan.TurnOverlapsEnd, j, "next point is inside the turn circle")
			return traj
		}
		if wp.Time < np.Time+t {
			traj.AddError(plan.TurnOverlapsEnd, j, "turn ends after the next point")
			return traj
		}

		omega := float64(dir) * vin.Gs / r
		base := np.MakeStandardRetainSource()
		bot := base.MakeBOT(np.Pos, np.Time, vin, float64(dir)*r, kinematics.TurnCenter(np.Pos, vin, omega)).
			WithLabel(np.Label)
		if np.IsAltPreserve() {
			bot = bot.MakeAltPreserve()
		}
		motPos, motVel := kinematics.TurnProject(np.Pos, vin, t/2, omega)
		mot := base.MakeMOT(motPos, np.Time+t/2, motVel).WithFixed(false)
		eot := base.MakeEOT(eotPos, np.Time+t, eotVel).WithFixed(false)

		traj.Remove(j)
		if traj.Add(bot) < 0 || traj.Add(mot) < 0 || traj.Add(eot) < 0 {
			return traj
		}
		TrajLog(traj.Name, TrajLogTurn, "fly-over vertex %d: %.1f deg, r=%.0f m, %.2f s", i, math.Degrees(dTrk), r, t)

		// Keep the original ground speed on the leg to the next point.
		k := j + 3
		if gs := kpc.InitialVelocity(i).Gs; gs >= minGs {
			traj.TimeshiftPlan(k, traj.LinearCalcTimeGSin(k, gs)-traj.Time(k), false)
		}
		j = k
	}
	return traj
}
