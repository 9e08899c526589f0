// trajgen/repair.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"github.com/mmp/kinplan/kinematics"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"
)

// linearRepairShortTurnLegs looks for pairs of consecutive turns whose
// curves would overlap on the leg between them. Both vertices of the
// leg are replaced with a single point where the legs into and out of
// the pair would meet (the leg midpoint if addMiddle is set, otherwise
// nothing), and the result is flown at the first leg's ground speed.
func linearRepairShortTurnLegs(lpc *plan.Plan, bank float64, addMiddle bool) *plan.Plan {
	p := lpc.Copy()
	if bank <= 0 {
		return p
	}
	for j := 0; j+3 < p.Size(); j++ {
		np0, np1, np2, np3 := p.Point(j), p.Point(j+1), p.Point(j+2), p.Point(j+3)
		gs1 := p.InitialVelocity(j).Gs
		gs2 := p.InitialVelocity(j + 1).Gs
		gs3 := p.InitialVelocity(j + 2).Gs
		if gs1 < minGs || gs2 < minGs || gs3 < minGs {
			continue
		}
		t1, ok1 := turnGenerator(np0, np1, np2, kinematics.TurnRadius(gs1, bank))
		t2, ok2 := turnGenerator(np1, np2, np3, kinematics.TurnRadius(gs2, bank))
		if !ok1 || !ok2 {
			continue
		}
		if t1.eot.Time <= t2.bot.Time && np1.Pos.DistanceH(t1.eot.Pos) <= np1.Pos.DistanceH(t2.bot.Pos) {
			continue
		}
		if np1.TCP.Fixed || np2.TCP.Fixed {
			p.AddError(plan.RemoveFixed, j+1, "short leg between fixed points %d and %d", j+1, j+2)
			return p
		}

		TrajLog(p.Name, TrajLogRepair, "removing short turn leg %d-%d", j+1, j+2)
		mid := np1.Pos.MidPoint(np2.Pos)
		p.Remove(j + 2)
		p.Remove(j + 1)
		if addMiddle {
			tmid := np0.Time + mid.DistanceH(np0.Pos)/gs1
			tmid = math.Min(tmid, p.Time(j+1)-plan.MinDt)
			p.Add(plan.MakeNavPoint(mid, tmid).WithLinearIndex(np1.TCP.LinearIndex))
			p.LinearMakeGsConstant(j, j+2, gs1)
			j++
		} else {
			p.LinearMakeGsConstant(j, j+1, gs1)
		}
	}
	return p
}

// linearRepairShortGsLegs smooths the ground speed across vertices where
// the speed change couldn't be flown on the following leg.
func linearRepairShortGsLegs(lpc *plan.Plan, cfg Config) *plan.Plan {
	p := lpc.Copy()
	if cfg.GsMode == PreserveTimes {
		return p
	}
	for j := 1; j+1 < p.Size(); j++ {
		np1, np2 := p.Point(j), p.Point(j+1)
		if cfg.GsMode == PreserveRTAs && np1.TCP.Fixed {
			continue
		}
		vin := p.FinalVelocity(j - 1)
		gs := p.InitialVelocity(j).Gs
		if vin.Gs < minGs || gs < minGs {
			continue
		}
		if _, _, at := gsAccelGenerator(np1, np2, gs, vin, cfg, false); at < 0 {
			TrajLog(p.Name, TrajLogRepair, "averaging ground speed across point %d", j)
			p.LinearMakeGsConstantAverage(j-1, j+1)
		}
	}
	return p
}

// linearRepairShortVsLegs smooths the vertical speed across vertices
// where the vertical speed change doesn't fit.
func linearRepairShortVsLegs(lpc *plan.Plan, cfg Config) *plan.Plan {
	p := lpc.Copy()
	if !p.IsLinear() {
		p.AddError(plan.Unknown, -1, "vertical speed repair requires a linear plan")
		return p
	}
	for i := 1; i+1 < p.Size(); i++ {
		tb, te, a, ok := calcVsTimes(p, i, cfg)
		if !ok || (a != 0 && (tb <= p.FirstTime() || te >= p.LastTime())) {
			TrajLog(p.Name, TrajLogRepair, "averaging vertical speed across point %d", i)
			p.LinearMakeVsConstantAverage(i-1, i+1)
		}
	}
	return p
}

// removeInfeasibleTurns removes vertices whose turns don't fit between
// their neighboring track changes.
func removeInfeasibleTurns(lpc *plan.Plan, cfg Config) *plan.Plan {
	p := lpc.Copy()
	for i := lpc.Size() - 2; i > 0; i-- {
		vin, vout := lpc.FinalVelocity(i-1), lpc.InitialVelocity(i)
		if vin.Gs < minGs || math.TurnDelta(vin.Trk, vout.Trk) < minTrackChange {
			continue
		}
		r := kinematics.TurnRadius(vin.Gs, cfg.BankAngle)
		if np := lpc.Point(i); np.TCP.Radius != 0 {
			r = math.Abs(np.TCP.Radius)
		}
		tt, ok := turnGenerator(lpc.Point(i-1), lpc.Point(i), lpc.Point(i+1), r)
		if ok && tt.eot.Time < lpc.LastTime() && turnIsFeas(lpc, i, tt.bot, tt.eot, cfg.MinTurnBuffer) {
			continue
		}
		if lpc.Point(i).TCP.Fixed {
			p.AddError(plan.RemoveFixed, i, "cannot remove infeasible turn at fixed point %d", i)
			return p
		}
		TrajLog(p.Name, TrajLogRepair, "removing infeasible turn at point %d", i)
		p.Remove(i)
	}
	return p
}

// removeInfeasibleTurnsOver removes the points following fly-over turns
// that can't be reached before the point's time.
func removeInfeasibleTurnsOver(lpc *plan.Plan, cfg Config) *plan.Plan {
	p := lpc.Copy()
	for i := 1; i+1 < p.Size(); i++ {
		vin := p.FinalVelocity(i - 1)
		if vin.Gs < minGs {
			continue
		}
		r := kinematics.TurnRadius(vin.Gs, cfg.BankAngle)
		wp := p.Point(i + 1)
		_, _, t, _ := kinematics.DirectToPoint(p.Point(i).Pos, vin, wp.Pos, r)
		if t >= 0 && wp.Time >= p.Time(i)+t {
			continue
		}
		if i+1 == p.Size()-1 {
			break
		}
		if wp.TCP.Fixed {
			p.AddError(plan.RemoveFixed, i+1, "cannot remove unreachable fixed point %d", i+1)
			return p
		}
		TrajLog(p.Name, TrajLogRepair, "removing point %d unreachable from fly-over turn", i+1)
		p.Remove(i + 1)
		i--
	}
	return p
}

// RepairPlan applies the enabled linear repairs to lpc so that a
// kinematic plan can be generated from it. Processing stops at the first
// error; the returned plan carries it.
func RepairPlan(lpc *plan.Plan, cfg Config) *plan.Plan {
	p := lpc.Copy()
	if cfg.RepairTurn {
		if p = linearRepairShortTurnLegs(p, cfg.BankAngle, cfg.AddMiddle); p.HasError() {
			return p
		}
	}
	if cfg.RepairGs && cfg.GsMode != PreserveTimes {
		if p = linearRepairShortGsLegs(p, cfg); p.HasError() {
			return p
		}
	}
	if cfg.RepairVs {
		if p = linearRepairShortVsLegs(p, cfg); p.HasError() {
			return p
		}
	}
	if cfg.RepairTurn {
		if cfg.FlyOver {
			p = removeInfeasibleTurnsOver(p, cfg)
		} else {
			p = removeInfeasibleTurns(p, cfg)
		}
		if p.HasError() {
			return p
		}
	}
	if cfg.GsMode == ConstantGs {
		if cfg.ConstantGs > 0 {
			p.MakeGsConstantNoVerts(cfg.ConstantGs)
		} else {
			p.MakeGsConstantNoVertsAverage()
		}
	}
	return p
}
