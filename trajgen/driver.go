// trajgen/driver.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"time"

	"github.com/mmp/kinplan/plan"
)

type pass struct {
	name string
	run  func(*plan.Plan) *plan.Plan
	skip bool
}

// MakeKinematicPlan generates a kinematic plan from the linear plan lpc:
// turns are cut into each vertex where the track changes, and ground
// speed and vertical speed changes are given acceleration zones. The
// linear plan is repaired first as cfg allows.
//
// The returned plan is never nil; if generation fails, it holds the
// partial result with its errors and the error is returned as well.
func MakeKinematicPlan(lpc *plan.Plan, cfg Config) (*plan.Plan, error) {
	lg := cfg.Logger
	start := time.Now()

	rp := RepairPlan(lpc, cfg)
	if rp.HasError() {
		lg.Warn("repair failed", "plan", lpc.Name, "error", rp.ErrorString())
		return rp, rp.Err()
	}
	for i := range rp.Size() {
		rp.Set(i, rp.Point(i).WithLinearIndex(i))
	}

	kpc := markVsChanges(rp, cfg)
	turns := generateTurnTCPs
	if cfg.FlyOver {
		turns = generateTurnTCPsOver
	}
	passes := []pass{
		{name: "turns", run: func(p *plan.Plan) *plan.Plan { return turns(p, cfg) }},
		{name: "fixgs", run: func(p *plan.Plan) *plan.Plan { return fixGS(rp, p, cfg) },
			skip: cfg.GsMode == PreserveTimes || cfg.FlyOver},
		{name: "gs", run: func(p *plan.Plan) *plan.Plan { return generateGsTCPs(p, cfg) }},
		{name: "vsconst", run: makeMarkedVsConstant},
		{name: "vs", run: func(p *plan.Plan) *plan.Plan { return generateVsTCPs(p, cfg) }},
	}
	for _, ps := range passes {
		if kpc.HasError() {
			break
		}
		if ps.skip {
			continue
		}
		kpc = ps.run(kpc)
		lg.Debug("kinematic pass", "plan", lpc.Name, "pass", ps.name, "points", kpc.Size())
	}
	if !kpc.HasError() {
		kpc = cleanPlan(kpc)
	}

	kpc.Name, kpc.Note = lpc.Name, lpc.Note
	if kpc.HasError() {
		lg.Warn("kinematic generation failed", "plan", lpc.Name, "error", kpc.ErrorString())
	} else {
		lg.Debug("kinematic plan generated", "plan", lpc.Name, "points", kpc.Size(),
			"elapsed", time.Since(start))
	}
	return kpc, kpc.Err()
}

// MakeLinearPlan returns the linear plan that the kinematic plan p was
// generated from.
func MakeLinearPlan(p *plan.Plan) *plan.Plan {
	if p.IsLinear() {
		return p.Copy()
	}
	lp := plan.RevertTCPs(p)
	TrajLog(p.Name, TrajLogRevert, "reverted %d points to %d", p.Size(), lp.Size())
	return lp
}

// MakeGsConstant returns p flown at the single ground speed gs. A
// kinematic plan is reverted, flattened, and regenerated.
func MakeGsConstant(p *plan.Plan, gs float64, cfg Config) (*plan.Plan, error) {
	kinematic := !p.IsLinear()
	lp := MakeLinearPlan(p)
	lp.MakeGsConstantNoVerts(gs)
	if lp.HasError() {
		return lp, lp.Err()
	}
	if !kinematic {
		return lp, nil
	}
	return MakeKinematicPlan(lp, cfg)
}

// InsideAccelZone returns the indices of the points that lie strictly
// inside an acceleration zone that they don't bound.
func InsideAccelZone(p *plan.Plan) []int {
	var idx []int
	for i, np := range p.Points() {
		if i == 0 || i == p.Size()-1 {
			continue
		}
		t := np.Time
		inTrk := p.InTrkChange(t) && !np.IsBOT() && !np.IsMOT()
		inGs := p.InGsChange(t) && !np.IsBGS()
		inVs := p.InVsChange(t) && !np.IsBVS()
		if inTrk || inGs || inVs {
			idx = append(idx, i)
		}
	}
	return idx
}
