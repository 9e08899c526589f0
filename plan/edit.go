// plan/edit.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"github.com/mmp/kinplan/math"
)

// LinearMakeGsConstant retimes points wp1+1 through wp2 so that the plan
// is flown at ground speed gs between wp1 and wp2. Points after wp2 are
// retimed so that their legs keep the ground speed they had before.
func (p *Plan) LinearMakeGsConstant(wp1, wp2 int, gs float64) {
	if gs <= 0 {
		p.AddError(Unknown, wp1, "ground speed %.2f must be positive", gs)
		return
	}
	wp1, wp2 = math.Max(wp1, 0), math.Min(wp2, len(p.points)-1)
	if wp1 >= wp2 {
		return
	}

	n := len(p.points)
	dist := make([]float64, n)
	origGs := make([]float64, n)
	for i := wp1 + 1; i < n; i++ {
		dist[i] = p.segmentDistance(i - 1)
		if i > wp2 {
			origGs[i] = p.InitialVelocity(i - 1).Gs
		}
	}

	t := p.points[wp1].Time
	for i := wp1 + 1; i < n; i++ {
		dt := p.points[i].Time - p.points[i-1].Time
		if i <= wp2 {
			dt = dist[i] / gs
		} else if origGs[i] > 0 {
			dt = p.points[i-1].Pos.DistanceH(p.points[i].Pos) / origGs[i]
		}
		t += dt
		p.points[i].Time = t
		if i <= wp2 && !p.points[i].TCP.VelIn.IsInvalid() {
			p.points[i].TCP.VelIn.Gs = gs
		}
	}

	if avg := p.AverageGroundSpeed(wp1, wp2); !math.Within(avg, gs, 1e-3) {
		p.AddWarning(Unknown, wp1, "ground speed %.4f between %d and %d does not match %.4f", avg, wp1, wp2, gs)
	}
}

// LinearMakeGsConstantAverage flies the points from wp1 to wp2 at their
// average ground speed.
func (p *Plan) LinearMakeGsConstantAverage(wp1, wp2 int) {
	wp1, wp2 = math.Max(wp1, 0), math.Min(wp2, len(p.points)-1)
	if wp1 >= wp2 {
		return
	}
	p.LinearMakeGsConstant(wp1, wp2, p.AverageGroundSpeed(wp1, wp2))
}

// LinearMakeVsConstant sets the altitudes of the points after start
// through end so that the vertical speed is constant at vs.
func (p *Plan) LinearMakeVsConstant(start, end int, vs float64) {
	end = math.Min(end, len(p.points)-1)
	if start < 0 || start >= end {
		return
	}
	for i := start + 1; i <= end; i++ {
		dt := p.points[i].Time - p.points[i-1].Time
		p.setAlt(i, p.points[i-1].Alt()+vs*dt)
		if !p.points[i].TCP.VelIn.IsInvalid() && i < end {
			p.points[i].TCP.VelIn.Vs = vs
		}
	}
	if !p.points[start].TCP.VelIn.IsInvalid() {
		p.points[start].TCP.VelIn.Vs = vs
	}
}

// LinearMakeVsConstantAverage flies from start to end at the average
// vertical speed between them.
func (p *Plan) LinearMakeVsConstantAverage(start, end int) {
	end = math.Min(end, len(p.points)-1)
	if start < 0 || start >= end {
		return
	}
	dt := p.points[end].Time - p.points[start].Time
	if dt <= 0 {
		return
	}
	p.LinearMakeVsConstant(start, end, (p.points[end].Alt()-p.points[start].Alt())/dt)
}

// MakeGsConstantNoVerts removes all ground speed changes from the plan and
// retimes it to be flown at ground speed gs. Turns are kept with their
// radii; their turn rates follow from the new ground speed. Vertical
// TCPs are not supported.
func (p *Plan) MakeGsConstantNoVerts(gs float64) {
	if math.Abs(gs) < 1e-9 {
		p.AddError(Unknown, -1, "ground speed cannot be zero")
		return
	}
	for i, np := range p.points {
		if np.IsVsTCP() {
			p.AddError(Unknown, i, "cannot make ground speed constant with vertical TCPs present")
			return
		}
	}
	for i, np := range p.points {
		if np.IsGsTCP() {
			p.points[i] = np.ClearTrk()
		}
	}
	if len(p.points) < 2 {
		return
	}

	dist := make([]float64, len(p.points))
	for i := 1; i < len(p.points); i++ {
		dist[i] = p.segmentDistance(i - 1)
	}
	for i := 1; i < len(p.points); i++ {
		p.points[i].Time = p.points[i-1].Time + dist[i]/gs
	}
	for i, np := range p.points {
		if np.IsBOT() || np.IsMOT() || np.IsEOT() {
			v := np.TCP.VelIn
			v.Gs = gs
			if i+1 < len(p.points) {
				v.Vs = (p.points[i+1].Alt() - np.Alt()) / (p.points[i+1].Time - np.Time)
			}
			p.points[i].TCP.VelIn = v
		}
	}
}

// MakeGsConstantNoVertsAverage flattens the ground speed to the plan's
// average.
func (p *Plan) MakeGsConstantNoVertsAverage() {
	dt := p.LastTime() - p.FirstTime()
	if dt <= 0 {
		p.AddError(Unknown, -1, "plan has no duration")
		return
	}
	p.MakeGsConstantNoVerts(p.PathDistanceTotal() / dt)
}

// RemoveRedundantPoints removes points in [from, to] that are not TCPs
// and where the velocities into and out of the point agree within 1 m/s.
// The first and last points are never removed.
func (p *Plan) RemoveRedundantPoints(from, to int) {
	const velEps = 1.0
	for i := math.Min(len(p.points)-2, to); i >= math.Max(1, from); i-- {
		np := p.points[i]
		if np.IsTCP() || np.TCP.Fixed || np.IsAltPreserve() {
			continue
		}
		if p.FinalVelocity(i - 1).WithinEpsilon(p.InitialVelocity(i), velEps) {
			p.Remove(i)
		}
	}
}

// RemoveCollinearPoints removes non-TCP points that lie on the straight
// line between their neighbors and are flown at constant velocity.
func (p *Plan) RemoveCollinearPoints() {
	const velEps = 1e-3
	orig := p.CopyPoints()
	for i := len(p.points) - 2; i >= 1; i-- {
		np := p.points[i]
		if np.IsTCP() || np.TCP.Fixed || np.IsAltPreserve() {
			continue
		}
		// Velocities are evaluated on the original plan so that
		// removals don't cascade.
		oi := orig.Index(np.Time)
		if oi <= 0 || oi >= orig.Size()-1 {
			continue
		}
		if np.Pos.Collinear(p.points[i-1].Pos, p.points[i+1].Pos) &&
			orig.FinalVelocity(oi-1).WithinEpsilon(orig.InitialVelocity(oi), velEps) {
			p.Remove(i)
		}
	}
}

// MergeClosePoints merges points that are less than minDt apart in time.
// The first and last points and TCPs are kept in preference to other
// points.
func (p *Plan) MergeClosePoints(minDt float64) {
	for i := len(p.points) - 1; i >= 1; i-- {
		if i >= len(p.points) || p.points[i].Time-p.points[i-1].Time >= minDt {
			continue
		}
		a, b := p.points[i-1], p.points[i]
		switch {
		case i == len(p.points)-1 && !a.IsTCP():
			p.Remove(i - 1)
		case i-1 == 0 || a.IsTCP() && !b.IsTCP():
			if merged, ok := a.mergeRoles(b); ok {
				p.points[i-1] = merged
				p.Remove(i)
			}
		case !a.IsTCP():
			if merged, ok := b.mergeRoles(a); ok {
				p.points[i] = merged
				p.Remove(i - 1)
			}
		}
	}
}
