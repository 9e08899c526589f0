// plan/revert.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"github.com/mmp/kinplan/math"
)

// Points that were generated together (e.g. a turn followed by the ground
// speed change that restores the leg's speed) are found either by their
// linear index or by being this close together in time.
const groupTimeThreshold = 5

func sameGroup(a, b NavPoint) bool {
	if a.TCP.LinearIndex >= 0 && a.TCP.LinearIndex == b.TCP.LinearIndex {
		return true
	}
	return math.Abs(b.Time-a.Time) < groupTimeThreshold
}

// RevertTCPs returns the linear plan that p was generated from, using
// each point's source position and time. Virtual points and points
// without a source are dropped.
func RevertTCPs(p *Plan) *Plan {
	return RevertTCPsRange(p, 0, p.Size()-1)
}

// RevertTCPsRange reverts the points in [from, to] to their sources;
// the rest of the points are copied.
func RevertTCPsRange(p *Plan, from, to int) *Plan {
	lp := New(p.Name)
	lp.Note = p.Note
	lp.mergeStatus(p)
	for i, np := range p.points {
		if i < from || i > to {
			lp.Add(np)
			continue
		}
		if np.IsVirtual() || !np.HasSource() {
			continue
		}
		rp := MakeNavPoint(np.TCP.Source, np.TCP.SourceTime).WithLabel(np.Label)
		rp.TCP.Fixed = np.TCP.Fixed
		rp.TCP.LinearIndex = np.TCP.LinearIndex
		if np.IsAltPreserve() {
			rp = rp.MakeAltPreserve()
		}
		lp.Add(rp)
	}
	return lp
}

// RevertGroupOfTCPs replaces all of the points that share the source time
// of point dSeg with the single source point. The following leg is
// retimed to keep its ground speed. If checkSource is set and the source
// is implausibly far from the point, a new point at the TCP's position is
// used instead. The index of the reverted point is returned.
func (p *Plan) RevertGroupOfTCPs(dSeg int, checkSource bool) int {
	maxDistH, maxDistV := math.NMToMeters(15), math.FeetToMeters(5000)
	if dSeg < 0 || dSeg >= len(p.points) {
		p.AddError(Unknown, dSeg, "invalid index")
		return -1
	}
	orig := p.points[dSeg]
	if !orig.IsTCP() {
		return dSeg
	}
	if !orig.HasSource() {
		return p.StructRevertGroupOfTCPs(dSeg, false)
	}

	srcTime := orig.TCP.SourceTime
	first, last := -1, len(p.points)-1
	for j, np := range p.points {
		if math.AlmostEqualTime(np.TCP.SourceTime, srcTime) {
			if first == -1 {
				first = j
			}
			last = j
		}
	}

	gsInFirst := p.FinalVelocity(first - 1).Gs
	next := last + 1
	haveNext := next < len(p.points)
	var tmNext, gsInNext float64
	if haveNext {
		tmNext = p.points[next].Time
		gsInNext = p.FinalVelocity(next - 1).Gs
	}

	reverted := MakeNavPoint(orig.TCP.Source, orig.TCP.SourceTime).WithLabel(orig.Label)
	lastii := -1
	for ii := last; ii >= first; ii-- {
		np := p.points[ii]
		if math.AlmostEqualTime(np.TCP.SourceTime, srcTime) {
			if np.HasSource() {
				reverted = MakeNavPoint(np.TCP.Source, np.TCP.SourceTime).WithLabel(reverted.Label)
				if np.Label != "" {
					reverted = reverted.WithLabel(np.Label)
				}
			}
			p.Remove(ii)
			lastii = ii
		}
	}
	if checkSource && (orig.Pos.DistanceH(reverted.Pos) > maxDistH || orig.Pos.DistanceV(reverted.Pos) > maxDistV) {
		reverted = orig.MakeNewPoint()
	}
	p.Add(reverted)

	if haveNext {
		if seg := p.Segment(tmNext); seg > 0 {
			p.TimeshiftPlan(seg, p.LinearCalcTimeGSin(seg, gsInNext)-tmNext, false)
		}
	}
	if first < last {
		if seg := p.Segment(reverted.Time); seg > 0 {
			p.TimeshiftPlan(seg, p.LinearCalcTimeGSin(seg, gsInFirst)-reverted.Time, false)
		}
	}
	return lastii
}

// StructRevertTurnTCP replaces the turn beginning at ix with its vertex:
// the intersection of the tangent lines at the BOT and the EOT. Non-TCP
// points inside the turn are optionally put back on the new legs, and a
// ground speed change that immediately follows the turn is optionally
// removed as well. If zVertex is non-negative, it gives the altitude of
// the vertex.
func (p *Plan) StructRevertTurnTCP(ix int, addBackMidPoints, killNextGsTCPs bool, zVertex float64) {
	if ix < 0 || ix >= len(p.points) || !p.points[ix].IsBOT() {
		return
	}
	bot := p.points[ix]
	tBOT := bot.Time
	ixEOT := p.NextEOT(ix)
	if ixEOT < 0 {
		p.AddError(Unknown, ix, "BOT without EOT")
		return
	}
	eot := p.points[ixEOT]
	tEOT := eot.Time

	var mids []NavPoint
	var midDists []float64
	if addBackMidPoints {
		for j := ix + 1; j < ixEOT; j++ {
			if np := p.points[j]; !np.IsTCP() {
				mids = append(mids, np)
				midDists = append(midDists, p.PathDistance(ix, j))
			}
		}
	}

	vin := p.InitialVelocity(0)
	if ix > 0 {
		vin = p.FinalVelocity(ix - 1)
	}
	vout := p.InitialVelocity(ixEOT)

	ipos, _ := Intersection(bot.Pos, vin, eot.Pos, vout)
	var vertex NavPoint
	if tInter := tBOT + ipos.DistanceH(bot.Pos)/vin.Gs; ipos.IsInvalid() || !(tInter < tEOT) {
		tMid := (tBOT + tEOT) / 2
		vertex = MakeNavPoint(p.Position(tMid), tMid)
	} else {
		vertex = MakeNavPoint(ipos, tInter)
	}
	if vertex.Pos.IsInvalid() {
		p.AddError(Unknown, ix, "reversion of turn failed")
		return
	}
	if zVertex >= 0 {
		vertex = vertex.WithAlt(zVertex)
	}
	vertex = vertex.WithLabel(bot.Label)
	vertex.TCP.LinearIndex = bot.TCP.LinearIndex
	vertex.TCP.Fixed = bot.TCP.Fixed
	for j := ix; j <= ixEOT; j++ {
		if p.points[j].IsAltPreserve() {
			vertex = vertex.MakeAltPreserve()
		}
	}

	gsInNext := vout.Gs
	if killNextGsTCPs && ixEOT+1 < len(p.points) {
		if after := p.points[ixEOT+1]; after.IsBGS() && sameGroup(eot, after) {
			if ixEGS := p.NextEGS(ixEOT + 1); ixEGS >= 0 {
				gsInNext = p.InitialVelocity(ixEGS).Gs
				p.Remove(ixEGS)
				p.Remove(ixEOT + 1)
			}
		}
	}

	p.RemoveRange(ix, ixEOT)
	ixAdd := p.Add(vertex)
	if ixAdd < 0 {
		return
	}
	ixNext := ixAdd + 1
	for i, np := range mids {
		t := tBOT + midDists[i]/vin.Gs
		p.Add(np.WithPos(p.Position(t).WithAlt(np.Alt())).WithTime(t))
		ixNext++
	}

	if ixNext < len(p.points) {
		tmNext := p.points[ixNext].Time
		if seg := p.Segment(tmNext); seg > 0 {
			p.TimeshiftPlan(seg, p.LinearCalcTimeGSin(seg, gsInNext)-tmNext, false)
		}
	}
	if from, to := p.Index(tBOT), p.Index(tEOT); from >= 0 && to >= 0 {
		p.RemoveRedundantPoints(from, to)
	}
}

// StructRevertGsTCP replaces the ground speed change beginning at ix with
// a single point at the BGS; the point that follows is retimed so that
// the leg keeps the speed at the end of the change.
func (p *Plan) StructRevertGsTCP(ix int) {
	if ix < 0 || ix >= len(p.points) || !p.points[ix].IsBGS() {
		return
	}
	ixEGS := p.NextEGS(ix)
	if ixEGS < 0 {
		p.AddError(Unknown, ix, "BGS without EGS")
		return
	}
	bgs := p.points[ix]
	gsOut := p.InitialVelocity(ixEGS).Gs

	np := bgs.ClearTrk().WithSource(bgs.Pos, bgs.Time)
	if !np.IsAltPreserve() {
		np = np.MakeOriginal()
	}
	if egs := p.points[ixEGS]; egs.IsVsTCP() {
		p.points[ixEGS] = egs.ClearTrk()
	} else {
		p.Remove(ixEGS)
	}
	p.points[ix] = np

	if ix+1 < len(p.points) && gsOut > 0 {
		p.TimeshiftPlan(ix+1, p.LinearCalcTimeGSin(ix+1, gsOut)-p.points[ix+1].Time, false)
	}
}

// StructRevertGsTCPOrTurn reverts the ground speed change at ix. If
// revertPreviousTurn is set and the change was generated along with the
// turn that precedes it, the turn is reverted too. The index of the first
// reverted point is returned.
func (p *Plan) StructRevertGsTCPOrTurn(ix int, revertPreviousTurn bool) int {
	if ix < 0 || ix >= len(p.points) || !p.points[ix].IsBGS() {
		return ix
	}
	if prev := p.Prev(ix, func(np NavPoint) bool { return np.TCP.Trk != TrkNone }); prev >= 0 && revertPreviousTurn {
		if p.points[prev].IsEOT() && sameGroup(p.points[prev], p.points[ix]) {
			if b := p.PrevBOT(prev); b >= 0 {
				p.StructRevertTurnTCP(b, false, true, -1)
				return b
			}
		}
	}
	p.StructRevertGsTCP(ix)
	return ix
}

// StructRevertVsTCP replaces the vertical speed change beginning at ix
// with a vertex at its midpoint whose altitude continues the incoming
// vertical speed. The vertex altitude is returned, or -1 if ix is not a
// BVS.
func (p *Plan) StructRevertVsTCP(ix int) float64 {
	if ix <= 0 || ix >= len(p.points) || !p.points[ix].IsBVS() {
		return -1
	}
	ixEVS := p.NextEVS(ix)
	if ixEVS < 0 {
		p.AddError(Unknown, ix, "BVS without EVS")
		return -1
	}
	bvs, evs, prev := p.points[ix], p.points[ixEVS], p.points[ix-1]
	vsIn := (bvs.Alt() - prev.Alt()) / (bvs.Time - prev.Time)
	dt := evs.Time - bvs.Time
	tVertex := bvs.Time + dt/2
	zVertex := bvs.Alt() + vsIn*dt/2
	vertex := MakeNavPoint(p.Position(tVertex).WithAlt(zVertex), tVertex)
	vertex.TCP.LinearIndex = bvs.TCP.LinearIndex
	if bvs.IsAltPreserve() || evs.IsAltPreserve() {
		vertex = vertex.MakeAltPreserve()
	}

	tAfter := -1.
	if ixEVS+1 < len(p.points) {
		tAfter = p.points[ixEVS+1].Time
	}

	// Points that also have a horizontal role keep it.
	for _, j := range []int{ixEVS, ix} {
		if np := p.points[j]; np.TCP.Trk != TrkNone {
			p.points[j] = np.ClearVs()
		} else {
			p.Remove(j)
		}
	}
	if i := p.Add(vertex); i >= 0 {
		// Interior altitudes were on the parabola; put them on the
		// straight legs through the vertex.
		p.relinearizeAltitudes(ix-1, i)
		if c := p.Index(tAfter); c > i {
			p.relinearizeAltitudes(i, c)
		}
	}
	return zVertex
}

// relinearizeAltitudes sets the altitudes of the points strictly between
// from and to so that the vertical speed between them is constant.
func (p *Plan) relinearizeAltitudes(from, to int) {
	if from < 0 || to >= len(p.points) || to-from < 2 {
		return
	}
	a, b := p.points[from], p.points[to]
	dt := b.Time - a.Time
	if dt <= 0 {
		return
	}
	for k := from + 1; k < to; k++ {
		p.setAlt(k, math.Lerp((p.points[k].Time-a.Time)/dt, a.Alt(), b.Alt()))
	}
}

// StructRevertTCP reverts the acceleration zone that begins at ix.
func (p *Plan) StructRevertTCP(ix int) {
	if ix < 0 || ix >= len(p.points) {
		p.AddError(Unknown, ix, "index out of range")
		return
	}
	np := p.points[ix]
	switch {
	case np.IsBGS():
		p.StructRevertGsTCPOrTurn(ix, true)
	case np.IsBVS():
		p.StructRevertVsTCP(ix)
	case np.IsBOT():
		p.StructRevertTurnTCP(ix, true, false, -1)
	default:
		p.AddError(Unknown, ix, "%s is not a begin TCP", np.TypeString())
	}
}

// StructRevertTCPs reverts all of the plan's TCPs without using source
// information: vertical changes first, then turns and finally ground
// speed changes.
func (p *Plan) StructRevertTCPs(removeRedundant bool) {
	for i := len(p.points) - 2; i > 0; i-- {
		if i < len(p.points) {
			p.StructRevertVsTCP(i)
		}
	}
	for i := len(p.points) - 2; i >= 0; i-- {
		if i < len(p.points) {
			p.StructRevertTurnTCP(i, true, true, -1)
		}
	}
	for i := len(p.points) - 2; i >= 0; i-- {
		if i < len(p.points) {
			p.StructRevertGsTCPOrTurn(i, true)
		}
	}
	if removeRedundant {
		p.RemoveRedundantPoints(0, len(p.points)-1)
	}
}

// StructRevertGroupOfTCPs reverts the acceleration zone that point ix is
// part of, along with any vertical speed change within it. If
// killAllOthersInside is set, all vertical changes that start within the
// zone are reverted as well. It returns the index of the first reverted
// point.
func (p *Plan) StructRevertGroupOfTCPs(ix int, killAllOthersInside bool) int {
	if ix < 0 || ix >= len(p.points) {
		p.AddError(Unknown, ix, "invalid index")
		return -1
	}
	orig := p.points[ix]
	if !orig.IsTCP() {
		return ix
	}
	if ix == 0 {
		return -1
	}

	first, last := ix, ix
	bound := func(isEnd bool, prev, next func(int) int) {
		if isEnd {
			if j := prev(ix); j >= 0 {
				first = j
			}
		} else if j := next(ix); j >= 0 {
			last = j
		}
	}
	switch {
	case orig.IsVsTCP() && orig.TCP.Trk == TrkNone:
		bound(orig.IsEVS(), p.PrevBVS, p.NextEVS)
	case orig.IsGsTCP():
		bound(orig.IsEGS(), p.PrevBGS, p.NextEGS)
	case orig.IsMOT():
		first, last = p.PrevBOT(ix), p.NextEOT(ix)
	default:
		bound(orig.IsEOT(), p.PrevBOT, p.NextEOT)
	}
	if first < 0 || last < 0 {
		return -1
	}
	if orig.IsVsTCP() && orig.TCP.Trk == TrkNone {
		p.StructRevertVsTCP(first)
		return first
	}

	zVertex := -1.
	for ii := last; ii >= first; ii-- {
		if ii >= len(p.points) {
			continue
		}
		np := p.points[ii]
		if np.IsBVS() && (killAllOthersInside || ii == first) {
			if z := p.StructRevertVsTCP(ii); z >= 0 {
				zVertex = z
				last--
			}
		}
	}
	if first < len(p.points) && p.points[first].IsBOT() {
		p.StructRevertTurnTCP(first, false, true, zVertex)
	}
	if first < len(p.points) && p.points[first].IsGsTCP() {
		first = p.StructRevertGsTCPOrTurn(first, true)
	}
	return first
}

// StructRevertGroupOfTCPsTimeWindow reverts all acceleration zones that
// have a TCP within window seconds centered on the time of point ix; a
// non-positive window uses 100 seconds. The index of the point nearest
// to the original time is returned.
func (p *Plan) StructRevertGroupOfTCPsTimeWindow(ix int, window float64) int {
	if ix < 0 || ix >= len(p.points) {
		p.AddError(Unknown, ix, "invalid index")
		return -1
	}
	if window <= 0 {
		window = 100
	}
	t := p.points[ix].Time
	t0, t1 := t-window/2, t+window/2
	for range len(p.points) {
		j := -1
		for k, np := range p.points {
			if k > 0 && np.IsTCP() && np.Time >= t0 && np.Time <= t1 {
				j = k
				break
			}
		}
		if j < 0 {
			break
		}
		n := len(p.points)
		p.StructRevertGroupOfTCPs(j, true)
		if len(p.points) == n && p.points[j].IsTCP() {
			// No progress; avoid looping forever.
			break
		}
	}
	return p.NearestIndex(t)
}
