// plan/plan.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"fmt"
	"io"
	"iter"
	"sort"
	"strings"

	"github.com/mmp/kinplan/math"

	"github.com/brunoga/deep"
	"github.com/goforj/godump"
)

// MinDt is the time below which two points are considered to be at the
// same time for the purposes of velocity calculations.
const MinDt = 1e-5

// Plan is a time-ordered sequence of NavPoints along with a log of the
// problems found while it was processed. A plan with no TCPs is a
// linear plan; one with TCPs is a kinematic plan.
type Plan struct {
	Name string
	Note string

	points []NavPoint
	status Status
}

func New(name string) *Plan {
	return &Plan{Name: name}
}

// Copy returns a deep copy of the plan, including its status.
func (p *Plan) Copy() *Plan {
	return &Plan{
		Name:   p.Name,
		Note:   p.Note,
		points: deep.MustCopy(p.points),
		status: Status{Entries: deep.MustCopy(p.status.Entries)},
	}
}

// CopyPoints returns a copy of the plan's points but with an empty status.
func (p *Plan) CopyPoints() *Plan {
	return &Plan{Name: p.Name, Note: p.Note, points: deep.MustCopy(p.points)}
}

func (p *Plan) Size() int { return len(p.points) }

func (p *Plan) Point(i int) NavPoint { return p.points[i] }

// Points returns an iterator over the plan's points and their indices.
func (p *Plan) Points() iter.Seq2[int, NavPoint] {
	return func(yield func(int, NavPoint) bool) {
		for i, np := range p.points {
			if !yield(i, np) {
				return
			}
		}
	}
}

func (p *Plan) Time(i int) float64 { return p.points[i].Time }

func (p *Plan) FirstTime() float64 {
	if len(p.points) == 0 {
		return 0
	}
	return p.points[0].Time
}

func (p *Plan) LastTime() float64 {
	if len(p.points) == 0 {
		return 0
	}
	return p.points[len(p.points)-1].Time
}

// Add inserts np in time order and returns its index. If there is already
// a point at np's time, np replaces it, though horizontal and vertical
// TCP roles of the existing point are kept if np has none on that axis.
// -1 is returned if np can't be added.
func (p *Plan) Add(np NavPoint) int {
	if !math.IsFinite(np.Time) || np.Pos.IsInvalid() {
		p.AddError(Unknown, -1, "attempt to add invalid point %s", np)
		return -1
	}
	if len(p.points) > 0 && np.Pos.Geo != p.points[0].Pos.Geo {
		p.AddError(Unknown, -1, "attempt to mix geodetic and Euclidean positions")
		return -1
	}

	i := sort.Search(len(p.points), func(i int) bool { return p.points[i].Time >= np.Time-1e-8 })
	if i < len(p.points) && math.AlmostEqualTime(p.points[i].Time, np.Time) {
		merged, ok := np.mergeRoles(p.points[i])
		if !ok {
			p.AddError(Unknown, i, "attempt to add %s at the time of %s", np.TypeString(), p.points[i].TypeString())
			return -1
		}
		merged.Time = p.points[i].Time
		p.points[i] = merged
		return i
	}

	p.points = append(p.points, NavPoint{})
	copy(p.points[i+1:], p.points[i:])
	p.points[i] = np
	return i
}

func (p *Plan) Remove(i int) {
	if i < 0 || i >= len(p.points) {
		return
	}
	p.points = append(p.points[:i], p.points[i+1:]...)
}

// RemoveRange removes the points in [from, to].
func (p *Plan) RemoveRange(from, to int) {
	from, to = math.Max(from, 0), math.Min(to, len(p.points)-1)
	if from > to {
		return
	}
	p.points = append(p.points[:from], p.points[to+1:]...)
}

// Set replaces the point at index i, returning the new point's index
// (which differs from i if its time changed).
func (p *Plan) Set(i int, np NavPoint) int {
	if i < 0 || i >= len(p.points) {
		return -1
	}
	p.Remove(i)
	return p.Add(np)
}

func (p *Plan) SetTime(i int, t float64) int {
	if i < 0 || i >= len(p.points) {
		return -1
	}
	return p.Set(i, p.points[i].WithTime(t))
}

// setAlt changes a point's altitude in place.
func (p *Plan) setAlt(i int, alt float64) {
	p.points[i] = p.points[i].WithAlt(alt)
}

// SetAlt changes the altitude of point i.
func (p *Plan) SetAlt(i int, alt float64) {
	if i >= 0 && i < len(p.points) {
		p.setAlt(i, alt)
	}
}

// SetVelIn changes the velocity-in of point i.
func (p *Plan) SetVelIn(i int, v Velocity) {
	if i >= 0 && i < len(p.points) {
		p.points[i] = p.points[i].WithVelIn(v)
	}
}

// Segment returns the index of the segment containing time t: the index
// i such that Time(i) <= t < Time(i+1). The last point's time maps to the
// last index; times outside the plan return -1.
func (p *Plan) Segment(t float64) int {
	n := len(p.points)
	if n == 0 || t < p.points[0].Time || t > p.points[n-1].Time {
		return -1
	}
	if t == p.points[n-1].Time {
		return n - 1
	}
	return sort.Search(n, func(i int) bool { return p.points[i].Time > t }) - 1
}

// Index returns the index of the point at time t or -1 if there isn't one.
func (p *Plan) Index(t float64) int {
	i := sort.Search(len(p.points), func(i int) bool { return p.points[i].Time >= t-1e-8 })
	if i < len(p.points) && math.AlmostEqualTime(p.points[i].Time, t) {
		return i
	}
	return -1
}

// NearestIndex returns the index of the point closest in time to t.
func (p *Plan) NearestIndex(t float64) int {
	if len(p.points) == 0 {
		return -1
	}
	i := sort.Search(len(p.points), func(i int) bool { return p.points[i].Time >= t })
	if i == len(p.points) {
		return i - 1
	}
	if i > 0 && t-p.points[i-1].Time < p.points[i].Time-t {
		return i - 1
	}
	return i
}

// Prev returns the largest index j < i for which match returns true or -1.
func (p *Plan) Prev(i int, match func(NavPoint) bool) int {
	for j := math.Min(i, len(p.points)) - 1; j >= 0; j-- {
		if match(p.points[j]) {
			return j
		}
	}
	return -1
}

// Next returns the smallest index j > i for which match returns true or
// -1.
func (p *Plan) Next(i int, match func(NavPoint) bool) int {
	for j := math.Max(i+1, 0); j < len(p.points); j++ {
		if match(p.points[j]) {
			return j
		}
	}
	return -1
}

func (p *Plan) PrevBOT(i int) int    { return p.Prev(i, NavPoint.IsBOT) }
func (p *Plan) PrevEOT(i int) int    { return p.Prev(i, NavPoint.IsEOT) }
func (p *Plan) NextBOT(i int) int    { return p.Next(i, NavPoint.IsBOT) }
func (p *Plan) NextEOT(i int) int    { return p.Next(i, NavPoint.IsEOT) }
func (p *Plan) PrevBGS(i int) int    { return p.Prev(i, NavPoint.IsBGS) }
func (p *Plan) NextBGS(i int) int    { return p.Next(i, NavPoint.IsBGS) }
func (p *Plan) NextEGS(i int) int    { return p.Next(i, NavPoint.IsEGS) }
func (p *Plan) PrevBVS(i int) int    { return p.Prev(i, NavPoint.IsBVS) }
func (p *Plan) NextBVS(i int) int    { return p.Next(i, NavPoint.IsBVS) }
func (p *Plan) NextEVS(i int) int    { return p.Next(i, NavPoint.IsEVS) }
func (p *Plan) PrevEVS(i int) int    { return p.Prev(i, NavPoint.IsEVS) }
func (p *Plan) PrevTrkTCP(i int) int { return p.Prev(i, NavPoint.IsTrkTCP) }
func (p *Plan) NextTrkTCP(i int) int { return p.Next(i, NavPoint.IsTrkTCP) }
func (p *Plan) PrevGsTCP(i int) int  { return p.Prev(i, NavPoint.IsGsTCP) }
func (p *Plan) NextGsTCP(i int) int  { return p.Next(i, NavPoint.IsGsTCP) }
func (p *Plan) PrevVsTCP(i int) int  { return p.Prev(i, NavPoint.IsVsTCP) }
func (p *Plan) NextVsTCP(i int) int  { return p.Next(i, NavPoint.IsVsTCP) }
func (p *Plan) PrevTCP(i int) int    { return p.Prev(i, NavPoint.IsTCP) }
func (p *Plan) NextTCP(i int) int    { return p.Next(i, NavPoint.IsTCP) }

// zoneAt returns the index of the begin TCP of the zone containing
// segment seg, or -1 if the segment is not in a zone of that kind.
func (p *Plan) zoneAt(seg int, begin, end func(NavPoint) bool) int {
	for j := math.Min(seg, len(p.points)-1); j >= 0; j-- {
		if begin(p.points[j]) {
			return j
		} else if end(p.points[j]) {
			return -1
		}
	}
	return -1
}

func (p *Plan) turnAt(seg int) int { return p.zoneAt(seg, NavPoint.IsBOT, NavPoint.IsEOT) }
func (p *Plan) gsAt(seg int) int   { return p.zoneAt(seg, NavPoint.IsBGS, NavPoint.IsEGS) }
func (p *Plan) vsAt(seg int) int   { return p.zoneAt(seg, NavPoint.IsBVS, NavPoint.IsEVS) }

// InTrkChange reports whether t is in [BOT, EOT) of some turn.
func (p *Plan) InTrkChange(t float64) bool {
	seg := p.Segment(t)
	return seg >= 0 && p.turnAt(seg) >= 0
}

func (p *Plan) InGsChange(t float64) bool {
	seg := p.Segment(t)
	return seg >= 0 && p.gsAt(seg) >= 0
}

func (p *Plan) InVsChange(t float64) bool {
	seg := p.Segment(t)
	return seg >= 0 && p.vsAt(seg) >= 0
}

func (p *Plan) InAccel(t float64) bool {
	return p.InTrkChange(t) || p.InGsChange(t) || p.InVsChange(t)
}

// TurnRadiusAt returns the radius of the turn in progress at time t or -1.
func (p *Plan) TurnRadiusAt(t float64) float64 {
	if seg := p.Segment(t); seg >= 0 {
		if k := p.turnAt(seg); k >= 0 {
			return math.Abs(p.points[k].TCP.Radius)
		}
	}
	return -1
}

// IsLinear reports whether the plan has no TCPs.
func (p *Plan) IsLinear() bool {
	for _, np := range p.points {
		if np.IsTCP() {
			return false
		}
	}
	return true
}

// TimeshiftPlan adds dt to the times of the points starting at index
// start. With a negative shift, points that would become negative or out
// of order are dropped. If preserveFixed is set, the shift stops at the
// first fixed point at or after start.
func (p *Plan) TimeshiftPlan(start int, dt float64, preserveFixed bool) bool {
	if !math.IsFinite(dt) {
		return false
	}
	start = math.Max(start, 0)
	if start >= len(p.points) || dt == 0 {
		return true
	}

	end := len(p.points)
	if preserveFixed {
		for i := start; i < len(p.points); i++ {
			if p.points[i].TCP.Fixed {
				end = i
				break
			}
		}
	}

	if dt < 0 {
		prev := 0.
		if start > 0 {
			prev = p.points[start-1].Time
		}
		pts := p.points[:start]
		for i := start; i < len(p.points); i++ {
			np := p.points[i]
			if i < end {
				t := np.Time + dt
				if t <= prev && start > 0 || t < 0 {
					continue
				}
				np.Time = t
			} else if np.Time <= prev {
				continue
			}
			pts = append(pts, np)
			prev = np.Time
		}
		p.points = pts
		return true
	}

	for i := start; i < end; i++ {
		p.points[i].Time += dt
	}
	if end < len(p.points) {
		// Drop shifted points that now come at or after the fixed point.
		fixedTime := p.points[end].Time
		j := end
		for j > start && p.points[j-1].Time >= fixedTime-1e-8 {
			j--
		}
		if j < end {
			p.points = append(p.points[:j], p.points[end:]...)
			return false
		}
	}
	return true
}

// LinearCalcTimeGSin returns the time at which point i would be reached
// flying the straight leg from point i-1 at ground speed gs.
func (p *Plan) LinearCalcTimeGSin(i int, gs float64) float64 {
	if i <= 0 || i >= len(p.points) || gs <= 0 {
		return -1
	}
	return p.points[i-1].Time + p.points[i-1].Pos.DistanceH(p.points[i].Pos)/gs
}

// DistanceH returns the horizontal distance between points i and j.
func (p *Plan) DistanceH(i, j int) float64 {
	return p.points[i].Pos.DistanceH(p.points[j].Pos)
}

func (p *Plan) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Plan %q (%d points)", p.Name, len(p.points))
	if p.Note != "" {
		fmt.Fprintf(&sb, " %s", p.Note)
	}
	sb.WriteString("\n")
	for i, np := range p.points {
		fmt.Fprintf(&sb, "  %3d %s\n", i, np)
	}
	for _, e := range p.status.Entries {
		fmt.Fprintf(&sb, "  %s\n", e.Error())
	}
	return sb.String()
}

// Dump writes a detailed rendering of the plan, for debugging.
func (p *Plan) Dump(w io.Writer) {
	godump.Fdump(w, struct {
		Name, Note string
		Points     []NavPoint
		Status     []Error
	}{p.Name, p.Note, p.points, p.status.Entries})
}
