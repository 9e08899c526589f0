// plan/plan_test.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"errors"
	gomath "math"
	"strings"
	"testing"

	"github.com/mmp/kinplan/math"

	"gonum.org/v1/gonum/floats/scalar"
)

// makeLinear returns a Euclidean plan with points given as {x, y, z, t}.
func makeLinear(pts ...[4]float64) *Plan {
	p := New("test")
	for _, pt := range pts {
		p.Add(MakeNavPoint(MakeXYZ(pt[0], pt[1], pt[2]), pt[3]))
	}
	return p
}

// makeTurnPlan returns a kinematic plan that flies north at 100 m/s,
// makes a 90 degree right turn of radius 500 m around (500, 4500) and
// then flies east. The turn's source is the vertex (0, 5000) at t=50.
func makeTurnPlan() *Plan {
	const gs, r = 100., 500.
	turnTime := gomath.Pi / 2 * r / gs
	c := MakeXYZ(500, 4500, 1000)
	src := MakeNavPoint(MakeXYZ(0, 5000, 1000), 50)
	h := r * gomath.Sqrt2 / 2

	p := New("turn")
	p.Add(MakeNavPoint(MakeXYZ(0, 0, 1000), 0))
	p.Add(src.MakeBOT(MakeXYZ(0, 4500, 1000), 45, MakeVelocity(0, gs, 0), r, c))
	p.Add(src.MakeMOT(MakeXYZ(500-h, 4500+h, 1000), 45+turnTime/2, MakeVelocity(gomath.Pi/4, gs, 0)))
	p.Add(src.MakeEOT(MakeXYZ(500, 5000, 1000), 45+turnTime, MakeVelocity(gomath.Pi/2, gs, 0)))
	p.Add(MakeNavPoint(MakeXYZ(5000, 5000, 1000), 90+turnTime))
	return p
}

// makeGsPlan returns a plan that flies north and speeds up from 100 to
// 120 m/s at 2 m/s^2 between t=10 and t=20.
func makeGsPlan() *Plan {
	p := New("gs")
	p.Add(MakeNavPoint(MakeXYZ(0, 0, 0), 0))
	np := MakeNavPoint(MakeXYZ(0, 1000, 0), 10)
	p.Add(np.MakeBGS(np.Pos, np.Time, 2, MakeVelocity(0, 100, 0)))
	np = MakeNavPoint(MakeXYZ(0, 2100, 0), 20)
	p.Add(np.MakeEGS(np.Pos, np.Time, MakeVelocity(0, 120, 0)))
	p.Add(MakeNavPoint(MakeXYZ(0, 3300, 0), 30))
	return p
}

// makeVsPlan returns a plan that flies north at 100 m/s and starts to
// climb at 1 m/s^2 at t=10, reaching 10 m/s at t=20.
func makeVsPlan() *Plan {
	p := New("vs")
	p.Add(MakeNavPoint(MakeXYZ(0, 0, 0), 0))
	np := MakeNavPoint(MakeXYZ(0, 1000, 0), 10)
	p.Add(np.MakeBVS(np.Pos, np.Time, 1, MakeVelocity(0, 100, 0)))
	np = MakeNavPoint(MakeXYZ(0, 2000, 50), 20)
	p.Add(np.MakeEVS(np.Pos, np.Time, MakeVelocity(0, 100, 10)))
	p.Add(MakeNavPoint(MakeXYZ(0, 3000, 150), 30))
	return p
}

func checkTimes(t *testing.T, p *Plan, want ...float64) {
	t.Helper()
	if p.Size() != len(want) {
		t.Fatalf("expected %d points, got %d\n%s", len(want), p.Size(), p)
	}
	for i, tm := range want {
		if !scalar.EqualWithinAbs(p.Time(i), tm, 1e-6) {
			t.Errorf("point %d: time %.6f, expected %.6f", i, p.Time(i), tm)
		}
	}
}

func TestAdd(t *testing.T) {
	p := makeLinear([4]float64{0, 0, 0, 10}, [4]float64{0, 1000, 0, 0}, [4]float64{0, 2000, 0, 20})
	checkTimes(t, p, 0, 10, 20)

	// A point at an existing time merges with it.
	np := MakeNavPoint(MakeXYZ(0, 0, 0), 10+1e-10)
	bgs := np.MakeBGS(np.Pos, np.Time, 1, MakeVelocity(0, 100, 0))
	p.Set(1, p.Point(1).WithLabel("fix"))
	if i := p.Add(bgs); i != 1 {
		t.Fatalf("merged point at index %d", i)
	}
	checkTimes(t, p, 0, 10, 20)
	if got := p.Point(1); !got.IsBGS() || got.Label != "fix" || got.Time != 10 {
		t.Errorf("merge gave %s", got)
	}

	// Conflicting roles on the same axis can't be merged.
	egs := np.MakeEGS(np.Pos, 10, MakeVelocity(0, 100, 0))
	if i := p.Add(egs); i != -1 || !p.HasError() {
		t.Errorf("expected conflicting add to fail")
	}

	q := New("mixed")
	q.Add(MakeNavPoint(MakeXYZ(0, 0, 0), 0))
	if i := q.Add(MakeNavPoint(MakeLLA(math.LatLonAlt{}), 10)); i != -1 {
		t.Errorf("expected geodetic point to be rejected")
	}
	if i := q.Add(MakeNavPoint(MakeXYZ(0, 0, 0), gomath.NaN())); i != -1 {
		t.Errorf("expected NaN time to be rejected")
	}
	if q.Size() != 1 {
		t.Errorf("rejected points were added")
	}
}

func TestSegmentAndIndex(t *testing.T) {
	p := makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 0, 10}, [4]float64{0, 2000, 0, 20})
	for _, test := range []struct {
		t        float64
		seg, idx int
	}{
		{-1, -1, -1},
		{0, 0, 0},
		{5, 0, -1},
		{10, 1, 1},
		{15, 1, -1},
		{20, 2, 2},
		{21, -1, -1},
	} {
		if seg := p.Segment(test.t); seg != test.seg {
			t.Errorf("Segment(%.0f) = %d, expected %d", test.t, seg, test.seg)
		}
		if idx := p.Index(test.t); idx != test.idx {
			t.Errorf("Index(%.0f) = %d, expected %d", test.t, idx, test.idx)
		}
	}
	if i := p.NearestIndex(14); i != 1 {
		t.Errorf("NearestIndex(14) = %d", i)
	}
	if i := p.NearestIndex(16); i != 2 {
		t.Errorf("NearestIndex(16) = %d", i)
	}
}

func TestZones(t *testing.T) {
	p := makeTurnPlan()
	if p.IsLinear() {
		t.Errorf("turn plan reported as linear")
	}
	if p.NextBOT(0) != 1 || p.NextEOT(1) != 3 || p.PrevBOT(3) != 1 || p.NextTCP(3) != -1 {
		t.Errorf("unexpected TCP search results")
	}
	for _, test := range []struct {
		t    float64
		want bool
	}{{44, false}, {45, true}, {48, true}, {p.Time(3), false}, {80, false}} {
		if got := p.InTrkChange(test.t); got != test.want {
			t.Errorf("InTrkChange(%.2f) = %v", test.t, got)
		}
	}
	if r := p.TurnRadiusAt(50); r != 500 {
		t.Errorf("TurnRadiusAt = %f", r)
	}
	if r := p.TurnRadiusAt(10); r != -1 {
		t.Errorf("TurnRadiusAt outside turn = %f", r)
	}

	g := makeGsPlan()
	if !g.InGsChange(15) || g.InGsChange(20) || !g.InAccel(10) || g.InAccel(25) {
		t.Errorf("unexpected ground speed zone extent")
	}
	v := makeVsPlan()
	if !v.InVsChange(19.9) || v.InVsChange(9.9) {
		t.Errorf("unexpected vertical speed zone extent")
	}
}

func TestTimeshiftPlan(t *testing.T) {
	mk := func() *Plan {
		p := makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 0, 10}, [4]float64{0, 2000, 0, 20},
			[4]float64{0, 3000, 0, 30}, [4]float64{0, 4000, 0, 40})
		p.Set(3, p.Point(3).WithFixed(true))
		return p
	}

	p := mk()
	if !p.TimeshiftPlan(1, 5, true) {
		t.Errorf("shift failed")
	}
	checkTimes(t, p, 0, 15, 25, 30, 40)

	p = mk()
	if p.TimeshiftPlan(1, 15, true) {
		t.Errorf("expected shift past the fixed point to report a dropped point")
	}
	checkTimes(t, p, 0, 25, 30, 40)

	p = mk()
	p.TimeshiftPlan(1, 5, false)
	checkTimes(t, p, 0, 15, 25, 35, 45)

	p = mk()
	p.TimeshiftPlan(2, -15, false)
	checkTimes(t, p, 0, 10, 15, 25)

	p = mk()
	if p.TimeshiftPlan(0, gomath.Inf(1), false) {
		t.Errorf("expected infinite shift to fail")
	}
}

func TestStatus(t *testing.T) {
	p := makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 0, 10})
	p.AddWarning(Unknown, 1, "just so you know")
	if p.HasError() || !p.HasWarning() || p.Err() != nil {
		t.Errorf("warnings should not be errors")
	}
	p.AddError(GsAccelDist, 1, "too short: %d m", 5)
	p.AddError(TurnInfeasible, 0, "too tight")

	err := p.Err()
	if !errors.Is(err, ErrGsAccelDist) || !errors.Is(err, ErrTurnInfeasible) || errors.Is(err, ErrVsAccelDist) {
		t.Errorf("unexpected error matching for %v", err)
	}
	if p.ErrType() != GsAccelDist {
		t.Errorf("first error type %s", p.ErrType())
	}
	if s := p.ErrorString(); !strings.Contains(s, "GSACCEL_DIST at 1: too short: 5 m") || strings.Contains(s, "know") {
		t.Errorf("unexpected error string %q", s)
	}
	if len(p.Errors()) != 3 || len(p.Warnings()) != 1 {
		t.Errorf("unexpected status counts")
	}

	if c := p.Copy(); !c.HasError() {
		t.Errorf("copy lost its status")
	}
	if c := p.CopyPoints(); c.HasError() || c.Size() != 2 {
		t.Errorf("CopyPoints should keep points only")
	}
	q := New("other")
	q.MergeStatus(p)
	q.MergeStatus(q)
	if len(q.Errors()) != 3 {
		t.Errorf("merged %d entries", len(q.Errors()))
	}
}

func TestCopyIsDeep(t *testing.T) {
	p := makeTurnPlan()
	c := p.Copy()
	c.SetAlt(1, 0)
	c.Name = "copy"
	if p.Point(1).Alt() != 1000 || p.Name != "turn" {
		t.Errorf("changing the copy changed the original")
	}
}

func TestWellFormed(t *testing.T) {
	if p := makeTurnPlan(); !p.IsWellFormed() {
		t.Errorf("turn plan is malformed: %s", p.StrWellFormed())
	}

	p := makeTurnPlan()
	p.Remove(3)
	if p.IsWellFormed() || !strings.Contains(p.StrWellFormed(), "ends inside a turn") {
		t.Errorf("unexpected well-formedness report %q", p.StrWellFormed())
	}

	p = makeGsPlan()
	p.Remove(1)
	if i := p.IndexWellFormed(); i != 1 {
		t.Errorf("EGS without BGS reported at %d", i)
	}
}
