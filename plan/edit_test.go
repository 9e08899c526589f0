// plan/edit_test.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	gomath "math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestLinearMakeGsConstant(t *testing.T) {
	p := makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 0, 10}, [4]float64{0, 2000, 0, 20},
		[4]float64{0, 3000, 0, 30})
	p.LinearMakeGsConstant(0, 2, 50)
	// The last leg keeps its original 100 m/s.
	checkTimes(t, p, 0, 20, 40, 50)
	if p.HasWarning() || p.HasError() {
		t.Errorf("unexpected status: %s", p)
	}

	p = makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 0, 20}, [4]float64{0, 2000, 0, 25})
	p.LinearMakeGsConstantAverage(0, 2)
	checkTimes(t, p, 0, 12.5, 25)

	p.LinearMakeGsConstant(0, 2, 0)
	if !p.HasError() {
		t.Errorf("expected an error for zero ground speed")
	}
}

func TestLinearMakeVsConstant(t *testing.T) {
	p := makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 0, 10}, [4]float64{0, 2000, 0, 20})
	p.LinearMakeVsConstant(0, 2, 5)
	for i, z := range []float64{0, 50, 100} {
		if p.Point(i).Alt() != z {
			t.Errorf("point %d: altitude %f, expected %f", i, p.Point(i).Alt(), z)
		}
	}

	p = makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 500, 10}, [4]float64{0, 2000, 200, 20})
	p.LinearMakeVsConstantAverage(0, 2)
	if z := p.Point(1).Alt(); !scalar.EqualWithinAbs(z, 100, 1e-9) {
		t.Errorf("midpoint altitude %f", z)
	}
}

func TestMakeGsConstantNoVerts(t *testing.T) {
	p := makeTurnPlan()
	p.MakeGsConstantNoVerts(50)
	if p.HasError() {
		t.Fatalf("unexpected error: %s", p.ErrorString())
	}
	total := 9000 + gomath.Pi/2*500
	if !scalar.EqualWithinAbs(p.LastTime(), total/50, 1e-6) {
		t.Errorf("plan ends at %f", p.LastTime())
	}
	if gs := p.Point(1).TCP.VelIn.Gs; gs != 50 {
		t.Errorf("BOT ground speed %f", gs)
	}
	if v := p.IsConsistent(nil); !v.OK {
		t.Errorf("inconsistent: %s", v)
	}

	g := makeGsPlan()
	g.MakeGsConstantNoVertsAverage()
	if !g.IsLinear() {
		t.Errorf("ground speed TCPs remain\n%s", g)
	}
	checkTimes(t, g, 0, 1000./110, 2100./110, 30)

	v := makeVsPlan()
	v.MakeGsConstantNoVerts(100)
	if !v.HasError() {
		t.Errorf("expected an error with vertical TCPs present")
	}
}

func TestRemovePoints(t *testing.T) {
	mk := func() *Plan {
		return makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 500, 0, 5}, [4]float64{0, 1000, 0, 10},
			[4]float64{500, 1000, 0, 15})
	}

	p := mk()
	p.RemoveCollinearPoints()
	checkTimes(t, p, 0, 10, 15)

	p = mk()
	p.RemoveRedundantPoints(0, p.Size()-1)
	checkTimes(t, p, 0, 10, 15)

	p = mk()
	p.Set(1, p.Point(1).WithFixed(true))
	p.RemoveCollinearPoints()
	checkTimes(t, p, 0, 5, 10, 15)

	p = makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 0, 10}, [4]float64{0, 1000, 0, 10 + 5e-6},
		[4]float64{0, 2000, 0, 20})
	p.MergeClosePoints(MinDt)
	checkTimes(t, p, 0, 10+5e-6, 20)
}

func TestRevertTCPs(t *testing.T) {
	p := makeTurnPlan()
	p.Set(1, p.Point(1).WithLabel("WPT"))
	lp := RevertTCPs(p)
	if !lp.IsLinear() {
		t.Errorf("reverted plan has TCPs\n%s", lp)
	}
	checkTimes(t, lp, 0, 50, 90+gomath.Pi/2*5)
	checkPosition(t, "vertex", lp.Point(1).Pos, 0, 5000, 1000)
	if lp.Point(1).Label != "WPT" {
		t.Errorf("vertex label %q", lp.Point(1).Label)
	}

	// Reverting a range leaves the rest alone.
	rp := RevertTCPsRange(p, 3, 4)
	if rp.NextBOT(0) != 1 {
		t.Errorf("turn outside the range was reverted\n%s", rp)
	}
}

func TestRevertGroupOfTCPs(t *testing.T) {
	p := makeTurnPlan()
	if i := p.RevertGroupOfTCPs(3, false); i != 1 {
		t.Errorf("reverted point at %d", i)
	}
	checkTimes(t, p, 0, 50, 100)
	checkPosition(t, "vertex", p.Point(1).Pos, 0, 5000, 1000)

	// Non-TCPs are left alone.
	if i := p.RevertGroupOfTCPs(1, false); i != 1 || p.Size() != 3 {
		t.Errorf("non-TCP revert changed the plan")
	}
}

func TestStructRevert(t *testing.T) {
	p := makeTurnPlan()
	p.StructRevertTurnTCP(1, true, false, -1)
	checkTimes(t, p, 0, 50, 100)
	checkPosition(t, "vertex", p.Point(1).Pos, 0, 5000, 1000)

	g := makeGsPlan()
	g.StructRevertGsTCP(1)
	if !g.IsLinear() {
		t.Errorf("ground speed TCPs remain\n%s", g)
	}
	checkTimes(t, g, 0, 10, 10+2300./120)

	v := makeVsPlan()
	if z := v.StructRevertVsTCP(1); z != 0 {
		t.Errorf("vertex altitude %f", z)
	}
	checkTimes(t, v, 0, 15, 30)
	checkPosition(t, "vs vertex", v.Point(1).Pos, 0, 1500, 0)

	p = makeTurnPlan()
	p.StructRevertTCPs(true)
	if !p.IsLinear() || p.Size() != 3 {
		t.Errorf("expected three linear points\n%s", p)
	}

	p = makeTurnPlan()
	if i := p.StructRevertGroupOfTCPsTimeWindow(2, 20); i != 1 {
		t.Errorf("nearest point to the MOT is %d", i)
	}
	if !p.IsLinear() || p.Size() != 3 {
		t.Errorf("expected the turn inside the window to be reverted\n%s", p)
	}
	checkPosition(t, "window vertex", p.Point(1).Pos, 0, 5000, 1000)
}

func TestConsistency(t *testing.T) {
	for _, p := range []*Plan{makeTurnPlan(), makeGsPlan(), makeVsPlan()} {
		if v := p.IsConsistent(nil); !v.OK {
			t.Errorf("%s: inconsistent: %s\n%s", p.Name, v, p)
		}
	}

	p := makeTurnPlan()
	p.SetTime(3, p.Time(3)+1)
	if v := p.IsTurnConsistent(TurnTimeEps, TurnDistHEps, TurnDistVEps); v.OK {
		t.Errorf("late EOT not detected")
	}

	g := makeGsPlan()
	np := g.Point(1)
	np.TCP.GsAccel = 3
	g.Set(1, np)
	if v := g.IsGsConsistent(GsAccelEps, GsDistEps); v.OK || len(v.Reasons) == 0 {
		t.Errorf("wrong acceleration not detected")
	}

	vp := makeVsPlan()
	vp.SetAlt(2, 60)
	if v := vp.IsVsConsistent(VsAccelEps, VsDistEps); v.OK {
		t.Errorf("wrong altitude change not detected")
	}

	corner := makeLinear([4]float64{0, 0, 0, 0}, [4]float64{0, 1000, 0, 10}, [4]float64{1000, 1000, 0, 20})
	if v := corner.VelocityContinuous(1, VelocityContEps); v.OK {
		t.Errorf("track discontinuity not detected")
	}
	if v := corner.IsConsistent(nil); !v.OK {
		t.Errorf("linear plans are only checked at TCPs: %s", v)
	}

	bad := makeTurnPlan()
	bad.Remove(3)
	if v := bad.IsConsistent(nil); v.OK {
		t.Errorf("malformed plan reported consistent")
	}
}
