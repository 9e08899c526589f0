// trajgen/holding_test.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	gomath "math"
	"testing"

	"github.com/mmp/kinplan/plan"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestStandardHoldingPattern(t *testing.T) {
	so := plan.MakeXYZ(0, 0, 1000)
	vo := plan.MakeVelocity(0, 100, 0)
	omega := 0.1

	for _, dir := range []float64{1, -1} {
		p := StandardHoldingPattern(so, vo, 0, dir*omega, 5000, 2000)
		if p.HasError() {
			t.Fatalf("unexpected error: %s", p.ErrorString())
		}
		if p.Size() != 13 {
			t.Fatalf("expected 13 points, got %d\n%s", p.Size(), p)
		}
		for k := range 4 {
			if !p.Point(1+3*k).IsBOT() || !p.Point(2+3*k).IsMOT() || !p.Point(3+3*k).IsEOT() {
				t.Errorf("turn %d: expected BOT, MOT, EOT\n%s", k, p)
			}
			if r := p.Point(1 + 3*k).TCP.Radius; !scalar.EqualWithinAbs(r, dir*1000, 1e-9) {
				t.Errorf("turn %d: radius %f", k, r)
			}
		}

		last := p.Point(p.Size() - 1)
		if !last.Pos.AlmostEquals(so, 1e-6, 1e-6) {
			t.Errorf("pattern ends at %s, expected %s", last.Pos, so)
		}
		want := 2*50. + 2*20 + 4*(gomath.Pi/2)/omega
		if !scalar.EqualWithinAbs(last.Time, want, 1e-9) {
			t.Errorf("pattern takes %f s, expected %f", last.Time, want)
		}
		if v := p.FinalVelocity(p.Size() - 2); !scalar.EqualWithinAbs(v.Trk, 0, 1e-9) &&
			!scalar.EqualWithinAbs(v.Trk, 2*gomath.Pi, 1e-9) {
			t.Errorf("pattern ends on track %f", v.Trk)
		}
		checkMonotone(t, p)
		checkConsistent(t, p)
	}
}

func TestStandardHoldingPatternDegenerate(t *testing.T) {
	p := StandardHoldingPattern(plan.MakeXYZ(0, 0, 0), plan.MakeVelocity(0, 0, 0), 0, 0.1, 1000, 1000)
	if !p.HasError() {
		t.Errorf("expected an error for zero ground speed")
	}
	p = StandardHoldingPattern(plan.MakeXYZ(0, 0, 0), plan.MakeVelocity(0, 100, 0), 0, 0, 1000, 1000)
	if !p.HasError() {
		t.Errorf("expected an error for zero turn rate")
	}
}

func TestTurnGenerator3(t *testing.T) {
	so := plan.MakeNavPoint(plan.MakeXYZ(0, 0, 0), 10)
	vo := plan.MakeVelocity(0, 100, 0)
	tt, ok := turnGenerator3(so, vo, 0.1, gomath.Pi/2/0.1)
	if !ok {
		t.Fatal("turn generation failed")
	}
	checkPos(t, "EOT", tt.eot, 1000, 1000, 0, 10+gomath.Pi/2/0.1)
	// The source is the corner where the straight legs meet.
	if src := tt.bot.TCP.Source; !src.AlmostEquals(plan.MakeXYZ(0, 1000, 0), 1e-6, 1e-6) {
		t.Errorf("source %s, expected the corner", src)
	}
	if !scalar.EqualWithinAbs(tt.eot.TCP.SourceTime, 20, 1e-9) {
		t.Errorf("source time %f, expected 20", tt.eot.TCP.SourceTime)
	}
	if _, ok := turnGenerator3(so, vo, 0, 10); ok {
		t.Errorf("expected failure for zero turn rate")
	}
}
