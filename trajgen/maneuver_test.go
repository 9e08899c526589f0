// trajgen/maneuver_test.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestManeuverToGs(t *testing.T) {
	so := plan.MakeXYZ(0, 0, 1000)
	vo := plan.MakeVelocity(0, 100, 0)

	p, err := ManeuverToGs("accel", so, vo, 0, 120, DefaultConfig(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, p)
	}
	if !strings.HasPrefix(p.Name, "accel-") {
		t.Errorf("unexpected plan name %q", p.Name)
	}
	if p.Size() != 4 {
		t.Fatalf("expected 4 points, got %d\n%s", p.Size(), p)
	}
	checkPos(t, "start", p.Point(0), 0, 0, 1000, 0)
	checkPos(t, "BGS", p.Point(1), 0, 500, 1000, 5)
	checkPos(t, "EGS", p.Point(2), 0, 1600, 1000, 15)
	if !p.Point(1).IsBGS() || !p.Point(2).IsEGS() {
		t.Errorf("expected BGS and EGS\n%s", p)
	}
	if gs := p.InitialVelocity(2).Gs; !scalar.EqualWithinAbs(gs, 120, 1e-6) {
		t.Errorf("final ground speed %f", gs)
	}
	checkMonotone(t, p)
	checkConsistent(t, p)

	// No change needed.
	p, err = ManeuverToGs("same", so, vo, 0, 100, DefaultConfig(), 5)
	if err != nil || p.Size() != 2 {
		t.Errorf("expected a two-point plan, got %v\n%s", err, p)
	}

	if _, err := ManeuverToGs("zero", so, vo, 0, 0, DefaultConfig(), 5); !errors.Is(err, plan.ErrGsZero) {
		t.Errorf("expected zero ground speed error, got %v", err)
	}
}

func TestManeuverToTime(t *testing.T) {
	so := plan.MakeXYZ(0, 0, 1000)
	vo := plan.MakeVelocity(0, 100, 0)
	goal := plan.MakeXYZ(0, 10000, 1000)

	p, err := ManeuverToTime("rta", so, vo, 0, goal, 90, DefaultConfig(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, p)
	}
	last := p.Point(p.Size() - 1)
	if !scalar.EqualWithinAbs(last.Time, 90, 1e-9) || !last.TCP.Fixed {
		t.Errorf("expected a fixed arrival at 90, got %s", last)
	}
	if !last.Pos.AlmostEquals(goal, 1e-6, 1e-6) {
		t.Errorf("arrival at %s", last.Pos)
	}
	egs := p.NextEGS(0)
	if egs < 0 {
		t.Fatalf("no EGS\n%s", p)
	}
	// Speeding up at 2 m/s^2 to cover 10 km in 90 s takes 5.74 s.
	if tm := p.Time(egs); !scalar.EqualWithinAbs(tm, 5.74, 0.01) {
		t.Errorf("EGS at %f", tm)
	}
	checkMonotone(t, p)
	checkConsistent(t, p)

	if _, err := ManeuverToTime("late", so, vo, 0, goal, 10, DefaultConfig(), 0); !errors.Is(err, plan.ErrGsAccelDist) {
		t.Errorf("expected unreachable arrival error, got %v", err)
	}
}

func TestManeuverToPosition(t *testing.T) {
	so := plan.MakeXYZ(0, 0, 1000)
	vo := plan.MakeVelocity(0, 100, 0)
	goal := plan.MakeXYZ(20000, 20000, 1000)

	p, err := ManeuverToPosition("dct", so, vo, 0, goal, DefaultConfig(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, p)
	}
	if !strings.HasPrefix(p.Name, "dct-") {
		t.Errorf("unexpected plan name %q", p.Name)
	}
	if p.NextBOT(0) < 0 {
		t.Errorf("expected a turn\n%s", p)
	}
	if last := p.Point(p.Size() - 1); !last.Pos.AlmostEquals(goal, 1e-6, 1e-6) {
		t.Errorf("maneuver ends at %s", last.Pos)
	}
	if gs := p.FinalVelocity(p.Size() - 2).Gs; !scalar.EqualWithinAbs(gs, 100, 1e-6) {
		t.Errorf("final ground speed %f", gs)
	}
	checkMonotone(t, p)
	checkConsistent(t, p)
}

func TestGenDirectToPoint(t *testing.T) {
	so := plan.MakeXYZ(0, 0, 1000)
	vo := plan.MakeVelocity(0, 100, 0)
	goal := plan.MakeXYZ(10000, 10000, 1000)
	bank := math.Radians(25)

	lp := GenDirectToPoint("dtp", so, vo, 0, goal, bank, 5)
	if lp.HasError() {
		t.Fatalf("unexpected error: %s", lp.ErrorString())
	}
	if lp.Size() != 3 {
		t.Fatalf("expected 3 points, got %d\n%s", lp.Size(), lp)
	}
	vertex := lp.Point(1)
	if !scalar.EqualWithinAbs(vertex.Pos.XYZ.X, 0, 1e-6) || vertex.Pos.XYZ.Y <= 500 || vertex.Time <= 5 {
		t.Errorf("vertex %s is not ahead on the initial track", vertex)
	}
	for i := range 2 {
		if gs := lp.InitialVelocity(i).Gs; !scalar.EqualWithinAbs(gs, 100, 1e-6) {
			t.Errorf("leg %d ground speed %f", i, gs)
		}
	}

	cfg := DefaultConfig()
	kp, err := MakeKinematicPlan(lp, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, kp)
	}
	if !kp.Point(1).IsBOT() {
		t.Errorf("expected the turn to follow the start\n%s", kp)
	}
	checkConsistent(t, kp)

	if p := GenDirectToPoint("dtp", so, plan.MakeVelocity(0, 0, 0), 0, goal, bank, 5); !p.HasError() {
		t.Errorf("expected an error for zero ground speed")
	}
}

func TestGenDirectTo(t *testing.T) {
	so := plan.MakeXYZ(0, 0, 1000)
	vo := plan.MakeVelocity(0, 100, 0)
	fp := makeLinear("fp",
		[4]float64{10000, 10000, 1000, 200},
		[4]float64{20000, 10000, 1000, 300})

	kp, err := GenDirectTo(fp, so, vo, 0, DefaultConfig(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, kp)
	}
	checkPos(t, "start", kp.Point(0), 0, 0, 1000, 0)
	if !kp.Point(1).IsBOT() || !kp.Point(3).IsEOT() {
		t.Errorf("expected the direct-to turn first\n%s", kp)
	}
	if last := kp.Point(kp.Size() - 1); !last.Pos.AlmostEquals(plan.MakeXYZ(20000, 10000, 1000), 1e-6, 1e-6) {
		t.Errorf("plan ends at %s", last.Pos)
	}
	checkMonotone(t, kp)
	checkConsistent(t, kp)

	// The start time must come before the plan.
	if _, err := GenDirectTo(fp, so, vo, 250, DefaultConfig(), 5); err == nil {
		t.Errorf("expected an error for a late start")
	}
}

func TestGenDirectToRetry(t *testing.T) {
	so := plan.MakeXYZ(0, 0, 1000)
	vo := plan.MakeVelocity(0, 100, 0)
	// The first point is dead ahead and too close to turn toward.
	fp := makeLinear("fp",
		[4]float64{0, 1000, 1000, 5},
		[4]float64{5000, 15000, 1000, 200},
		[4]float64{5000, 30000, 1000, 350})

	if _, err := GenDirectTo(fp, so, vo, 0, DefaultConfig(), 5); err == nil {
		t.Fatalf("expected the first point to be unreachable")
	}
	kp, err := GenDirectToRetry(fp, so, vo, 0, DefaultConfig(), 5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, kp)
	}
	checkPos(t, "start", kp.Point(0), 0, 0, 1000, 0)
	for _, np := range kp.Points() {
		if np.Pos.AlmostEquals(plan.MakeXYZ(0, 1000, 1000), 1, 1) {
			t.Errorf("unreachable point was kept\n%s", kp)
		}
	}
	if last := kp.Point(kp.Size() - 1); !last.Pos.AlmostEquals(plan.MakeXYZ(5000, 30000, 1000), 1e-6, 1e-6) {
		t.Errorf("plan ends at %s", last.Pos)
	}
	checkConsistent(t, kp)
}

func TestReconnectToPlan(t *testing.T) {
	so := plan.MakeXYZ(0, 0, 1000)
	vo := plan.MakeVelocity(0, 100, 0)
	p := makeLinear("route",
		[4]float64{0, -5000, 1000, -50},
		[4]float64{5000, 15000, 1000, 200},
		[4]float64{5000, 30000, 1000, 350})

	kp, err := ReconnectToPlan(p, so, vo, 0, DefaultConfig(), 5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, kp)
	}
	if !strings.HasPrefix(kp.Name, "route-") {
		t.Errorf("unexpected plan name %q", kp.Name)
	}
	checkPos(t, "start", kp.Point(0), 0, 0, 1000, 0)
	if kp.FirstTime() != 0 {
		t.Errorf("plan starts at %f", kp.FirstTime())
	}

	if _, err := ReconnectToPlan(p, so, vo, 400, DefaultConfig(), 5, 0); err == nil {
		t.Errorf("expected an error when the whole plan is in the past")
	}
}

func TestBuildDirectTo(t *testing.T) {
	base := makeLinear("base",
		[4]float64{10000, 0, 1000, 0},
		[4]float64{10000, 30000, 1000, 300})
	s := plan.MakeNavPoint(plan.MakeXYZ(0, 0, 1000), 10)
	v := plan.MakeVelocity(0, 100, 0)

	p := BuildDirectTo("join", s, v, base, math.Radians(25))
	if p.Size() < 3 {
		t.Fatalf("expected to rejoin the base plan\n%s", p)
	}
	join := p.Point(1)
	if !scalar.EqualWithinAbs(join.Pos.XYZ.X, 10000, 1e-6) || join.Time <= s.Time {
		t.Errorf("rejoin point %s is not on the base plan", join)
	}
	if last := p.Point(p.Size() - 1); !scalar.EqualWithinAbs(last.Time, 300, 1e-9) {
		t.Errorf("plan ends at %f", last.Time)
	}
	checkMonotone(t, p)

	// Without ground speed there is nothing to rejoin.
	p = BuildDirectTo("stopped", s, plan.MakeVelocity(0, 0, 0), base, math.Radians(25))
	if p.Size() != 2 || !p.Point(1).Pos.AlmostEquals(plan.MakeXYZ(10000, 30000, 1000), 1e-6, 1e-6) {
		t.Errorf("expected a direct leg to the end of the plan\n%s", p)
	}
}
