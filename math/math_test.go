// math/math_test.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
	"testing"
)

func TestTurnDelta(t *testing.T) {
	tests := []struct {
		name   string
		a, b   float64
		delta  float64
		dir    int
		signed float64
	}{
		{"simple right", Radians(10), Radians(40), Radians(30), 1, Radians(30)},
		{"simple left", Radians(40), Radians(10), Radians(30), -1, Radians(-30)},
		{"wrap right", Radians(350), Radians(20), Radians(30), 1, Radians(30)},
		{"wrap left", Radians(20), Radians(350), Radians(30), -1, Radians(-30)},
		{"none", Radians(90), Radians(90), 0, 1, 0},
		{"ninety", 0, gomath.Pi / 2, gomath.Pi / 2, 1, gomath.Pi / 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if d := TurnDelta(tc.a, tc.b); !Within(d, tc.delta, 1e-12) {
				t.Errorf("TurnDelta = %f, expected %f", Degrees(d), Degrees(tc.delta))
			}
			if d := TurnDir(tc.a, tc.b); d != tc.dir {
				t.Errorf("TurnDir = %d, expected %d", d, tc.dir)
			}
			if s := SignedTurnDelta(tc.a, tc.b); !Within(s, tc.signed, 1e-12) {
				t.Errorf("SignedTurnDelta = %f, expected %f", Degrees(s), Degrees(tc.signed))
			}
		})
	}
}

func TestNormalizeTrack(t *testing.T) {
	for _, v := range []float64{-7, -TwoPi, -1, 0, 1, TwoPi, 3 * TwoPi, 100} {
		n := NormalizeTrack(v)
		if n < 0 || n >= TwoPi {
			t.Errorf("NormalizeTrack(%f) = %f out of range", v, n)
		}
		if !Within(gomath.Sin(n), gomath.Sin(v), 1e-9) || !Within(gomath.Cos(n), gomath.Cos(v), 1e-9) {
			t.Errorf("NormalizeTrack(%f) = %f changed the angle", v, n)
		}
	}
}

func TestTrackVec(t *testing.T) {
	for _, deg := range []float64{0, 45, 90, 135, 180, 270, 359} {
		v := TrackVec(Radians(deg), 10)
		if !Within(Track(v), Radians(deg), 1e-9) {
			t.Errorf("track %f: got %f", deg, Degrees(Track(v)))
		}
	}
	if v := TrackVec(gomath.Pi/2, 1); !Within(v.X, 1, 1e-12) || !Within(v.Y, 0, 1e-12) {
		t.Errorf("expected east unit vector, got %+v", v)
	}
}

func TestLineLineIntersect(t *testing.T) {
	p, ok := LineLineIntersect(Vec2{X: 0, Y: -1}, Vec2{X: 0, Y: 1}, Vec2{X: -1, Y: 2}, Vec2{X: 1, Y: 2})
	if !ok {
		t.Fatalf("expected intersection")
	}
	if !Within(p.X, 0, 1e-12) || !Within(p.Y, 2, 1e-12) {
		t.Errorf("got %+v, expected (0,2)", p)
	}

	if _, ok := LineLineIntersect(Vec2{}, Vec2{X: 1}, Vec2{Y: 1}, Vec2{X: 1, Y: 1}); ok {
		t.Errorf("parallel lines should not intersect")
	}

	q, s, ok := RayRayIntersect(Vec2{}, Vec2{Y: 1}, Vec2{X: 5, Y: 5}, Vec2{X: -1})
	if !ok || !Within(q.X, 0, 1e-12) || !Within(q.Y, 5, 1e-12) || !Within(s, 5, 1e-12) {
		t.Errorf("RayRayIntersect got %+v s=%f ok=%v", q, s, ok)
	}
}

func TestRightOfLine(t *testing.T) {
	north := Vec2{Y: 1}
	if r := RightOfLine(Vec2{}, north, Vec2{X: 1, Y: 3}); r != 1 {
		t.Errorf("east of a northbound line should be right, got %d", r)
	}
	if r := RightOfLine(Vec2{}, north, Vec2{X: -1, Y: 3}); r != -1 {
		t.Errorf("west of a northbound line should be left, got %d", r)
	}
	if d := SignedPointLineDistance(Vec2{X: 2}, Vec2{}, north); !Within(d, 2, 1e-12) {
		t.Errorf("signed distance %f, expected 2", d)
	}
}

func TestGreatCircle(t *testing.T) {
	jfk := LLA(40.6398, -73.7789, 0)
	ewr := LLA(40.6925, -74.1687, 0)

	d := MetersToNM(GCDistance(jfk, ewr))
	if d < 17.5 || d > 18.5 {
		t.Errorf("JFK-EWR distance %f nm, expected ~18", d)
	}

	// One degree of latitude is 60nm by construction.
	if d := MetersToNM(GCDistance(LLA(10, 20, 0), LLA(11, 20, 0))); !Within(d, 60, 1e-9) {
		t.Errorf("one degree of latitude = %f nm", d)
	}

	trk := InitialCourse(jfk, ewr)
	dest := GCDestination(jfk, trk, GCDistance(jfk, ewr))
	if GCDistance(dest, ewr) > 0.01 {
		t.Errorf("destination off by %f m", GCDistance(dest, ewr))
	}

	mid := GCInterpolate(jfk, ewr.WithAlt(1000), 0.5)
	if !Within(GCDistance(jfk, mid), GCDistance(mid, ewr), 0.01) || !Within(mid.Alt, 500, 1e-9) {
		t.Errorf("midpoint not halfway: %+v", mid)
	}
}

func TestProjection(t *testing.T) {
	ref := LLA(37.5, -122.1, 0)
	pr := ProjectionFor(ref)

	for _, p := range []LatLonAlt{LLA(37.6, -122.0, 5000), LLA(37.2, -122.5, 100), ref} {
		v := pr.Project(p)
		back := pr.Inverse(v)
		if GCDistance(p, back) > 1e-4 || !Within(back.Alt, p.Alt, 1e-9) {
			t.Errorf("round trip of %s off by %g m", p.DDString(), GCDistance(p, back))
		}
		if !Within(gomath.Hypot(v.X, v.Y), GCDistance(ref, p), 1e-6) {
			t.Errorf("distance from reference not preserved")
		}
	}

	trk := Radians(73)
	p := LLA(37.55, -122.05, 0)
	lt := pr.ProjectTrack(p, trk)
	if back := pr.InverseTrack(pr.Project2(p), lt); TurnDelta(back, trk) > Radians(0.01) {
		t.Errorf("track round trip %f -> %f", Degrees(trk), Degrees(back))
	}

	if pr2 := ProjectionFor(ref); pr2 != pr {
		t.Errorf("cached projection differs")
	}
}

func TestParseLatLong(t *testing.T) {
	tests := []struct {
		s        string
		lat, lon float64
	}{
		{"40.5, -73.25", 40.5, -73.25},
		{"N40.30.00.000,W073.15.00.000", 40.5, -73.25},
		{"S33.30.36.000,E151.10.48.000", -33.51, 151.18},
		{"+403000.000-0731500.000", 40.5, -73.25},
	}
	for _, tc := range tests {
		p, err := ParseLatLong([]byte(tc.s))
		if err != nil {
			t.Errorf("%s: %v", tc.s, err)
			continue
		}
		if !Within(p.LatDeg(), tc.lat, 1e-9) || !Within(p.LonDeg(), tc.lon, 1e-9) {
			t.Errorf("%s: got %s", tc.s, p.DDString())
		}
	}

	if _, err := ParseLatLong([]byte("bogus")); err == nil {
		t.Errorf("expected error for invalid string")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		s, def string
		v      float64
	}{
		{"25 deg", "rad", Radians(25)},
		{"2", "m/s^2", 2},
		{"250 [kn]", "m/s", KnotsToMS(250)},
		{"1000 fpm", "m/s", FPMToMS(1000)},
		{"3", "NM", 3 * MetersPerNM},
	}
	for _, tc := range tests {
		v, err := ParseValue(tc.s, tc.def)
		if err != nil {
			t.Errorf("%s: %v", tc.s, err)
		} else if !Within(v, tc.v, 1e-9) {
			t.Errorf("%s: got %f, expected %f", tc.s, v, tc.v)
		}
	}
	if _, err := ParseValue("12 furlongs", "m"); err == nil {
		t.Errorf("expected error for unknown unit")
	}
}

func TestQuadraticRoots(t *testing.T) {
	r0, r1, ok := QuadraticRoots(1, -3, 2)
	if !ok || !Within(r0, 1, 1e-12) || !Within(r1, 2, 1e-12) {
		t.Errorf("got %f %f %v", r0, r1, ok)
	}
	if _, _, ok := QuadraticRoots(1, 0, 1); ok {
		t.Errorf("expected no real roots")
	}
	if r0, _, ok := QuadraticRoots(0, 2, -4); !ok || r0 != 2 {
		t.Errorf("linear case got %f", r0)
	}
}

func TestSign(t *testing.T) {
	if s := Sign(-3); s != -1 {
		t.Errorf("Sign(-3) = %d", s)
	}
	if s := Sign(int8(5)); s != 1 {
		t.Errorf("Sign(int8(5)) = %d", s)
	}
	for v, want := range map[float64]float64{-0.25: -1, 0: 0, 1e-300: 1} {
		if s := Sign(v); s != want {
			t.Errorf("Sign(%g) = %g, expected %g", v, s, want)
		}
	}
}
