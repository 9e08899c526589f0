// math/heading.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
)

///////////////////////////////////////////////////////////////////////////
// tracks
//
// Tracks are compass angles in radians: 0 is north and angles increase
// clockwise. Turn directions follow the same convention, so +1 is a
// right (clockwise) turn and -1 is a left turn.

const TwoPi = 2 * gomath.Pi

// NormalizeTrack reduces a track to [0,2pi).
func NormalizeTrack(t float64) float64 {
	t = gomath.Mod(t, TwoPi)
	if t < 0 {
		t += TwoPi
	}
	if t >= TwoPi {
		t = 0
	}
	return t
}

// TurnDelta returns the minimum difference between two tracks. (i.e.,
// the result is always in the range [0,pi].)
func TurnDelta(a, b float64) float64 {
	d := Abs(NormalizeTrack(a) - NormalizeTrack(b))
	if d > gomath.Pi {
		d = TwoPi - d
	}
	return d
}

// SignedTurnDelta returns the shortest turn from cur to target: positive
// for a right turn, negative for a left turn.
func SignedTurnDelta(cur, target float64) float64 {
	// Rotate so that the target is aligned with pi; this avoids worrying
	// about the wraparound at 0/2pi.
	rot := NormalizeTrack(gomath.Pi - target)
	return gomath.Pi - NormalizeTrack(cur+rot)
}

// TurnDir returns +1 if the shortest turn from cur to target is to the
// right and -1 if it is to the left. Zero-length turns are reported as
// right turns.
func TurnDir(cur, target float64) int {
	if SignedTurnDelta(cur, target) < 0 {
		return -1
	}
	return 1
}

// TurnDeltaDir returns the track change for a turn from cur to target in
// the given direction, in [0,2pi).
func TurnDeltaDir(cur, target float64, dir int) float64 {
	if dir >= 0 {
		return NormalizeTrack(target - cur)
	}
	return NormalizeTrack(cur - target)
}

// OppositeTrack returns the reciprocal of t.
func OppositeTrack(t float64) float64 {
	return NormalizeTrack(t + gomath.Pi)
}

// ShortCompass converts a track in radians into an abbreviated string
// corresponding to the closest compass direction.
func ShortCompass(trk float64) string {
	h := NormalizeTrack(trk + gomath.Pi/8)
	idx := int(h / (gomath.Pi / 4))
	return [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}[idx%8]
}
