// math/projection.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Projection maps geodetic positions near a reference point to a local
// Euclidean frame (x east, y north, z altitude) and back. It is an
// azimuthal equidistant projection on the spherical earth, so distances
// and tracks from the reference point are exact and errors elsewhere
// grow slowly with distance from it.
type Projection struct {
	Ref LatLonAlt
}

func NewProjection(ref LatLonAlt) Projection {
	return Projection{Ref: LatLonAlt{Lat: ref.Lat, Lon: ref.Lon}}
}

// Project returns the local coordinates of p; altitude is preserved as z.
func (pr Projection) Project(p LatLonAlt) Vec3 {
	d := GCDistance(pr.Ref, p)
	if d == 0 {
		return Vec3{Z: p.Alt}
	}
	v := TrackVec(InitialCourse(pr.Ref, p), d)
	return Vec3{X: v.X, Y: v.Y, Z: p.Alt}
}

func (pr Projection) Project2(p LatLonAlt) Vec2 {
	return Vec3To2(pr.Project(p))
}

// Inverse maps local coordinates back to a geodetic position.
func (pr Projection) Inverse(v Vec3) LatLonAlt {
	d := gomath.Hypot(v.X, v.Y)
	if d == 0 {
		return pr.Ref.WithAlt(v.Z)
	}
	return GCDestination(pr.Ref, Track(Vec3To2(v)), d).WithAlt(v.Z)
}

// ProjectTrack converts a geodetic track at p into a track in the local
// frame.
func (pr Projection) ProjectTrack(p LatLonAlt, trk float64) float64 {
	const step = 10 // meters
	a := pr.Project2(p)
	b := pr.Project2(GCDestination(p, trk, step))
	return Track(Vec2{X: b.X - a.X, Y: b.Y - a.Y})
}

// InverseTrack converts a track in the local frame at v into a geodetic
// track.
func (pr Projection) InverseTrack(v Vec2, trk float64) float64 {
	const step = 10 // meters
	a := pr.Inverse(Vec2To3(v, 0))
	d := TrackVec(trk, step)
	b := pr.Inverse(Vec3{X: v.X + d.X, Y: v.Y + d.Y})
	return InitialCourse(a, b)
}

// Projections are requested repeatedly for the same reference point
// (e.g., every evaluation of a position inside a turn uses the turn's
// start point), so we keep the recent ones around.
var projectionCache *lru.Cache[[2]float64, Projection]

func init() {
	var err error
	if projectionCache, err = lru.New[[2]float64, Projection](256); err != nil {
		panic(err)
	}
}

// ProjectionFor returns the projection with reference point ref.
func ProjectionFor(ref LatLonAlt) Projection {
	key := [2]float64{ref.Lat, ref.Lon}
	if pr, ok := projectionCache.Get(key); ok {
		return pr
	}
	pr := NewProjection(ref)
	projectionCache.Add(key, pr)
	return pr
}
