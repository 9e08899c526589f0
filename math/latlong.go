// math/latlong.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	gomath "math"
	"regexp"
	"strconv"
)

// EarthRadius is the radius of the spherical earth model, chosen so that
// one minute of arc is exactly one nautical mile.
const EarthRadius = MetersPerNM * 60 * 180 / gomath.Pi

const NMPerLatitude = 60

///////////////////////////////////////////////////////////////////////////
// LatLonAlt

// LatLonAlt is a geodetic position. Latitude and longitude are in
// radians and altitude is in meters.
type LatLonAlt struct {
	Lat, Lon, Alt float64
}

// LLA makes a LatLonAlt from degrees and feet, the units used in plan
// files and on the command line.
func LLA(latDeg, lonDeg, altFt float64) LatLonAlt {
	return LatLonAlt{Lat: Radians(latDeg), Lon: Radians(lonDeg), Alt: FeetToMeters(altFt)}
}

func (p LatLonAlt) LatDeg() float64 { return Degrees(p.Lat) }
func (p LatLonAlt) LonDeg() float64 { return Degrees(p.Lon) }

func (p LatLonAlt) WithAlt(alt float64) LatLonAlt {
	p.Alt = alt
	return p
}

func (p LatLonAlt) IsInvalid() bool {
	return !IsFinite(p.Lat) || !IsFinite(p.Lon) || !IsFinite(p.Alt)
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p LatLonAlt) DDString() string {
	return fmt.Sprintf("(%f, %f)", p.LatDeg(), p.LonDeg())
}

// DMSString returns the position in degrees minutes, seconds, e.g.
// N039.51.39.243,W075.16.29.511
func (p LatLonAlt) DMSString() string {
	format := func(v float64) string {
		s := fmt.Sprintf("%03d", int(v))
		v -= gomath.Floor(v)
		v *= 60
		s += fmt.Sprintf(".%02d", int(v))
		v -= gomath.Floor(v)
		v *= 60
		s += fmt.Sprintf(".%02d", int(v))
		v -= gomath.Floor(v)
		v *= 1000
		s += fmt.Sprintf(".%03d", int(v))
		return s
	}

	var s string
	if p.Lat > 0 {
		s = "N"
	} else {
		s = "S"
	}
	s += format(Abs(p.LatDeg()))

	if p.Lon > 0 {
		s += ",E"
	} else {
		s += ",W"
	}
	s += format(Abs(p.LonDeg()))

	return s
}

// angularDistance returns the central angle between a and b using the
// haversine formula.
func angularDistance(a, b LatLonAlt) float64 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	dlat, dlon := b.Lat-a.Lat, b.Lon-a.Lon
	x := Sqr(gomath.Sin(dlat/2)) + gomath.Cos(a.Lat)*gomath.Cos(b.Lat)*Sqr(gomath.Sin(dlon/2))
	return 2 * gomath.Atan2(gomath.Sqrt(x), gomath.Sqrt(1-x))
}

// GCDistance returns the great-circle distance in meters between two
// positions, ignoring altitude.
func GCDistance(a, b LatLonAlt) float64 {
	return EarthRadius * angularDistance(a, b)
}

// InitialCourse returns the track at a of the great circle from a to b.
func InitialCourse(a, b LatLonAlt) float64 {
	if a.Lat == b.Lat && a.Lon == b.Lon {
		return 0
	}
	dlon := b.Lon - a.Lon
	y := gomath.Sin(dlon) * gomath.Cos(b.Lat)
	x := gomath.Cos(a.Lat)*gomath.Sin(b.Lat) - gomath.Sin(a.Lat)*gomath.Cos(b.Lat)*gomath.Cos(dlon)
	return NormalizeTrack(gomath.Atan2(y, x))
}

// FinalCourse returns the track at b of the great circle from a to b.
func FinalCourse(a, b LatLonAlt) float64 {
	return OppositeTrack(InitialCourse(b, a))
}

// GCDestination returns the position reached from p after traveling d
// meters along the great circle with initial track trk. Altitude is
// unchanged.
func GCDestination(p LatLonAlt, trk, d float64) LatLonAlt {
	delta := d / EarthRadius
	sinLat := gomath.Sin(p.Lat)*gomath.Cos(delta) + gomath.Cos(p.Lat)*gomath.Sin(delta)*gomath.Cos(trk)
	lat := gomath.Asin(Clamp(sinLat, -1, 1))
	lon := p.Lon + gomath.Atan2(gomath.Sin(trk)*gomath.Sin(delta)*gomath.Cos(p.Lat),
		gomath.Cos(delta)-gomath.Sin(p.Lat)*sinLat)
	lon = gomath.Remainder(lon, TwoPi)
	return LatLonAlt{Lat: lat, Lon: lon, Alt: p.Alt}
}

// GCInterpolate returns the point the fraction f of the way from a to b
// along the great circle; altitude is interpolated linearly.
func GCInterpolate(a, b LatLonAlt, f float64) LatLonAlt {
	d := GCDistance(a, b)
	if d == 0 {
		return a.WithAlt(Lerp(f, a.Alt, b.Alt))
	}
	p := GCDestination(a, InitialCourse(a, b), f*d)
	return p.WithAlt(Lerp(f, a.Alt, b.Alt))
}

var (
	// pair of floats (no exponents)
	reLatLongFloat = regexp.MustCompile(`^(\-?[0-9]+\.[0-9]+), *(\-?[0-9]+\.[0-9]+)`)
	// https://en.wikipedia.org/wiki/ISO_6709#String_expression_(Annex_H)
	// e.g. +403527.580-0734452.955
	reISO6709H = regexp.MustCompile(`^([-+][0-9][0-9])([0-9][0-9])([0-9][0-9])\.([0-9][0-9][0-9])([-+][0-9][0-9][0-9])([0-9][0-9])([0-9][0-9])\.([0-9][0-9][0-9])`)
	// e.g. N40.37.58.400,W073.46.17.000
	reLatLongDotted = regexp.MustCompile(`^([NS])([0-9]+)\.([0-9]+)\.([0-9]+)\.([0-9]+), *([EW])([0-9]+)\.([0-9]+)\.([0-9]+)\.([0-9]+)`)
)

// ParseLatLong parses a latitude-longitude pair in one of the forms
// "40.632, -73.771", "N40.37.58.400,W073.46.17.000" or ISO 6709 annex H
// "+403527.580-0734452.955". Altitude is zero.
func ParseLatLong(llstr []byte) (LatLonAlt, error) {
	dms := func(deg, min, sec, frac string) (float64, error) {
		d, err := strconv.Atoi(deg)
		if err != nil {
			return 0, err
		}
		m, err := strconv.Atoi(min)
		if err != nil {
			return 0, err
		}
		s, err := strconv.Atoi(sec)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return 0, err
		}
		sgn := 1.0
		if deg[0] == '-' {
			sgn, d = -1, -d
		}
		return sgn * (float64(d) + float64(m)/60 + (float64(s)+f)/3600), nil
	}

	if strs := reLatLongFloat.FindStringSubmatch(string(llstr)); len(strs) == 3 {
		lat, err := strconv.ParseFloat(strs[1], 64)
		if err != nil {
			return LatLonAlt{}, err
		}
		lon, err := strconv.ParseFloat(strs[2], 64)
		if err != nil {
			return LatLonAlt{}, err
		}
		return LLA(lat, lon, 0), nil
	} else if strs := reLatLongDotted.FindStringSubmatch(string(llstr)); len(strs) == 11 {
		lat, err := dms(strs[2], strs[3], strs[4], strs[5])
		if err != nil {
			return LatLonAlt{}, err
		}
		lon, err := dms(strs[7], strs[8], strs[9], strs[10])
		if err != nil {
			return LatLonAlt{}, err
		}
		if strs[1] == "S" {
			lat = -lat
		}
		if strs[6] == "W" {
			lon = -lon
		}
		return LLA(lat, lon, 0), nil
	} else if strs := reISO6709H.FindStringSubmatch(string(llstr)); len(strs) == 9 {
		lat, err := dms(strs[1], strs[2], strs[3], strs[4])
		if err != nil {
			return LatLonAlt{}, err
		}
		lon, err := dms(strs[5], strs[6], strs[7], strs[8])
		if err != nil {
			return LatLonAlt{}, err
		}
		return LLA(lat, lon, 0), nil
	}
	return LatLonAlt{}, fmt.Errorf("%s: invalid latlong string", llstr)
}
