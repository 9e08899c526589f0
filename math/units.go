// math/units.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MetersPerNM   = 1852.0
	MetersPerFoot = 0.3048

	NauticalMilesToFeet = MetersPerNM / MetersPerFoot
	FeetToNauticalMiles = 1 / NauticalMilesToFeet

	// Gravity is standard gravitational acceleration in m/s^2.
	Gravity = 9.80665
)

func NMToMeters(nm float64) float64 { return nm * MetersPerNM }
func MetersToNM(m float64) float64 { return m / MetersPerNM }
func FeetToMeters(ft float64) float64 { return ft * MetersPerFoot }
func MetersToFeet(m float64) float64 { return m / MetersPerFoot }
func KnotsToMS(kts float64) float64 { return kts * MetersPerNM / 3600 }
func MSToKnots(ms float64) float64 { return ms * 3600 / MetersPerNM }
func FPMToMS(fpm float64) float64 { return fpm * MetersPerFoot / 60 }
func MSToFPM(ms float64) float64 { return ms * 60 / MetersPerFoot }

var unitFactors = map[string]float64{
	"":       1,
	"m":      1,
	"ft":     MetersPerFoot,
	"nm":     MetersPerNM,
	"NM":     MetersPerNM,
	"km":     1000,
	"s":      1,
	"min":    60,
	"hr":     3600,
	"rad":    1,
	"deg":    Radians(1),
	"m/s":    1,
	"kn":     MetersPerNM / 3600,
	"kts":    MetersPerNM / 3600,
	"knot":   MetersPerNM / 3600,
	"fpm":    MetersPerFoot / 60,
	"ft/min": MetersPerFoot / 60,
	"m/s^2":  1,
	"G":      Gravity,
	"deg/s":  Radians(1),
}

// UnitFactor returns the factor that converts a value in the named unit to
// its internal SI representation.
func UnitFactor(unit string) (float64, bool) {
	f, ok := unitFactors[strings.TrimSpace(unit)]
	return f, ok
}

// FromUnit converts v in the named unit to internal units.
func FromUnit(unit string, v float64) (float64, error) {
	f, ok := UnitFactor(unit)
	if !ok {
		return 0, fmt.Errorf("%s: unknown unit", unit)
	}
	return v * f, nil
}

// ToUnit converts v in internal units to the named unit.
func ToUnit(unit string, v float64) (float64, error) {
	f, ok := UnitFactor(unit)
	if !ok {
		return 0, fmt.Errorf("%s: unknown unit", unit)
	}
	return v / f, nil
}

// ParseValue parses a number optionally followed by a unit, as in "25
// deg" or "2.5 [kn]". If no unit is given, defaultUnit is used.
func ParseValue(s string, defaultUnit string) (float64, error) {
	s = strings.TrimSpace(s)
	num, unit := s, defaultUnit
	if idx := strings.IndexAny(s, " \t["); idx != -1 {
		num = s[:idx]
		unit = strings.Trim(strings.TrimSpace(s[idx:]), "[]")
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return FromUnit(unit, v)
}
