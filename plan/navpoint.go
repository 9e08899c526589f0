// plan/navpoint.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"fmt"
	"strings"
)

// Kind records where a point came from.
type Kind int

const (
	Original    Kind = iota // part of the plan as given (or its linear source)
	Added                   // inserted by a pass, no meaningful source
	Virtual                 // inserted for display/interpolation only; ignored by reversion
	AltPreserve             // altitude is fixed; vertical speed may change here
)

func (k Kind) String() string {
	return [...]string{"Original", "Added", "Virtual", "AltPreserve"}[k]
}

// TrkRole is a point's role on the horizontal axis: the boundaries of
// turns and of ground speed acceleration zones. A point has at most one
// of them.
type TrkRole int

const (
	TrkNone TrkRole = iota
	BOT             // beginning of turn
	MOT             // middle of turn
	EOT             // end of turn
	BGS             // beginning of ground speed change
	EGS             // end of ground speed change
)

func (r TrkRole) String() string {
	return [...]string{"", "BOT", "MOT", "EOT", "BGS", "EGS"}[r]
}

// VsRole is a point's role on the vertical axis, which is independent of
// the horizontal one.
type VsRole int

const (
	VsNone VsRole = iota
	BVS           // beginning of vertical speed change
	EVS           // end of vertical speed change
)

func (r VsRole) String() string {
	return [...]string{"", "BVS", "EVS"}[r]
}

func ParseKind(s string) (Kind, error) {
	for k := Original; k <= AltPreserve; k++ {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	if s == "" {
		return Original, nil
	}
	return Original, fmt.Errorf("%s: unknown point kind", s)
}

func ParseTrkRole(s string) (TrkRole, error) {
	for r := TrkNone; r <= EGS; r++ {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return TrkNone, fmt.Errorf("%s: unknown horizontal TCP type", s)
}

func ParseVsRole(s string) (VsRole, error) {
	for r := VsNone; r <= EVS; r++ {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return VsNone, fmt.Errorf("%s: unknown vertical TCP type", s)
}

// TcpData holds a NavPoint's role and the acceleration metadata that goes
// with it.
type TcpData struct {
	Kind Kind
	Trk  TrkRole
	Vs   VsRole

	// VelIn is the velocity at the point; it is meaningful for begin
	// TCPs (BOT, BGS, BVS) and MOT.
	VelIn Velocity
	// Radius is signed: positive for right turns. Center is the turn
	// center. Both are set for BOT.
	Radius float64
	Center Position
	// GsAccel is set for BGS and VsAccel for BVS; both are signed.
	GsAccel float64
	VsAccel float64

	// Source and SourceTime give the linear plan point this one was
	// derived from; SourceTime is negative if there is none.
	Source     Position
	SourceTime float64

	// Fixed marks a required time of arrival.
	Fixed bool
	// LinearIndex is the index of the point in the linear plan it was
	// generated from, or -1.
	LinearIndex int
	Info        string
}

// NavPoint is a point in a plan. NavPoints are values; the With* and
// Make* methods return modified copies.
type NavPoint struct {
	Pos   Position
	Time  float64
	Label string
	TCP   TcpData
}

// MakeNavPoint returns an original point whose source is itself.
func MakeNavPoint(p Position, t float64) NavPoint {
	return NavPoint{
		Pos:  p,
		Time: t,
		TCP: TcpData{
			VelIn:       InvalidVelocity,
			Source:      p,
			SourceTime:  t,
			LinearIndex: -1,
		},
	}
}

func (np NavPoint) Alt() float64 { return np.Pos.Alt() }

func (np NavPoint) IsBOT() bool { return np.TCP.Trk == BOT }
func (np NavPoint) IsMOT() bool { return np.TCP.Trk == MOT }
func (np NavPoint) IsEOT() bool { return np.TCP.Trk == EOT }
func (np NavPoint) IsBGS() bool { return np.TCP.Trk == BGS }
func (np NavPoint) IsEGS() bool { return np.TCP.Trk == EGS }
func (np NavPoint) IsBVS() bool { return np.TCP.Vs == BVS }
func (np NavPoint) IsEVS() bool { return np.TCP.Vs == EVS }

func (np NavPoint) IsTrkTCP() bool { return np.IsBOT() || np.IsEOT() }
func (np NavPoint) IsGsTCP() bool  { return np.IsBGS() || np.IsEGS() }
func (np NavPoint) IsVsTCP() bool  { return np.TCP.Vs != VsNone }

// IsTCP reports whether the point bounds an acceleration zone. MOT is
// not a boundary but it is still generated geometry, so it counts.
func (np NavPoint) IsTCP() bool {
	return np.TCP.Trk != TrkNone || np.TCP.Vs != VsNone
}

func (np NavPoint) IsBeginTCP() bool { return np.IsBOT() || np.IsBGS() || np.IsBVS() }
func (np NavPoint) IsEndTCP() bool   { return np.IsEOT() || np.IsEGS() || np.IsEVS() }

func (np NavPoint) IsVirtual() bool     { return np.TCP.Kind == Virtual }
func (np NavPoint) IsAltPreserve() bool { return np.TCP.Kind == AltPreserve }
func (np NavPoint) HasSource() bool     { return np.TCP.SourceTime >= 0 }

// TurnRate returns the signed turn rate of a BOT, positive clockwise.
func (np NavPoint) TurnRate() float64 {
	if np.TCP.Radius == 0 {
		return 0
	}
	return np.TCP.VelIn.Gs / np.TCP.Radius
}

func (np NavPoint) WithTime(t float64) NavPoint {
	np.Time = t
	return np
}

func (np NavPoint) WithPos(p Position) NavPoint {
	np.Pos = p
	return np
}

func (np NavPoint) WithAlt(alt float64) NavPoint {
	np.Pos = np.Pos.WithAlt(alt)
	return np
}

func (np NavPoint) WithLabel(l string) NavPoint {
	np.Label = l
	return np
}

func (np NavPoint) WithVelIn(v Velocity) NavPoint {
	np.TCP.VelIn = v
	return np
}

func (np NavPoint) WithKind(k Kind) NavPoint {
	np.TCP.Kind = k
	return np
}

func (np NavPoint) WithFixed(f bool) NavPoint {
	np.TCP.Fixed = f
	return np
}

func (np NavPoint) WithSource(p Position, t float64) NavPoint {
	np.TCP.Source = p
	np.TCP.SourceTime = t
	return np
}

func (np NavPoint) WithLinearIndex(i int) NavPoint {
	np.TCP.LinearIndex = i
	return np
}

func (np NavPoint) MakeOriginal() NavPoint    { return np.WithKind(Original) }
func (np NavPoint) MakeAltPreserve() NavPoint { return np.WithKind(AltPreserve) }
func (np NavPoint) MakeVirtual() NavPoint     { return np.WithKind(Virtual) }

// MakeAdded returns the point marked as added, without source
// information.
func (np NavPoint) MakeAdded() NavPoint {
	np.TCP.Kind = Added
	np.TCP.Source = InvalidPosition
	np.TCP.SourceTime = -1
	return np
}

// MakeStandardRetainSource strips all zone roles and acceleration data,
// keeping the source and linear index.
func (np NavPoint) MakeStandardRetainSource() NavPoint {
	return NavPoint{
		Pos:  np.Pos,
		Time: np.Time,
		TCP: TcpData{
			VelIn:       InvalidVelocity,
			Source:      np.TCP.Source,
			SourceTime:  np.TCP.SourceTime,
			LinearIndex: np.TCP.LinearIndex,
			Fixed:       np.TCP.Fixed,
		},
	}
}

// MakeNewPoint returns a fresh original point at np's position and time
// whose source is itself.
func (np NavPoint) MakeNewPoint() NavPoint {
	n := MakeNavPoint(np.Pos, np.Time).WithLabel(np.Label)
	n.TCP.LinearIndex = np.TCP.LinearIndex
	n.TCP.Fixed = np.TCP.Fixed
	return n
}

// MakeMovedFrom returns np carrying all of orig's attributes other than
// position and time.
func (np NavPoint) MakeMovedFrom(orig NavPoint) NavPoint {
	orig.Pos = np.Pos
	orig.Time = np.Time
	return orig
}

// The following return points derived from np, which supplies the
// source information, kind and the roles on the other axis.

func (np NavPoint) MakeBOT(p Position, t float64, vin Velocity, radius float64, center Position) NavPoint {
	n := np.WithPos(p).WithTime(t)
	n.TCP.Trk = BOT
	n.TCP.VelIn = vin
	n.TCP.Radius = radius
	n.TCP.Center = center
	n.TCP.GsAccel = 0
	return n
}

func (np NavPoint) MakeMOT(p Position, t float64, vin Velocity) NavPoint {
	n := np.WithPos(p).WithTime(t)
	n.TCP.Trk = MOT
	n.TCP.VelIn = vin
	n.TCP.Radius = 0
	n.TCP.GsAccel = 0
	return n
}

func (np NavPoint) MakeEOT(p Position, t float64, vin Velocity) NavPoint {
	n := np.WithPos(p).WithTime(t)
	n.TCP.Trk = EOT
	n.TCP.VelIn = vin
	n.TCP.Radius = 0
	n.TCP.GsAccel = 0
	return n
}

func (np NavPoint) MakeBGS(p Position, t float64, a float64, vin Velocity) NavPoint {
	n := np.WithPos(p).WithTime(t)
	n.TCP.Trk = BGS
	n.TCP.GsAccel = a
	n.TCP.VelIn = vin
	n.TCP.Radius = 0
	return n
}

func (np NavPoint) MakeEGS(p Position, t float64, vin Velocity) NavPoint {
	n := np.WithPos(p).WithTime(t)
	n.TCP.Trk = EGS
	n.TCP.VelIn = vin
	n.TCP.GsAccel = 0
	n.TCP.Radius = 0
	return n
}

func (np NavPoint) MakeBVS(p Position, t float64, a float64, vin Velocity) NavPoint {
	n := np.WithPos(p).WithTime(t)
	n.TCP.Vs = BVS
	n.TCP.VsAccel = a
	n.TCP.VelIn = vin
	return n
}

func (np NavPoint) MakeEVS(p Position, t float64, vin Velocity) NavPoint {
	n := np.WithPos(p).WithTime(t)
	n.TCP.Vs = EVS
	n.TCP.VsAccel = 0
	if !n.IsBeginTCP() && !n.IsMOT() {
		n.TCP.VelIn = vin
	}
	return n
}

// ClearTrk returns np without its horizontal role.
func (np NavPoint) ClearTrk() NavPoint {
	np.TCP.Trk = TrkNone
	np.TCP.Radius = 0
	np.TCP.Center = Position{}
	np.TCP.GsAccel = 0
	if !np.IsBVS() {
		np.TCP.VelIn = InvalidVelocity
	}
	return np
}

// ClearVs returns np without its vertical role.
func (np NavPoint) ClearVs() NavPoint {
	np.TCP.Vs = VsNone
	np.TCP.VsAccel = 0
	if np.TCP.Trk == TrkNone {
		np.TCP.VelIn = InvalidVelocity
	}
	return np
}

// mergeRoles combines two points at the same time: the result is np
// with the zone roles (and their data) that other has on axes where np
// has none. ok is false if both have a role on the same axis.
func (np NavPoint) mergeRoles(other NavPoint) (NavPoint, bool) {
	if np.TCP.Trk != TrkNone && other.TCP.Trk != TrkNone && np.TCP.Trk != other.TCP.Trk {
		return np, false
	}
	if np.TCP.Vs != VsNone && other.TCP.Vs != VsNone && np.TCP.Vs != other.TCP.Vs {
		return np, false
	}
	if np.TCP.Trk == TrkNone && other.TCP.Trk != TrkNone {
		np.TCP.Trk = other.TCP.Trk
		np.TCP.Radius = other.TCP.Radius
		np.TCP.Center = other.TCP.Center
		np.TCP.GsAccel = other.TCP.GsAccel
		np.TCP.VelIn = other.TCP.VelIn
	}
	if np.TCP.Vs == VsNone && other.TCP.Vs != VsNone {
		np.TCP.Vs = other.TCP.Vs
		np.TCP.VsAccel = other.TCP.VsAccel
		if np.TCP.VelIn.IsInvalid() {
			np.TCP.VelIn = other.TCP.VelIn
		}
	}
	if np.TCP.Kind == Original && other.TCP.Kind == AltPreserve {
		np.TCP.Kind = AltPreserve
	}
	if !np.IsBeginTCP() && other.IsBeginTCP() {
		np.TCP.Source, np.TCP.SourceTime = other.TCP.Source, other.TCP.SourceTime
	}
	np.TCP.Fixed = np.TCP.Fixed || other.TCP.Fixed
	if np.Label == "" {
		np.Label = other.Label
	}
	return np, true
}

// TypeString returns a short description of the point's roles.
func (np NavPoint) TypeString() string {
	var s []string
	if np.TCP.Trk != TrkNone {
		s = append(s, np.TCP.Trk.String())
	}
	if np.TCP.Vs != VsNone {
		s = append(s, np.TCP.Vs.String())
	}
	if len(s) == 0 {
		return np.TCP.Kind.String()
	}
	return strings.Join(s, "+")
}

func (np NavPoint) String() string {
	s := fmt.Sprintf("%s t=%.3f %s", np.Pos, np.Time, np.TypeString())
	if np.Label != "" {
		s = np.Label + " " + s
	}
	return s
}
