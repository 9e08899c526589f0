// plan/consistency.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"fmt"
	"strings"

	"github.com/mmp/kinplan/log"
	"github.com/mmp/kinplan/math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Verdict is the result of a consistency check: whether it passed and,
// if not, why.
type Verdict struct {
	OK      bool
	Reasons []string
}

func pass() Verdict { return Verdict{OK: true} }

func (v *Verdict) fail(msg string, args ...any) {
	v.OK = false
	v.Reasons = append(v.Reasons, fmt.Sprintf(msg, args...))
}

func (v *Verdict) merge(w Verdict) {
	v.OK = v.OK && w.OK
	v.Reasons = append(v.Reasons, w.Reasons...)
}

func (v Verdict) String() string {
	if v.OK {
		return "consistent"
	}
	return strings.Join(v.Reasons, "; ")
}

// Tolerances used by IsConsistent.
var (
	TurnTimeEps     = 0.02
	TurnDistHEps    = math.NMToMeters(0.005)
	TurnDistVEps    = 1.2
	GsAccelEps      = 1e-5
	GsDistEps       = 0.07
	VsAccelEps      = 1e-5
	VsDistEps       = 1e-5
	VelocityContEps = 2.6
)

// GsConsistent checks that the ground speed zone beginning at i is
// flown at its recorded acceleration: the change in ground speed over
// the zone and the distance covered must both match.
func (p *Plan) GsConsistent(i int, accelEps, distEps float64) Verdict {
	v := pass()
	if i < 0 || i >= len(p.points) || !p.points[i].IsBGS() {
		return v
	}
	j := p.NextEGS(i)
	if j < 0 {
		v.fail("BGS at %d has no EGS", i)
		return v
	}
	bgs, egs := p.points[i], p.points[j]
	dt := egs.Time - bgs.Time
	a := bgs.TCP.GsAccel
	gsIn := bgs.TCP.VelIn.Gs
	gsOut := p.InitialVelocity(j).Gs
	if acalc := (gsOut - gsIn) / dt; !math.Within(a, acalc, accelEps) {
		v.fail("gs zone %d-%d: acceleration %.6f, expected %.6f", i, j, acalc, a)
	}
	ds := gsIn*dt + 0.5*a*dt*dt
	if d := bgs.Pos.DistanceH(egs.Pos); !math.Within(ds, d, distEps) {
		v.fail("gs zone %d-%d: distance %.4f m, expected %.4f m", i, j, d, ds)
	}
	return v
}

// VsConsistent is the vertical analog of GsConsistent, using the signed
// change in altitude over the zone.
func (p *Plan) VsConsistent(i int, accelEps, distEps float64) Verdict {
	v := pass()
	if i < 0 || i >= len(p.points) || !p.points[i].IsBVS() {
		return v
	}
	j := p.NextEVS(i)
	if j < 0 {
		v.fail("BVS at %d has no EVS", i)
		return v
	}
	bvs, evs := p.points[i], p.points[j]
	dt := evs.Time - bvs.Time
	a := bvs.TCP.VsAccel
	vsIn := bvs.TCP.VelIn.Vs
	vsOut := p.InitialVelocity(j).Vs
	if acalc := (vsOut - vsIn) / dt; !math.Within(a, acalc, accelEps) {
		v.fail("vs zone %d-%d: acceleration %.6f, expected %.6f", i, j, acalc, a)
	}
	ds := vsIn*dt + 0.5*a*dt*dt
	if dz := evs.Alt() - bvs.Alt(); !math.Within(ds, dz, distEps) {
		v.fail("vs zone %d-%d: altitude change %.6f m, expected %.6f m", i, j, dz, ds)
	}
	return v
}

// TurnConsistent checks that point i, if it is inside a turn, lies on
// the turn's circle and, if it is a BOT, that flying the arc from it
// arrives at the EOT at the EOT's time.
func (p *Plan) TurnConsistent(i int, timeEps, distHEps, distVEps float64) Verdict {
	v := pass()
	if i < 0 || i >= len(p.points) {
		return v
	}
	np := p.points[i]

	if k := p.turnAt(i); k >= 0 && k != i {
		bot := p.points[k]
		if d := np.Pos.DistanceH(bot.TCP.Center) - math.Abs(bot.TCP.Radius); math.Abs(d) > distHEps {
			v.fail("point %d is %.3f m off the circle of the turn at %d", i, d, k)
		}
	}
	if !np.IsBOT() {
		return v
	}

	j := p.NextEOT(i)
	if j < 0 {
		v.fail("BOT at %d has no EOT", i)
		return v
	}
	eot := p.points[j]
	r := math.Abs(np.TCP.Radius)
	dist := p.PathDistance(i, j)

	fr := FrameAt(np.TCP.Center)
	c := fr.Project2(np.TCP.Center)
	rv := math.RotateCW(r2.Sub(fr.Project2(np.Pos), c), math.Sign(np.TCP.Radius)*dist/r)
	calc := fr.Inverse(math.Vec2To3(r2.Add(c, rv), eot.Alt()))
	if !eot.Pos.AlmostEquals(calc, distHEps, distVEps) {
		v.fail("turn %d-%d: EOT %s, expected %s", i, j, eot.Pos, calc)
	}

	if gs := np.TCP.VelIn.Gs; gs > 0 {
		if dt := eot.Time - np.Time; !math.Within(dt, dist/gs, timeEps) {
			v.fail("turn %d-%d: duration %.4f s, expected %.4f s", i, j, dt, dist/gs)
		}
	}
	return v
}

// VelocityContinuous checks that the velocity into point i matches the
// velocity out of it. Ground speed, vertical speed and track are each
// compared against velEps.
func (p *Plan) VelocityContinuous(i int, velEps float64) Verdict {
	v := pass()
	if i <= 0 || i >= len(p.points)-1 {
		return v
	}
	in, out := p.FinalVelocity(i-1), p.InitialVelocity(i)
	if d := out.Gs - in.Gs; math.Abs(d) > velEps {
		v.fail("point %d: ground speed jumps by %.3f m/s", i, d)
	}
	if d := out.Vs - in.Vs; math.Abs(d) > velEps {
		v.fail("point %d: vertical speed jumps by %.3f m/s", i, d)
	}
	if d := math.TurnDelta(in.Trk, out.Trk); d > velEps {
		v.fail("point %d: track jumps by %.2f deg", i, math.Degrees(d))
	}
	return v
}

func (p *Plan) IsGsConsistent(accelEps, distEps float64) Verdict {
	v := pass()
	for i, np := range p.points {
		if np.IsBGS() {
			v.merge(p.GsConsistent(i, accelEps, distEps))
		}
	}
	return v
}

func (p *Plan) IsVsConsistent(accelEps, distEps float64) Verdict {
	v := pass()
	for i, np := range p.points {
		if np.IsBVS() {
			v.merge(p.VsConsistent(i, accelEps, distEps))
		}
	}
	return v
}

func (p *Plan) IsTurnConsistent(timeEps, distHEps, distVEps float64) Verdict {
	v := pass()
	for i := range p.points {
		v.merge(p.TurnConsistent(i, timeEps, distHEps, distVEps))
	}
	return v
}

// IsVelocityContinuous checks continuity at every TCP.
func (p *Plan) IsVelocityContinuous(velEps float64) Verdict {
	v := pass()
	for i, np := range p.points {
		if i > 0 && np.IsTCP() {
			v.merge(p.VelocityContinuous(i, velEps))
		}
	}
	return v
}

// IsConsistent runs all of the checks with the default tolerances. Any
// failures are logged at debug level to lg, which may be nil.
func (p *Plan) IsConsistent(lg *log.Logger) Verdict {
	v := pass()
	if s := p.StrWellFormed(); s != "" {
		v.fail("not well-formed: %s", s)
		lg.Debugf("%s: %s", p.Name, v)
		return v
	}
	v.merge(p.IsGsConsistent(GsAccelEps, GsDistEps))
	v.merge(p.IsVsConsistent(VsAccelEps, VsDistEps))
	v.merge(p.IsTurnConsistent(TurnTimeEps, TurnDistHEps, TurnDistVEps))
	v.merge(p.IsVelocityContinuous(VelocityContEps))
	if !v.OK {
		for _, r := range v.Reasons {
			lg.Debug("plan inconsistent", "plan", p.Name, "reason", r)
		}
	}
	return v
}
