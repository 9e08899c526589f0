// plan/wellformed.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import "fmt"

// IsWellFormed reports whether the plan's points are in strictly
// increasing time order and all of its acceleration zones are properly
// opened and closed.
func (p *Plan) IsWellFormed() bool {
	return p.IndexWellFormed() < 0
}

// IndexWellFormed returns the index of the first point that makes the
// plan malformed, or -1.
func (p *Plan) IndexWellFormed() int {
	i, _ := p.checkWellFormed()
	return i
}

// StrWellFormed returns a description of the first problem found, or the
// empty string if the plan is well-formed.
func (p *Plan) StrWellFormed() string {
	_, s := p.checkWellFormed()
	return s
}

func (p *Plan) checkWellFormed() (int, string) {
	inTurn, inGs, inVs := false, false, false
	for i, np := range p.points {
		if np.Pos.IsInvalid() {
			return i, fmt.Sprintf("point %d: invalid position", i)
		}
		if np.Pos.Geo != p.points[0].Pos.Geo {
			return i, fmt.Sprintf("point %d: mixed geodetic and Euclidean positions", i)
		}
		if i > 0 && np.Time <= p.points[i-1].Time {
			return i, fmt.Sprintf("point %d: time %.6f does not follow %.6f", i, np.Time, p.points[i-1].Time)
		}

		switch np.TCP.Trk {
		case BOT:
			if inTurn {
				return i, fmt.Sprintf("point %d: BOT inside a turn", i)
			}
			if inGs {
				return i, fmt.Sprintf("point %d: BOT inside a ground speed change", i)
			}
			if np.TCP.Radius == 0 || np.TCP.VelIn.IsInvalid() {
				return i, fmt.Sprintf("point %d: BOT without radius or velocity", i)
			}
			inTurn = true
		case MOT:
			if !inTurn {
				return i, fmt.Sprintf("point %d: MOT outside of a turn", i)
			}
		case EOT:
			if !inTurn {
				return i, fmt.Sprintf("point %d: EOT without a BOT", i)
			}
			inTurn = false
		case BGS:
			if inGs {
				return i, fmt.Sprintf("point %d: BGS inside a ground speed change", i)
			}
			if inTurn {
				return i, fmt.Sprintf("point %d: BGS inside a turn", i)
			}
			if np.TCP.VelIn.IsInvalid() {
				return i, fmt.Sprintf("point %d: BGS without velocity", i)
			}
			inGs = true
		case EGS:
			if !inGs {
				return i, fmt.Sprintf("point %d: EGS without a BGS", i)
			}
			inGs = false
		}

		switch np.TCP.Vs {
		case BVS:
			if inVs {
				return i, fmt.Sprintf("point %d: BVS inside a vertical speed change", i)
			}
			if np.TCP.VelIn.IsInvalid() {
				return i, fmt.Sprintf("point %d: BVS without velocity", i)
			}
			inVs = true
		case EVS:
			if !inVs {
				return i, fmt.Sprintf("point %d: EVS without a BVS", i)
			}
			inVs = false
		}
	}

	last := len(p.points) - 1
	switch {
	case inTurn:
		return last, "plan ends inside a turn"
	case inGs:
		return last, "plan ends inside a ground speed change"
	case inVs:
		return last, "plan ends inside a vertical speed change"
	}
	return -1, ""
}
