// plan/status.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plan

import (
	"errors"
	"fmt"
	"strings"
)

// ErrType classifies problems found while generating or repairing a plan.
type ErrType int

const (
	TurnInfeasible ErrType = iota
	TurnOverlapsBegin
	TurnOverlapsEnd
	GsAccelDist
	GsAccelOverlap
	GsZero
	VsAccelDist
	RemoveFixed
	Unknown
)

func (e ErrType) String() string {
	return [...]string{"TURN_INFEAS", "TURN_OVERLAPS_B", "TURN_OVERLAPS_E", "GSACCEL_DIST",
		"GSACCEL_OVERLAP", "GS_ZERO", "VSACCEL_DIST", "REMOVE_FIXED", "UNKNOWN"}[e]
}

var (
	ErrTurnInfeasible    = errors.New("Turn is infeasible")
	ErrTurnOverlapsBegin = errors.New("Turn overlaps the previous turn")
	ErrTurnOverlapsEnd   = errors.New("Turn overlaps the next turn")
	ErrGsAccelDist       = errors.New("Insufficient distance for ground speed change")
	ErrGsAccelOverlap    = errors.New("Ground speed change overlaps a turn")
	ErrGsZero            = errors.New("Zero ground speed")
	ErrVsAccelDist       = errors.New("Insufficient time for vertical speed change")
	ErrRemoveFixed       = errors.New("Repair would remove a fixed point")
	ErrUnknown           = errors.New("Trajectory generation error")
)

func (e ErrType) sentinel() error {
	return [...]error{ErrTurnInfeasible, ErrTurnOverlapsBegin, ErrTurnOverlapsEnd, ErrGsAccelDist,
		ErrGsAccelOverlap, ErrGsZero, ErrVsAccelDist, ErrRemoveFixed, ErrUnknown}[e]
}

// Error is a single entry in a plan's status log.
type Error struct {
	Type    ErrType
	Index   int // index of the point involved, or -1
	Msg     string
	Warning bool
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Warning {
		sb.WriteString("warning: ")
	}
	sb.WriteString(e.Type.String())
	if e.Index >= 0 {
		fmt.Fprintf(&sb, " at %d", e.Index)
	}
	if e.Msg != "" {
		sb.WriteString(": " + e.Msg)
	}
	return sb.String()
}

func (e *Error) Is(target error) bool {
	return target == e.Type.sentinel()
}

// Status accumulates the errors and warnings generated while a plan is
// processed. Entries are never removed.
type Status struct {
	Entries []Error
}

func (p *Plan) AddError(ty ErrType, idx int, msg string, args ...any) {
	p.status.Entries = append(p.status.Entries, Error{Type: ty, Index: idx, Msg: fmt.Sprintf(msg, args...)})
}

func (p *Plan) AddWarning(ty ErrType, idx int, msg string, args ...any) {
	p.status.Entries = append(p.status.Entries, Error{Type: ty, Index: idx, Msg: fmt.Sprintf(msg, args...),
		Warning: true})
}

func (p *Plan) HasError() bool {
	for _, e := range p.status.Entries {
		if !e.Warning {
			return true
		}
	}
	return false
}

func (p *Plan) HasWarning() bool {
	for _, e := range p.status.Entries {
		if e.Warning {
			return true
		}
	}
	return false
}

// Errors returns all of the entries in the status log, warnings included.
func (p *Plan) Errors() []Error {
	return p.status.Entries
}

// Warnings returns just the warnings in the status log.
func (p *Plan) Warnings() []Error {
	var w []Error
	for _, e := range p.status.Entries {
		if e.Warning {
			w = append(w, e)
		}
	}
	return w
}

// Err returns nil if the plan has no errors and otherwise an error that
// joins all of them; warnings are not included.
func (p *Plan) Err() error {
	var errs []error
	for i := range p.status.Entries {
		if !p.status.Entries[i].Warning {
			errs = append(errs, &p.status.Entries[i])
		}
	}
	return errors.Join(errs...)
}

// ErrType returns the type of the first error, or Unknown if there are
// none.
func (p *Plan) ErrType() ErrType {
	for _, e := range p.status.Entries {
		if !e.Warning {
			return e.Type
		}
	}
	return Unknown
}

// ErrorString returns a one-line summary of the plan's errors.
func (p *Plan) ErrorString() string {
	var s []string
	for _, e := range p.status.Entries {
		if !e.Warning {
			s = append(s, e.Error())
		}
	}
	return strings.Join(s, "; ")
}

// mergeStatus appends other's entries to p's status.
func (p *Plan) mergeStatus(other *Plan) {
	p.status.Entries = append(p.status.Entries, other.status.Entries...)
}

// MergeStatus appends the status entries of other to p's.
func (p *Plan) MergeStatus(other *Plan) {
	if other != nil && other != p {
		p.mergeStatus(other)
	}
}
