// trajgen/config.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mmp/kinplan/log"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/util"
)

// GsMode selects how ground speed changes are fitted into a plan.
type GsMode int

const (
	// PreserveGs keeps the linear plan's leg ground speeds; the times of
	// the points downstream of a change shift to absorb it.
	PreserveGs GsMode = iota
	// PreserveTimes keeps the times of the linear plan's points; the
	// speed reached after a change is whatever gets to the next point on
	// time.
	PreserveTimes
	// PreserveRTAs acts like PreserveGs except at fixed points, which
	// keep their times.
	PreserveRTAs
	// ConstantGs flies the whole plan at a single ground speed.
	ConstantGs
)

var gsModeNames = [...]string{"PRESERVE_GS", "PRESERVE_TIMES", "PRESERVE_RTAS", "CONSTANT_GS"}

func (m GsMode) String() string {
	if m < 0 || int(m) >= len(gsModeNames) {
		return fmt.Sprintf("GsMode(%d)", int(m))
	}
	return gsModeNames[m]
}

func ParseGsMode(s string) (GsMode, error) {
	for i, n := range gsModeNames {
		if strings.EqualFold(s, n) {
			return GsMode(i), nil
		}
	}
	return PreserveGs, fmt.Errorf("%s: unknown ground speed mode", s)
}

func (m GsMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *GsMode) UnmarshalText(b []byte) error {
	var err error
	*m, err = ParseGsMode(string(b))
	return err
}

// Config holds the parameters of kinematic plan generation. All values
// are in SI units.
type Config struct {
	BankAngle float64 // radians
	GsAccel   float64 // m/s^2, magnitude
	VsAccel   float64 // m/s^2, magnitude

	// MinTimeStep is the shortest acceleration zone that is generated
	// and the gap left between a TCP and a following ground speed change.
	MinTimeStep float64
	// Vertical speed changes that take less than MinAccelTime are
	// ignored.
	MinAccelTime float64
	// Points where the vertical speed changes by at least MinVsChange,
	// or that start a leg of at least MinVsTime, keep their altitude.
	MinVsChange float64
	MinVsTime   float64
	// MinTurnBuffer is the margin required between a turn and the
	// neighboring track changes.
	MinTurnBuffer float64

	GsMode GsMode
	// ConstantGs is the ground speed used in ConstantGs mode; zero means
	// to use the plan's average ground speed.
	ConstantGs float64

	RepairTurn bool
	RepairGs   bool
	RepairVs   bool
	// FlyOver starts turns at their vertices rather than cutting the
	// corner.
	FlyOver bool
	// AddMiddle replaces the vertices of a too-short leg between two
	// turns with a point at its middle rather than dropping them.
	AddMiddle bool

	Logger *log.Logger `json:"-"`
}

func DefaultConfig() Config {
	return Config{
		BankAngle:     math.Radians(25),
		GsAccel:       2,
		VsAccel:       1,
		MinTimeStep:   1,
		MinAccelTime:  0.001,
		MinVsChange:   math.FPMToMS(50),
		MinVsTime:     30,
		MinTurnBuffer: 1,
		GsMode:        PreserveGs,
		RepairTurn:    true,
		RepairGs:      true,
		RepairVs:      true,
		AddMiddle:     true,
	}
}

// Validate reports problems with the configuration to e.
func (c Config) Validate(e *util.ErrorLogger) {
	if c.BankAngle <= 0 || c.BankAngle >= math.Radians(90) {
		e.ErrorString("bank angle %.1f deg must be between 0 and 90 deg", math.Degrees(c.BankAngle))
	}
	if c.GsAccel <= 0 {
		e.ErrorString("ground speed acceleration must be positive")
	}
	if c.VsAccel <= 0 {
		e.ErrorString("vertical speed acceleration must be positive")
	}
	if c.MinTimeStep <= 0 {
		e.ErrorString("minimum time step must be positive")
	}
	if c.MinAccelTime < 0 || c.MinTurnBuffer < 0 || c.MinVsChange < 0 || c.MinVsTime < 0 {
		e.ErrorString("minimum thresholds may not be negative")
	}
	if c.ConstantGs < 0 {
		e.ErrorString("constant ground speed may not be negative")
	}
	if c.GsMode < PreserveGs || c.GsMode > ConstantGs {
		e.ErrorString("%s: invalid ground speed mode", c.GsMode)
	}
}

// configJSON is the on-disk form of Config. Numeric values are strings
// with optional units, as in "25 deg"; without a unit, the unit given
// in the field's tag comment is assumed.
type configJSON struct {
	Bank          string  `json:"bank,omitempty"`            // deg
	GsAccel       string  `json:"gs_accel,omitempty"`        // m/s^2
	VsAccel       string  `json:"vs_accel,omitempty"`        // m/s^2
	MinTimeStep   string  `json:"min_time_step,omitempty"`   // s
	MinAccelTime  string  `json:"min_accel_time,omitempty"`  // s
	MinVsChange   string  `json:"min_vs_change,omitempty"`   // fpm
	MinVsTime     string  `json:"min_vs_time,omitempty"`     // s
	MinTurnBuffer string  `json:"min_turn_buffer,omitempty"` // s
	GsMode        *GsMode `json:"gs_mode,omitempty"`
	ConstantGs    string  `json:"constant_gs,omitempty"` // kts
	RepairTurn    *bool   `json:"repair_turn,omitempty"`
	RepairGs      *bool   `json:"repair_gs,omitempty"`
	RepairVs      *bool   `json:"repair_vs,omitempty"`
	FlyOver       *bool   `json:"fly_over,omitempty"`
	AddMiddle     *bool   `json:"add_middle,omitempty"`
}

type unitField struct {
	name, unit string
	s          *string
	v          *float64
}

func (cj *configJSON) fields(c *Config) []unitField {
	return []unitField{
		{"bank", "deg", &cj.Bank, &c.BankAngle},
		{"gs_accel", "m/s^2", &cj.GsAccel, &c.GsAccel},
		{"vs_accel", "m/s^2", &cj.VsAccel, &c.VsAccel},
		{"min_time_step", "s", &cj.MinTimeStep, &c.MinTimeStep},
		{"min_accel_time", "s", &cj.MinAccelTime, &c.MinAccelTime},
		{"min_vs_change", "fpm", &cj.MinVsChange, &c.MinVsChange},
		{"min_vs_time", "s", &cj.MinVsTime, &c.MinVsTime},
		{"min_turn_buffer", "s", &cj.MinTurnBuffer, &c.MinTurnBuffer},
		{"constant_gs", "kts", &cj.ConstantGs, &c.ConstantGs},
	}
}

// LoadConfig reads a JSON configuration from r. Fields that aren't given
// keep their DefaultConfig values. All of the problems found are
// reported in the returned error.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	b, err := io.ReadAll(r)
	if err != nil {
		return cfg, err
	}

	var e util.ErrorLogger
	util.CheckJSON[configJSON](b, &e)
	if e.HaveErrors() {
		return cfg, e.Err()
	}

	var cj configJSON
	if err := util.UnmarshalJSONBytes(b, &cj); err != nil {
		return cfg, err
	}

	for _, f := range cj.fields(&cfg) {
		if *f.s == "" {
			continue
		}
		e.Push(f.name)
		if v, err := math.ParseValue(*f.s, f.unit); err != nil {
			e.Error(err)
		} else {
			*f.v = v
		}
		e.Pop()
	}
	if cj.GsMode != nil {
		cfg.GsMode = *cj.GsMode
	}
	for _, f := range []struct {
		in  *bool
		out *bool
	}{{cj.RepairTurn, &cfg.RepairTurn}, {cj.RepairGs, &cfg.RepairGs}, {cj.RepairVs, &cfg.RepairVs},
		{cj.FlyOver, &cfg.FlyOver}, {cj.AddMiddle, &cfg.AddMiddle}} {
		if f.in != nil {
			*f.out = *f.in
		}
	}

	cfg.Validate(&e)
	return cfg, e.Err()
}

// MarshalJSON writes the configuration in the form LoadConfig reads.
func (c Config) MarshalJSON() ([]byte, error) {
	var cj configJSON
	for _, f := range cj.fields(&c) {
		v, err := math.ToUnit(f.unit, *f.v)
		if err != nil {
			return nil, err
		}
		*f.s = fmt.Sprintf("%g %s", v, f.unit)
	}
	cj.GsMode = &c.GsMode
	cj.RepairTurn, cj.RepairGs, cj.RepairVs = &c.RepairTurn, &c.RepairGs, &c.RepairVs
	cj.FlyOver, cj.AddMiddle = &c.FlyOver, &c.AddMiddle
	return json.Marshal(cj)
}
