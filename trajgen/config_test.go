// trajgen/config_test.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mmp/kinplan/math"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`{
  "bank": "30 deg",
  "gs_accel": "3",
  "min_vs_change": "100",
  "constant_gs": "250 kts",
  "gs_mode": "PRESERVE_RTAS",
  "fly_over": true,
  "repair_vs": false
}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !scalar.EqualWithinAbs(cfg.BankAngle, math.Radians(30), 1e-12) {
		t.Errorf("bank %f", cfg.BankAngle)
	}
	if cfg.GsAccel != 3 {
		t.Errorf("gs_accel %f", cfg.GsAccel)
	}
	if !scalar.EqualWithinAbs(cfg.MinVsChange, math.FPMToMS(100), 1e-12) {
		t.Errorf("min_vs_change %f", cfg.MinVsChange)
	}
	if !scalar.EqualWithinAbs(cfg.ConstantGs, math.KnotsToMS(250), 1e-9) {
		t.Errorf("constant_gs %f", cfg.ConstantGs)
	}
	if cfg.GsMode != PreserveRTAs || !cfg.FlyOver || cfg.RepairVs || !cfg.RepairGs {
		t.Errorf("unexpected flags: %+v", cfg)
	}
	// Unspecified values keep their defaults.
	if cfg.VsAccel != DefaultConfig().VsAccel {
		t.Errorf("vs_accel %f", cfg.VsAccel)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for _, test := range []struct {
		name, json, want string
	}{
		{"Unknown", `{"bnak": "25"}`, "bnak"},
		{"Duplicate", `{"bank": "25", "bank": "30"}`, "repeated"},
		{"BadUnit", `{"bank": "25 furlongs"}`, "bank"},
		{"BadMode", `{"gs_mode": "FAST"}`, "FAST"},
		{"Invalid", `{"gs_accel": "-1"}`, "positive"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(test.json))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error %q does not mention %q", err, test.want)
			}
		})
	}
}

func TestConfigJSONRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GsMode = ConstantGs
	cfg.ConstantGs = math.KnotsToMS(180)
	cfg.FlyOver = true

	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := LoadConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("load %s: %v", b, err)
	}
	if diff := cmp.Diff(cfg, got, cmpopts.EquateApprox(0, 1e-9), cmpopts.IgnoreFields(Config{}, "Logger")); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGsModeText(t *testing.T) {
	for _, m := range []GsMode{PreserveGs, PreserveTimes, PreserveRTAs, ConstantGs} {
		b, err := m.MarshalText()
		if err != nil {
			t.Fatalf("%s: %v", m, err)
		}
		var m2 GsMode
		if err := m2.UnmarshalText(b); err != nil || m2 != m {
			t.Errorf("%s: round trip gave %s, %v", m, m2, err)
		}
	}
	if m, err := ParseGsMode("preserve_times"); err != nil || m != PreserveTimes {
		t.Errorf("case-insensitive parse: got %s, %v", m, err)
	}
	if _, err := ParseGsMode("bogus"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}
