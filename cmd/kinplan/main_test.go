// cmd/kinplan/main_test.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/plan"
	"github.com/mmp/kinplan/planio"
	"github.com/mmp/kinplan/trajgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two plans flown at about 200 kts: one with a right turn, one that
// just climbs.
const linearTable = `name,sx,sy,sz,time,label
[-],[m],[m],[ft],[s],[-]
turn,0,0,5000,0,A
turn,0,10000,5000,100,B
turn,10000,10000,5000,200,C
climb,0,0,5000,0,
climb,0,10000,5000,100,
climb,0,20000,7000,200,
`

func writeInput(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func readOutput(t *testing.T, path string) []*plan.Plan {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	plans, err := planio.ReadTable(f, "")
	require.NoError(t, err)
	return plans
}

func TestProcessFiles(t *testing.T) {
	in := writeInput(t, "route.csv", linearTable)
	outDir := filepath.Join(t.TempDir(), "out")
	archive := filepath.Join(outDir, "all"+planio.ArchiveFilenameSuffix)

	results, err := processFiles([]string{in}, options{
		Config:      trajgen.DefaultConfig(),
		Verify:      true,
		OutDir:      outDir,
		ArchiveFile: archive,
		Jobs:        2,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(outDir, "route.kin.csv"), results[0].Output)
	assert.False(t, anyPlanErrors(results))

	require.Len(t, results[0].Plans, 2)
	for _, pr := range results[0].Plans {
		assert.Empty(t, pr.Errors, pr.Name)
		require.NotNil(t, pr.Verdict)
		assert.True(t, pr.Verdict.OK, "%s: %v", pr.Name, pr.Verdict.Reasons)
		assert.Equal(t, 3, pr.PointsIn)
		assert.Greater(t, pr.PointsOut, pr.PointsIn)
	}

	plans := readOutput(t, results[0].Output)
	require.Len(t, plans, 2)
	assert.Equal(t, "turn", plans[0].Name)
	assert.GreaterOrEqual(t, plans[0].NextBOT(0), 0)
	assert.GreaterOrEqual(t, plans[1].NextBVS(0), 0)
	assert.Equal(t, "A", plans[0].Point(0).Label)

	f, err := os.Open(archive)
	require.NoError(t, err)
	defer f.Close()
	archived, err := planio.ReadArchive(f)
	require.NoError(t, err)
	assert.Len(t, archived, 2)

	// Reverting the generated plans gives back the original vertices.
	results, err = processFiles([]string{results[0].Output}, options{Revert: true, Jobs: 1})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(results[0].Output, "route.kin.lin.csv"))
	plans = readOutput(t, results[0].Output)
	require.Len(t, plans, 2)
	assert.True(t, plans[0].IsLinear())
	require.Equal(t, 3, plans[0].Size())
	assert.True(t, plans[0].Point(2).Pos.AlmostEquals(plan.MakeXYZ(10000, 10000, math.FeetToMeters(5000)), 1e-3, 1e-3))
}

func TestProcessFilesHolding(t *testing.T) {
	in := writeInput(t, "route.csv", linearTable)
	results, err := processFiles([]string{in}, options{
		Config:  trajgen.DefaultConfig(),
		Holding: true,
		HoldLeg: 60,
		Jobs:    1,
	})
	require.NoError(t, err)
	require.Len(t, results[0].Outputs, 2)
	hp := results[0].Outputs[0]
	assert.Equal(t, "turn-hold", hp.Name)
	assert.False(t, hp.HasError(), hp.ErrorString())
	assert.Equal(t, 13, hp.Size())
	// The pattern ends back where it started.
	assert.True(t, hp.Point(hp.Size()-1).Pos.AlmostEquals(hp.Point(0).Pos, 1e-3, 1e-3))
}

func TestProcessFilesErrors(t *testing.T) {
	_, err := processFiles([]string{filepath.Join(t.TempDir(), "missing.csv")}, options{Jobs: 1})
	assert.Error(t, err)

	bad := writeInput(t, "bad.csv", "sx,sy,sz,time\n0,0,0,zero\n")
	_, err = processFiles([]string{bad}, options{Jobs: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.csv")

	// A turn too tight to fly is reported against the plan.
	tight := writeInput(t, "tight.csv", "name,sx,sy,sz,time\n"+
		"[-],[m],[m],[m],[s]\n"+
		"z,0,0,1000,0\nz,0,300,1000,3\nz,300,300,1000,6\nz,300,0,1000,9\n")
	cfg := trajgen.DefaultConfig()
	cfg.RepairTurn = false
	results, err := processFiles([]string{tight}, options{Config: cfg, Jobs: 1})
	require.NoError(t, err)
	assert.True(t, anyPlanErrors(results))
	assert.NotEmpty(t, results[0].Plans[0].Errors)
}

func TestWriteReport(t *testing.T) {
	results := []fileResult{{
		Path:   "a.csv",
		Output: "a.kin.csv",
		Plans: []planResult{
			{Name: "p", PointsIn: 3, PointsOut: 9, Verdict: &plan.Verdict{OK: true}},
			{Name: "q", PointsIn: 2, PointsOut: 2, Errors: []string{"GS_ZERO at 0"}},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, results))

	s := buf.String()
	// Keys are written in a fixed order.
	assert.Less(t, strings.Index(s, `"file"`), strings.Index(s, `"name"`))
	assert.Less(t, strings.Index(s, `"name"`), strings.Index(s, `"points_in"`))
	assert.Less(t, strings.Index(s, `"warnings"`), strings.Index(s, `"consistent"`))

	var report []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &report))
	require.Len(t, report, 2)
	assert.Equal(t, "p", report[0]["name"])
	assert.Equal(t, true, report[0]["consistent"])
	assert.Equal(t, []any{}, report[0]["errors"])
	assert.NotContains(t, report[1], "consistent")
	assert.Equal(t, []any{"GS_ZERO at 0"}, report[1]["errors"])
	assert.True(t, anyPlanErrors(results))
}

func TestMakeConfig(t *testing.T) {
	require.NoError(t, flag.Set("bank", "30"))
	require.NoError(t, flag.Set("gsmode", "preserve_times"))
	require.NoError(t, flag.Set("repair", "false"))
	defer func() {
		flag.Set("bank", "")
		flag.Set("gsmode", "")
		flag.Set("repair", "true")
	}()

	cfg, err := makeConfig(nil)
	require.NoError(t, err)
	assert.InDelta(t, math.Radians(30), cfg.BankAngle, 1e-12)
	assert.Equal(t, trajgen.PreserveTimes, cfg.GsMode)
	assert.False(t, cfg.RepairTurn || cfg.RepairGs || cfg.RepairVs)
	assert.Equal(t, trajgen.DefaultConfig().GsAccel, cfg.GsAccel)

	require.NoError(t, flag.Set("bank", "95 deg"))
	_, err = makeConfig(nil)
	assert.Error(t, err)
}
