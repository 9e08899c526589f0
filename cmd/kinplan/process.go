// cmd/kinplan/process.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmp/kinplan/kinematics"
	"github.com/mmp/kinplan/log"
	"github.com/mmp/kinplan/plan"
	"github.com/mmp/kinplan/planio"
	"github.com/mmp/kinplan/trajgen"

	"github.com/iancoleman/orderedmap"
	"golang.org/x/sync/errgroup"
)

type options struct {
	Config  trajgen.Config
	Revert  bool
	Verify  bool
	Holding bool
	// HoldLeg is the duration of the long legs of holding patterns.
	HoldLeg     float64
	OutDir      string
	ArchiveFile string
	Jobs        int
	Logger      *log.Logger
}

type planResult struct {
	Name      string
	PointsIn  int
	PointsOut int
	Errors    []string
	Warnings  []string
	// Verdict and InsideZones are only set when verifying.
	Verdict     *plan.Verdict
	InsideZones []int
}

type fileResult struct {
	Path    string
	Output  string
	Outputs []*plan.Plan
	Plans   []planResult
}

func isArchive(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

func readPlans(path string) ([]*plan.Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if isArchive(path) {
		return planio.ReadArchive(f)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return planio.ReadTable(f, name)
}

func outputPath(path string, opts options) string {
	base := filepath.Base(path)
	if isArchive(path) {
		base = strings.TrimSuffix(base, planio.ArchiveFilenameSuffix)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	dir := filepath.Dir(path)
	if opts.OutDir != "" {
		dir = opts.OutDir
	}
	if opts.Revert {
		return filepath.Join(dir, base+".lin.csv")
	}
	return filepath.Join(dir, base+".kin.csv")
}

func holdingPattern(p *plan.Plan, opts options) *plan.Plan {
	name := p.Name + "-hold"
	if p.Size() < 2 {
		hp := plan.New(name)
		hp.AddError(plan.Unknown, -1, "a holding pattern needs a plan with at least two points")
		return hp
	}

	v := p.InitialVelocity(0)
	omega := kinematics.TurnRate(v.Gs, opts.Config.BankAngle)
	leg := v.Gs * opts.HoldLeg
	hp := trajgen.StandardHoldingPattern(p.Point(0).Pos, v, p.Time(0), omega, leg, leg/2)
	hp.Name = name
	return hp
}

func processPlan(p *plan.Plan, opts options) *plan.Plan {
	lg := opts.Logger.With("plan", p.Name)

	switch {
	case opts.Holding:
		return holdingPattern(p, opts)

	case opts.Revert:
		return trajgen.MakeLinearPlan(p)

	default:
		cfg := opts.Config
		cfg.Logger = lg

		lp := p
		if !p.IsLinear() {
			lp = trajgen.MakeLinearPlan(p)
		}
		kp, err := trajgen.MakeKinematicPlan(lp, cfg)
		if err != nil {
			lg.Warnf("%s: %v", p.Name, err)
		}
		return kp
	}
}

func summarize(in, out *plan.Plan, opts options) planResult {
	pr := planResult{Name: out.Name, PointsIn: in.Size(), PointsOut: out.Size()}
	for _, e := range out.Errors() {
		if e.Warning {
			pr.Warnings = append(pr.Warnings, e.Error())
		} else {
			pr.Errors = append(pr.Errors, e.Error())
		}
	}
	if opts.Verify {
		v := out.IsConsistent(opts.Logger)
		pr.Verdict = &v
		pr.InsideZones = trajgen.InsideAccelZone(out)
	}
	return pr
}

func writeTableFile(path string, plans []*plan.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := planio.WriteTable(f, plans); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeArchiveFile(path string, plans []*plan.Plan) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := planio.WriteArchive(f, plans); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func processFile(path string, opts options) (fileResult, error) {
	inputs, err := readPlans(path)
	if err != nil {
		return fileResult{}, err
	}

	fr := fileResult{Path: path, Output: outputPath(path, opts)}
	for _, p := range inputs {
		out := processPlan(p, opts)
		fr.Outputs = append(fr.Outputs, out)
		fr.Plans = append(fr.Plans, summarize(p, out, opts))
	}

	if err := writeTableFile(fr.Output, fr.Outputs); err != nil {
		return fr, err
	}
	opts.Logger.Info("processed plan file", "path", path, "plans", len(inputs), "output", fr.Output)
	return fr, nil
}

// processFiles processes the given plan files, up to opts.Jobs of them
// concurrently. Problems with individual plans are recorded in the
// results; an error is returned only if a file can't be read or written.
func processFiles(paths []string, opts options) ([]fileResult, error) {
	if opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
			return nil, err
		}
	}

	results := make([]fileResult, len(paths))
	var eg errgroup.Group
	eg.SetLimit(max(opts.Jobs, 1))
	for i, path := range paths {
		eg.Go(func() error {
			r, err := processFile(path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if opts.ArchiveFile != "" {
		var all []*plan.Plan
		for _, r := range results {
			all = append(all, r.Outputs...)
		}
		if err := writeArchiveFile(opts.ArchiveFile, all); err != nil {
			return nil, fmt.Errorf("%s: %w", opts.ArchiveFile, err)
		}
	}
	return results, nil
}

func anyPlanErrors(results []fileResult) bool {
	for _, r := range results {
		for _, pr := range r.Plans {
			if len(pr.Errors) > 0 || (pr.Verdict != nil && !pr.Verdict.OK) {
				return true
			}
		}
	}
	return false
}

func planReport(fr fileResult, pr planResult) *orderedmap.OrderedMap {
	o := orderedmap.New()
	o.Set("file", fr.Path)
	o.Set("output", fr.Output)
	o.Set("name", pr.Name)
	o.Set("points_in", pr.PointsIn)
	o.Set("points_out", pr.PointsOut)
	o.Set("errors", nonNil(pr.Errors))
	o.Set("warnings", nonNil(pr.Warnings))
	if pr.Verdict != nil {
		o.Set("consistent", pr.Verdict.OK)
		o.Set("reasons", nonNil(pr.Verdict.Reasons))
		o.Set("inside_accel_zones", nonNil(pr.InsideZones))
	}
	return o
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// writeReport writes a JSON summary of each plan to w.
func writeReport(w io.Writer, results []fileResult) error {
	report := []*orderedmap.OrderedMap{}
	for _, fr := range results {
		for _, pr := range fr.Plans {
			report = append(report, planReport(fr, pr))
		}
	}

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}
