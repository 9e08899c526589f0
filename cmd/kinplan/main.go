// cmd/kinplan/main.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// kinplan generates kinematic plans from the linear plans in one or more
// plan files, or reverts kinematic plans back to linear ones.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/mmp/kinplan/log"
	"github.com/mmp/kinplan/math"
	"github.com/mmp/kinplan/trajgen"
	"github.com/mmp/kinplan/util"

	"github.com/apenwarr/fixconsole"
)

var (
	configFile        = flag.String("config", "", "JSON file with trajectory generation parameters")
	bankAngle         = flag.String("bank", "", "maximum bank angle (default unit: deg)")
	gsAccel           = flag.String("gsaccel", "", "ground speed acceleration (default unit: m/s^2)")
	vsAccel           = flag.String("vsaccel", "", "vertical speed acceleration (default unit: m/s^2)")
	minTime           = flag.String("mintime", "", "shortest acceleration zone to generate (default unit: s)")
	gsMode            = flag.String("gsmode", "", "ground speed mode: PRESERVE_GS, PRESERVE_TIMES, PRESERVE_RTAS, CONSTANT_GS")
	repair            = flag.Bool("repair", true, "repair legs that are too short for their turns and speed changes")
	flyOver           = flag.Bool("flyover", false, "start turns at their vertices")
	revert            = flag.Bool("revert", false, "revert kinematic plans to linear plans instead of generating")
	verify            = flag.Bool("verify", false, "check the consistency of each output plan and include it in the report")
	holding           = flag.Bool("holding", false, "build a holding pattern at the first point of each plan")
	holdLeg           = flag.String("holdleg", "1 min", "holding pattern leg duration (default unit: s)")
	outDir            = flag.String("o", "", "output directory (default: alongside each input file)")
	archiveFile       = flag.String("archive", "", "also write all of the output plans to this archive")
	jobs              = flag.Int("j", runtime.NumCPU(), "number of plan files to process concurrently")
	logLevel          = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir            = flag.String("logdir", "", "log file directory")
	dump              = flag.Bool("dump", false, "dump each output plan to stdout")
	trajLog           = flag.Bool("trajlog", false, "enable trajectory generation trace logging")
	trajLogCategories = flag.String("trajlog-categories", "all", "trace logging categories (comma-separated: turn,gs,vs,repair,revert,directto)")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: kinplan [flags] plan-file...\n")
	flag.PrintDefaults()
}

// flagsSet returns the names of the flags given on the command line.
func flagsSet() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// makeConfig returns the generation configuration given by the config
// file, if any, with the command-line flags applied on top of it.
func makeConfig(lg *log.Logger) (trajgen.Config, error) {
	cfg := trajgen.DefaultConfig()
	if *configFile != "" {
		f, err := os.Open(*configFile)
		if err != nil {
			return cfg, err
		}
		cfg, err = trajgen.LoadConfig(f)
		f.Close()
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", *configFile, err)
		}
	}

	var e util.ErrorLogger
	set := flagsSet()
	for _, f := range []struct {
		name, unit string
		s          *string
		v          *float64
	}{
		{"bank", "deg", bankAngle, &cfg.BankAngle},
		{"gsaccel", "m/s^2", gsAccel, &cfg.GsAccel},
		{"vsaccel", "m/s^2", vsAccel, &cfg.VsAccel},
		{"mintime", "s", minTime, &cfg.MinTimeStep},
	} {
		if !set[f.name] {
			continue
		}
		e.Push("-" + f.name)
		if v, err := math.ParseValue(*f.s, f.unit); err != nil {
			e.Error(err)
		} else {
			*f.v = v
		}
		e.Pop()
	}
	if set["gsmode"] {
		var err error
		if cfg.GsMode, err = trajgen.ParseGsMode(*gsMode); err != nil {
			e.Error(err)
		}
	}
	if set["repair"] {
		cfg.RepairTurn, cfg.RepairGs, cfg.RepairVs = *repair, *repair, *repair
	}
	if set["flyover"] {
		cfg.FlyOver = *flyOver
	}
	cfg.Logger = lg

	cfg.Validate(&e)
	return cfg, e.Err()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	lg := log.New(*logLevel, *logDir)
	defer lg.CatchAndReportCrash()

	trajgen.InitTrajLog(*trajLog, *trajLogCategories)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := makeConfig(lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	leg, err := math.ParseValue(*holdLeg, "s")
	if err != nil {
		fmt.Fprintf(os.Stderr, "-holdleg: %v\n", err)
		os.Exit(1)
	}

	opts := options{
		Config:      cfg,
		Revert:      *revert,
		Verify:      *verify,
		Holding:     *holding,
		HoldLeg:     leg,
		OutDir:      *outDir,
		ArchiveFile: *archiveFile,
		Jobs:        *jobs,
		Logger:      lg,
	}
	results, err := processFiles(flag.Args(), opts)
	if err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}

	if *dump {
		for _, r := range results {
			for _, p := range r.Outputs {
				p.Dump(os.Stdout)
			}
		}
	}

	if err := writeReport(os.Stdout, results); err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}

	if anyPlanErrors(results) {
		os.Exit(1)
	}
}
