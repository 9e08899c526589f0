// log/log.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package log provides the structured logger used by kinplan: JSON
// records written to a rotating file, each tagged with the call stack of
// the code that logged it.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*slog.Logger
	LogFile string
	LogDir  string
	Start   time.Time
}

var levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func parseLevel(level string) slog.Level {
	if l, ok := levels[strings.ToLower(level)]; ok {
		return l
	}
	fmt.Fprintf(os.Stderr, "%s: invalid log level, using \"info\"\n", level)
	return slog.LevelInfo
}

// New returns a Logger that writes JSON records to kinplan.slog in dir,
// rotating it as it grows. If dir is empty, a kinplan directory in the
// user's config directory is used.
func New(level string, dir string) *Logger {
	if dir == "" {
		if cd, err := os.UserConfigDir(); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to find user config dir: %v\n", err)
			dir = "."
		} else {
			dir = filepath.Join(cd, "kinplan")
		}
	}

	lvl := parseLevel(level)
	w := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "kinplan.slog"),
		MaxSize:    32, // MB
		MaxBackups: 1,
	}
	if lvl == slog.LevelDebug {
		// Generation passes log a record per plan per pass.
		w.MaxSize = 512
	}

	l := &Logger{
		Logger:  slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})),
		LogFile: w.Filename,
		LogDir:  dir,
		Start:   time.Now(),
	}
	l.logSystemInfo()
	return l
}

// NewWriter returns a Logger that writes text records to w; it is used
// for console output and in tests.
func NewWriter(w io.Writer, level string) *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})),
		Start:  time.Now(),
	}
}

// logSystemInfo starts the log with the platform and the build that is
// running.
func (l *Logger) logSystemInfo() {
	l.Info("Hello logging", slog.Time("start", l.Start))
	l.Info("System information",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.Int("NumCPUs", runtime.NumCPU()))

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	var deps, settings []any
	for _, dep := range bi.Deps {
		deps = append(deps, slog.String(dep.Path, dep.Version))
		if dep.Replace != nil {
			deps = append(deps, slog.String("Replacement "+dep.Replace.Path, dep.Replace.Version))
		}
	}
	for _, s := range bi.Settings {
		settings = append(settings, slog.String(s.Key, s.Value))
	}
	l.Info("Build",
		slog.String("Go version", bi.GoVersion),
		slog.String("Path", bi.Path),
		slog.Group("Dependencies", deps...),
		slog.Group("Settings", settings...))
}

func (l *Logger) enabled(level slog.Level) bool {
	return l != nil && l.Logger.Enabled(context.Background(), level)
}

// withStack prepends the call stack of the caller of the Logger method
// to args; it must be called directly from that method.
func withStack(args []any) []any {
	return append([]any{slog.Any("callstack", callstack())}, args...)
}

// The logging methods below add call stack information to the record and
// allow a nil *Logger, in which case debug and info records are discarded
// and warnings and errors go to the default slog logger. Only these
// methods are wrapped; WarnContext, Log and the like go straight to slog.

func (l *Logger) Debug(msg string, args ...any) {
	if l.enabled(slog.LevelDebug) {
		l.Logger.Debug(msg, withStack(args)...)
	}
}

// Debugf logs just a formatted message.
func (l *Logger) Debugf(msg string, args ...any) {
	if l.enabled(slog.LevelDebug) {
		l.Logger.Debug(fmt.Sprintf(msg, args...), withStack(nil)...)
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l.enabled(slog.LevelInfo) {
		l.Logger.Info(msg, withStack(args)...)
	}
}

func (l *Logger) Infof(msg string, args ...any) {
	if l.enabled(slog.LevelInfo) {
		l.Logger.Info(fmt.Sprintf(msg, args...), withStack(nil)...)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	args = withStack(args)
	if l == nil {
		slog.Warn(msg, args...)
	} else {
		l.Logger.Warn(msg, args...)
	}
}

func (l *Logger) Warnf(msg string, args ...any) {
	st := withStack(nil)
	if l == nil {
		slog.Warn(fmt.Sprintf(msg, args...), st...)
	} else {
		l.Logger.Warn(fmt.Sprintf(msg, args...), st...)
	}
}

// Error logs to both the default slog logger and l, so that errors are
// visible on the console as well as in the log file.
func (l *Logger) Error(msg string, args ...any) {
	args = withStack(args)
	slog.Error(msg, args...)
	if l != nil {
		l.Logger.Error(msg, args...)
	}
}

func (l *Logger) Errorf(msg string, args ...any) {
	msg, st := fmt.Sprintf(msg, args...), withStack(nil)
	slog.Error(msg, st...)
	if l != nil {
		l.Logger.Error(msg, st...)
	}
}

// With returns a Logger that includes the given attributes in each
// record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	nl := *l
	nl.Logger = l.Logger.With(args...)
	return &nl
}

// CatchAndReportCrash should be deferred; it logs a panic along with
// the platform and build settings and saves the report in the log
// directory.
func (l *Logger) CatchAndReportCrash() any {
	// Let the debugger handle it.
	if dlv, ok := os.LookupEnv("_"); ok && strings.HasSuffix(dlv, "/dlv") {
		return nil
	}

	err := recover()
	if err == nil {
		return nil
	}
	l.Errorf("Crashed: %v", err)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Crashed: %v\n", err)
	fmt.Fprintf(&sb, "Sys: %s/%s\n", runtime.GOARCH, runtime.GOOS)
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			fmt.Fprintf(&sb, "%s: %s\n", s.Key, s.Value)
		}
	}
	sb.Write(debug.Stack())
	report := sb.String()

	fmt.Fprintln(os.Stderr, report)
	if l != nil && l.LogDir != "" {
		fn := filepath.Join(l.LogDir, "crash-"+time.Now().Format(time.RFC3339)+".txt")
		_ = os.WriteFile(fn, []byte(report), 0o600)
	}
	return err
}
