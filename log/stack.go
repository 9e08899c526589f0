// log/stack.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

type frame struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Func string `json:"func"`
}

func (f frame) String() string {
	return fmt.Sprintf("%s:%d:%s", f.File, f.Line, f.Func)
}

const modulePath = "github.com/mmp/kinplan/"

// callstack returns the frames above the Logger method that called
// withStack, ending at main.main or before the first runtime or testing
// frame.
func callstack() []frame {
	var pcs [16]uintptr
	// Skip Callers, callstack, withStack and the Logger method.
	n := runtime.Callers(4, pcs[:])
	if n == 0 {
		return nil
	}

	var stack []frame
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if strings.HasPrefix(f.Function, "runtime.") || strings.HasPrefix(f.Function, "testing.") {
			return stack
		}
		stack = append(stack, frame{File: filepath.Base(f.File), Line: f.Line, Func: shortFunctionName(f.Function)})
		if !more || f.Function == "main.main" {
			return stack
		}
	}
}

// shortFunctionName strips the module path from fn, giving names like
// "trajgen.MakeKinematicPlan".
func shortFunctionName(fn string) string {
	return strings.TrimPrefix(strings.TrimPrefix(fn, modulePath), "main.")
}
