//go:build trajlog

// trajgen/log_debug.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

import (
	"fmt"
	"strings"
)

var (
	trajlogEnabled    bool
	trajlogCategories map[string]bool
)

// InitTrajLog enables trace logging for the given comma-separated
// categories; "all" or an empty string enables all of them.
func InitTrajLog(enabled bool, categories string) {
	trajlogEnabled = enabled
	trajlogCategories = make(map[string]bool)

	if !enabled {
		return
	}

	if categories == "" || categories == "all" {
		for _, cat := range allTrajLogCategories {
			trajlogCategories[cat] = true
		}
	} else {
		for _, cat := range strings.Split(categories, ",") {
			trajlogCategories[strings.TrimSpace(cat)] = true
		}
	}
}

// TrajLog prints a trace message for the named plan.
func TrajLog(planName string, category string, format string, args ...any) {
	if !trajlogEnabled || !trajlogCategories[category] {
		return
	}
	fmt.Printf("[%s] [%s] %s\n", planName, category, fmt.Sprintf(format, args...))
}

func TrajLogEnabled(category string) bool {
	return trajlogEnabled && trajlogCategories[category]
}
