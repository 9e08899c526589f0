//go:build !trajlog

// trajgen/log_release.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

// InitTrajLog is a no-op in release builds
func InitTrajLog(enabled bool, categories string) {}

// TrajLog is a no-op in release builds
func TrajLog(planName string, category string, format string, args ...any) {}

// TrajLogEnabled always returns false in release builds
func TrajLogEnabled(category string) bool { return false }
