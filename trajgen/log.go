// trajgen/log.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package trajgen

// Trace logging categories
const (
	TrajLogTurn     = "turn"
	TrajLogGs       = "gs"
	TrajLogVs       = "vs"
	TrajLogRepair   = "repair"
	TrajLogRevert   = "revert"
	TrajLogDirectTo = "directto"
)

var allTrajLogCategories = []string{TrajLogTurn, TrajLogGs, TrajLogVs, TrajLogRepair, TrajLogRevert,
	TrajLogDirectTo}
