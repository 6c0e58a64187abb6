// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package pdumodel

// transitionTable enumerates every legal (from, to) mode transition. Any
// pair not present here is rejected with InvalidStateTransition.
var transitionTable = map[Mode]map[Mode]bool{
	ModeBoot:        {ModeLoad: true},
	ModeLoad:        {ModeOperate: true},
	ModeOperate:     {ModeSafe: true, ModeMaintenance: true},
	ModeSafe:        {ModeOperate: true},
	ModeMaintenance: {ModeOperate: true},
}

// CanTransition reports whether moving from `from` to `to` is a legal mode
// transition.
func CanTransition(from, to Mode) bool {
	return transitionTable[from][to]
}

// CanMutateLines reports whether a line transition is permitted in this
// mode: only Operate and Maintenance allow line mutation.
func CanMutateLines(m Mode) bool {
	return m == ModeOperate || m == ModeMaintenance
}
