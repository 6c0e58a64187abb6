// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

// Package pdumodel holds the in-memory state of the dual PDU: the mode,
// heartbeat, error counters, per-line enable status, and raw/engineering
// telemetry for the nominal and redundant units.
package pdumodel

import "fmt"

// LineCount is the number of switchable power lines modeled per PDU unit.
const LineCount = 71

// LogicalUnit identifies one of the nine groups of power lines a command
// addresses as a unit.
type LogicalUnit uint8

// Logical unit identifiers, in wire order.
const (
	UnitHighPowerHeaters LogicalUnit = 0
	UnitLowPowerHeaters  LogicalUnit = 1
	UnitAvionicLoads     LogicalUnit = 2
	UnitHDRM             LogicalUnit = 3
	UnitReactionWheels   LogicalUnit = 4
	UnitPropulsion       LogicalUnit = 5
	UnitIsolatedLDO      LogicalUnit = 6
	UnitIsolatedPower    LogicalUnit = 7
	UnitThermalFlyback   LogicalUnit = 8

	logicalUnitCount = 9
)

// LogicalUnitCount is the number of logical units a PDU's 71 lines are
// grouped into.
const LogicalUnitCount = logicalUnitCount

// lineRange describes the [first, first+count) slice of the 71-line vector
// that a logical unit owns.
type lineRange struct {
	name  string
	first int
	count int
}

var logicalUnitRanges = [logicalUnitCount]lineRange{
	UnitHighPowerHeaters: {"HighPowerHeaters", 0, 18},
	UnitLowPowerHeaters:  {"LowPowerHeaters", 18, 22},
	UnitAvionicLoads:     {"AvionicLoads", 40, 2},
	UnitHDRM:             {"HDRM", 42, 12},
	UnitReactionWheels:   {"ReactionWheels", 54, 4},
	UnitPropulsion:       {"Propulsion", 58, 2},
	UnitIsolatedLDO:      {"IsolatedLDO", 60, 6},
	UnitIsolatedPower:    {"IsolatedPower", 66, 3},
	UnitThermalFlyback:   {"ThermalFlyback", 69, 2},
}

// ErrUnknownLogicalUnit reports a Logical Unit ID outside 0-8.
type ErrUnknownLogicalUnit struct {
	ID uint8
}

func (e *ErrUnknownLogicalUnit) Error() string {
	return fmt.Sprintf("unknown logical unit id %d", e.ID)
}

// Lookup validates a Logical Unit ID and returns its LogicalUnit value.
func Lookup(id uint8) (LogicalUnit, error) {
	if int(id) >= logicalUnitCount {
		return 0, &ErrUnknownLogicalUnit{ID: id}
	}
	return LogicalUnit(id), nil
}

// Range returns the first line index and line count owned by this logical unit.
func (u LogicalUnit) Range() (first, count int) {
	r := logicalUnitRanges[u]
	return r.first, r.count
}

// Name returns the logical unit's human-readable name.
func (u LogicalUnit) Name() string {
	return logicalUnitRanges[u].name
}

// FullMask builds the bit mask of every line belonging to this logical unit,
// relative to the unit's own line range (bit 0 = first line in the unit).
func (u LogicalUnit) FullMask() uint64 {
	_, count := u.Range()
	if count >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << count) - 1
}
