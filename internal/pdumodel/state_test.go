// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package pdumodel

import "testing"

func TestNewStateManagerStartsInBoot(t *testing.T) {
	m := NewStateManager()
	for _, apid := range []APID{APIDNominal, APIDRedundant} {
		u := m.Unit(apid)
		if got := u.Mode(); got != ModeBoot {
			t.Errorf("apid %x: mode = %v, want Boot", apid, got)
		}
		lines := u.LineStatesSnapshot()
		for i, on := range lines {
			if on {
				t.Errorf("apid %x: line %d enabled at boot, want disabled", apid, i)
			}
		}
	}
}

func TestIndependentUnits(t *testing.T) {
	m := NewStateManager()
	nominal := m.Unit(APIDNominal)
	redundant := m.Unit(APIDRedundant)

	nominal.TransitionMode(ModeLoad)
	nominal.TransitionMode(ModeOperate)
	nominal.SetLines(UnitHighPowerHeaters, 0x5)

	if got := redundant.Mode(); got != ModeBoot {
		t.Errorf("redundant mode = %v, want Boot; mutating the nominal unit must not affect the redundant unit", got)
	}
	if mask := redundant.LogicalUnitMask(UnitHighPowerHeaters); mask != 0 {
		t.Errorf("redundant HighPowerHeaters mask = %#x, want 0; units must stay independent", mask)
	}
}

func TestSetResetOverwriteLines(t *testing.T) {
	u := newPduUnit()
	u.TransitionMode(ModeLoad)
	u.TransitionMode(ModeOperate)

	u.SetLines(UnitHighPowerHeaters, 0x5) // bits 0 and 2
	if got := u.LogicalUnitMask(UnitHighPowerHeaters); got != 0x5 {
		t.Fatalf("after Set: mask = %#x, want 0x5", got)
	}

	// Set is idempotent
	u.SetLines(UnitHighPowerHeaters, 0x5)
	if got := u.LogicalUnitMask(UnitHighPowerHeaters); got != 0x5 {
		t.Fatalf("after repeated Set: mask = %#x, want 0x5", got)
	}

	u.SetLines(UnitHighPowerHeaters, 0x2) // bit 1, should not clear bits 0/2
	if got := u.LogicalUnitMask(UnitHighPowerHeaters); got != 0x7 {
		t.Fatalf("after additional Set: mask = %#x, want 0x7", got)
	}

	u.ResetLines(UnitHighPowerHeaters, 0x4) // clear bit 2
	if got := u.LogicalUnitMask(UnitHighPowerHeaters); got != 0x3 {
		t.Fatalf("after Reset: mask = %#x, want 0x3", got)
	}

	u.OverwriteLines(UnitHighPowerHeaters, 0xFF)
	if got := u.LogicalUnitMask(UnitHighPowerHeaters); got != 0xFF {
		t.Fatalf("after Overwrite: mask = %#x, want 0xFF", got)
	}
}

func TestForceAllLinesOffOnSafe(t *testing.T) {
	u := newPduUnit()
	u.TransitionMode(ModeLoad)
	u.TransitionMode(ModeOperate)
	u.OverwriteLines(UnitHighPowerHeaters, 0xFF)
	u.OverwriteLines(UnitHDRM, 0xFFF)

	u.TransitionMode(ModeSafe) // side effect: all lines forced off

	lines := u.LineStatesSnapshot()
	for i, on := range lines {
		if on {
			t.Errorf("line %d still enabled after PduGoSafe", i)
		}
	}
}

func TestModeTransitionTable(t *testing.T) {
	cases := []struct {
		from, to Mode
		want     bool
	}{
		{ModeBoot, ModeLoad, true},
		{ModeBoot, ModeOperate, false},
		{ModeLoad, ModeOperate, true},
		{ModeOperate, ModeSafe, true},
		{ModeOperate, ModeMaintenance, true},
		{ModeSafe, ModeOperate, true},
		{ModeSafe, ModeSafe, false},
		{ModeMaintenance, ModeOperate, true},
		{ModeMaintenance, ModeSafe, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%v, %v) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestLineCountIs71(t *testing.T) {
	var total int
	for lu := LogicalUnit(0); lu < logicalUnitCount; lu++ {
		_, count := lu.Range()
		total += count
	}
	if total != LineCount {
		t.Fatalf("sum of logical unit line counts = %d, want %d", total, LineCount)
	}
}

func TestHeartbeatEchoesCounter(t *testing.T) {
	u := newPduUnit()
	reply := u.RecordHeartbeat(0x1234)
	if reply != 0x1234 {
		t.Fatalf("reply counter = %#x, want 0x1234", reply)
	}
	hb := u.HeartbeatSnapshot()
	if hb.LastReceivedCounter != 0x1234 || hb.LastReplyCounter != 0x1234 {
		t.Fatalf("heartbeat = %+v, want both counters 0x1234", hb)
	}
}
