// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package hardware

import "testing"

func TestBuildLineToPinMatchesAddressSpans(t *testing.T) {
	cases := []struct {
		line int
		addr uint8
		pin  int
	}{
		{0, 0x27, 0},
		{15, 0x27, 15},
		{16, 0x26, 0},
		{23, 0x26, 7},
		{24, 0x25, 0},
		{39, 0x25, 15},
		{40, 0x24, 0},
		{47, 0x24, 7},
		{48, 0x23, 0},
		{63, 0x23, 15},
		{64, 0x22, 0},
		{70, 0x22, 6},
	}
	for _, c := range cases {
		m, err := PinFor(c.line)
		if err != nil {
			t.Fatalf("line %d: unexpected error %v", c.line, err)
		}
		if m.Addr != c.addr || m.Pin != c.pin {
			t.Fatalf("line %d: got %#x/%d, want %#x/%d", c.line, m.Addr, m.Pin, c.addr, c.pin)
		}
	}
}

func TestSimulatedExpanderRoundTrip(t *testing.T) {
	exp := NewSimulatedExpander()
	if _, ok := exp.LevelOf(0x27, 3); ok {
		t.Fatal("expected no level recorded before any write")
	}
	if err := exp.WritePin(0x27, 3, PinLow); err != nil {
		t.Fatalf("WritePin: %v", err)
	}
	level, ok := exp.LevelOf(0x27, 3)
	if !ok || level != PinLow {
		t.Fatalf("LevelOf = %v, %v; want PinLow, true", level, ok)
	}
	sample, err := exp.ReadADC(0)
	if err != nil || sample != 2048 {
		t.Fatalf("ReadADC = %v, %v; want 2048, nil", sample, err)
	}
}
