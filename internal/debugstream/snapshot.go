// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

// Package debugstream is a supplementary, low-rate, off-by-default
// operator telemetry feed: a WebSocket server that pushes whole PduUnit
// snapshots to connected monitors. It carries no command path back to the
// OBC and is never used by the Network or Serial endpoints.
package debugstream

import (
	"time"

	"github.com/obc-avionics/pdusim/internal/pdumodel"
)

// Snapshot is one PDU unit's state at one push tick, CBOR-encoded on the
// wire.
type Snapshot struct {
	APID      uint16    `cbor:"apid"`
	Timestamp time.Time `cbor:"ts"`

	Mode uint8 `cbor:"mode"`

	CommandRejected uint32 `cbor:"command_rejected"`
	ChecksumFailed  uint32 `cbor:"checksum_failed"`
	UnknownCommand  uint32 `cbor:"unknown_command"`
	HardwareFault   uint32 `cbor:"hardware_fault"`
	UptimeTicks     uint64 `cbor:"uptime_ticks"`

	LastHeartbeatCounter uint16 `cbor:"last_heartbeat_counter"`
	MissedHeartbeats     uint32 `cbor:"missed_heartbeats"`

	LineStates []bool `cbor:"line_states"`

	RawMeasurements       map[string][]uint16  `cbor:"raw_measurements"`
	ConvertedMeasurements map[string][]float64 `cbor:"converted_measurements"`
}

// BuildSnapshot reads unit under its own internal lock (via the exported
// accessor methods) and assembles one push tick's worth of telemetry.
func BuildSnapshot(apid pdumodel.APID, unit *pdumodel.PduUnit) Snapshot {
	status := unit.StatusSnapshot()
	heartbeat := unit.HeartbeatSnapshot()
	lines := unit.LineStatesSnapshot()

	raw := make(map[string][]uint16, pdumodel.LogicalUnitCount)
	converted := make(map[string][]float64, pdumodel.LogicalUnitCount)
	for lu := pdumodel.LogicalUnit(0); int(lu) < pdumodel.LogicalUnitCount; lu++ {
		raw[lu.Name()] = unit.RawMeasurements(lu)
		converted[lu.Name()] = unit.ConvertedMeasurements(lu)
	}

	return Snapshot{
		APID:                   uint16(apid),
		Timestamp:              time.Now(),
		Mode:                   uint8(status.Mode),
		CommandRejected:        status.Errors.CommandRejected,
		ChecksumFailed:         status.Errors.ChecksumFailed,
		UnknownCommand:         status.Errors.UnknownCommand,
		HardwareFault:          status.Errors.HardwareFault,
		UptimeTicks:            status.UptimeTicks,
		LastHeartbeatCounter:  heartbeat.LastReplyCounter,
		MissedHeartbeats:      heartbeat.MissedCount,
		LineStates:            append([]bool(nil), lines[:]...),
		RawMeasurements:       raw,
		ConvertedMeasurements: converted,
	}
}
