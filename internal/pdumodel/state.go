// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package pdumodel

import (
	"sync"
	"time"
)

// APID is the CCSDS Application Process Identifier used to select a PDU unit.
type APID uint16

// The two PDU units this core manages, keyed by APID.
const (
	APIDNominal   APID = 0x65
	APIDRedundant APID = 0x66
)

// Mode is the PDU's current operating mode.
type Mode uint8

const (
	ModeBoot        Mode = 0
	ModeLoad        Mode = 1
	ModeOperate     Mode = 2
	ModeSafe        Mode = 3
	ModeMaintenance Mode = 4
)

func (m Mode) String() string {
	switch m {
	case ModeBoot:
		return "Boot"
	case ModeLoad:
		return "Load"
	case ModeOperate:
		return "Operate"
	case ModeSafe:
		return "Safe"
	case ModeMaintenance:
		return "Maintenance"
	default:
		return "Unknown"
	}
}

// Heartbeat is the OBC heartbeat exchange state.
type Heartbeat struct {
	LastReceivedCounter uint16
	LastReplyCounter    uint16
	LastExchange        time.Time

	// MissedCount is carried for the telemetry shape but never incremented:
	// detecting a missed heartbeat needs a cadence expectation the OBC
	// never communicates over this link, so nothing here drives it. Always
	// zero.
	MissedCount uint32
}

// ErrorCounters tallies the command-level failure kinds.
type ErrorCounters struct {
	CommandRejected uint32
	ChecksumFailed  uint32
	UnknownCommand  uint32
	HardwareFault   uint32
}

// Status is the PDU's mode, error counters, and uptime.
type Status struct {
	Mode          Mode
	Errors        ErrorCounters
	UptimeTicks   uint64
	bootTime      time.Time

	// ICD-shaped fields beyond the core mode/heartbeat/error state.
	// Always zero: no protection circuitry or boot-type detection exists
	// in this simulator, but the fields are preserved so GetPduStatus
	// responses carry the full ICD payload shape.
	ProtectionStatus uint8
	CommHwStatus     uint8
	CommSwStatus     uint8
	ConfigStatus     uint8
	BootTypeResetCode uint8
}

// PduUnit is the full state of one PDU (nominal or redundant): mode,
// heartbeat, error counters, per-line enable status, and raw/engineering
// measurements.
type PduUnit struct {
	mu sync.Mutex

	heartbeat  Heartbeat
	status     Status
	lineStates [LineCount]bool

	rawMeasurements       [logicalUnitCount]Measurements
	convertedMeasurements [logicalUnitCount]Measurements
}

func newPduUnit() *PduUnit {
	u := &PduUnit{}
	u.status.Mode = ModeBoot
	u.status.bootTime = time.Now()
	for lu := LogicalUnit(0); lu < logicalUnitCount; lu++ {
		m := synthesizeMeasurements(lu, 0)
		u.rawMeasurements[lu] = m
		u.convertedMeasurements[lu] = m
	}
	return u
}

// Mode returns the unit's current mode.
func (u *PduUnit) Mode() Mode {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.status.Mode
}

// StatusSnapshot returns a copy of the unit's status sub-state.
func (u *PduUnit) StatusSnapshot() Status {
	u.mu.Lock()
	defer u.mu.Unlock()
	s := u.status
	s.UptimeTicks = uint64(time.Since(u.status.bootTime) / time.Second)
	return s
}

// HeartbeatSnapshot returns a copy of the unit's heartbeat sub-state.
func (u *PduUnit) HeartbeatSnapshot() Heartbeat {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.heartbeat
}

// RecordHeartbeat updates the heartbeat sub-state with an OBC counter.
// The reply counter always equals the received counter.
func (u *PduUnit) RecordHeartbeat(counter uint16) (replyCounter uint16) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.heartbeat.LastReceivedCounter = counter
	u.heartbeat.LastReplyCounter = counter
	u.heartbeat.LastExchange = time.Now()
	return counter
}

// LineStatesSnapshot returns a copy of the full 71-line vector.
func (u *PduUnit) LineStatesSnapshot() [LineCount]bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lineStates
}

// LogicalUnitMask returns the bits currently enabled within a logical unit,
// relative to that unit's own line range.
func (u *PduUnit) LogicalUnitMask(lu LogicalUnit) uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.logicalUnitMaskLocked(lu)
}

func (u *PduUnit) logicalUnitMaskLocked(lu LogicalUnit) uint64 {
	first, count := lu.Range()
	var mask uint64
	for i := 0; i < count; i++ {
		if u.lineStates[first+i] {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// applyLogicalUnitMaskLocked writes mask (relative to lu's own range) back
// into the absolute 71-line vector and resynthesizes that unit's
// measurements.
func (u *PduUnit) applyLogicalUnitMaskLocked(lu LogicalUnit, mask uint64) {
	first, count := lu.Range()
	for i := 0; i < count; i++ {
		u.lineStates[first+i] = mask&(1<<uint(i)) != 0
	}
	m := synthesizeMeasurements(lu, mask)
	u.rawMeasurements[lu] = m
	u.convertedMeasurements[lu] = m
}

// SetLines enables every line in lu selected by bits in mask, leaving
// unselected lines untouched.
func (u *PduUnit) SetLines(lu LogicalUnit, mask uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	cur := u.logicalUnitMaskLocked(lu)
	u.applyLogicalUnitMaskLocked(lu, cur|mask)
}

// ResetLines disables every line in lu selected by bits in mask.
func (u *PduUnit) ResetLines(lu LogicalUnit, mask uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	cur := u.logicalUnitMaskLocked(lu)
	u.applyLogicalUnitMaskLocked(lu, cur&^mask)
}

// OverwriteLines assigns every line in lu to the corresponding bit in mask.
func (u *PduUnit) OverwriteLines(lu LogicalUnit, mask uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.applyLogicalUnitMaskLocked(lu, mask)
}

// ForceAllLinesOff clears every one of the 71 lines and resynthesizes
// every logical unit's measurements.
func (u *PduUnit) ForceAllLinesOff() {
	u.mu.Lock()
	defer u.mu.Unlock()
	for lu := LogicalUnit(0); lu < logicalUnitCount; lu++ {
		u.applyLogicalUnitMaskLocked(lu, 0)
	}
}

// RawMeasurements returns the raw ADC samples belonging to a logical unit.
func (u *PduUnit) RawMeasurements(lu LogicalUnit) []uint16 {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]uint16, len(u.rawMeasurements[lu].Raw))
	copy(out, u.rawMeasurements[lu].Raw)
	return out
}

// ConvertedMeasurements returns the engineering-unit values belonging to a
// logical unit.
func (u *PduUnit) ConvertedMeasurements(lu LogicalUnit) []float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]float64, len(u.convertedMeasurements[lu].Converted))
	copy(out, u.convertedMeasurements[lu].Converted)
	return out
}

// TransitionMode performs an already-validated mode transition and applies
// any side effects (PduGoSafe forces all lines off).
func (u *PduUnit) TransitionMode(to Mode) {
	u.mu.Lock()
	u.status.Mode = to
	u.mu.Unlock()
	if to == ModeSafe {
		u.ForceAllLinesOff()
	}
}

// TryTransitionMode validates and applies a mode transition atomically. It
// reports false, leaving the mode unchanged, when the transition is not
// legal from the unit's current mode.
func (u *PduUnit) TryTransitionMode(to Mode) bool {
	u.mu.Lock()
	if !CanTransition(u.status.Mode, to) {
		u.mu.Unlock()
		return false
	}
	u.status.Mode = to
	forceOff := to == ModeSafe
	u.mu.Unlock()
	if forceOff {
		u.ForceAllLinesOff()
	}
	return true
}

// TrySetLines, TryResetLines, and TryOverwriteLines apply the
// corresponding line mutation only if the unit's current mode permits
// line transitions; they report false, leaving state unchanged, otherwise.
func (u *PduUnit) TrySetLines(lu LogicalUnit, mask uint64) bool {
	return u.tryMutateLines(lu, mask, func(cur, mask uint64) uint64 { return cur | mask })
}

func (u *PduUnit) TryResetLines(lu LogicalUnit, mask uint64) bool {
	return u.tryMutateLines(lu, mask, func(cur, mask uint64) uint64 { return cur &^ mask })
}

func (u *PduUnit) TryOverwriteLines(lu LogicalUnit, mask uint64) bool {
	return u.tryMutateLines(lu, mask, func(cur, mask uint64) uint64 { return mask })
}

func (u *PduUnit) tryMutateLines(lu LogicalUnit, mask uint64, combine func(cur, mask uint64) uint64) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !CanMutateLines(u.status.Mode) {
		return false
	}
	cur := u.logicalUnitMaskLocked(lu)
	u.applyLogicalUnitMaskLocked(lu, combine(cur, mask))
	return true
}

// IncrementError bumps one of the four error counters.
func (u *PduUnit) IncrementError(kind ErrorKind) {
	u.mu.Lock()
	defer u.mu.Unlock()
	switch kind {
	case ErrorCommandRejected:
		u.status.Errors.CommandRejected++
	case ErrorChecksumFailed:
		u.status.Errors.ChecksumFailed++
	case ErrorUnknownCommand:
		u.status.Errors.UnknownCommand++
	case ErrorHardwareFault:
		u.status.Errors.HardwareFault++
	}
}

// ErrorKind selects which error counter IncrementError bumps.
type ErrorKind int

const (
	ErrorCommandRejected ErrorKind = iota
	ErrorChecksumFailed
	ErrorUnknownCommand
	ErrorHardwareFault
)

// Snapshot captures everything the Hardware Projector needs to drive GPIO
// output for one cycle, taken under the unit's lock.
type Snapshot struct {
	LineStates [LineCount]bool
}

// SnapshotLines returns the current 71-line vector for the Hardware
// Projector, without exposing the unit's internal lock to callers outside
// this package.
func (u *PduUnit) SnapshotLines() Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()
	return Snapshot{LineStates: u.lineStates}
}

// CommitMeasurements atomically writes new raw/converted samples for one
// logical unit's ADC channels. The caller — the Hardware Projector —
// performs I2C sampling before calling this, and never holds the unit's
// lock across that I/O.
func (u *PduUnit) CommitMeasurements(lu LogicalUnit, raw []uint16, coeff func(uint16) float64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	conv := make([]float64, len(raw))
	for i, r := range raw {
		conv[i] = coeff(r)
	}
	u.rawMeasurements[lu] = Measurements{Raw: append([]uint16(nil), raw...), Converted: conv}
	u.convertedMeasurements[lu] = Measurements{Raw: append([]uint16(nil), raw...), Converted: conv}
}

// StateManager manages state for both the nominal and redundant PDU units.
type StateManager struct {
	nominal   *PduUnit
	redundant *PduUnit
}

// NewStateManager creates both units with all lines disabled, mode Boot,
// and zeroed counters.
func NewStateManager() *StateManager {
	return &StateManager{
		nominal:   newPduUnit(),
		redundant: newPduUnit(),
	}
}

// Unit returns the PduUnit addressed by apid. Unrecognized APIDs resolve to
// the redundant unit's storage only in the sense that the caller is
// expected to have already validated the APID is one this core owns —
// the dispatcher ignores unknown APIDs silently before ever calling Unit.
func (m *StateManager) Unit(apid APID) *PduUnit {
	if apid == APIDNominal {
		return m.nominal
	}
	return m.redundant
}

// Owns reports whether apid is one of the two APIDs this core manages.
func (m *StateManager) Owns(apid APID) bool {
	return apid == APIDNominal || apid == APIDRedundant
}

// Units returns both units paired with their APID, for callers (the
// Hardware Projector, the debug stream) that iterate over everything.
func (m *StateManager) Units() map[APID]*PduUnit {
	return map[APID]*PduUnit{
		APIDNominal:   m.nominal,
		APIDRedundant: m.redundant,
	}
}
