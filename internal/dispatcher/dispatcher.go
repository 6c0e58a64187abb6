// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

// Package dispatcher maps a decoded command to a handler, validates mode
// and line-transition preconditions against the addressed PduUnit, and
// produces the encoded response payload. It owns no concurrency of its
// own — each endpoint calls Dispatch synchronously on its own goroutine.
package dispatcher

import (
	"log"

	"github.com/obc-avionics/pdusim/internal/pdumodel"
	"github.com/obc-avionics/pdusim/internal/protocol"
)

// Dispatcher routes decoded commands to the state manager and builds
// responses.
type Dispatcher struct {
	states *pdumodel.StateManager
	logger *log.Logger
}

// New creates a Dispatcher over the given state manager.
func New(states *pdumodel.StateManager, logger *log.Logger) *Dispatcher {
	return &Dispatcher{states: states, logger: logger}
}

// Dispatch executes cmd against the addressed PduUnit and returns the
// response to send back on the same transport. ok is false when the APID
// is not one this core owns — the caller must drop the command silently
// rather than reply.
func (d *Dispatcher) Dispatch(cmd protocol.Command) (resp protocol.Response, ok bool) {
	if !d.states.Owns(pdumodel.APID(cmd.APID)) {
		return protocol.Response{}, false
	}
	unit := d.states.Unit(pdumodel.APID(cmd.APID))

	handler, known := handlers[cmd.MessageID]
	if !known {
		unit.IncrementError(pdumodel.ErrorUnknownCommand)
		return protocol.NewErrorResponse(cmd.APID, cmd.MessageID, cmd.LogicalUnitID, cmd.SequenceCount, protocol.StatusUnknownMessage), true
	}

	payload, status := handler(unit, cmd)
	if status != protocol.StatusOK {
		d.logger.Printf("dispatch: apid=%#x msg=%s lu=%d status=%v", cmd.APID, cmd.MessageID, cmd.LogicalUnitID, status)
	}
	return protocol.Response{
		APID:          cmd.APID,
		MessageID:     cmd.MessageID,
		LogicalUnitID: cmd.LogicalUnitID,
		SequenceCount: cmd.SequenceCount,
		Payload:       payload,
	}, true
}

// RecordChecksumFailure increments the checksum-failed counter on the
// unit addressed by apid. It is for endpoints that detect a framing-level
// decode failure (a missing trailing sentinel, a length mismatch) before
// a Command is ever successfully decoded, so Dispatch is never called and
// never gets a chance to bump the counter itself. apid must already be
// known to the caller, as it is for the Serial Endpoint (wired to exactly
// one PDU unit at construction).
func (d *Dispatcher) RecordChecksumFailure(apid uint16) {
	if !d.states.Owns(pdumodel.APID(apid)) {
		return
	}
	d.states.Unit(pdumodel.APID(apid)).IncrementError(pdumodel.ErrorChecksumFailed)
}

// DecodeFailureResponse builds the telemetry response for a codec-level
// decode failure (MalformedFrame or UnknownMessage). It carries no
// LogicalUnitID or MessageID from the sender since the frame could not be
// parsed far enough to recover them.
func DecodeFailureResponse(apid uint16, kind protocol.ErrorKind) protocol.Response {
	return protocol.NewErrorResponse(apid, protocol.MsgInvalid, 0, 0, kind.Status())
}
