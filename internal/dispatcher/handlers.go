// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package dispatcher

import (
	"github.com/obc-avionics/pdusim/internal/pdumodel"
	"github.com/obc-avionics/pdusim/internal/protocol"
)

type handlerFunc func(u *pdumodel.PduUnit, cmd protocol.Command) (payload []byte, status protocol.StatusCode)

var handlers = map[protocol.MessageID]handlerFunc{
	protocol.MsgObcHeartBeat:             handleHeartbeat,
	protocol.MsgGetPduStatus:             handleGetStatus,
	protocol.MsgPduGoLoad:                modeTransitionHandler(pdumodel.ModeLoad),
	protocol.MsgPduGoOperate:             modeTransitionHandler(pdumodel.ModeOperate),
	protocol.MsgPduGoSafe:                modeTransitionHandler(pdumodel.ModeSafe),
	protocol.MsgPduGoMaintenance:         modeTransitionHandler(pdumodel.ModeMaintenance),
	protocol.MsgSetUnitPwLines:           lineMutationHandler(lineOpSet),
	protocol.MsgResetUnitPwLines:         lineMutationHandler(lineOpReset),
	protocol.MsgOverwriteUnitPwLines:     lineMutationHandler(lineOpOverwrite),
	protocol.MsgGetUnitLineStates:        handleGetUnitLineStates,
	protocol.MsgGetRawMeasurements:       handleGetRawMeasurements,
	protocol.MsgGetConvertedMeasurements: handleGetConvertedMeasurements,
}

func handleHeartbeat(u *pdumodel.PduUnit, cmd protocol.Command) ([]byte, protocol.StatusCode) {
	req, err := protocol.DecodeHeartbeatRequest(cmd.Payload)
	if err != nil {
		u.IncrementError(pdumodel.ErrorChecksumFailed)
		return protocol.HeartbeatResponse{Status: protocol.StatusMalformedFrame}.Encode(), protocol.StatusMalformedFrame
	}
	reply := u.RecordHeartbeat(req.Counter)
	return protocol.HeartbeatResponse{Status: protocol.StatusOK, Counter: reply}.Encode(), protocol.StatusOK
}

func handleGetStatus(u *pdumodel.PduUnit, cmd protocol.Command) ([]byte, protocol.StatusCode) {
	s := u.StatusSnapshot()
	resp := protocol.StatusResponse{
		Status:            protocol.StatusOK,
		Mode:              uint8(s.Mode),
		CommandRejected:   s.Errors.CommandRejected,
		ChecksumFailed:    s.Errors.ChecksumFailed,
		UnknownCommand:    s.Errors.UnknownCommand,
		HardwareFault:     s.Errors.HardwareFault,
		UptimeTicks:       s.UptimeTicks,
		ProtectionStatus:  s.ProtectionStatus,
		CommHwStatus:      s.CommHwStatus,
		CommSwStatus:      s.CommSwStatus,
		ConfigStatus:      s.ConfigStatus,
		BootTypeResetCode: s.BootTypeResetCode,
	}
	return resp.Encode(), protocol.StatusOK
}

// modeTransitionHandler builds a handler for the PduGoX command family: it
// validates the transition against the mode state machine and applies any
// side effects (PduGoSafe forces all lines off) through TransitionMode.
func modeTransitionHandler(to pdumodel.Mode) handlerFunc {
	return func(u *pdumodel.PduUnit, cmd protocol.Command) ([]byte, protocol.StatusCode) {
		status := protocol.StatusOK
		if !u.TryTransitionMode(to) {
			u.IncrementError(pdumodel.ErrorCommandRejected)
			status = protocol.StatusInvalidStateTransition
		}
		return protocol.SimpleStatusResponse{Status: status}.Encode(), status
	}
}

type lineOp int

const (
	lineOpSet lineOp = iota
	lineOpReset
	lineOpOverwrite
)

// lineMutationHandler builds a handler for SetUnitPwLines,
// ResetUnitPwLines, and OverwriteUnitPwLines: it resolves the Logical Unit
// ID, enforces the mode guard on line transitions, and applies op.
func lineMutationHandler(op lineOp) handlerFunc {
	return func(u *pdumodel.PduUnit, cmd protocol.Command) ([]byte, protocol.StatusCode) {
		lu, err := pdumodel.Lookup(cmd.LogicalUnitID)
		if err != nil {
			u.IncrementError(pdumodel.ErrorCommandRejected)
			return protocol.SimpleStatusResponse{Status: protocol.StatusUnknownLogicalUnit}.Encode(), protocol.StatusUnknownLogicalUnit
		}
		req, derr := protocol.DecodeLineMaskRequest(cmd.Payload)
		if derr != nil {
			u.IncrementError(pdumodel.ErrorChecksumFailed)
			return protocol.SimpleStatusResponse{Status: protocol.StatusMalformedFrame}.Encode(), protocol.StatusMalformedFrame
		}
		mask := uint64(req.Mask) & lu.FullMask()

		var applied bool
		switch op {
		case lineOpSet:
			applied = u.TrySetLines(lu, mask)
		case lineOpReset:
			applied = u.TryResetLines(lu, mask)
		case lineOpOverwrite:
			applied = u.TryOverwriteLines(lu, mask)
		}

		status := protocol.StatusOK
		if !applied {
			u.IncrementError(pdumodel.ErrorCommandRejected)
			status = protocol.StatusLineTransitionForbidden
		}
		return protocol.SimpleStatusResponse{Status: status}.Encode(), status
	}
}

func handleGetUnitLineStates(u *pdumodel.PduUnit, cmd protocol.Command) ([]byte, protocol.StatusCode) {
	lu, err := pdumodel.Lookup(cmd.LogicalUnitID)
	if err != nil {
		u.IncrementError(pdumodel.ErrorCommandRejected)
		return protocol.LineMaskResponse{Status: protocol.StatusUnknownLogicalUnit}.Encode(), protocol.StatusUnknownLogicalUnit
	}
	mask := u.LogicalUnitMask(lu)
	return protocol.LineMaskResponse{Status: protocol.StatusOK, Mask: uint32(mask)}.Encode(), protocol.StatusOK
}

func handleGetRawMeasurements(u *pdumodel.PduUnit, cmd protocol.Command) ([]byte, protocol.StatusCode) {
	lu, err := pdumodel.Lookup(cmd.LogicalUnitID)
	if err != nil {
		u.IncrementError(pdumodel.ErrorCommandRejected)
		buf, _ := protocol.RawMeasurementsResponse{Status: protocol.StatusUnknownLogicalUnit}.Encode()
		return buf, protocol.StatusUnknownLogicalUnit
	}
	samples := u.RawMeasurements(lu)
	buf, encErr := protocol.RawMeasurementsResponse{Status: protocol.StatusOK, Samples: samples}.Encode()
	if encErr != nil {
		buf, _ = protocol.RawMeasurementsResponse{Status: protocol.StatusHardwareFault}.Encode()
		return buf, protocol.StatusHardwareFault
	}
	return buf, protocol.StatusOK
}

func handleGetConvertedMeasurements(u *pdumodel.PduUnit, cmd protocol.Command) ([]byte, protocol.StatusCode) {
	lu, err := pdumodel.Lookup(cmd.LogicalUnitID)
	if err != nil {
		u.IncrementError(pdumodel.ErrorCommandRejected)
		buf, _ := protocol.ConvertedMeasurementsResponse{Status: protocol.StatusUnknownLogicalUnit}.Encode()
		return buf, protocol.StatusUnknownLogicalUnit
	}
	values := u.ConvertedMeasurements(lu)
	samples := make([]float32, len(values))
	for i, v := range values {
		samples[i] = float32(v)
	}
	buf, encErr := protocol.ConvertedMeasurementsResponse{Status: protocol.StatusOK, Samples: samples}.Encode()
	if encErr != nil {
		buf, _ = protocol.ConvertedMeasurementsResponse{Status: protocol.StatusHardwareFault}.Encode()
		return buf, protocol.StatusHardwareFault
	}
	return buf, protocol.StatusOK
}
