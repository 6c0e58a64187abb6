// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HeartbeatRequest is ObcHeartBeat's command payload: a 16-bit OBC counter.
type HeartbeatRequest struct {
	Counter uint16
}

// DecodeHeartbeatRequest parses an ObcHeartBeat payload.
func DecodeHeartbeatRequest(payload []byte) (HeartbeatRequest, error) {
	if len(payload) < 2 {
		return HeartbeatRequest{}, &DecodeError{Kind: KindMalformedFrame, Msg: "heartbeat payload too short"}
	}
	return HeartbeatRequest{Counter: binary.BigEndian.Uint16(payload[:2])}, nil
}

// Encode serializes a HeartbeatRequest payload.
func (r HeartbeatRequest) Encode() []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, r.Counter)
	return buf
}

// HeartbeatResponse echoes the PDU's reply counter.
type HeartbeatResponse struct {
	Status  StatusCode
	Counter uint16
}

// Encode serializes a HeartbeatResponse payload.
func (r HeartbeatResponse) Encode() []byte {
	buf := make([]byte, 3)
	buf[0] = byte(r.Status)
	binary.BigEndian.PutUint16(buf[1:3], r.Counter)
	return buf
}

// DecodeHeartbeatResponse parses a HeartbeatResponse payload (used by
// tests).
func DecodeHeartbeatResponse(payload []byte) (HeartbeatResponse, error) {
	if len(payload) < 3 {
		return HeartbeatResponse{}, &DecodeError{Kind: KindMalformedFrame, Msg: "heartbeat response too short"}
	}
	return HeartbeatResponse{Status: StatusCode(payload[0]), Counter: binary.BigEndian.Uint16(payload[1:3])}, nil
}

// StatusResponse is GetPduStatus's response payload, including the
// ICD-derived counters and status fields beyond the core mode/heartbeat
// state.
type StatusResponse struct {
	Status StatusCode
	Mode   uint8

	CommandRejected uint32
	ChecksumFailed  uint32
	UnknownCommand  uint32
	HardwareFault   uint32
	UptimeTicks     uint64

	ProtectionStatus  uint8
	CommHwStatus      uint8
	CommSwStatus      uint8
	ConfigStatus      uint8
	BootTypeResetCode uint8
}

const statusResponseSize = 1 + 1 + 4*4 + 8 + 5

// Encode serializes a StatusResponse payload.
func (r StatusResponse) Encode() []byte {
	buf := make([]byte, statusResponseSize)
	buf[0] = byte(r.Status)
	buf[1] = r.Mode
	binary.BigEndian.PutUint32(buf[2:6], r.CommandRejected)
	binary.BigEndian.PutUint32(buf[6:10], r.ChecksumFailed)
	binary.BigEndian.PutUint32(buf[10:14], r.UnknownCommand)
	binary.BigEndian.PutUint32(buf[14:18], r.HardwareFault)
	binary.BigEndian.PutUint64(buf[18:26], r.UptimeTicks)
	buf[26] = r.ProtectionStatus
	buf[27] = r.CommHwStatus
	buf[28] = r.CommSwStatus
	buf[29] = r.ConfigStatus
	buf[30] = r.BootTypeResetCode
	return buf
}

// DecodeStatusResponse parses a GetPduStatus response payload.
func DecodeStatusResponse(payload []byte) (StatusResponse, error) {
	if len(payload) < statusResponseSize {
		return StatusResponse{}, &DecodeError{Kind: KindMalformedFrame, Msg: "status response too short"}
	}
	return StatusResponse{
		Status:            StatusCode(payload[0]),
		Mode:              payload[1],
		CommandRejected:   binary.BigEndian.Uint32(payload[2:6]),
		ChecksumFailed:    binary.BigEndian.Uint32(payload[6:10]),
		UnknownCommand:    binary.BigEndian.Uint32(payload[10:14]),
		HardwareFault:     binary.BigEndian.Uint32(payload[14:18]),
		UptimeTicks:       binary.BigEndian.Uint64(payload[18:26]),
		ProtectionStatus:  payload[26],
		CommHwStatus:      payload[27],
		CommSwStatus:      payload[28],
		ConfigStatus:      payload[29],
		BootTypeResetCode: payload[30],
	}, nil
}

// LineMaskRequest is the shared payload for SetUnitPwLines,
// ResetUnitPwLines, and OverwriteUnitPwLines: a 32-bit mask selecting
// lines within the LogicalUnitID already carried in the frame header.
type LineMaskRequest struct {
	Mask uint32
}

// DecodeLineMaskRequest parses a Set/Reset/OverwriteUnitPwLines payload.
func DecodeLineMaskRequest(payload []byte) (LineMaskRequest, error) {
	if len(payload) < 4 {
		return LineMaskRequest{}, &DecodeError{Kind: KindMalformedFrame, Msg: "line mask payload too short"}
	}
	return LineMaskRequest{Mask: binary.BigEndian.Uint32(payload[:4])}, nil
}

// Encode serializes a LineMaskRequest payload (used by the control command
// and tests to build commands).
func (r LineMaskRequest) Encode() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, r.Mask)
	return buf
}

// LineMaskResponse is GetUnitLineStates's response payload.
type LineMaskResponse struct {
	Status StatusCode
	Mask   uint32
}

// Encode serializes a LineMaskResponse payload.
func (r LineMaskResponse) Encode() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(r.Status)
	binary.BigEndian.PutUint32(buf[1:5], r.Mask)
	return buf
}

// DecodeLineMaskResponse parses a GetUnitLineStates response payload.
func DecodeLineMaskResponse(payload []byte) (LineMaskResponse, error) {
	if len(payload) < 5 {
		return LineMaskResponse{}, &DecodeError{Kind: KindMalformedFrame, Msg: "line mask response too short"}
	}
	return LineMaskResponse{Status: StatusCode(payload[0]), Mask: binary.BigEndian.Uint32(payload[1:5])}, nil
}

// SimpleStatusResponse is the response payload for commands that carry no
// data beyond success/failure (the PduGoX family and the three
// line-mutating commands).
type SimpleStatusResponse struct {
	Status StatusCode
}

// Encode serializes a SimpleStatusResponse payload.
func (r SimpleStatusResponse) Encode() []byte {
	return []byte{byte(r.Status)}
}

// DecodeSimpleStatusResponse parses a single-status-byte response payload.
func DecodeSimpleStatusResponse(payload []byte) (SimpleStatusResponse, error) {
	if len(payload) < 1 {
		return SimpleStatusResponse{}, &DecodeError{Kind: KindMalformedFrame, Msg: "status response empty"}
	}
	return SimpleStatusResponse{Status: StatusCode(payload[0])}, nil
}

// RawMeasurementsResponse is GetRawMeasurements's response payload: the
// 12-bit ADC samples for one logical unit's instrumented channels.
type RawMeasurementsResponse struct {
	Status  StatusCode
	Samples []uint16
}

// Encode serializes a RawMeasurementsResponse payload.
func (r RawMeasurementsResponse) Encode() ([]byte, error) {
	if len(r.Samples) > 0xFF {
		return nil, fmt.Errorf("protocol: too many raw samples: %d", len(r.Samples))
	}
	buf := make([]byte, 2+2*len(r.Samples))
	buf[0] = byte(r.Status)
	buf[1] = byte(len(r.Samples))
	for i, s := range r.Samples {
		binary.BigEndian.PutUint16(buf[2+2*i:4+2*i], s)
	}
	return buf, nil
}

// DecodeRawMeasurementsResponse parses a GetRawMeasurements response payload.
func DecodeRawMeasurementsResponse(payload []byte) (RawMeasurementsResponse, error) {
	if len(payload) < 2 {
		return RawMeasurementsResponse{}, &DecodeError{Kind: KindMalformedFrame, Msg: "raw measurements response too short"}
	}
	count := int(payload[1])
	if len(payload) < 2+2*count {
		return RawMeasurementsResponse{}, &DecodeError{Kind: KindMalformedFrame, Msg: "raw measurements response truncated"}
	}
	samples := make([]uint16, count)
	for i := 0; i < count; i++ {
		samples[i] = binary.BigEndian.Uint16(payload[2+2*i : 4+2*i])
	}
	return RawMeasurementsResponse{Status: StatusCode(payload[0]), Samples: samples}, nil
}

// ConvertedMeasurementsResponse is GetConvertedMeasurements's response
// payload: engineering-unit values (IEEE-754 single precision) for one
// logical unit's instrumented channels.
type ConvertedMeasurementsResponse struct {
	Status  StatusCode
	Samples []float32
}

// Encode serializes a ConvertedMeasurementsResponse payload.
func (r ConvertedMeasurementsResponse) Encode() ([]byte, error) {
	if len(r.Samples) > 0xFF {
		return nil, fmt.Errorf("protocol: too many converted samples: %d", len(r.Samples))
	}
	buf := make([]byte, 2+4*len(r.Samples))
	buf[0] = byte(r.Status)
	buf[1] = byte(len(r.Samples))
	for i, s := range r.Samples {
		binary.BigEndian.PutUint32(buf[2+4*i:6+4*i], math.Float32bits(s))
	}
	return buf, nil
}

// DecodeConvertedMeasurementsResponse parses a GetConvertedMeasurements
// response payload.
func DecodeConvertedMeasurementsResponse(payload []byte) (ConvertedMeasurementsResponse, error) {
	if len(payload) < 2 {
		return ConvertedMeasurementsResponse{}, &DecodeError{Kind: KindMalformedFrame, Msg: "converted measurements response too short"}
	}
	count := int(payload[1])
	if len(payload) < 2+4*count {
		return ConvertedMeasurementsResponse{}, &DecodeError{Kind: KindMalformedFrame, Msg: "converted measurements response truncated"}
	}
	samples := make([]float32, count)
	for i := 0; i < count; i++ {
		samples[i] = math.Float32frombits(binary.BigEndian.Uint32(payload[2+4*i : 6+4*i]))
	}
	return ConvertedMeasurementsResponse{Status: StatusCode(payload[0]), Samples: samples}, nil
}
