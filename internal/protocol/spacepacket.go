// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package protocol

import (
	"encoding/binary"
	"fmt"
)

// DecodeSpacePacket parses a single CCSDS-style Space Packet: a 6-octet
// primary header followed by a 1-octet MessageID, a 1-octet
// LogicalUnitID, and the command-specific payload.
//
// Datagram boundaries equal packet boundaries — buf must contain exactly
// one packet.
func DecodeSpacePacket(buf []byte) (Command, error) {
	if len(buf) > SpacePacketMaxLength {
		return Command{}, &DecodeError{Kind: KindMalformedFrame, Msg: "oversized datagram"}
	}
	if len(buf) < SpacePacketHeaderSize+2 {
		return Command{}, &DecodeError{Kind: KindMalformedFrame, Msg: "space packet shorter than header+payload-id"}
	}

	apid := (uint16(buf[0]&0x07) << 8) | uint16(buf[1])
	seqCount := (uint16(buf[2]&0x3F) << 8) | uint16(buf[3])
	dataLength := int(binary.BigEndian.Uint16(buf[4:6])) + 1

	body := buf[SpacePacketHeaderSize:]
	if dataLength != len(body) {
		return Command{}, &DecodeError{Kind: KindMalformedFrame, Msg: fmt.Sprintf("packet data length %d does not match body length %d", dataLength, len(body))}
	}

	msgID := MessageID(body[0])
	luID := body[1]
	payload := append([]byte(nil), body[2:]...)

	return Command{
		APID:          apid,
		MessageID:     msgID,
		LogicalUnitID: luID,
		SequenceCount: seqCount,
		Payload:       payload,
	}, nil
}

// PeekSpacePacketAPID recovers the APID field from a datagram that failed
// full decode as a Space Packet. The APID occupies the first two octets
// of the primary header, ahead of the length field and body that
// DecodeSpacePacket validates, so it is recoverable from a malformed
// packet whenever at least those two octets arrived. ok is false only
// when the datagram is too short even for that.
func PeekSpacePacketAPID(buf []byte) (apid uint16, ok bool) {
	if len(buf) < 2 {
		return 0, false
	}
	return (uint16(buf[0]&0x07) << 8) | uint16(buf[1]), true
}

// EncodeSpacePacket serializes a Response as a CCSDS-style Space Packet
// with packet type = telemetry (type bit = 0).
func EncodeSpacePacket(r Response) ([]byte, error) {
	body := make([]byte, 2+len(r.Payload))
	body[0] = byte(r.MessageID)
	body[1] = r.LogicalUnitID
	copy(body[2:], r.Payload)

	dataLength := len(body) - 1
	if dataLength < 0 || dataLength > 0xFFFF {
		return nil, fmt.Errorf("protocol: packet data length %d out of range", dataLength)
	}

	const version, secHdrFlag, seqFlags = 0, 1, 0x3
	buf := make([]byte, SpacePacketHeaderSize+len(body))
	buf[0] = byte(version<<5) | byte(TelemetryType<<4) | byte(secHdrFlag<<3) | byte((r.APID>>8)&0x07)
	buf[1] = byte(r.APID & 0xFF)
	buf[2] = byte(seqFlags<<6) | byte((r.SequenceCount>>8)&0x3F)
	buf[3] = byte(r.SequenceCount & 0xFF)
	binary.BigEndian.PutUint16(buf[4:6], uint16(dataLength))
	copy(buf[SpacePacketHeaderSize:], body)

	return buf, nil
}

// EncodeSpacePacketCommand serializes a Command as a CCSDS-style Space
// Packet with packet type = telecommand (type bit = 1). Used by the
// control command, and by tests exercising the codec round trip.
func EncodeSpacePacketCommand(c Command) ([]byte, error) {
	body := make([]byte, 2+len(c.Payload))
	body[0] = byte(c.MessageID)
	body[1] = c.LogicalUnitID
	copy(body[2:], c.Payload)

	dataLength := len(body) - 1
	if dataLength < 0 || dataLength > 0xFFFF {
		return nil, fmt.Errorf("protocol: packet data length %d out of range", dataLength)
	}

	const version, secHdrFlag, seqFlags = 0, 1, 0x3
	buf := make([]byte, SpacePacketHeaderSize+len(body))
	buf[0] = byte(version<<5) | byte(TelecommandType<<4) | byte(secHdrFlag<<3) | byte((c.APID>>8)&0x07)
	buf[1] = byte(c.APID & 0xFF)
	buf[2] = byte(seqFlags<<6) | byte((c.SequenceCount>>8)&0x3F)
	buf[3] = byte(c.SequenceCount & 0xFF)
	binary.BigEndian.PutUint16(buf[4:6], uint16(dataLength))
	copy(buf[SpacePacketHeaderSize:], body)

	return buf, nil
}
