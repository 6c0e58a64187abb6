// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package protocol

import (
	"bytes"
	"testing"
)

func TestSpacePacketRoundTrip(t *testing.T) {
	cmd := Command{
		APID:          0x65,
		MessageID:     MsgSetUnitPwLines,
		LogicalUnitID: 3,
		SequenceCount: 42,
		Payload:       []byte{0x00, 0x00, 0x00, 0xFF},
	}
	buf, err := EncodeSpacePacketCommand(cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeSpacePacket(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.APID != cmd.APID || got.MessageID != cmd.MessageID || got.LogicalUnitID != cmd.LogicalUnitID || got.SequenceCount != cmd.SequenceCount {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, cmd)
	}
	if !bytes.Equal(got.Payload, cmd.Payload) {
		t.Fatalf("payload mismatch: got %v, want %v", got.Payload, cmd.Payload)
	}
}

func TestSpacePacketResponseRoundTrip(t *testing.T) {
	resp := Response{
		APID:          0x66,
		MessageID:     MsgGetPduStatus,
		LogicalUnitID: 0,
		SequenceCount: 7,
		Payload:       bytes.Repeat([]byte{0xAB}, 31),
	}
	buf, err := EncodeSpacePacket(resp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	cmd, err := DecodeSpacePacket(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.APID != resp.APID || cmd.MessageID != resp.MessageID || !bytes.Equal(cmd.Payload, resp.Payload) {
		t.Fatalf("round trip mismatch: got %+v", cmd)
	}
}

func TestSpacePacketEmptyPayload(t *testing.T) {
	cmd := Command{APID: 0x65, MessageID: MsgObcHeartBeat, LogicalUnitID: 0, Payload: nil}
	buf, err := EncodeSpacePacketCommand(cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSpacePacket(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Payload) != 0 {
		t.Fatalf("expected empty payload, got %v", got.Payload)
	}
}

func TestSpacePacketOversizedDatagramRejected(t *testing.T) {
	buf := make([]byte, SpacePacketMaxLength+1)
	_, err := DecodeSpacePacket(buf)
	if err == nil {
		t.Fatal("expected error for oversized datagram")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Kind != KindMalformedFrame {
		t.Fatalf("expected MalformedFrame DecodeError, got %v", err)
	}
}

func TestSpacePacketTooShortRejected(t *testing.T) {
	_, err := DecodeSpacePacket([]byte{0x08, 0x65, 0xC0})
	if err == nil {
		t.Fatal("expected error for undersized packet")
	}
}

func TestSpacePacketLengthMismatchRejected(t *testing.T) {
	buf, err := EncodeSpacePacketCommand(Command{APID: 0x65, MessageID: MsgObcHeartBeat, LogicalUnitID: 0, Payload: []byte{1, 2}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// corrupt the data-length field to claim one extra byte
	buf[5]++
	_, err = DecodeSpacePacket(buf)
	if err == nil {
		t.Fatal("expected error for packet data length mismatch")
	}
}

func TestSpacePacketTypeBit(t *testing.T) {
	cmdBuf, err := EncodeSpacePacketCommand(Command{APID: 0x65, MessageID: MsgObcHeartBeat})
	if err != nil {
		t.Fatalf("encode command: %v", err)
	}
	respBuf, err := EncodeSpacePacket(Response{APID: 0x65, MessageID: MsgObcHeartBeat})
	if err != nil {
		t.Fatalf("encode response: %v", err)
	}
	if (cmdBuf[0]>>4)&0x1 != TelecommandType {
		t.Fatalf("expected telecommand type bit set")
	}
	if (respBuf[0]>>4)&0x1 != TelemetryType {
		t.Fatalf("expected telemetry type bit clear")
	}
}
