// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package protocol

import (
	"bytes"
	"testing"
)

func TestSerialFrameRoundTrip(t *testing.T) {
	cmd := Command{MessageID: MsgGetUnitLineStates, LogicalUnitID: 5, Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF}}
	buf, err := EncodeSerialFrameCommand(cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeSerialFrame(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.MessageID != cmd.MessageID || got.LogicalUnitID != cmd.LogicalUnitID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, cmd)
	}
	if !bytes.Equal(got.Payload, cmd.Payload) {
		t.Fatalf("payload mismatch: got %v, want %v", got.Payload, cmd.Payload)
	}
}

func TestSerialFrameEmptyPayload(t *testing.T) {
	cmd := Command{MessageID: MsgObcHeartBeat, LogicalUnitID: 0, Payload: nil}
	buf, err := EncodeSerialFrameCommand(cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSerialFrame(buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Payload) != 0 {
		t.Fatalf("expected empty payload, got %v", got.Payload)
	}
}

// TestFrameDecoderByteAtATime feeds a frame one byte at a time to mimic
// the serial endpoint's read loop, including leading noise before the
// opening delimiter.
func TestFrameDecoderByteAtATime(t *testing.T) {
	cmd := Command{MessageID: MsgPduGoSafe, LogicalUnitID: 1, Payload: []byte{0x01}}
	frame, err := EncodeSerialFrameCommand(cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	noisy := append([]byte{0x00, 0xFF, 0x12}, frame...)

	d := NewFrameDecoder()
	var got *Command
	for _, b := range noisy {
		c, err := d.DecodeByte(b)
		if err != nil {
			t.Fatalf("decode byte %#x: %v", b, err)
		}
		if c != nil {
			got = c
			break
		}
	}
	if got == nil {
		t.Fatal("decoder never produced a command")
	}
	if got.MessageID != cmd.MessageID || got.LogicalUnitID != cmd.LogicalUnitID {
		t.Fatalf("mismatch: got %+v, want %+v", got, cmd)
	}
}

func TestFrameDecoderBackToBackFrames(t *testing.T) {
	first := Command{MessageID: MsgObcHeartBeat, LogicalUnitID: 0, Payload: []byte{0x00, 0x01}}
	second := Command{MessageID: MsgPduGoOperate, LogicalUnitID: 0, Payload: nil}

	f1, _ := EncodeSerialFrameCommand(first)
	f2, _ := EncodeSerialFrameCommand(second)
	stream := append(f1, f2...)

	d := NewFrameDecoder()
	var decoded []Command
	for _, b := range stream {
		c, err := d.DecodeByte(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if c != nil {
			decoded = append(decoded, *c)
		}
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 frames decoded, got %d", len(decoded))
	}
	if decoded[0].MessageID != first.MessageID || decoded[1].MessageID != second.MessageID {
		t.Fatalf("frame order/content mismatch: %+v", decoded)
	}
}

func TestFrameDecoderMissingTrailingDelimiter(t *testing.T) {
	d := NewFrameDecoder()
	bad := []byte{0x55, byte(MsgObcHeartBeat), 0x00, 0x00, 0x00 /* wrong trailer */}
	var lastErr error
	for _, b := range bad {
		_, err := d.DecodeByte(b)
		if err != nil {
			lastErr = err
		}
	}
	if lastErr == nil {
		t.Fatal("expected malformed frame error for bad trailing delimiter")
	}
	de, ok := lastErr.(*DecodeError)
	if !ok || de.Kind != KindMalformedFrame {
		t.Fatalf("expected MalformedFrame, got %v", lastErr)
	}
}

func TestFrameDecoderRecoversAfterMalformedFrame(t *testing.T) {
	d := NewFrameDecoder()
	bad := []byte{0x55, byte(MsgObcHeartBeat), 0x00, 0x00, 0x00}
	for _, b := range bad {
		d.DecodeByte(b)
	}

	good := Command{MessageID: MsgGetPduStatus, LogicalUnitID: 0, Payload: nil}
	frame, _ := EncodeSerialFrameCommand(good)
	var got *Command
	for _, b := range frame {
		c, err := d.DecodeByte(b)
		if err != nil {
			t.Fatalf("unexpected error decoding recovery frame: %v", err)
		}
		if c != nil {
			got = c
		}
	}
	if got == nil || got.MessageID != MsgGetPduStatus {
		t.Fatalf("decoder did not recover cleanly: %+v", got)
	}
}

func TestDecodeSerialFrameRejectsTooShort(t *testing.T) {
	_, err := DecodeSerialFrame([]byte{0x55, 0x01})
	if err == nil {
		t.Fatal("expected error for undersized frame")
	}
}

func TestDecodeSerialFrameRejectsMissingDelimiter(t *testing.T) {
	frame, _ := EncodeSerialFrameCommand(Command{MessageID: MsgObcHeartBeat})
	frame[0] = 0x00
	_, err := DecodeSerialFrame(frame)
	if err == nil {
		t.Fatal("expected error for missing leading delimiter")
	}
}
