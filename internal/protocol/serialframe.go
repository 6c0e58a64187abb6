// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package protocol

import "fmt"

// serial frame decoder states for the length-prefixed RS422 framing: no
// byte stuffing, no CRC, a bare 0x55 delimiter sanity-checked on the way
// out.
const (
	serialStateIdle = iota
	serialStateMessageID
	serialStateLogicalUnitID
	serialStateLength
	serialStatePayload
	serialStateEnd
)

// FrameDecoder implements the RS422 frame decoder state machine. It is
// driven one byte at a time by the Serial Endpoint, so a partial frame
// spanning multiple reads decodes correctly.
type FrameDecoder struct {
	state         int
	messageID     byte
	logicalUnitID byte
	payloadLen    byte
	payload       []byte
}

// NewFrameDecoder creates a serial frame decoder in the idle state.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{state: serialStateIdle}
}

// Reset returns the decoder to the idle state, discarding any in-progress frame.
func (d *FrameDecoder) Reset() {
	d.state = serialStateIdle
	d.payload = nil
}

// DecodeByte feeds one byte into the decoder. It returns a completed
// Command once a full frame has been read, or nil while the frame is
// still in progress. An error indicates a malformed frame (length
// mismatch or bad trailing delimiter); the decoder resets itself before
// returning an error so the caller can keep reading the next frame.
func (d *FrameDecoder) DecodeByte(b byte) (*Command, error) {
	switch d.state {
	case serialStateIdle:
		if b == SerialDelimiter {
			d.state = serialStateMessageID
		}
		return nil, nil

	case serialStateMessageID:
		d.messageID = b
		d.state = serialStateLogicalUnitID
		return nil, nil

	case serialStateLogicalUnitID:
		d.logicalUnitID = b
		d.state = serialStateLength
		return nil, nil

	case serialStateLength:
		d.payloadLen = b
		d.payload = make([]byte, 0, b)
		if b == 0 {
			d.state = serialStateEnd
		} else {
			d.state = serialStatePayload
		}
		return nil, nil

	case serialStatePayload:
		d.payload = append(d.payload, b)
		if len(d.payload) >= int(d.payloadLen) {
			d.state = serialStateEnd
		}
		return nil, nil

	case serialStateEnd:
		cmd := &Command{
			MessageID:     MessageID(d.messageID),
			LogicalUnitID: d.logicalUnitID,
			Payload:       d.payload,
		}
		d.Reset()
		if b != SerialDelimiter {
			return nil, &DecodeError{Kind: KindMalformedFrame, Msg: "missing trailing 0x55 sentinel"}
		}
		return cmd, nil

	default:
		d.Reset()
		return nil, &DecodeError{Kind: KindMalformedFrame, Msg: fmt.Sprintf("invalid decoder state %d", d.state)}
	}
}

// DecodeSerialFrame decodes exactly one complete, well-formed RS422 frame
// from buf. It is a convenience wrapper around FrameDecoder for callers
// (tests) that already have a whole frame in hand.
func DecodeSerialFrame(buf []byte) (Command, error) {
	if len(buf) < 2+SerialHeaderSize {
		return Command{}, &DecodeError{Kind: KindMalformedFrame, Msg: "frame shorter than minimum size"}
	}
	if buf[0] != SerialDelimiter {
		return Command{}, &DecodeError{Kind: KindMalformedFrame, Msg: "missing leading 0x55 delimiter"}
	}

	d := NewFrameDecoder()
	var cmd *Command
	var err error
	for _, b := range buf {
		cmd, err = d.DecodeByte(b)
		if err != nil {
			return Command{}, err
		}
		if cmd != nil {
			return *cmd, nil
		}
	}
	return Command{}, &DecodeError{Kind: KindMalformedFrame, Msg: "incomplete frame"}
}

// EncodeSerialFrame serializes a Response as an RS422 frame.
func EncodeSerialFrame(r Response) ([]byte, error) {
	if len(r.Payload) > SerialMaxPayloadSize {
		return nil, fmt.Errorf("protocol: serial payload too large: %d bytes", len(r.Payload))
	}
	buf := make([]byte, 0, 2+SerialHeaderSize+len(r.Payload))
	buf = append(buf, SerialDelimiter, byte(r.MessageID), r.LogicalUnitID, byte(len(r.Payload)))
	buf = append(buf, r.Payload...)
	buf = append(buf, SerialDelimiter)
	return buf, nil
}

// EncodeSerialFrameCommand serializes a Command as an RS422 frame. Used by
// the codec tests and by any client emulating the OBC over RS422.
func EncodeSerialFrameCommand(c Command) ([]byte, error) {
	if len(c.Payload) > SerialMaxPayloadSize {
		return nil, fmt.Errorf("protocol: serial payload too large: %d bytes", len(c.Payload))
	}
	buf := make([]byte, 0, 2+SerialHeaderSize+len(c.Payload))
	buf = append(buf, SerialDelimiter, byte(c.MessageID), c.LogicalUnitID, byte(len(c.Payload)))
	buf = append(buf, c.Payload...)
	buf = append(buf, SerialDelimiter)
	return buf, nil
}
