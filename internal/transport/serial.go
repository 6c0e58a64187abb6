// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package transport

import (
	"context"
	"log"
	"time"

	"go.bug.st/serial"

	"github.com/obc-avionics/pdusim/internal/dispatcher"
	"github.com/obc-avionics/pdusim/internal/protocol"
)

const (
	serialReadPoll   = 200 * time.Millisecond
	minReopenBackoff = 100 * time.Millisecond
	maxReopenBackoff = 5 * time.Second
)

// SerialEndpoint services RS422 frames over a serial device, reopening the
// device with bounded exponential backoff on I/O error.
//
// Unlike a Space Packet, an RS422 frame carries no APID — the wire format
// is MessageID|LogicalUnitID|Payload only. A serial link is therefore
// wired to exactly one PDU unit at construction time; apid supplies the
// APID the dispatcher needs to route every frame this device carries.
type SerialEndpoint struct {
	devicePath string
	baud       int
	apid       uint16
	disp       *dispatcher.Dispatcher
	logger     *log.Logger
}

// NewSerialEndpoint builds a SerialEndpoint for devicePath at baud,
// addressing apid for every frame it decodes. Unlike the Network
// Endpoint, opening the device is deferred to Run so that a transient
// open failure after startup triggers reconnection rather than returning
// an error from construction.
func NewSerialEndpoint(devicePath string, baud int, apid uint16, disp *dispatcher.Dispatcher, logger *log.Logger) *SerialEndpoint {
	return &SerialEndpoint{devicePath: devicePath, baud: baud, apid: apid, disp: disp, logger: logger}
}

// Open performs a single synchronous open, used at startup so a bad
// device path fails the process immediately instead of retrying forever.
func (e *SerialEndpoint) Open() (serial.Port, error) {
	return serial.Open(e.devicePath, &serial.Mode{
		BaudRate: e.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
}

// Run services frames until ctx is canceled. On I/O error it logs, closes
// the device, waits a bounded exponential backoff, and reopens.
func (e *SerialEndpoint) Run(ctx context.Context) error {
	backoff := minReopenBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}
		port, err := e.Open()
		if err != nil {
			e.logger.Printf("serial: open %s failed: %v", e.devicePath, err)
			if !sleepOrDone(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minReopenBackoff
		e.serviceDevice(ctx, port)
		port.Close()
		if !sleepOrDone(ctx, backoff) {
			return nil
		}
	}
}

func nextBackoff(cur time.Duration) time.Duration {
	next := cur * 2
	if next > maxReopenBackoff {
		return maxReopenBackoff
	}
	return next
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// serviceDevice reads and dispatches frames from an open port until
// cancellation or an I/O error, then returns so Run can reopen.
func (e *SerialEndpoint) serviceDevice(ctx context.Context, port serial.Port) {
	if err := port.SetReadTimeout(serialReadPoll); err != nil {
		e.logger.Printf("serial: set read timeout: %v", err)
		return
	}

	decoder := protocol.NewFrameDecoder()
	buf := make([]byte, 256)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := port.Read(buf)
		if err != nil {
			e.logger.Printf("serial: read error: %v", err)
			return
		}
		if n == 0 {
			// Poll timeout with no data: loop back to check cancellation.
			continue
		}
		for _, b := range buf[:n] {
			cmd, derr := decoder.DecodeByte(b)
			if derr != nil {
				e.logger.Printf("serial: malformed frame: %v", derr)
				e.disp.RecordChecksumFailure(e.apid)
				kind := protocol.KindMalformedFrame
				if de, ok := derr.(*protocol.DecodeError); ok {
					kind = de.Kind
				}
				if err := e.replyError(port, kind); err != nil {
					e.logger.Printf("serial: write error: %v", err)
					return
				}
				continue
			}
			if cmd == nil {
				continue
			}
			cmd.APID = e.apid
			if err := e.handleCommand(port, *cmd); err != nil {
				e.logger.Printf("serial: write error: %v", err)
				return
			}
		}
	}
}

func (e *SerialEndpoint) handleCommand(port serial.Port, cmd protocol.Command) error {
	resp, ok := e.disp.Dispatch(cmd)
	if !ok {
		return nil
	}
	out, err := protocol.EncodeSerialFrame(resp)
	if err != nil {
		e.logger.Printf("serial: encode error: %v", err)
		return nil
	}
	_, err = port.Write(out)
	return err
}

// replyError sends the malformed-frame telemetry response back on the
// same device, mirroring the Network Endpoint's reply to a decode
// failure.
func (e *SerialEndpoint) replyError(port serial.Port, kind protocol.ErrorKind) error {
	out, err := protocol.EncodeSerialFrame(dispatcher.DecodeFailureResponse(e.apid, kind))
	if err != nil {
		e.logger.Printf("serial: encode error: %v", err)
		return nil
	}
	_, err = port.Write(out)
	return err
}
