// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

// Package transport implements the two OBC-facing endpoints: a UDP
// Network Endpoint and an RS422 Serial Endpoint. Both decode one frame,
// hand it to the Dispatcher, and write the encoded response back to
// where the request came from.
package transport

import (
	"context"
	"errors"
	"log"
	"net"

	"github.com/obc-avionics/pdusim/internal/dispatcher"
	"github.com/obc-avionics/pdusim/internal/protocol"
)

// NetworkEndpoint binds a UDP socket and services one datagram at a time.
// Datagram boundaries equal Space Packet boundaries; it never attempts
// reassembly across datagrams.
type NetworkEndpoint struct {
	conn   *net.UDPConn
	disp   *dispatcher.Dispatcher
	logger *log.Logger
}

// ListenNetworkEndpoint binds addr and returns a ready-to-run
// NetworkEndpoint. A bind failure here is fatal to the process — the
// caller decides what to do with the error.
func ListenNetworkEndpoint(addr string, disp *dispatcher.Dispatcher, logger *log.Logger) (*NetworkEndpoint, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &NetworkEndpoint{conn: conn, disp: disp, logger: logger}, nil
}

// Addr returns the endpoint's bound local address.
func (e *NetworkEndpoint) Addr() net.Addr {
	return e.conn.LocalAddr()
}

// Close releases the underlying socket, unblocking a pending ReadFromUDP.
func (e *NetworkEndpoint) Close() error {
	return e.conn.Close()
}

// Run services datagrams until ctx is canceled or the socket is closed.
// Any per-datagram decode or dispatch error is logged and answered with a
// telemetry response; it never terminates the loop.
func (e *NetworkEndpoint) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		e.conn.Close()
	}()

	buf := make([]byte, protocol.SpacePacketMaxLength)
	for {
		n, peer, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			e.logger.Printf("network: read error: %v", err)
			continue
		}
		e.handleDatagram(append([]byte(nil), buf[:n]...), peer)
	}
}

func (e *NetworkEndpoint) handleDatagram(datagram []byte, peer *net.UDPAddr) {
	cmd, err := protocol.DecodeSpacePacket(datagram)
	if err != nil {
		de, ok := err.(*protocol.DecodeError)
		if !ok {
			e.logger.Printf("network: decode error: %v", err)
			return
		}
		e.logger.Printf("network: malformed datagram from %s: %v", peer, de)

		apid, recoverable := protocol.PeekSpacePacketAPID(datagram)
		if !recoverable {
			// Too short even to carry an APID: nothing to bump a counter
			// on and nothing meaningful to reply to.
			return
		}
		e.disp.RecordChecksumFailure(apid)
		e.reply(dispatcher.DecodeFailureResponse(apid, de.Kind), peer)
		return
	}

	resp, ok := e.disp.Dispatch(cmd)
	if !ok {
		return
	}
	e.reply(resp, peer)
}

func (e *NetworkEndpoint) reply(resp protocol.Response, peer *net.UDPAddr) {
	out, err := protocol.EncodeSpacePacket(resp)
	if err != nil {
		e.logger.Printf("network: encode error: %v", err)
		return
	}
	if _, err := e.conn.WriteToUDP(out, peer); err != nil {
		e.logger.Printf("network: write error to %s: %v", peer, err)
	}
}
