// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package transport

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/obc-avionics/pdusim/internal/dispatcher"
	"github.com/obc-avionics/pdusim/internal/pdumodel"
	"github.com/obc-avionics/pdusim/internal/protocol"
)

func TestNetworkEndpointHeartbeatRoundTrip(t *testing.T) {
	disp := dispatcher.New(pdumodel.NewStateManager(), log.New(io.Discard, "", 0))
	ep, err := ListenNetworkEndpoint("127.0.0.1:0", disp, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ep.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ep.Run(ctx) }()

	client, err := net.DialUDP("udp", nil, ep.Addr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	cmd := protocol.Command{
		APID:      uint16(pdumodel.APIDNominal),
		MessageID: protocol.MsgObcHeartBeat,
		Payload:   protocol.HeartbeatRequest{Counter: 0xBEEF}.Encode(),
	}
	buf, err := protocol.EncodeSpacePacketCommand(cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := client.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	respBuf := make([]byte, protocol.SpacePacketMaxLength)
	n, err := client.Read(respBuf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	resp, err := protocol.DecodeSpacePacket(respBuf[:n])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	hb, err := protocol.DecodeHeartbeatResponse(resp.Payload)
	if err != nil {
		t.Fatalf("decode heartbeat: %v", err)
	}
	if hb.Counter != 0xBEEF {
		t.Fatalf("counter = %#x, want 0xBEEF", hb.Counter)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestNetworkEndpointOversizedDatagramDropped(t *testing.T) {
	disp := dispatcher.New(pdumodel.NewStateManager(), log.New(io.Discard, "", 0))
	ep, err := ListenNetworkEndpoint("127.0.0.1:0", disp, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ep.Close()
	// handleDatagram is exercised directly since ReadFromUDP cannot
	// produce a datagram this large over loopback in a short test.
	ep.handleDatagram(make([]byte, protocol.SpacePacketMaxLength+1), &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1})
}

func TestNetworkEndpointMalformedDatagramRepliesAndIncrementsCounter(t *testing.T) {
	disp := dispatcher.New(pdumodel.NewStateManager(), log.New(io.Discard, "", 0))
	ep, err := ListenNetworkEndpoint("127.0.0.1:0", disp, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ep.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ep.Run(ctx) }()

	client, err := net.DialUDP("udp", nil, ep.Addr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	// Too short for a full primary header + payload id, but long enough to
	// carry the APID in its first two octets.
	apid := uint16(pdumodel.APIDNominal)
	malformed := []byte{byte(apid >> 8 & 0x07), byte(apid), 0x00, 0x00}
	if _, err := client.Write(malformed); err != nil {
		t.Fatalf("write: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	respBuf := make([]byte, protocol.SpacePacketMaxLength)
	n, err := client.Read(respBuf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	resp, err := protocol.DecodeSpacePacket(respBuf[:n])
	if err != nil {
		t.Fatalf("decode error reply: %v", err)
	}
	if resp.APID != apid {
		t.Fatalf("reply APID = %#x, want %#x", resp.APID, apid)
	}

	statusCmd := protocol.Command{APID: apid, MessageID: protocol.MsgGetPduStatus}
	statusBuf, _ := protocol.EncodeSpacePacketCommand(statusCmd)
	if _, err := client.Write(statusBuf); err != nil {
		t.Fatalf("write status request: %v", err)
	}
	n, err = client.Read(respBuf)
	if err != nil {
		t.Fatalf("read status reply: %v", err)
	}
	statusResp, err := protocol.DecodeSpacePacket(respBuf[:n])
	if err != nil {
		t.Fatalf("decode status reply: %v", err)
	}
	s, err := protocol.DecodeStatusResponse(statusResp.Payload)
	if err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if s.ChecksumFailed != 1 {
		t.Fatalf("checksum-failed = %d, want 1", s.ChecksumFailed)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
