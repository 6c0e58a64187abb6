// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package debugstream

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/obc-avionics/pdusim/internal/pdumodel"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func listenAddr(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestServerPushesSnapshots(t *testing.T) {
	states := pdumodel.NewStateManager()
	addr := listenAddr(t)
	srv := NewServer(addr, "", "", 20*time.Millisecond, states, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	waitForListener(t, addr)

	url := "ws://" + addr + "/telemetry"
	client, err := Dial(url, "", "")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	snap, err := client.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if snap.APID != uint16(pdumodel.APIDNominal) && snap.APID != uint16(pdumodel.APIDRedundant) {
		t.Fatalf("unexpected APID %#x", snap.APID)
	}
	if len(snap.LineStates) != pdumodel.LineCount {
		t.Fatalf("line states length = %d, want %d", len(snap.LineStates), pdumodel.LineCount)
	}
}

func TestServerRejectsBadCredentials(t *testing.T) {
	states := pdumodel.NewStateManager()
	addr := listenAddr(t)
	srv := NewServer(addr, "operator", "secret", 20*time.Millisecond, states, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)
	waitForListener(t, addr)

	url := "ws://" + addr + "/telemetry"
	if _, err := Dial(url, "operator", "wrong"); err == nil {
		t.Fatal("expected dial to fail with bad credentials")
	}

	client, err := Dial(url, "operator", "secret")
	if err != nil {
		t.Fatalf("Dial with correct credentials: %v", err)
	}
	defer client.Close()
}

func waitForListener(t *testing.T, addr string) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://" + addr + "/telemetry")
		if err == nil {
			resp.Body.Close()
			return
		}
		if strings.Contains(err.Error(), "connection refused") {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		return
	}
	t.Fatalf("server at %s never started listening", addr)
}
