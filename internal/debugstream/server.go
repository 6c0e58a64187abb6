// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

package debugstream

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"

	"github.com/obc-avionics/pdusim/internal/pdumodel"
)

// Server pushes CBOR-encoded Snapshots of every PduUnit to each connected
// WebSocket client at a fixed cadence, protected by optional HTTP Basic
// auth. It never reads a client message and never influences dispatch.
type Server struct {
	states   *pdumodel.StateManager
	username string
	password string
	cadence  time.Duration
	logger   *log.Logger

	upgrader websocket.Upgrader
	http     *http.Server
}

// NewServer builds a Server bound to addr. An empty username disables
// Basic auth entirely.
func NewServer(addr, username, password string, cadence time.Duration, states *pdumodel.StateManager, logger *log.Logger) *Server {
	s := &Server{
		states:   states,
		username: username,
		password: password,
		cadence:  cadence,
		logger:   logger,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", s.requireAuth(s.handleTelemetry))
	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Run starts the HTTP server and blocks until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.username == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="pdusim debug stream"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("debugstream: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()

	for range ticker.C {
		for apid, unit := range s.states.Units() {
			snap := BuildSnapshot(apid, unit)
			body, err := cbor.Marshal(snap)
			if err != nil {
				s.logger.Printf("debugstream: encode snapshot: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, body); err != nil {
				s.logger.Printf("debugstream: write failed, dropping client: %v", err)
				return
			}
		}
	}
}
