// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

// Package supervisor starts the configured subset of endpoints against a
// freshly created dual-PDU state store, and shuts them down cleanly on
// cancellation.
package supervisor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/obc-avionics/pdusim/internal/config"
	"github.com/obc-avionics/pdusim/internal/dispatcher"
	"github.com/obc-avionics/pdusim/internal/hardware"
	"github.com/obc-avionics/pdusim/internal/pdumodel"
	"github.com/obc-avionics/pdusim/internal/transport"
)

// shutdownGrace bounds how long Run waits for endpoints to notice
// cancellation and return before giving up and returning anyway.
const shutdownGrace = 3 * time.Second

// Supervisor owns the state store and every endpoint task built on top of
// it. Run blocks until ctx is canceled.
type Supervisor struct {
	cfg    config.Config
	logger *log.Logger

	states  *pdumodel.StateManager
	disp    *dispatcher.Dispatcher
	network *transport.NetworkEndpoint
	serial  *transport.SerialEndpoint
	projector *hardware.Projector
}

// New builds a Supervisor from cfg, opening the Network Endpoint's socket
// (and, if a serial port is configured, failing fast if it cannot be
// opened at all) before returning. It does not start any goroutines.
func New(cfg config.Config, logger *log.Logger) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	states := pdumodel.NewStateManager()
	disp := dispatcher.New(states, logger)

	network, err := transport.ListenNetworkEndpoint(cfg.NetworkAddr, disp, logger)
	if err != nil {
		return nil, fmt.Errorf("supervisor: network endpoint: %w", err)
	}

	s := &Supervisor{cfg: cfg, logger: logger, states: states, disp: disp, network: network}

	if cfg.SerialPort != "" {
		serialEp := transport.NewSerialEndpoint(cfg.SerialPort, cfg.SerialBaud, cfg.SerialAPID, disp, logger)
		if _, err := serialEp.Open(); err != nil {
			network.Close()
			return nil, fmt.Errorf("supervisor: serial endpoint: %w", err)
		}
		s.serial = serialEp
	}

	if cfg.Mode == config.ModeEmulator {
		cadence := time.Duration(float64(time.Second) / cfg.ProjectorHz)
		expander := hardware.NewSimulatedExpander()
		projector := hardware.NewProjector(states, expander, cadence, logger)
		if err := projector.ConfigureOutputs(); err != nil {
			network.Close()
			return nil, fmt.Errorf("supervisor: projector: %w", err)
		}
		s.projector = projector
	}

	return s, nil
}

// States returns the state store so callers (the debug stream, tests) can
// read telemetry without going through a transport.
func (s *Supervisor) States() *pdumodel.StateManager {
	return s.states
}

// NetworkAddr returns the Network Endpoint's bound local address, useful
// when cfg.NetworkAddr requested an ephemeral port.
func (s *Supervisor) NetworkAddr() string {
	return s.network.Addr().String()
}

// Run starts every configured endpoint as an independent goroutine and
// blocks until ctx is canceled. Each endpoint is given shutdownGrace to
// return after cancellation; stragglers are abandoned rather than blocking
// shutdown forever.
func (s *Supervisor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, 3)

	runTask := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				s.logger.Printf("supervisor: %s exited: %v", name, err)
				errs <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	runTask("network", s.network.Run)
	if s.serial != nil {
		runTask("serial", s.serial.Run)
	}
	if s.projector != nil {
		runTask("projector", s.projector.Run)
	}

	<-ctx.Done()
	s.logger.Printf("supervisor: shutdown requested, waiting up to %s for endpoints", shutdownGrace)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		s.logger.Printf("supervisor: shutdown grace period elapsed, aborting")
	}

	s.network.Close()

	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
