// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 PDU Simulator Contributors

// Package config holds the Supervisor's startup configuration: which
// endpoints to start and the addresses/devices they bind to.
package config

import "fmt"

// RunMode selects which subset of endpoints the Supervisor starts.
type RunMode string

const (
	// ModeSimulator runs the Network and (if configured) Serial endpoints
	// with no Hardware Projector: line state changes are purely logical.
	ModeSimulator RunMode = "simulator"
	// ModeEmulator additionally starts the Hardware Projector, driving the
	// in-memory SimulatedExpander; no hardware expander driver is wired in.
	ModeEmulator RunMode = "emulator"
)

// Config collects every flag the CLI surface exposes, bound directly from
// cobra persistent flag variables.
type Config struct {
	Mode RunMode

	NetworkAddr string // host:port, e.g. "127.0.0.1:5004"

	SerialPort string // device path, empty disables the Serial Endpoint
	SerialBaud int
	SerialAPID uint16 // APID the Serial Endpoint's frames are addressed to

	ProjectorHz float64 // Hardware Projector cadence, emulator mode only

	DebugListen   string // bind address for the debug stream, empty disables it
	DebugUsername string
	DebugPassword string // resolved from PDUSIM_DEBUG_PASSWORD or an interactive prompt
}

// Validate checks the flag combination makes sense before the Supervisor
// tries to act on it.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeSimulator, ModeEmulator:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if c.NetworkAddr == "" {
		return fmt.Errorf("config: network address must not be empty")
	}
	if c.SerialPort != "" && c.SerialBaud <= 0 {
		return fmt.Errorf("config: serial baud must be positive when a serial port is configured")
	}
	if c.Mode == ModeEmulator && c.ProjectorHz <= 0 {
		return fmt.Errorf("config: projector cadence must be positive in emulator mode")
	}
	return nil
}
