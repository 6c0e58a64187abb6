// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 PDU Simulator Contributors

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagMode string

	flagNetworkAddr string

	flagSerialPort string
	flagSerialBaud int
	flagSerialAPID uint16

	flagProjectorHz float64

	flagDebugListen   string
	flagDebugUsername string
)

var rootCmd = &cobra.Command{
	Use:   "pdusim",
	Short: "Dual-PDU simulator/emulator for a satellite flight avionics testbed",
	Long: `pdusim impersonates two redundant Power Distribution Units (nominal and
redundant) that ordinarily sit between the On-Board Computer and the
spacecraft's 71 switchable power rails. It accepts command packets over a
UDP network transport or an RS422 serial link, maintains PDU state, and, in
emulator mode, drives GPIO expanders so modeled line states become real
voltages on connected loads.

For debug stream authentication, the password is read from the
PDUSIM_DEBUG_PASSWORD environment variable, or prompted interactively if
not set. There is intentionally no --debug-password flag, to avoid leaking
credentials in shell history.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "simulator", "run mode: simulator or emulator")

	rootCmd.PersistentFlags().StringVar(&flagNetworkAddr, "tcp-ip", "127.0.0.1", "network bind address")
	rootCmd.PersistentFlags().IntVar(&tcpPort, "tcp-port", 5004, "network bind port")

	rootCmd.PersistentFlags().StringVar(&flagSerialPort, "rs422-port", "", "RS422 serial device path (disabled if empty)")
	rootCmd.PersistentFlags().IntVar(&flagSerialBaud, "rs422-baud", 115200, "RS422 baud rate")
	rootCmd.PersistentFlags().Uint16Var(&flagSerialAPID, "rs422-apid", 0x65, "APID the RS422 link is addressed to (0x65 nominal, 0x66 redundant)")

	rootCmd.PersistentFlags().Float64Var(&flagProjectorHz, "projector-hz", 10, "Hardware Projector cadence in emulator mode")

	rootCmd.PersistentFlags().StringVar(&flagDebugListen, "debug-listen", "", "debug telemetry stream bind address (disabled if empty)")
	rootCmd.PersistentFlags().StringVar(&flagDebugUsername, "debug-username", "", "debug telemetry stream Basic auth username (auth disabled if empty)")
}

// tcpPort is bound separately from flagNetworkAddr so cmd/serve.go can join
// the two into a single host:port string.
var tcpPort int

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
