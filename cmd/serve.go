// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 PDU Simulator Contributors

package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/obc-avionics/pdusim/internal/config"
	"github.com/obc-avionics/pdusim/internal/debugstream"
	"github.com/obc-avionics/pdusim/internal/supervisor"
)

// defaultDebugCadence is the debug stream push interval used when
// --projector-hz is 0 (simulator mode permits this; emulator mode does
// not, per config.Validate).
const defaultDebugCadence = 100 * time.Millisecond

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PDU simulator/emulator (default action)",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = runServe
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stderr, "pdusim: ", log.LstdFlags)

	cfg := config.Config{
		Mode:          config.RunMode(flagMode),
		NetworkAddr:   fmt.Sprintf("%s:%d", flagNetworkAddr, tcpPort),
		SerialPort:    flagSerialPort,
		SerialBaud:    flagSerialBaud,
		SerialAPID:    flagSerialAPID,
		ProjectorHz:   flagProjectorHz,
		DebugListen:   flagDebugListen,
		DebugUsername: flagDebugUsername,
	}
	if cfg.DebugListen != "" && cfg.DebugUsername != "" {
		password, err := resolveDebugPassword()
		if err != nil {
			return err
		}
		cfg.DebugPassword = password
	}

	sup, err := supervisor.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Printf("signal received, shutting down")
		cancel()
	}()

	errCh := make(chan error, 2)
	go func() { errCh <- sup.Run(ctx) }()

	if cfg.DebugListen != "" {
		cadence := defaultDebugCadence
		if flagProjectorHz > 0 {
			cadence = time.Duration(float64(time.Second) / flagProjectorHz)
		}
		debugSrv := debugstream.NewServer(cfg.DebugListen, cfg.DebugUsername, cfg.DebugPassword, cadence, sup.States(), logger)
		go func() { errCh <- debugSrv.Run(ctx) }()
	} else {
		errCh <- nil
	}

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
