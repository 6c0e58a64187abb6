// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 PDU Simulator Contributors

package cmd

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/obc-avionics/pdusim/internal/debugstream"
	"github.com/obc-avionics/pdusim/internal/pdumodel"
)

var monitorURL string

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard over the debug telemetry stream",
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorURL, "url", "ws://127.0.0.1:5005/telemetry", "debug stream WebSocket URL")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	password := ""
	if flagDebugUsername != "" {
		var err error
		password, err = resolveDebugPassword()
		if err != nil {
			return err
		}
	}

	client, err := debugstream.Dial(monitorURL, flagDebugUsername, password)
	if err != nil {
		return err
	}
	defer client.Close()

	p := tea.NewProgram(initialMonitorModel(client), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type snapshotMsg debugstream.Snapshot
type snapshotErrMsg struct{ err error }

type monitorModel struct {
	client    *debugstream.Client
	snapshots map[uint16]debugstream.Snapshot
	quitting  bool
	err       error
}

func initialMonitorModel(client *debugstream.Client) monitorModel {
	return monitorModel{client: client, snapshots: make(map[uint16]debugstream.Snapshot)}
}

func waitForSnapshot(client *debugstream.Client) tea.Cmd {
	return func() tea.Msg {
		snap, err := client.Next()
		if err != nil {
			return snapshotErrMsg{err: err}
		}
		return snapshotMsg(snap)
	}
}

func (m monitorModel) Init() tea.Cmd {
	return waitForSnapshot(m.client)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case snapshotMsg:
		m.snapshots[msg.APID] = debugstream.Snapshot(msg)
		return m, waitForSnapshot(m.client)

	case snapshotErrMsg:
		m.err = msg.err
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		if m.err != nil {
			return fmt.Sprintf("debug stream disconnected: %v\n", m.err)
		}
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Background(lipgloss.Color("235")).Padding(0, 1)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	faultStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	boxStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("PDUSIM MONITOR"))
	s.WriteString("\n\n")

	if len(m.snapshots) == 0 {
		s.WriteString("Waiting for telemetry...\n")
		return s.String()
	}

	apids := make([]uint16, 0, len(m.snapshots))
	for apid := range m.snapshots {
		apids = append(apids, apid)
	}
	sort.Slice(apids, func(i, j int) bool { return apids[i] < apids[j] })

	for _, apid := range apids {
		snap := m.snapshots[apid]
		role := "nominal"
		if apid == uint16(pdumodel.APIDRedundant) {
			role = "redundant"
		}

		var content strings.Builder
		content.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			labelStyle.Render("Unit:"), valueStyle.Render(fmt.Sprintf("%s (APID %#x)", role, apid)),
			labelStyle.Render("Mode:"), valueStyle.Render(pdumodel.Mode(snap.Mode).String()),
		))
		content.WriteString(fmt.Sprintf("%s %s   %s %d\n",
			labelStyle.Render("Heartbeat counter:"), valueStyle.Render(fmt.Sprintf("%d", snap.LastHeartbeatCounter)),
			labelStyle.Render("Uptime ticks:"), snap.UptimeTicks,
		))

		enabled := 0
		for _, on := range snap.LineStates {
			if on {
				enabled++
			}
		}
		content.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render("Lines enabled:"), valueStyle.Render(fmt.Sprintf("%d/%d", enabled, len(snap.LineStates))),
		))

		if snap.HardwareFault > 0 || snap.CommandRejected > 0 || snap.ChecksumFailed > 0 || snap.UnknownCommand > 0 {
			content.WriteString(faultStyle.Render(fmt.Sprintf("Errors: rejected=%d checksum=%d unknown=%d hwfault=%d",
				snap.CommandRejected, snap.ChecksumFailed, snap.UnknownCommand, snap.HardwareFault)))
			content.WriteString("\n")
		}

		s.WriteString(boxStyle.Render(content.String()))
		s.WriteString("\n")
	}

	s.WriteString("\nPress 'q' to quit\n")
	return s.String()
}
