// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 PDU Simulator Contributors

package cmd

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/obc-avionics/pdusim/internal/pdumodel"
	"github.com/obc-avionics/pdusim/internal/protocol"
)

var (
	controlAddr string
	controlAPID uint16
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for sending line commands to a PDU",
	Long: `Control opens a UDP connection to a running pdusim instance and
provides an interactive terminal UI for selecting a logical unit, entering
a hex line mask, and issuing SetUnitPwLines/ResetUnitPwLines/
OverwriteUnitPwLines. It does not send mode transition commands. Tab switches focus between the
unit list and the mask field; 's'/'r'/'o' send set/reset/overwrite with the
current mask.`,
	RunE: runControl,
}

func init() {
	controlCmd.Flags().StringVar(&controlAddr, "addr", "127.0.0.1:5004", "PDU network address")
	controlCmd.Flags().Uint16Var(&controlAPID, "apid", 0x65, "target APID (0x65 nominal, 0x66 redundant)")
	rootCmd.AddCommand(controlCmd)
}

func runControl(cmd *cobra.Command, args []string) error {
	raddr, err := net.ResolveUDPAddr("udp", controlAddr)
	if err != nil {
		return err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	p := tea.NewProgram(initialControlModel(conn, controlAPID), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type unitItem struct {
	lu pdumodel.LogicalUnit
}

func (u unitItem) Title() string {
	first, count := u.lu.Range()
	return fmt.Sprintf("%d: %s (lines %d-%d)", u.lu, u.lu.Name(), first, first+count-1)
}
func (u unitItem) Description() string { return "" }
func (u unitItem) FilterValue() string  { return u.lu.Name() }

type controlResultMsg struct {
	text string
	err  error
}

type controlModel struct {
	conn *net.UDPConn
	apid uint16
	seq  uint16

	list      list.Model
	maskInput textinput.Model
	focusList bool

	log      []string
	width    int
	height   int
	quitting bool
}

func initialControlModel(conn *net.UDPConn, apid uint16) controlModel {
	items := make([]list.Item, 0, pdumodel.LogicalUnitCount)
	for lu := pdumodel.LogicalUnit(0); int(lu) < pdumodel.LogicalUnitCount; lu++ {
		items = append(items, unitItem{lu: lu})
	}
	l := list.New(items, list.NewDefaultDelegate(), 40, 20)
	l.Title = "Logical units"

	ti := textinput.New()
	ti.Placeholder = "hex mask, e.g. 3F"
	ti.CharLimit = 16
	ti.Focus()

	return controlModel{conn: conn, apid: apid, list: l, maskInput: ti, focusList: true, width: 80, height: 24}
}

func (m controlModel) Init() tea.Cmd {
	return nil
}

func (m controlModel) selectedUnit() pdumodel.LogicalUnit {
	if item, ok := m.list.SelectedItem().(unitItem); ok {
		return item.lu
	}
	return 0
}

func (m controlModel) currentMask() (uint32, error) {
	text := strings.TrimSpace(m.maskInput.Value())
	if text == "" {
		return 0, fmt.Errorf("mask is empty")
	}
	v, err := strconv.ParseUint(text, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex mask %q: %w", text, err)
	}
	return uint32(v), nil
}

func (m *controlModel) addLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > 8 {
		m.log = m.log[len(m.log)-8:]
	}
}

// sendLineCommand issues a Set/Reset/OverwriteUnitPwLines command and
// blocks for its response. It runs inside a tea.Cmd closure so the UI
// thread is never blocked on I/O.
func (m controlModel) sendLineCommand(msgID protocol.MessageID, mask uint32) tea.Cmd {
	conn, apid, seq, lu := m.conn, m.apid, m.seq, m.selectedUnit()
	return func() tea.Msg {
		cmd := protocol.Command{
			APID:          apid,
			MessageID:     msgID,
			LogicalUnitID: uint8(lu),
			SequenceCount: seq,
			Payload:       protocol.LineMaskRequest{Mask: mask}.Encode(),
		}
		out, err := protocol.EncodeSpacePacketCommand(cmd)
		if err != nil {
			return controlResultMsg{err: err}
		}
		if _, err := conn.Write(out); err != nil {
			return controlResultMsg{err: err}
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 256)
		n, err := conn.Read(buf)
		if err != nil {
			return controlResultMsg{err: fmt.Errorf("no response: %w", err)}
		}
		resp, err := protocol.DecodeSpacePacket(buf[:n])
		if err != nil {
			return controlResultMsg{err: err}
		}
		status, err := protocol.DecodeSimpleStatusResponse(resp.Payload)
		if err != nil {
			return controlResultMsg{err: err}
		}
		return controlResultMsg{text: fmt.Sprintf("%s %s: %v", msgID, lu.Name(), status.Status)}
	}
}

func (m controlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case controlResultMsg:
		if msg.err != nil {
			m.addLog(fmt.Sprintf("error: %v", msg.err))
		} else {
			m.addLog(msg.text)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			m.focusList = !m.focusList
			if m.focusList {
				m.maskInput.Blur()
			} else {
				m.maskInput.Focus()
			}
			return m, nil
		case "s", "r", "o":
			mask, err := m.currentMask()
			if err != nil {
				m.addLog(fmt.Sprintf("error: %v", err))
				return m, nil
			}
			m.seq++
			switch msg.String() {
			case "s":
				return m, m.sendLineCommand(protocol.MsgSetUnitPwLines, mask)
			case "r":
				return m, m.sendLineCommand(protocol.MsgResetUnitPwLines, mask)
			default:
				return m, m.sendLineCommand(protocol.MsgOverwriteUnitPwLines, mask)
			}
		case "q":
			if !m.focusList {
				break
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	if m.focusList {
		m.list, cmd = m.list.Update(msg)
	} else {
		m.maskInput, cmd = m.maskInput.Update(msg)
	}
	return m, cmd
}

func (m controlModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	logStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render(fmt.Sprintf("PDUSIM CONTROL (APID %#x)", m.apid)))
	s.WriteString("\n\n")
	s.WriteString(m.list.View())
	s.WriteString("\n")
	s.WriteString("Mask: " + m.maskInput.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("tab: switch focus   s: set   r: reset   o: overwrite   q/ctrl+c: quit"))
	s.WriteString("\n\n")

	var logContent strings.Builder
	if len(m.log) == 0 {
		logContent.WriteString(helpStyle.Render("(no commands sent yet)"))
	} else {
		logContent.WriteString(strings.Join(m.log, "\n"))
	}
	s.WriteString(logStyle.Render(logContent.String()))

	return s.String()
}
