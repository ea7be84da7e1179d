// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/espbus/internal/queue"
	"github.com/Thermoquad/espbus/pkg/esp"
)

var tuiShowAll bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Terminal UI with bus statistics, devices and events",
	Long: `Watch the bus in a terminal UI.

Shows packet and error statistics, the latest detector display, a table of
devices seen on the bus (with version and serial number, requested on start)
and a log of recent events. By default only errors are logged; use --show-all
to log every packet.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	tuiCmd.Flags().BoolVar(&tuiShowAll, "show-all", false, "Log all packets (not just errors)")
}

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for errors, false for info
}

// What the bus has told us about one device
type deviceInfo struct {
	version  string
	serial   string
	packets  uint64
	lastSeen time.Time
}

// TUI model
type model struct {
	info          string
	showAll       bool
	stats         *esp.Statistics
	devices       map[esp.Device]*deviceInfo
	deviceTable   table.Model
	eventLog      []eventLogEntry
	maxLogEntries int
	synchronized  bool
	width         int
	height        int
	quitting      bool
	lastDisplay   *esp.DisplayData
	lastAlert     *esp.AlertData
	settings      *esp.UserSettings
}

// Messages
type tickMsg time.Time
type busPacketMsg struct {
	packet    esp.Packet
	anomalies []esp.ValidationError
}
type decodeErrMsg struct {
	err error
}
type busClosedMsg struct {
	err error
}

func initialModel(info string, showAll bool) model {
	columns := []table.Column{
		{Title: "Device", Width: 20},
		{Title: "Version", Width: 10},
		{Title: "Serial", Width: 12},
		{Title: "Packets", Width: 8},
		{Title: "Last Seen", Width: 12},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(6),
		table.WithFocused(false),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = lipgloss.NewStyle()
	t.SetStyles(styles)

	return model{
		info:          info,
		showAll:       showAll,
		stats:         esp.NewStatistics(),
		devices:       make(map[esp.Device]*deviceInfo),
		deviceTable:   t,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		m.deviceTable.SetRows(m.deviceRows())
		return m, tickCmd()

	case decodeErrMsg:
		// Garbage before the first packet is line noise, not an error
		if m.synchronized {
			m.stats.Update(nil, msg.err, nil)
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.err), true)
		}

	case busPacketMsg:
		if !m.synchronized {
			m.synchronized = true
			m.addLogEntry("Synchronized", false)
		}
		m.stats.Update(msg.packet, nil, msg.anomalies)
		m.observe(msg.packet)

		if len(msg.anomalies) > 0 {
			for _, a := range msg.anomalies {
				m.addLogEntry(fmt.Sprintf("%s: %s", msg.packet.ID(), a.Message), true)
			}
		} else if m.showAll {
			m.addLogEntry(fmt.Sprintf("%s %s -> %s", msg.packet.ID(), msg.packet.Origin(), msg.packet.Destination()), false)
		}

	case busClosedMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("BUS STOPPED: %v", msg.err), true)
		} else {
			m.addLogEntry("Bus closed", false)
		}
	}

	return m, nil
}

func (m *model) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// observe updates the device table and detector state from a packet
func (m *model) observe(p esp.Packet) {
	d, ok := m.devices[p.Origin()]
	if !ok {
		d = &deviceInfo{}
		m.devices[p.Origin()] = d
	}
	d.packets++
	d.lastSeen = p.Timestamp()

	switch v := p.(type) {
	case *esp.VersionResponse:
		d.version = v.Version()
	case *esp.SerialNumberResponse:
		d.serial = v.SerialNumber()
	case *esp.DisplayDataInfo:
		display := v.Display()
		m.lastDisplay = &display
	case *esp.AlertDataResponse:
		alert := v.Alert()
		m.lastAlert = &alert
	case *esp.UserBytesResponse:
		settings := v.Settings()
		m.settings = &settings
	}

	m.deviceTable.SetRows(m.deviceRows())
}

// deviceRows renders the device table in address order
func (m *model) deviceRows() []table.Row {
	devices := make([]esp.Device, 0, len(m.devices))
	for d := range m.devices {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i] < devices[j] })

	rows := make([]table.Row, 0, len(devices))
	for _, d := range devices {
		info := m.devices[d]
		rows = append(rows, table.Row{
			d.String(),
			orDash(info.version),
			orDash(info.serial),
			fmt.Sprintf("%d", info.packets),
			formatAgo(time.Since(info.lastSeen)),
		})
	}
	return rows
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatAgo renders an age as "3s ago", "2m ago", "1h ago"
func formatAgo(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("ESPBUS - BUS MONITOR"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Log: %s | Press 'q' to quit",
		m.info, func() string {
			if m.showAll {
				return "All packets"
			}
			return "Errors only"
		}())))
	s.WriteString("\n\n")

	if !m.synchronized {
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
	} else {
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
	}
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	var validPercent, errorPercent float64
	errorCount := m.stats.Errors()
	if m.stats.TotalPackets > 0 {
		validPercent = float64(m.stats.ValidPackets) * 100.0 / float64(m.stats.TotalPackets)
		errorPercent = float64(errorCount) * 100.0 / float64(m.stats.TotalPackets)
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Total:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalPackets)),
		statsLabelStyle.Render("Valid:"), statsValueStyle.Render(fmt.Sprintf("%d (%.1f%%)", m.stats.ValidPackets, validPercent)),
		statsLabelStyle.Render("Errors:"), errorStyle.Render(fmt.Sprintf("%d (%.1f%%)", errorCount, errorPercent)),
	))

	if m.stats.ChecksumErrors > 0 || m.stats.DecodeErrors > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Checksum Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.ChecksumErrors)),
			statsLabelStyle.Render("Decode Errors:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors)),
		))
	}

	if m.stats.MalformedPackets > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s (%s: %d, %s: %d)\n",
			statsLabelStyle.Render("Malformed:"), errorStyle.Render(fmt.Sprintf("%d", m.stats.MalformedPackets)),
			headerStyle.Render("invalid counts"), m.stats.InvalidCounts,
			headerStyle.Render("length mismatches"), m.stats.LengthMismatches,
		))
	}

	if m.stats.AnomalousValues > 0 || m.stats.UnknownPackets > 0 {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Anomalous:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.AnomalousValues)),
			statsLabelStyle.Render("Unknown:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.UnknownPackets)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Packet Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f pkts/s", m.stats.PacketRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Detector section (only shown once the display has been seen)
	if m.lastDisplay != nil || m.lastAlert != nil || m.settings != nil {
		s.WriteString(statsLabelStyle.Render("Detector:"))
		s.WriteString("\n")

		detector := strings.Builder{}
		if d := m.lastDisplay; d != nil {
			detector.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
				statsLabelStyle.Render("Bands:"), statsValueStyle.Render(d.BandArrow1.String()),
				statsLabelStyle.Render("Signal:"), statsValueStyle.Render(strings.Repeat("▮", d.SignalStrength())+strings.Repeat("▯", 8-d.SignalStrength())),
				statsLabelStyle.Render("Mute:"), statsValueStyle.Render(onOff(d.SoftMute())),
			))
			detector.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
				statsLabelStyle.Render("Display:"), statsValueStyle.Render(onOff(d.DisplayOn())),
				statsLabelStyle.Render("Euro:"), statsValueStyle.Render(onOff(d.EuroMode())),
				statsLabelStyle.Render("Custom Sweeps:"), statsValueStyle.Render(onOff(d.CustomSweep())),
			))
		}
		if a := m.lastAlert; a != nil {
			detector.WriteString(fmt.Sprintf("%s %s\n", statsLabelStyle.Render("Last Alert:"), warningStyle.Render(a.String())))
		}
		if st := m.settings; st != nil {
			detector.WriteString(fmt.Sprintf("%s X=%s K=%s Ka=%s Ku=%s Laser=%s\n",
				statsLabelStyle.Render("Settings:"),
				onOff(st.XBand()), onOff(st.KBand()), onOff(st.KaBand()), onOff(st.KuBand()), onOff(st.Laser()),
			))
		}

		s.WriteString(boxStyle.Render(strings.TrimRight(detector.String(), "\n")))
		s.WriteString("\n\n")
	}

	// Devices
	s.WriteString(statsLabelStyle.Render("Devices:"))
	s.WriteString("\n")
	s.WriteString(boxStyle.Render(m.deviceTable.View()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 28
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// Decode errors can arrive before the program exists
	decodeErrs := make(chan error, 64)
	b, err := startBus(ctx, busOptions{
		onError: func(err error) {
			select {
			case decodeErrs <- err:
			default:
			}
		},
		broadcast: true,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(initialModel(b.info, tuiShowAll), tea.WithContext(ctx))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-decodeErrs:
				p.Send(decodeErrMsg{err: err})
			}
		}
	}()

	go func() {
		// Ask the detector and SAVVY to identify themselves
		for _, dest := range []esp.Device{esp.DeviceV1WithChecksum, esp.DeviceSavvy} {
			b.queue.PushOutbound(esp.NewVersionRequest(b.app, dest))
			b.queue.PushOutbound(esp.NewSerialNumberRequest(b.app, dest))
		}
		b.queue.PushOutbound(esp.NewUserBytesRequest(b.app, esp.DeviceV1WithChecksum))

		for {
			packet, err := b.queue.PopInbound(ctx)
			if err != nil {
				if errors.Is(err, queue.ErrClosed) {
					p.Send(busClosedMsg{err: b.Wait()})
				}
				return
			}
			p.Send(busPacketMsg{packet: packet, anomalies: esp.ValidatePacket(packet)})
		}
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
