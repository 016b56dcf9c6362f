package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kestrel-net/kestrel/internal/capture"
	"github.com/kestrel-net/kestrel/internal/core"
	"github.com/kestrel-net/kestrel/internal/stats"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Border(lipgloss.DoubleBorder()).
			Padding(0, 4).
			Align(lipgloss.Center)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("228"))

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	protoStyles = map[core.Protocol]lipgloss.Style{
		core.ProtocolTCP:   lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		core.ProtocolUDP:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")),
		core.ProtocolICMP:  lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		core.ProtocolOther: lipgloss.NewStyle().Foreground(lipgloss.Color("201")),
	}
)

func protoStyle(p core.Protocol) lipgloss.Style {
	if s, ok := protoStyles[p]; ok {
		return s
	}
	return protoStyles[core.ProtocolOther]
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("NETWORK TRAFFIC ANALYZER DASHBOARD\nReal-time Monitoring with OSI Layer View"))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render("TRAFFIC STATISTICS"))
	b.WriteString("\n")
	b.WriteString(renderStats(m.snap))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("PROTOCOL DISTRIBUTION (by OSI Layer)"))
	b.WriteString("\n")
	b.WriteString(renderProtocols(m.snap, m.opts.BarWidth))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("TOP %d CONNECTIONS", m.opts.TopN)))
	b.WriteString("\n")
	if len(m.snap.Connections) == 0 {
		b.WriteString(dimStyle.Render("  No connections yet..."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("COLOR LEGEND (OSI Model)"))
	b.WriteString("\n")
	b.WriteString(renderLegend())

	if m.statuses != nil {
		if footer := renderSessions(m.statuses.Statuses()); footer != "" {
			b.WriteString("\n")
			b.WriteString(sectionStyle.Render("INTERFACES"))
			b.WriteString("\n")
			b.WriteString(footer)
		}
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press q or Ctrl+C to stop monitoring..."))
	b.WriteString("\n")

	return b.String()
}

func renderStats(snap stats.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s %d\n", labelStyle.Render("Total Packets:  "), snap.TotalPackets)
	fmt.Fprintf(&b, "  %s %s\n", labelStyle.Render("Total Traffic:  "), stats.FormatBytes(snap.TotalBytes))
	fmt.Fprintf(&b, "  %s %d seconds\n", labelStyle.Render("Monitoring Time:"), snap.Elapsed())
	fmt.Fprintf(&b, "  %s %.2f packets/sec\n", labelStyle.Render("Packet Rate:    "), snap.PacketRate())
	fmt.Fprintf(&b, "  %s %s/sec\n", labelStyle.Render("Traffic Rate:   "), stats.FormatBytes(uint64(snap.ByteRate())))
	return b.String()
}

// renderProtocols draws one bar per protocol, scaled against the busiest
// protocol so the largest bar always spans the full width.
func renderProtocols(snap stats.Snapshot, barWidth int) string {
	protos := snap.Protocols()
	if len(protos) == 0 {
		return dimStyle.Render("  Waiting for packets...") + "\n"
	}

	var max uint64
	for _, p := range protos {
		if p.Packets > max {
			max = p.Packets
		}
	}

	var b strings.Builder
	for _, p := range protos {
		style := protoStyle(p.Protocol)
		fmt.Fprintf(&b, "  %s  %s\n", style.Render(string(p.Protocol)), dimStyle.Render(p.Protocol.Layer()))

		filled := stats.BarLength(p.Packets, max, barWidth)
		bar := strings.Repeat("█", filled) + strings.Repeat(" ", barWidth-filled)
		fmt.Fprintf(&b, "  %-10s │ %s │ %10d\n", "Packets", style.Render(bar), p.Packets)
		fmt.Fprintf(&b, "             └─ Traffic: %s\n", stats.FormatBytes(p.Bytes))
	}
	return b.String()
}

func renderLegend() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s - Layer 4 (Transport Layer)\n", protoStyles[core.ProtocolTCP].Render("■ TCP"))
	fmt.Fprintf(&b, "  %s - Layer 4 (Transport Layer)\n", protoStyles[core.ProtocolUDP].Render("■ UDP"))
	fmt.Fprintf(&b, "  %s - Layer 3 (Network Layer)\n", protoStyles[core.ProtocolICMP].Render("■ ICMP"))
	fmt.Fprintf(&b, "  %s - Various Layers\n", protoStyles[core.ProtocolOther].Render("■ Other"))
	return b.String()
}

func renderSessions(statuses []capture.Status) string {
	if len(statuses) == 0 {
		return ""
	}
	var b strings.Builder
	for _, st := range statuses {
		state := "running"
		if !st.Running {
			state = "stopped"
		}
		fmt.Fprintf(&b, "  %s: %d packets, %d decode failures (%s)\n",
			st.Interface, st.Packets, st.DecodeFailures, state)
	}
	return b.String()
}
