package dashboard

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kestrel-net/kestrel/internal/capture"
	"github.com/kestrel-net/kestrel/internal/core"
	"github.com/kestrel-net/kestrel/internal/stats"
)

func fixedSnapshot() stats.Snapshot {
	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	return stats.Snapshot{
		TotalPackets: 100,
		TotalBytes:   2048,
		ProtoPackets: map[core.Protocol]uint64{
			core.ProtocolTCP: 80,
			core.ProtocolUDP: 20,
		},
		ProtoBytes: map[core.Protocol]uint64{
			core.ProtocolTCP: 1536,
			core.ProtocolUDP: 512,
		},
		Started: started,
		Taken:   started.Add(4 * time.Second),
	}
}

func TestRenderStats(t *testing.T) {
	out := renderStats(fixedSnapshot())

	for _, want := range []string{
		"Total Packets:",
		"100",
		"Total Traffic:",
		"2.00 KB",
		"Monitoring Time:",
		"4 seconds",
		"25.00 packets/sec",
		"512.00 B/sec",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("renderStats missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderProtocolsBars(t *testing.T) {
	snap := stats.Snapshot{
		ProtoPackets: map[core.Protocol]uint64{
			core.ProtocolTCP: 10,
			core.ProtocolUDP: 5,
		},
		ProtoBytes: map[core.Protocol]uint64{
			core.ProtocolTCP: 1000,
			core.ProtocolUDP: 500,
		},
	}
	out := renderProtocols(snap, 10)

	// The busiest protocol fills the whole bar, half the count fills half.
	if !strings.Contains(out, strings.Repeat("█", 10)+" │") {
		t.Errorf("full-width bar missing in:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("█", 5)+strings.Repeat(" ", 5)+" │") {
		t.Errorf("half-width padded bar missing in:\n%s", out)
	}
	if !strings.Contains(out, "└─ Traffic:") {
		t.Errorf("traffic line missing in:\n%s", out)
	}
	if !strings.Contains(out, "Layer 4 (Transport)") {
		t.Errorf("layer label missing in:\n%s", out)
	}
}

func TestRenderProtocolsEmpty(t *testing.T) {
	out := renderProtocols(stats.Snapshot{}, 40)
	if !strings.Contains(out, "Waiting for packets") {
		t.Errorf("placeholder missing in:\n%s", out)
	}
}

func TestRenderLegend(t *testing.T) {
	out := renderLegend()

	for _, want := range []string{
		"■ TCP",
		"■ UDP",
		"■ ICMP",
		"■ Other",
		"Layer 4 (Transport Layer)",
		"Layer 3 (Network Layer)",
		"Various Layers",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("legend missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderSessions(t *testing.T) {
	out := renderSessions([]capture.Status{
		{Interface: "eth0", Packets: 42, DecodeFailures: 1, Running: true},
		{Interface: "wlan0", Running: false},
	})

	if !strings.Contains(out, "eth0: 42 packets, 1 decode failures (running)") {
		t.Errorf("running line missing in:\n%s", out)
	}
	if !strings.Contains(out, "wlan0: 0 packets, 0 decode failures (stopped)") {
		t.Errorf("stopped line missing in:\n%s", out)
	}
	if renderSessions(nil) != "" {
		t.Error("expected empty output for no statuses")
	}
}

func TestConnectionRows(t *testing.T) {
	key := func(port uint16, proto core.Protocol) core.ConnectionKey {
		return core.ConnectionKey{
			SrcAddr: "10.0.0.1", DstAddr: "10.0.0.2",
			SrcPort: port, DstPort: 80, Protocol: proto,
		}
	}
	snap := stats.Snapshot{
		Connections: map[core.ConnectionKey]uint64{
			key(1000, core.ProtocolTCP): 3,
			key(2000, core.ProtocolUDP): 9,
		},
	}

	rows := connectionRows(snap, 10)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "UDP" || rows[0][2] != "9" {
		t.Errorf("busiest connection should rank first, got %v", rows[0])
	}
	if rows[0][1] != "10.0.0.1:2000 → 10.0.0.2:80" {
		t.Errorf("unexpected connection cell %q", rows[0][1])
	}
	if rows[1][0] != "TCP" || rows[1][2] != "3" {
		t.Errorf("unexpected second row %v", rows[1])
	}
}

func TestUpdateQuitKeys(t *testing.T) {
	store, err := stats.New(stats.Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, nil, Options{})

	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(key)
		if cmd == nil {
			t.Fatalf("key %q: expected quit command", key.String())
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("key %q: expected tea.QuitMsg, got %T", key.String(), cmd())
		}
	}
}

func TestUpdateTickRefreshesSnapshot(t *testing.T) {
	store, err := stats.New(stats.Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, nil, Options{})

	store.Record(core.PacketRecord{
		SrcAddr: "10.0.0.1", DstAddr: "10.0.0.2",
		SrcPort: 5000, DstPort: 53,
		Protocol: core.ProtocolUDP, Length: 64,
	})

	updated, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should schedule the next tick")
	}
	got := updated.(Model)
	if got.snap.TotalPackets != 1 {
		t.Errorf("expected refreshed snapshot with 1 packet, got %d", got.snap.TotalPackets)
	}
}

func TestViewIncludesSections(t *testing.T) {
	store, err := stats.New(stats.Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := New(store, nil, Options{})

	out := m.View()
	for _, want := range []string{
		"NETWORK TRAFFIC ANALYZER DASHBOARD",
		"Real-time Monitoring with OSI Layer View",
		"TRAFFIC STATISTICS",
		"PROTOCOL DISTRIBUTION (by OSI Layer)",
		"TOP 10 CONNECTIONS",
		"No connections yet...",
		"COLOR LEGEND (OSI Model)",
		"Press q or Ctrl+C to stop monitoring...",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
