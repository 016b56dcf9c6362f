// Package dashboard renders live traffic statistics as a terminal UI.
// It reads store snapshots on a ticker and never blocks the capture
// workers.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrel-net/kestrel/internal/capture"
	"github.com/kestrel-net/kestrel/internal/stats"
)

// StatusSource reports per-session capture state for the footer.
type StatusSource interface {
	Statuses() []capture.Status
}

// Options tune the dashboard. The config layer fills them; zero values
// fall back to the defaults below.
type Options struct {
	Refresh  time.Duration
	BarWidth int
	TopN     int
}

func (o Options) withDefaults() Options {
	if o.Refresh <= 0 {
		o.Refresh = time.Second
	}
	if o.BarWidth <= 0 {
		o.BarWidth = 40
	}
	if o.TopN <= 0 {
		o.TopN = 10
	}
	return o
}

// Model is the bubbletea model. It holds the latest snapshot; every
// tick replaces it with a fresh one.
type Model struct {
	store    *stats.Store
	statuses StatusSource
	opts     Options

	table table.Model
	snap  stats.Snapshot
}

// New builds the dashboard model on a store and an optional status
// source (nil hides the interface footer).
func New(store *stats.Store, statuses StatusSource, opts Options) Model {
	opts = opts.withDefaults()

	columns := []table.Column{
		{Title: "Proto", Width: 6},
		{Title: "Connection", Width: 50},
		{Title: "Packets", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(opts.TopN),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		store:    store,
		statuses: statuses,
		opts:     opts,
		table:    t,
		snap:     store.Snapshot(),
	}
}

type tickMsg time.Time

func (m Model) Init() tea.Cmd {
	return tickCmd(m.opts.Refresh)
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tickMsg:
		m.snap = m.store.Snapshot()
		m.table.SetRows(connectionRows(m.snap, m.opts.TopN))
		return m, tickCmd(m.opts.Refresh)
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func connectionRows(snap stats.Snapshot, topN int) []table.Row {
	top := snap.TopConnections(topN)
	rows := make([]table.Row, len(top))
	for i, c := range top {
		rows[i] = table.Row{
			string(c.Key.Protocol),
			fmt.Sprintf("%s:%d → %s:%d", c.Key.SrcAddr, c.Key.SrcPort, c.Key.DstAddr, c.Key.DstPort),
			fmt.Sprintf("%d", c.Count),
		}
	}
	return rows
}

// Run drives the dashboard until the user quits or ctx is cancelled.
// Cancellation is a clean stop, not an error.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
