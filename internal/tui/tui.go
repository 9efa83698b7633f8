// Package tui provides an interactive terminal view of a metrics registry.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/torosent/calltrack/internal/metrics"
)

const functionColumnWidth = 40

type tickMsg time.Time

// Model is the bubbletea model for the interactive stats table.
type Model struct {
	reg      *metrics.Registry
	sortKey  metrics.SortKey
	reverse  bool
	interval time.Duration
	table    table.Model
	err      error
	clears   int
	quitting bool
}

// New builds a model over reg. A nil registry selects metrics.Default.
func New(reg *metrics.Registry, key metrics.SortKey, reverse bool, interval time.Duration) Model {
	if interval <= 0 {
		interval = time.Second
	}
	t := table.New(
		table.WithColumns(columns()),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	m := Model{
		reg:      metrics.GetStats(reg),
		sortKey:  key,
		reverse:  reverse,
		interval: interval,
		table:    t,
	}
	m.refresh()
	return m
}

// Run drives m until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tick(m.interval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick(m.interval)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "s":
			m.sortKey = m.sortKey.Next()
			m.refresh()
			return m, nil
		case "r":
			m.reverse = !m.reverse
			m.refresh()
			return m, nil
		case "c":
			m.reg.Clear()
			m.clears++
			m.refresh()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.table.View())
	b.WriteString("\n")
	if m.err != nil {
		fmt.Fprintf(&b, "error: %v\n", m.err)
	}
	order := "asc"
	if m.reverse {
		order = "desc"
	}
	fmt.Fprintf(&b, "sort: %s (%s)  clears: %d\n", m.sortKey, order, m.clears)
	b.WriteString("s: sort  r: reverse  c: clear  q: quit\n")
	return b.String()
}

// SortKey returns the current sort key.
func (m Model) SortKey() metrics.SortKey { return m.sortKey }

// Reverse reports whether rows are in descending order.
func (m Model) Reverse() bool { return m.reverse }

// Rows returns the rows currently shown.
func (m Model) Rows() []table.Row { return m.table.Rows() }

func (m *Model) refresh() {
	rows, err := metrics.FormatSnapshot(m.reg, m.sortKey, m.reverse, false)
	m.err = err
	if err != nil {
		return
	}
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{
			fitFunction(r.Function),
			fmt.Sprintf("%d", r.Calls),
			fmt.Sprintf("%.4f %s", r.Avg, r.Unit),
			fmt.Sprintf("%.4f %s", r.Max, r.Unit),
			fmt.Sprintf("%.4f %s", r.Min, r.Unit),
			fmt.Sprintf("%.4f %s", r.Total, r.Unit),
		})
	}
	m.table.SetRows(out)
}

func columns() []table.Column {
	return []table.Column{
		{Title: "FUNCTION", Width: functionColumnWidth},
		{Title: "CALLS", Width: 10},
		{Title: "AVG LAT", Width: 16},
		{Title: "MAX LAT", Width: 16},
		{Title: "MIN LAT", Width: 16},
		{Title: "TOT LAT", Width: 16},
	}
}

func fitFunction(name string) string {
	r := []rune(name)
	if len(r) <= functionColumnWidth {
		return name
	}
	return "..." + string(r[len(r)-functionColumnWidth+3:])
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}
