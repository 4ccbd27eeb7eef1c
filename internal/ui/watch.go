// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

// Package ui renders the live device watch as a terminal UI. The model
// owns no device state of its own: every frame is drawn from a store
// snapshot, and the store's change signal drives redraws between polls.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/forkbombeu/emuctl/internal/device"
	"github.com/forkbombeu/emuctl/internal/store"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Start   key.Binding
	Stop    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Start:   key.NewBinding(key.WithKeys("enter", "s"), key.WithHelp("enter", "start")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Messages
type changedMsg struct{}
type tickMsg time.Time
type refreshedMsg struct{}
type actionDoneMsg struct{ err error }

// Model is the watch view state.
type Model struct {
	store        *store.Store
	changes      <-chan struct{}
	pollInterval time.Duration

	rows     []device.Record
	selected int

	spinner    spinner.Model
	keys       keyMap
	width      int
	height     int
	refreshing bool
	statusMsg  string
	statusTime time.Time
}

// NewModel builds a watch model over the store. pollInterval is how often
// the cheap run-state recheck fires between change signals.
func NewModel(s *store.Store, pollInterval time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	return Model{
		store:        s,
		changes:      s.Subscribe(),
		pollInterval: pollInterval,
		spinner:      sp,
		keys:         defaultKeyMap(),
		refreshing:   true,
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		m.store.Refresh(ctx)
		return refreshedMsg{}
	}
}

func (m Model) recheck() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		m.store.Recheck(ctx)
		return refreshedMsg{}
	}
}

func (m Model) startSelected() tea.Cmd {
	rec, ok := m.selectedDevice()
	if !ok {
		return nil
	}
	id := rec.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return actionDoneMsg{err: m.store.Start(ctx, id)}
	}
}

func (m Model) stopSelected() tea.Cmd {
	rec, ok := m.selectedDevice()
	if !ok {
		return nil
	}
	id := rec.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return actionDoneMsg{err: m.store.Stop(ctx, id)}
	}
}

func (m Model) selectedDevice() (device.Record, bool) {
	if m.selected >= len(m.rows) {
		return device.Record{}, false
	}
	rec := m.rows[m.selected]
	if rec.Kind != device.KindDevice {
		return device.Record{}, false
	}
	return rec, true
}

// Init kicks off the first discovery cycle and the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refresh(),
		m.tick(),
		waitForChange(m.changes),
		m.spinner.Tick,
	)
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.refreshing = true
			return m, tea.Batch(m.refresh(), m.spinner.Tick)
		case key.Matches(msg, m.keys.Start):
			if rec, ok := m.selectedDevice(); ok && rec.State == device.StateStopped {
				m.setStatus("Booting " + rec.DisplayName + "...")
				return m, tea.Batch(m.startSelected(), m.spinner.Tick)
			}
			return m, nil
		case key.Matches(msg, m.keys.Stop):
			if rec, ok := m.selectedDevice(); ok && rec.State != device.StateStopped {
				m.setStatus("Stopping " + rec.DisplayName + "...")
				return m, tea.Batch(m.stopSelected(), m.spinner.Tick)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case changedMsg:
		m.syncRows()
		cmds = append(cmds, waitForChange(m.changes))

	case tickMsg:
		cmds = append(cmds, m.recheck(), m.tick())

	case refreshedMsg:
		m.refreshing = false
		m.syncRows()

	case actionDoneMsg:
		if msg.err != nil {
			m.setStatus("Error: " + msg.err.Error())
		}
		m.syncRows()
	}

	if m.hasStarting() && len(cmds) == 0 {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) syncRows() {
	m.rows = m.store.Snapshot()
	if m.selected >= len(m.rows) && len(m.rows) > 0 {
		m.selected = len(m.rows) - 1
	}
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusTime = time.Now()
}

func (m Model) hasStarting() bool {
	for _, rec := range m.rows {
		if rec.State == device.StateStarting {
			return true
		}
	}
	return false
}

// View renders the device list.
func (m Model) View() string {
	header := m.renderHeader()
	list := m.renderList()
	help := m.renderHelp()
	return lipgloss.JoinVertical(lipgloss.Left, "", header, "", list, help)
}

func (m Model) renderHeader() string {
	title := "  " + titleStyle.Render("emuctl")
	var status string
	switch {
	case m.refreshing:
		status = m.spinner.View() + " discovering..."
	case m.statusMsg != "" && time.Since(m.statusTime) < 3*time.Second:
		status = mutedStyle.Render(m.statusMsg)
	default:
		status = mutedStyle.Render(fmt.Sprintf("%d devices", m.deviceCount()))
	}
	return title + "  " + status
}

func (m Model) deviceCount() int {
	n := 0
	for _, rec := range m.rows {
		if rec.Kind == device.KindDevice {
			n++
		}
	}
	return n
}

func (m Model) renderList() string {
	if len(m.rows) == 0 {
		empty := lipgloss.JoinVertical(lipgloss.Left,
			mutedStyle.Render("  No devices found"),
			"",
			mutedStyle.Render("  Press r to refresh"),
		)
		return paneStyle.Render(empty)
	}

	items := make([]string, 0, len(m.rows))
	for i, rec := range m.rows {
		items = append(items, m.renderRow(i, rec))
	}
	return paneStyle.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (m Model) renderRow(i int, rec device.Record) string {
	cursor := "  "
	if i == m.selected {
		cursor = selectedStyle.Render("▶") + " "
	}

	switch rec.Kind {
	case device.KindWarning:
		return cursor + warningStyle.Render("⚠ "+rec.DisplayName)
	case device.KindError:
		return cursor + errorStyle.Render("✗ "+rec.DisplayName)
	}

	dot := StateDot(rec.State)
	if rec.State == device.StateStarting {
		dot = m.spinner.View()
	}
	badge := PlatformBadge(rec.Platform)

	name := rec.DisplayName
	if i == m.selected {
		name = selectedStyle.Render(name)
	} else {
		name = itemStyle.Render(name)
	}

	var extra string
	if rec.OSVersion != "" {
		extra = "  " + mutedStyle.Render(rec.OSVersion)
	}
	return fmt.Sprintf("%s%s %s %s%s", cursor, dot, badge, name, extra)
}

func (m Model) renderHelp() string {
	keys := []string{
		helpKeyStyle.Render("enter") + " start",
		helpKeyStyle.Render("x") + " stop",
		helpKeyStyle.Render("r") + " refresh",
		helpKeyStyle.Render("q") + " quit",
	}
	line := "  "
	for i, k := range keys {
		if i > 0 {
			line += "  "
		}
		line += k
	}
	return helpStyle.Render(line)
}

// Run starts the watch program and blocks until quit.
func Run(s *store.Store, pollInterval time.Duration) error {
	p := tea.NewProgram(NewModel(s, pollInterval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
