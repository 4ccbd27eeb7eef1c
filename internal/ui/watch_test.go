// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/forkbombeu/emuctl/internal/device"
	"github.com/forkbombeu/emuctl/internal/store"
)

type listProvider struct {
	probe device.ProbeResult
}

func (p *listProvider) Platform() device.Platform                { return device.PlatformAndroid }
func (p *listProvider) Probe(context.Context) device.ProbeResult { return p.probe }
func (p *listProvider) Status(_ context.Context, r device.Record) (device.State, error) {
	return r.State, nil
}
func (p *listProvider) Start(context.Context, device.Record) error { return nil }
func (p *listProvider) Stop(context.Context, device.Record) error  { return nil }

func testModel(t *testing.T, records ...device.Record) Model {
	t.Helper()
	p := &listProvider{probe: device.ProbeResult{
		Platform:  device.PlatformAndroid,
		Available: true,
		Devices:   records,
	}}
	s := store.New("test", p)
	s.Refresh(context.Background())
	m := NewModel(s, time.Second)
	m.syncRows()
	return m
}

func avd(name string, st device.State) device.Record {
	return device.Record{
		ID:          device.AndroidID(name),
		DisplayName: name,
		Platform:    device.PlatformAndroid,
		State:       st,
		Kind:        device.KindDevice,
		AVDName:     name,
	}
}

func TestNavigationStaysInBounds(t *testing.T) {
	m := testModel(t, avd("a", device.StateStopped), avd("b", device.StateStopped))

	up := tea.KeyMsg{Type: tea.KeyUp}
	down := tea.KeyMsg{Type: tea.KeyDown}

	next, _ := m.Update(up)
	m = next.(Model)
	if m.selected != 0 {
		t.Fatalf("selected = %d after up at top", m.selected)
	}

	for i := 0; i < 5; i++ {
		next, _ = m.Update(down)
		m = next.(Model)
	}
	if m.selected != 1 {
		t.Fatalf("selected = %d after down past bottom", m.selected)
	}
}

func TestQuitKey(t *testing.T) {
	m := testModel(t, avd("a", device.StateStopped))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q must quit")
	}
}

func TestSelectedDeviceSkipsNoticeRows(t *testing.T) {
	p := &listProvider{probe: device.ProbeResult{Platform: device.PlatformAndroid}}
	s := store.New("test", p)
	s.Refresh(context.Background())
	m := NewModel(s, time.Second)
	m.syncRows()

	if len(m.rows) != 1 {
		t.Fatalf("rows = %d, want warning row only", len(m.rows))
	}
	if _, ok := m.selectedDevice(); ok {
		t.Fatal("a notice row must not be startable")
	}
	if cmd := m.startSelected(); cmd != nil {
		t.Fatal("start on a notice row must be a no-op")
	}
}

func TestSyncRowsClampsSelection(t *testing.T) {
	m := testModel(t, avd("a", device.StateStopped), avd("b", device.StateStopped))
	m.selected = 1

	m.store = func() *store.Store {
		p := &listProvider{probe: device.ProbeResult{
			Platform:  device.PlatformAndroid,
			Available: true,
			Devices:   []device.Record{avd("a", device.StateStopped)},
		}}
		s := store.New("test", p)
		s.Refresh(context.Background())
		return s
	}()
	m.syncRows()

	if m.selected != 0 {
		t.Fatalf("selected = %d, want clamped to 0", m.selected)
	}
}
