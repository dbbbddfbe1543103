package main

import (
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwbudde/algo-ocarina/ocarina"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	e := ocarina.NewEngine(16000, nil, ocarina.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewModel(e, ocarina.EightHole, 0, 0, 60)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func tick(t *testing.T, m Model) Model {
	t.Helper()
	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick did not schedule the next tick")
	}
	return next.(Model)
}

func TestModelTogglesHolesAndBreath(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "1", "2", "2", "3", "b")
	if got := m.keys.Keys(); got != ocarina.KeySetOf(0, 2) {
		t.Fatalf("keys = %v", got)
	}
	if !m.breath {
		t.Fatal("breath should be latched on")
	}
	m = press(m, "9")
	if m.keys.Keys().Has(8) {
		t.Fatal("hole 9 does not exist on the eight-hole layout")
	}
	m = press(m, "c")
	if m.keys.Keys() != 0 {
		t.Fatal("clear did not release the holes")
	}
}

func TestModelTickPublishesToEngine(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "1", "2", "3", "4", "5", "6", "7", "8", "b")
	m = tick(t, m)
	want := ocarina.Frequency(ocarina.Resolve(ocarina.KeySetOf(0, 1, 2, 3, 4, 5, 6, 7), ocarina.EightHole), 0, 0)
	// The target is published by the tick; render a little audio so the
	// smoothed frequency settles.
	buf := make([]float32, 16000)
	m.engine.RenderAudio(buf, len(buf), 1)
	m = tick(t, m)
	if got := m.engine.CurrentFrequencyHz(); math.Abs(got-want) > 0.5 {
		t.Fatalf("frequency = %.2f, want %.2f", got, want)
	}
	if !strings.Contains(m.View(), m.degree.String()) {
		t.Fatal("view does not show the resolved fingering")
	}
}

func TestModelTranspositionAndMode(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 12; i++ {
		m = press(m, "right")
	}
	m = press(m, "up", "up", "up", "m", "n")
	if m.sig != ocarina.MaxKeySignature || m.oct != ocarina.MaxOctaveShift {
		t.Fatalf("sig=%d oct=%d", m.sig, m.oct)
	}
	if m.keys.Mode() != ocarina.TenHole || m.frame != ocarina.Fixed {
		t.Fatalf("mode=%v frame=%v", m.keys.Mode(), m.frame)
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}
