package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cwbudde/algo-ocarina/ocarina"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C7A5A")).
			PaddingLeft(2).
			PaddingRight(2).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))

	noteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#C9822B")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333333")).
			Padding(1, 4).
			MarginBottom(1)

	holeOpen   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Render("○")
	holeClosed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Render("●")
)

// holeKeys are the toggle keys for holes 0..9.
const holeKeys = "1234567890"

// tickMsg drives the engine's control tick.
type tickMsg time.Time

// Model is the terminal front end. Terminals report no key releases, so
// holes and breath are latched toggles.
type Model struct {
	engine *ocarina.Engine
	keys   *ocarina.KeyTracker
	breath bool
	sig    int
	oct    int
	frame  ocarina.LabelFrame
	every  time.Duration
	degree ocarina.ScaleDegree
}

// NewModel wraps e. controlRate is the tick rate in Hz.
func NewModel(e *ocarina.Engine, mode ocarina.InstrumentMode, sig, oct int, controlRate float64) Model {
	if controlRate <= 0 {
		controlRate = 60
	}
	return Model{
		engine: e,
		keys:   ocarina.NewKeyTracker(mode),
		sig:    ocarina.ClampKeySignature(sig),
		oct:    ocarina.ClampOctaveShift(oct),
		every:  time.Duration(float64(time.Second) / controlRate),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.every, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// publish hands the current input to the engine and runs one control tick.
func (m *Model) publish() {
	m.engine.PublishKeyState(m.keys.Keys(), m.keys.Mode())
	m.engine.PublishBreath(m.breath)
	m.engine.PublishTransposition(m.sig, m.oct)
	m.degree = m.engine.Tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if i := strings.Index(holeKeys, key); len(key) == 1 && i >= 0 {
			m.keys.Toggle(ocarina.Key(i))
			break
		}
		switch key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "b":
			m.breath = !m.breath
		case "c":
			m.keys.Clear()
		case "right":
			m.sig = ocarina.ClampKeySignature(m.sig + 1)
		case "left":
			m.sig = ocarina.ClampKeySignature(m.sig - 1)
		case "up":
			m.oct = ocarina.ClampOctaveShift(m.oct + 1)
		case "down":
			m.oct = ocarina.ClampOctaveShift(m.oct - 1)
		case "m":
			if m.keys.Mode() == ocarina.EightHole {
				m.keys.SetMode(ocarina.TenHole)
			} else {
				m.keys.SetMode(ocarina.EightHole)
			}
		case "n":
			if m.frame == ocarina.Transposed {
				m.frame = ocarina.Fixed
			} else {
				m.frame = ocarina.Transposed
			}
		case "r":
			m.engine.ResetState()
		}
	case tickMsg:
		m.publish()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) holes() string {
	var b strings.Builder
	keys := m.keys.Keys()
	for i := 0; i < m.keys.Mode().KeyCount(); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		if keys.Has(ocarina.Key(i)) {
			b.WriteString(holeClosed)
		} else {
			b.WriteString(holeOpen)
		}
	}
	return b.String()
}

func (m Model) noteText() string {
	label := m.engine.CurrentPitchLabel(m.frame)
	if m.frame == ocarina.Fixed {
		return label.NoteName()
	}
	return label.String()
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Ocarina"))
	s.WriteString("\n")

	note := m.noteText()
	if note == "" {
		note = "  "
	}
	s.WriteString(noteStyle.Render(note))
	s.WriteString("\n")

	breath := "off"
	if m.breath {
		breath = "on"
	}
	fmt.Fprintf(&s, "holes  %s\n", m.holes())
	s.WriteString(infoStyle.Render(fmt.Sprintf(
		"fingering %s  breath %s  %.2f Hz  gain %.3f",
		m.degree, breath, m.engine.CurrentFrequencyHz(), m.engine.CurrentGain(),
	)))
	s.WriteString("\n")
	s.WriteString(infoStyle.Render(fmt.Sprintf(
		"%s  key %s  octave %+d  labels %s  resets %d",
		m.keys.Mode(), ocarina.KeySignatureName(m.sig), m.oct, m.frame, m.engine.Stats().Resets,
	)))
	s.WriteString("\n\n")
	s.WriteString(infoStyle.Render("1-0 holes · space breath · ←→ key · ↑↓ octave · m mode · n labels · c clear · r reset · q quit"))
	return s.String()
}
