// SPDX-License-Identifier: EPL-2.0

// Package player is the interactive terminal front end of capo player.
package player

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ik5/capo/audio"
	"github.com/ik5/capo/backend"
)

const (
	// SeekStep is how far the arrow keys move the cursor.
	SeekStep = 5 * time.Second
	// GainStep is the change applied by the gain keys.
	GainStep = 0.1

	refreshInterval = 200 * time.Millisecond
	barWidth        = 30
)

// Controller is the part of an engine source the player drives.
// engine.StreamSource and engine.SoundSource both satisfy it.
type Controller interface {
	State() backend.State
	IsPlaying() bool
	Play()
	Pause()
	Stop()
	Seek(d time.Duration) error
	CanSeek() bool
	Cursor() time.Duration
	Duration() time.Duration
	AtEnd() bool
	SetLooping(loop bool)
	IsLooping() bool
	Gain() float32
	SetGain(v float32)
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Model is the bubbletea model of the player.
type Model struct {
	title string
	ctl   Controller
	err   error
	width int
}

// New builds a model for ctl. title is shown above the controls.
func New(title string, ctl Controller) Model {
	return Model{title: title, ctl: ctl}
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tick()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.ctl.Stop()
		return m, tea.Quit
	case " ", "space", "p":
		if m.ctl.IsPlaying() {
			m.ctl.Pause()
		} else {
			m.ctl.Play()
		}
	case "s":
		m.ctl.Stop()
	case "left", "h":
		m.seekBy(-SeekStep)
	case "right":
		m.seekBy(SeekStep)
	case "home", "0":
		m.err = m.ctl.Seek(0)
	case "l":
		m.ctl.SetLooping(!m.ctl.IsLooping())
	case "up", "+", "=":
		m.ctl.SetGain(m.ctl.Gain() + GainStep)
	case "down", "-":
		m.ctl.SetGain(m.ctl.Gain() - GainStep)
	}

	return m, nil
}

// seekBy moves the cursor by delta, clamped to the track.
func (m *Model) seekBy(delta time.Duration) {
	if !m.ctl.CanSeek() {
		m.err = audio.ErrSeekUnsupported
		return
	}

	target := min(max(m.ctl.Cursor()+delta, 0), m.ctl.Duration())
	m.err = m.ctl.Seek(target)
}

// View renders the player
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	cursor, total := m.ctl.Cursor(), m.ctl.Duration()
	width := barWidth
	if m.width > 0 {
		// leave room for the label and both timestamps
		width = min(max(m.width-30, 10), barWidth)
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("State:"), valueStyle.Render(stateName(m.ctl)))
	fmt.Fprintf(&b, "%s [%s] %s / %s\n",
		labelStyle.Render("Time: "),
		renderBar(cursor, total, width),
		audio.FormatDuration(cursor),
		audio.FormatDuration(total),
	)
	fmt.Fprintf(&b, "%s %3.0f%%   %s %s\n",
		labelStyle.Render("Gain: "), float64(m.ctl.Gain())*100,
		labelStyle.Render("Loop:"), valueStyle.Render(onOff(m.ctl.IsLooping())),
	)

	if m.err != nil {
		b.WriteString(errStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space:Play/Pause  ←/→:Seek 5s  ↑/↓:Gain  l:Loop  s:Stop  q:Quit"))

	return b.String()
}

func stateName(ctl Controller) string {
	if ctl.AtEnd() {
		return "ended"
	}

	switch ctl.State() {
	case backend.StatePlaying:
		return "playing"
	case backend.StatePaused:
		return "paused"
	case backend.StateStopped:
		return "stopped"
	case backend.StateIdle:
		return "idle"
	default:
		return "unknown"
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}

	return "off"
}

func renderBar(value, total time.Duration, width int) string {
	filled := 0
	if total > 0 {
		filled = int(int64(width) * int64(value) / int64(total))
	}
	filled = min(max(filled, 0), width)

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
