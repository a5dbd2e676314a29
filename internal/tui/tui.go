// Package tui provides the Bubble Tea monitor screen for a running session:
// the live timecode, the switcher's input list with the program input
// highlighted, and the table of completed clips.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/TelioTortay/ATEMLogger/internal/session"
	"github.com/TelioTortay/ATEMLogger/internal/switcher"
)

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Timecode frame: green border while idle, red while logging,
	// matching the recording-light convention.
	timecodeIdleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("41")).
				Padding(0, 2).
				Bold(true)

	timecodeLiveStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Padding(0, 2).
				Bold(true)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	liveInputStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Messages ─────────────────

type eventMsg session.Event

// streamClosedMsg arrives when the session closes its event channel.
type streamClosedMsg struct{}

// stoppedMsg carries the outcome of the session stop.
type stoppedMsg struct{ err error }

// ── Model ────────────────────

// Model is the root Bubble Tea model for the monitor screen.
type Model struct {
	sess   *session.Session
	inputs []switcher.Input
	output string

	currentInput string
	timecode     string
	clips        []session.ClipSummary

	clipView viewport.Model
	width    int
	height   int
	ready    bool

	stopping bool
	stopErr  error
}

// New builds the monitor model. inputs is the switcher's input list, shown
// with the live program input highlighted; output is the configured EDL
// destination, shown in the status bar.
func New(sess *session.Session, inputs []switcher.Input, output string) Model {
	return Model{
		sess:     sess,
		inputs:   inputs,
		output:   output,
		timecode: "00:00:00:00",
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return listen(m.sess.Events())
}

// listen waits for the next session event. The channel is the only bridge
// between the poll loop and this screen.
func listen(events <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// stop joins the session off the UI goroutine so the screen stays
// responsive while the trailing clip and EDL write complete.
func stop(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return stoppedMsg{err: sess.Stop()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.stopping {
				return m, nil
			}
			m.stopping = true
			return m, stop(m.sess)
		}
		var cmd tea.Cmd
		m.clipView, cmd = m.clipView.Update(msg)
		return m, cmd

	case eventMsg:
		switch session.Event(msg).Kind {
		case session.InputChanged:
			m.currentInput = msg.Input
		case session.TimecodeUpdated:
			m.timecode = msg.Timecode
		case session.ClipCompleted:
			m.clips = append(m.clips, msg.Clip)
			m.rebuildClipView()
		}
		return m, listen(m.sess.Events())

	case streamClosedMsg:
		// Loop exited on its own (or the stop finished draining); if no
		// stop is in flight the session still needs its join.
		if !m.stopping {
			m.stopping = true
			return m, stop(m.sess)
		}
		return m, nil

	case stoppedMsg:
		m.stopErr = msg.err
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initClipView()
		return m, nil
	}
	return m, nil
}

// StopError reports the EDL write failure, if any, once the screen exits.
func (m Model) StopError() error { return m.stopErr }

func (m Model) View() string {
	if !m.ready {
		return "Connecting…"
	}

	title := titleStyle.Width(m.width).Render("  atemlogger")

	left := m.renderLeftPanel()
	right := m.renderClipPanel()
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	hint := "  q quit (stops session and writes EDL)"
	if m.stopping {
		hint = "  stopping…"
	}
	dest := "no EDL destination"
	if m.output != "" {
		dest = "EDL → " + m.output
	}
	pad := m.width - lipgloss.Width(hint) - lipgloss.Width(dest) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + dest)

	return lipgloss.JoinVertical(lipgloss.Left, title, body, statusBar)
}

func (m Model) renderLeftPanel() string {
	var sb strings.Builder

	frame := timecodeIdleStyle
	if !m.stopping {
		frame = timecodeLiveStyle
	}
	sb.WriteString(frame.Render(m.timecode) + "\n\n")

	sb.WriteString(sectionHeader.Render("  Available Inputs") + "\n\n")
	if len(m.inputs) == 0 {
		sb.WriteString(dimStyle.Render("  (none reported)") + "\n")
	}
	for _, in := range m.inputs {
		name := in.String()
		if name == m.currentInput {
			sb.WriteString("  " + liveInputStyle.Render(" "+name+" ") + "\n")
		} else {
			sb.WriteString("  " + name + "\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("  Program: ") + valueOr(m.currentInput, "not yet sampled") + "\n")

	return lipgloss.NewStyle().Width(30).Render(sb.String())
}

func (m Model) renderClipPanel() string {
	return m.clipView.View()
}

func (m *Model) initClipView() {
	// title(1) + statusBar(1) fixed rows; the clip panel gets the rest.
	h := m.height - 2
	if h < 1 {
		h = 1
	}
	w := m.width - 30
	if w < 20 {
		w = 20
	}
	m.clipView = viewport.New(w, h)
	m.rebuildClipView()
}

func (m *Model) rebuildClipView() {
	var sb strings.Builder
	sb.WriteString(sectionHeader.Render(fmt.Sprintf("  Clips (%d)", len(m.clips))) + "\n\n")
	if len(m.clips) == 0 {
		sb.WriteString(dimStyle.Render("  (no cuts yet)") + "\n")
	} else {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  %-20s %-13s %-13s", "Source", "Start", "End")) + "\n")
		for _, c := range m.clips {
			sb.WriteString(fmt.Sprintf("  %-20s %-13s %-13s\n", c.Source, c.Start, c.End))
		}
	}
	m.clipView.SetContent(sb.String())
	m.clipView.GotoBottom()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return dimStyle.Render(fallback)
	}
	return s
}

// Run drives the monitor screen until the user quits or the session ends.
// It returns the session stop error so the caller can surface a failed EDL
// write.
func Run(sess *session.Session, inputs []switcher.Input, output string) error {
	p := tea.NewProgram(New(sess, inputs, output), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.StopError()
	}
	return nil
}
