// Package tui implements the interactive console attached to a running
// craftpanel daemon.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/craftpanel/craftpanel-go/internal/console"
)

// maxLines caps the scrollback kept in memory.
const maxLines = 2000

// Console is the connection surface the model drives.
type Console interface {
	SendCommand(text string) error
	Reconnect(ctx context.Context) error
	Disconnect()
	State() console.State
	RetryCount() int
}

// Messages delivered from the connection callbacks.

// LineMsg is one console output line.
type LineMsg string

// StateMsg is a connection state change.
type StateMsg console.State

// CloseMsg reports the close code and reason of a dropped transport.
type CloseMsg struct {
	Code   int
	Reason string
}

type errMsg struct {
	err error
}

// Model is the Bubble Tea model for the attached console.
type Model struct {
	console Console
	ctx     context.Context
	events  <-chan tea.Msg

	viewport viewport.Model
	input    textinput.Model

	lines     []string
	state     console.State
	lastClose CloseMsg
	err       error

	width  int
	height int
	ready  bool
}

// NewModel creates the console model. events carries LineMsg, StateMsg and
// CloseMsg values pushed by the connection callbacks.
func NewModel(ctx context.Context, c Console, events <-chan tea.Msg) Model {
	input := textinput.New()
	input.Placeholder = "command"
	input.Prompt = "> "
	input.CharLimit = 512
	input.Focus()

	return Model{
		console: c,
		ctx:     ctx,
		events:  events,
		input:   input,
		state:   console.StateConnecting,
	}
}

// waitEvent re-arms after every delivered event so the channel keeps draining.
func waitEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return msg
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chromeHeight := 3 // title, status bar, input
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - chromeHeight
		}
		m.input.Width = msg.Width - 4
		m.refreshContent()
		return m, nil

	case LineMsg:
		m.appendLine(string(msg))
		return m, waitEvent(m.events)

	case StateMsg:
		m.state = console.State(msg)
		if m.state == console.StateConnected {
			m.err = nil
		}
		return m, waitEvent(m.events)

	case CloseMsg:
		m.lastClose = msg
		return m, waitEvent(m.events)

	case errMsg:
		m.err = msg.err
		return m, waitEvent(m.events)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.console.Disconnect()
		return m, tea.Quit

	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.Reset()
		if err := m.console.SendCommand(text); err != nil {
			m.err = err
		}
		return m, nil

	case "ctrl+r":
		return m, func() tea.Msg {
			if err := m.console.Reconnect(m.ctx); err != nil {
				return errMsg{err}
			}
			return nil
		}

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLines {
		m.lines = m.lines[len(m.lines)-maxLines:]
	}
	m.refreshContent()
}

func (m *Model) refreshContent() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := titleStyle.Render("craftpanel console")
	status := m.statusLine()
	help := helpStyle.Render("enter: send • ctrl+r: reconnect • esc: quit")

	var input string
	if m.state.Info().CanSend {
		input = m.input.View()
	} else {
		input = mutedStyle.Render("> (sending disabled)")
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Top, status, "  ", help)
	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), bar, input)
}

func (m Model) statusLine() string {
	info := m.state.Info()
	parts := []string{stateIndicator(m.state), stateStyle(m.state).Render(info.Label)}

	if m.state == console.StateDisconnected && m.console.RetryCount() > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("(retry %d)", m.console.RetryCount())))
	}
	if m.lastClose.Code != 0 && m.state != console.StateConnected {
		detail := fmt.Sprintf("close %d", m.lastClose.Code)
		if m.lastClose.Reason != "" {
			detail += ": " + m.lastClose.Reason
		}
		parts = append(parts, mutedStyle.Render(detail))
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	}

	return statusBarStyle.Render(strings.Join(parts, " "))
}
