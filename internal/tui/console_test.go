package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftpanel/craftpanel-go/internal/console"
)

type fakeConsole struct {
	state        console.State
	retries      int
	sent         []string
	sendErr      error
	disconnected bool
	reconnects   int
}

func (f *fakeConsole) SendCommand(text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeConsole) Reconnect(_ context.Context) error {
	f.reconnects++
	return nil
}

func (f *fakeConsole) Disconnect()          { f.disconnected = true }
func (f *fakeConsole) State() console.State { return f.state }
func (f *fakeConsole) RetryCount() int      { return f.retries }

func newTestModel(t *testing.T) (Model, *fakeConsole, chan tea.Msg) {
	t.Helper()
	fc := &fakeConsole{state: console.StateConnected}
	events := make(chan tea.Msg, 16)
	m := NewModel(t.Context(), fc, events)

	sized, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return sized.(Model), fc, events
}

func TestLinesAppendAndCap(t *testing.T) {
	m, _, _ := newTestModel(t)

	for i := 0; i < maxLines+10; i++ {
		next, _ := m.Update(LineMsg("line"))
		m = next.(Model)
	}
	assert.Len(t, m.lines, maxLines)
}

func TestEnterSendsCommand(t *testing.T) {
	m, fc, _ := newTestModel(t)

	for _, r := range "/say hi" {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	require.Equal(t, []string{"/say hi"}, fc.sent)
	assert.Empty(t, m.input.Value(), "input cleared after send")
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	m, fc, _ := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Empty(t, fc.sent)
}

func TestEscDisconnectsAndQuits(t *testing.T) {
	m, fc, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, fc.disconnected)
}

func TestCtrlRReconnects(t *testing.T) {
	m, fc, _ := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, fc.reconnects)
}

func TestStateChangeUpdatesStatus(t *testing.T) {
	m, fc, _ := newTestModel(t)
	fc.state = console.StateForbidden

	next, _ := m.Update(StateMsg(console.StateForbidden))
	m = next.(Model)
	next, _ = m.Update(CloseMsg{Code: 4003, Reason: "console access denied"})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Access denied")
	assert.Contains(t, view, "close 4003: console access denied")
	assert.Contains(t, view, "sending disabled")
}

func TestViewShowsLines(t *testing.T) {
	m, _, _ := newTestModel(t)

	next, _ := m.Update(LineMsg("[12:00:01] Server started"))
	m = next.(Model)
	assert.True(t, strings.Contains(m.View(), "Server started"))
}
