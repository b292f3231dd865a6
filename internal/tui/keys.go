package tui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// Slash command constants.
const (
	cmdHelp  = "/help"
	cmdClear = "/clear"
	cmdMap   = "/map"
	cmdExit  = "/exit"
	cmdQuit  = "/quit"
)

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	History    key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewLine:    key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("s+enter", "newline")),
		History:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "clear/quit")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	}
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return m.handleCtrlC()
		case 'd':
			return m, m.cleanup()
		}
	}

	switch k.Code {
	case tea.KeyEnter:
		// Enter submits, Shift+Enter falls through to the textarea as a
		// newline.
		if k.Mod&tea.ModShift == 0 {
			return m.handleSubmit()
		}

	case tea.KeyUp:
		if m.state == StateInput && m.input.Line() == 0 {
			return m.navigateHistory(-1)
		}

	case tea.KeyDown:
		if m.state == StateInput && m.input.Line() == m.input.LineCount()-1 {
			return m.navigateHistory(1)
		}

	case tea.KeyPgUp:
		m.viewport.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		return m, nil
	}

	// Typing is always allowed; the next message can be drafted while the
	// current turn streams.
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within a second quits.
	if now.Sub(m.lastCtrlC) < time.Second {
		return m, m.cleanup()
	}
	m.lastCtrlC = now

	m.input.Reset()
	return m, nil
}

func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		return m, nil
	}

	if strings.HasPrefix(query, "/") {
		return m.handleSlashCommand(query)
	}

	// Turns are rejected while one is running, and the rejection is visible:
	// the draft stays in the input.
	if m.state != StateInput {
		m.addMessage(Message{Role: roleSystem, Text: "Still working on the previous message — it will finish first."})
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, nil
	}

	m.history = append(m.history, query)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyIdx = len(m.history)

	m.addMessage(Message{Role: roleUser, Text: query})
	m.input.Reset()
	m.state = StateStreaming
	m.rebuildViewportContent()
	m.viewport.GotoBottom()

	return m, tea.Batch(
		m.spinner.Tick,
		m.startTurn(query),
	)
}

func (m *Model) handleSlashCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case cmdHelp:
		m.addMessage(Message{
			Role: roleSystem,
			Text: "Commands: " + cmdHelp + ", " + cmdClear + ", " + cmdMap + ", " + cmdExit +
				"\nShortcuts:\n  Enter: send message\n  Shift+Enter: new line\n  Ctrl+C: clear input (twice: exit)\n  Ctrl+D: exit\n  Up/Down: history\n  PgUp/PgDn: scroll",
		})
	case cmdClear:
		m.messages = nil
	case cmdMap:
		// Toggle the panel off; the next successful tool call brings it back.
		m.mapView = nil
		m.mapErr = ""
		m.resize()
	case cmdExit, cmdQuit:
		return m, m.cleanup()
	default:
		m.addMessage(Message{Role: roleError, Text: "Unknown command: " + cmd})
	}
	m.input.Reset()
	m.rebuildViewportContent()
	return m, nil
}

func (m *Model) navigateHistory(delta int) (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}

	m.historyIdx += delta
	if m.historyIdx < 0 {
		m.historyIdx = 0
	}
	if m.historyIdx > len(m.history) {
		m.historyIdx = len(m.history)
	}

	if m.historyIdx == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[m.historyIdx])
		m.input.CursorEnd()
	}
	return m, nil
}

// cleanup cancels the app context, which unwinds the event funnel and any
// in-flight turn, then quits.
func (m *Model) cleanup() tea.Cmd {
	if m.ctxCancel != nil {
		m.ctxCancel()
		m.ctxCancel = nil
	}
	return tea.Quit
}
