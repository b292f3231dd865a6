package tui

import (
	"errors"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/roamchat/roam/internal/chat"
	"github.com/roamchat/roam/internal/stream"
)

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires a type switch over all message types
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(msg.Width - 4) // room for the "> " prompt
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(msg.Width)
		m.resize()
		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state == StateStreaming {
			m.rebuildViewportContent()
		}
		return m, cmd

	case turnStartedMsg:
		m.state = StateStreaming
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, tea.Batch(m.spinner.Tick, listenForEvents(m.events))

	case thoughtMsg:
		m.thought = msg.text
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, listenForEvents(m.events)

	case answerMsg:
		m.answer = msg.text
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, listenForEvents(m.events)

	case callPendingMsg:
		m.pendingTool = msg.name
		m.addMessage(Message{Role: roleTool, Text: "Calling " + msg.name + " " + msg.args})
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, listenForEvents(m.events)

	case callDoneMsg:
		m.pendingTool = ""
		if msg.err != nil {
			m.addMessage(Message{Role: roleError, Text: msg.name + ": " + msg.err.Error()})
		} else if msg.ack != "" {
			m.addMessage(Message{Role: roleTool, Text: msg.ack})
		}
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, listenForEvents(m.events)

	case turnErrorMsg:
		m.addMessage(Message{Role: roleError, Text: msg.text})
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
		return m, listenForEvents(m.events)

	case turnEndedMsg:
		return m.handleTurnEnded(msg)

	case turnRejectedMsg:
		return m.handleTurnRejected(msg)

	case mapMsg:
		if msg.err != nil {
			m.mapErr = "Map update failed: " + stream.ExtractErrorMessage(msg.err)
		} else {
			view := msg.view
			m.mapView = &view
			m.mapErr = ""
		}
		m.resize()
		m.rebuildViewportContent()
		return m, listenForEvents(m.events)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleTurnEnded folds the finished turn into the message log. The thinking
// region collapses; the answer becomes a regular assistant message rendered
// from its raw markdown.
func (m *Model) handleTurnEnded(msg turnEndedMsg) (tea.Model, tea.Cmd) {
	m.state = StateInput
	m.thought = ""
	m.answer = ""
	m.pendingTool = ""

	outcome := msg.outcome
	switch {
	case outcome.Failed && outcome.Answer == stream.PlaceholderAnswer:
		// A failed turn already showed its error line; don't follow it with
		// the placeholder answer.
	case outcome.Answer == "":
		// A call-only turn: the tool acknowledgments already in the log are
		// the whole response.
	default:
		m.addMessage(Message{Role: roleAssistant, Text: outcome.Answer})
	}

	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	return m, tea.Batch(m.input.Focus(), listenForEvents(m.events))
}

func (m *Model) handleTurnRejected(msg turnRejectedMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, stream.ErrTurnInProgress):
		m.addMessage(Message{Role: roleSystem, Text: "Still working on the previous message — it will finish first."})
	case errors.Is(msg.err, chat.ErrEmptyMessage):
		// Blank input never reaches the model; nothing to show.
	default:
		m.addMessage(Message{Role: roleError, Text: msg.err.Error()})
	}

	// No turn started, so no turnEndedMsg will arrive.
	m.state = StateInput
	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	return m, m.input.Focus()
}
