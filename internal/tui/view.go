package tui

import (
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/lipgloss/v2"
	tea "charm.land/bubbletea/v2"
)

// View implements tea.Model. Layout, top to bottom: scrollable conversation,
// map panel (when a tool call has produced one), input with separators, help
// bar.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	_, _ = m.viewBuf.WriteString(m.viewport.View())
	_, _ = m.viewBuf.WriteString("\n")

	if panel := m.renderMapPanel(); panel != "" {
		_, _ = m.viewBuf.WriteString(panel)
		_, _ = m.viewBuf.WriteString("\n")
	}

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
	_, _ = m.viewBuf.WriteString(m.input.View())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// resize recomputes the viewport height from the fixed chrome around it.
func (m *Model) resize() {
	inputHeight := m.input.Height() + promptLines
	fixedHeight := separatorLines + inputHeight + helpLines
	if panel := m.renderMapPanel(); panel != "" {
		fixedHeight += lipgloss.Height(panel)
	}

	vpHeight := max(m.height-fixedHeight, minViewport)
	m.viewport.SetWidth(m.width)
	m.viewport.SetHeight(vpHeight)
}

// rebuildViewportContent reconstructs the conversation from messages and the
// in-flight turn.
func (m *Model) rebuildViewportContent() {
	var b strings.Builder

	_, _ = b.WriteString(m.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	_, _ = b.WriteString(m.styles.RenderWelcomeTips())
	_, _ = b.WriteString("\n")

	for _, msg := range m.messages {
		switch msg.Role {
		case roleUser:
			_, _ = b.WriteString(m.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Text)
		case roleAssistant:
			_, _ = b.WriteString(m.styles.Assistant.Render("Roam> "))
			_, _ = b.WriteString(m.markdown.Render(msg.Text))
		case roleTool:
			_, _ = b.WriteString(m.styles.Tool.Render("⚒ " + msg.Text))
		case roleSystem:
			_, _ = b.WriteString(m.styles.System.Render(msg.Text))
		case roleError:
			_, _ = b.WriteString(m.styles.Error.Render("Error: " + msg.Text))
		}
		_, _ = b.WriteString("\n\n")
	}

	// Thinking region: visible only while the current turn has thought text.
	if m.state == StateStreaming && m.thought != "" {
		_, _ = b.WriteString(m.styles.Thought.Render("Thinking"))
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(m.styles.Thought.Render(m.thought))
		_, _ = b.WriteString("\n\n")
	}

	// Streaming answer.
	if m.state == StateStreaming && m.answer != "" {
		_, _ = b.WriteString(m.styles.Assistant.Render("Roam> "))
		_, _ = b.WriteString(m.answer)
		_, _ = b.WriteString("\n\n")
	}

	// Spinner while waiting, with the pending tool when one is dispatched.
	if m.state == StateStreaming {
		_, _ = b.WriteString(m.spinner.View())
		if m.pendingTool != "" {
			_, _ = b.WriteString(" ")
			_, _ = b.WriteString(m.styles.System.Render(m.pendingTool + "..."))
		}
		_, _ = b.WriteString("\n\n")
	}

	m.viewport.SetContent(b.String())
}

// renderMapPanel renders the latest resolved map state, or a failure line
// when resolving the last update failed. Empty when neither exists.
func (m *Model) renderMapPanel() string {
	if m.mapErr != "" {
		return m.styles.MapPanel.Width(m.panelWidth()).Render(m.styles.Error.Render(m.mapErr))
	}
	if m.mapView == nil {
		return ""
	}

	var b strings.Builder
	_, _ = b.WriteString(m.styles.MapTitle.Render(m.mapView.Title))
	for _, place := range m.mapView.Places {
		_, _ = b.WriteString(fmt.Sprintf("\n%s  %.4f, %.4f", place.Name, place.Lat, place.Lon))
	}
	if leg := m.mapView.Leg; leg != nil {
		_, _ = b.WriteString(fmt.Sprintf("\n%.1f km · %s", leg.DistanceMeters/1000, formatDuration(leg.Duration)))
	}
	return m.styles.MapPanel.Width(m.panelWidth()).Render(b.String())
}

func (m *Model) panelWidth() int {
	if m.width > 2 {
		return m.width - 2
	}
	return 78
}

// formatDuration renders a journey duration as "4h 52m" / "12m".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := d / time.Hour
	min := (d % time.Hour) / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, min)
	}
	return fmt.Sprintf("%dm", min)
}

// renderSeparator returns a horizontal line separator.
func (m *Model) renderSeparator() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns state-appropriate keyboard shortcut help.
func (m *Model) renderStatusBar() string {
	var bindings []key.Binding
	switch m.state {
	case StateInput:
		bindings = []key.Binding{
			m.keys.Submit, m.keys.NewLine, m.keys.History,
			m.keys.Quit, m.keys.ScrollUp,
		}
	case StateStreaming:
		bindings = []key.Binding{
			m.keys.Cancel, m.keys.ScrollUp, m.keys.ScrollDown,
		}
	}
	return m.help.ShortHelpView(bindings)
}
