// Package tui provides the Bubble Tea terminal interface for Roam: a
// scrollable conversation, a thinking region that expands only while the
// model is reasoning, and a map panel fed by the tool bridge's sink.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/roamchat/roam/internal/chat"
	"github.com/roamchat/roam/internal/nav"
)

// State represents the TUI state machine.
type State int

// TUI state machine states.
const (
	StateInput     State = iota // awaiting user input
	StateStreaming              // a turn is in flight
)

// Memory bounds to prevent unbounded growth.
const (
	maxMessages = 100 // maximum messages stored
	maxHistory  = 100 // maximum input history entries
)

// Message role constants for consistent display.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleTool      = "tool"
	roleSystem    = "system"
	roleError     = "error"
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // separator above and below the input
	helpLines      = 1 // help bar height
	promptLines    = 1 // prompt prefix line
	minViewport    = 3 // minimum viewport height
)

// Message represents a conversation message for display.
type Message struct {
	Role string // "user", "assistant", "tool", "system", "error"
	Text string
}

// Config contains all required parameters for the TUI.
type Config struct {
	Session  *chat.Session
	Events   *Events
	Markdown *Markdown // shared with the stream renderer; nil creates one
	Logger   *slog.Logger
}

// Model is the Bubble Tea model for the Roam terminal interface.
type Model struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	lastCtrlC time.Time

	// Current turn, already rendered by the reducer's renderer
	thought     string
	answer      string
	pendingTool string

	// Conversation
	spinner  spinner.Model
	viewBuf  strings.Builder // reusable buffer for View()
	messages []Message
	viewport viewport.Model

	// Map panel
	mapView *nav.View
	mapErr  string

	// Help bar
	help help.Model
	keys keyMap

	// Dependencies
	session *chat.Session
	events  *Events
	logger  *slog.Logger

	ctx       context.Context
	ctxCancel context.CancelFunc

	width  int
	height int

	styles   Styles
	markdown *Markdown
}

// addMessage appends a message and enforces the maxMessages bound.
func (m *Model) addMessage(msg Message) {
	m.messages = append(m.messages, msg)
	if len(m.messages) > maxMessages {
		m.messages = m.messages[len(m.messages)-maxMessages:]
	}
}

// New creates the TUI model.
//
// ctx MUST be the same context passed to tea.WithContext and to NewEvents so
// cancellation reaches every goroutine the same way.
func New(ctx context.Context, cfg Config) (*Model, error) {
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if cfg.Session == nil {
		return nil, errors.New("tui.New: session is required")
	}
	if cfg.Events == nil {
		return nil, errors.New("tui.New: events is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	markdown := cfg.Markdown
	if markdown == nil {
		markdown = NewMarkdown(80)
	}

	ctx, cancel := context.WithCancel(ctx)

	// Enter submits; Shift+Enter adds a newline (textarea default).
	ta := textarea.New()
	ta.Placeholder = "Ask about a place or a journey..."
	ta.SetHeight(1)
	ta.SetWidth(120) // updated on WindowSizeMsg
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{Focused: cleanStyle, Blurred: cleanStyle})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Keys are routed explicitly in handleKey; the viewport's own bindings
	// would fight the textarea.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	return &Model{
		session:   cfg.Session,
		events:    cfg.Events,
		logger:    logger,
		ctx:       ctx,
		ctxCancel: cancel,
		input:     ta,
		spinner:   sp,
		viewport:  vp,
		help:      help.New(),
		keys:      newKeyMap(),
		styles:    DefaultStyles(),
		history:   make([]string, 0, maxHistory),
		markdown:  markdown,
		width:     80,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
		listenForEvents(m.events),
	)
}

// startTurn runs one model turn to completion. Progress arrives through the
// event funnel; the returned message only reports rejected sends.
func (m *Model) startTurn(query string) tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg {
		if err := session.Send(ctx, query); err != nil {
			return turnRejectedMsg{err: err}
		}
		return nil
	}
}

// turnRejectedMsg reports a send that never became a turn.
type turnRejectedMsg struct{ err error }
