package tui

import (
	"context"
	"log/slog"

	tea "charm.land/bubbletea/v2"

	"github.com/roamchat/roam/internal/nav"
	"github.com/roamchat/roam/internal/stream"
)

// eventBufferSize absorbs render-loop latency during fast streams without
// letting the turn goroutine run far ahead of the display.
const eventBufferSize = 100

// event is a discriminated union for everything that reaches the UI
// asynchronously: turn progress from the reducer and resolved map updates
// from the sink. A single channel keeps the listen command's select trivial.
type event struct {
	kind eventKind

	text    string // rendered thought/answer/error, or pretty args for calls
	name    string // tool name for call events
	err     error  // call failure for eventCallDone
	outcome stream.Outcome

	view    nav.View // resolved map state for eventMap
	viewErr error
}

type eventKind int

const (
	eventTurnStarted eventKind = iota
	eventThought
	eventAnswer
	eventCallPending
	eventCallDone
	eventError
	eventTurnEnded
	eventMap
)

// Events is the funnel between the turn goroutine (plus its call dispatch
// goroutines and the map sink) and the Bubble Tea event loop. It implements
// stream.Emitter. Sends block until the UI drains them or the app context
// ends, so no event is silently dropped and a quit UI never strands the turn
// goroutine.
type Events struct {
	ctx context.Context
	ch  chan event
}

// NewEvents creates the event funnel. ctx must be the application context
// passed to tea.WithContext so pending sends unblock on exit.
func NewEvents(ctx context.Context) *Events {
	return &Events{ctx: ctx, ch: make(chan event, eventBufferSize)}
}

func (e *Events) send(ev event) {
	select {
	case e.ch <- ev:
	case <-e.ctx.Done():
	}
}

// TurnStarted implements stream.Emitter.
func (e *Events) TurnStarted() { e.send(event{kind: eventTurnStarted}) }

// ThoughtUpdated implements stream.Emitter.
func (e *Events) ThoughtUpdated(rendered string) {
	e.send(event{kind: eventThought, text: rendered})
}

// AnswerUpdated implements stream.Emitter.
func (e *Events) AnswerUpdated(rendered string) {
	e.send(event{kind: eventAnswer, text: rendered})
}

// FunctionCallPending implements stream.Emitter.
func (e *Events) FunctionCallPending(name, prettyArgs string) {
	e.send(event{kind: eventCallPending, name: name, text: prettyArgs})
}

// FunctionCallDone implements stream.Emitter.
func (e *Events) FunctionCallDone(name, ack string, err error) {
	e.send(event{kind: eventCallDone, name: name, text: ack, err: err})
}

// ErrorMessage implements stream.Emitter.
func (e *Events) ErrorMessage(rendered string) {
	e.send(event{kind: eventError, text: rendered})
}

// TurnEnded implements stream.Emitter.
func (e *Events) TurnEnded(outcome stream.Outcome) {
	e.send(event{kind: eventTurnEnded, outcome: outcome})
}

var _ stream.Emitter = (*Events)(nil)

// MapSink returns the sink the tool bridge invokes on successful calls. Each
// update is resolved (geocoded/routed) off the protocol goroutine; failures
// become user-visible panel messages, never bridge errors.
func (e *Events) MapSink(resolver *nav.Resolver, logger *slog.Logger) nav.Sink {
	return func(update nav.MapUpdate) {
		go func() {
			view, err := resolver.Resolve(e.ctx, update)
			if err != nil {
				logger.Warn("map update failed", "error", err)
			}
			e.send(event{kind: eventMap, view: view, viewErr: err})
		}()
	}
}

// Bubble Tea message types, one per event kind.
type (
	turnStartedMsg struct{}
	thoughtMsg     struct{ text string }
	answerMsg      struct{ text string }
	callPendingMsg struct{ name, args string }
	callDoneMsg    struct {
		name, ack string
		err       error
	}
	turnErrorMsg struct{ text string }
	turnEndedMsg struct{ outcome stream.Outcome }
	mapMsg       struct {
		view nav.View
		err  error
	}
)

// listenForEvents waits for the next event and converts it to a message.
// Update re-issues it after handling each message, so the listener stays
// attached to the event loop for the life of the program.
func listenForEvents(e *Events) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-e.ch:
			switch ev.kind {
			case eventTurnStarted:
				return turnStartedMsg{}
			case eventThought:
				return thoughtMsg{text: ev.text}
			case eventAnswer:
				return answerMsg{text: ev.text}
			case eventCallPending:
				return callPendingMsg{name: ev.name, args: ev.text}
			case eventCallDone:
				return callDoneMsg{name: ev.name, ack: ev.text, err: ev.err}
			case eventError:
				return turnErrorMsg{text: ev.text}
			case eventTurnEnded:
				return turnEndedMsg{outcome: ev.outcome}
			case eventMap:
				return mapMsg{view: ev.view, err: ev.viewErr}
			}
			return nil
		case <-e.ctx.Done():
			return nil
		}
	}
}
