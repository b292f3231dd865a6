// Package stream folds a model session's incremental response stream into
// ordered UI updates: accumulated thought text, accumulated answer text, and
// dispatched function calls, with error recovery that never discards output
// already produced.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"google.golang.org/genai"

	"github.com/roamchat/roam/internal/bridge"
)

// ErrTurnInProgress indicates a new turn was started while a previous one is
// still streaming. Turns are rejected, not queued or canceled.
var ErrTurnInProgress = errors.New("a turn is already in progress")

// PlaceholderAnswer replaces an entirely empty answer at turn end, unless a
// function call already produced a message this turn.
const PlaceholderAnswer = "Done."

// State is the reducer's turn state. Every turn ends back at StateIdle,
// whatever happened in between.
type State int

// Turn states.
const (
	StateIdle       State = iota // no turn in progress
	StateStreaming               // consuming chunks
	StateFinalizing              // stream done or failed, cleanup running
)

// Renderer formats accumulated markdown for display. Implementations fall
// back to the raw string on failure rather than erroring.
type Renderer interface {
	Render(markdown string) string
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(string) string

// Render implements Renderer.
func (f RendererFunc) Render(s string) string { return f(s) }

// Caller dispatches a function call through the tool bridge and returns the
// textual acknowledgment. bridge.Client satisfies this.
type Caller interface {
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// Emitter receives the reducer's ordered UI events. Callbacks fire once per
// fragment, not batched at stream end, so a slow stream shows incremental
// progress; implementations handle their own scroll-to-latest behavior.
//
// All callbacks run on the turn's goroutine except FunctionCallDone, which
// fires from the dispatch goroutine.
type Emitter interface {
	// TurnStarted fires when the first chunk is requested.
	TurnStarted()

	// ThoughtUpdated carries the rendered accumulated thought text. The
	// thinking region is visible whenever the text is non-empty.
	ThoughtUpdated(rendered string)

	// AnswerUpdated carries the rendered accumulated answer text.
	AnswerUpdated(rendered string)

	// FunctionCallPending announces a dispatched call, pretty-printed,
	// distinct from answer text.
	FunctionCallPending(name, prettyArgs string)

	// FunctionCallDone reports the acknowledgment (or failure) of a dispatched
	// call. Informational only; nothing is re-injected into the model turn.
	FunctionCallDone(name, ack string, err error)

	// ErrorMessage carries a rendered, user-readable stream failure, kept
	// separate from the answer text.
	ErrorMessage(rendered string)

	// TurnEnded fires exactly once per turn, on every path. An empty
	// Outcome.Thought means the thinking region should collapse.
	TurnEnded(outcome Outcome)
}

// Outcome is the final accumulated state of a turn.
type Outcome struct {
	Thought       string
	Answer        string // PlaceholderAnswer when nothing was produced
	FunctionCalls int
	Failed        bool // a stream error was surfaced this turn
}

// accumulator is the per-turn mutable state. Thought and answer are
// append-only within a turn; fragments extend them, never rewrite them.
type accumulator struct {
	thought string
	answer  string
	calls   int
}

// Reducer folds one turn at a time. It is single-goroutine by design: one
// logical task consumes a turn's stream to completion before the next begins,
// so there is no internal locking. Callers must serialize Reduce.
type Reducer struct {
	caller   Caller
	renderer Renderer
	emitter  Emitter
	logger   *slog.Logger
	state    State
}

// New creates a Reducer.
func New(caller Caller, renderer Renderer, emitter Emitter, logger *slog.Logger) (*Reducer, error) {
	if caller == nil {
		return nil, errors.New("caller is required")
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}
	if emitter == nil {
		return nil, errors.New("emitter is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reducer{caller: caller, renderer: renderer, emitter: emitter, logger: logger}, nil
}

// State reports the current turn state.
func (r *Reducer) State() State { return r.state }

// Reduce consumes one turn's chunk stream. Parts are processed in delivered
// order, both across chunks and within a chunk. A mid-stream source error is
// caught here, surfaced once as an ErrorMessage, and does not abort content
// already rendered; Reduce still returns nil in that case because the error
// has been handled. The only error Reduce returns is ErrTurnInProgress.
func (r *Reducer) Reduce(ctx context.Context, turn iter.Seq2[*genai.GenerateContentResponse, error]) error {
	if r.state != StateIdle {
		return ErrTurnInProgress
	}
	r.state = StateStreaming
	r.emitter.TurnStarted()

	var (
		acc       accumulator
		calls     sync.WaitGroup
		streamErr error
	)

	// The turn indicator resets exactly once per turn, error or not.
	defer func() {
		r.state = StateFinalizing
		if streamErr != nil {
			r.logger.Warn("model stream failed", "error", streamErr)
			r.emitter.ErrorMessage(r.renderer.Render(ExtractErrorMessage(streamErr)))
		}
		// In-flight tool calls finish before the turn is declared over; the
		// stream itself was never blocked on them.
		calls.Wait()

		outcome := Outcome{
			Thought:       acc.thought,
			Answer:        acc.answer,
			FunctionCalls: acc.calls,
			Failed:        streamErr != nil,
		}
		if outcome.Answer == "" && outcome.FunctionCalls == 0 {
			outcome.Answer = PlaceholderAnswer
		}
		r.emitter.TurnEnded(outcome)
		r.state = StateIdle
	}()

	for chunk, err := range turn {
		if err != nil {
			streamErr = err
			return nil
		}
		for _, part := range partsOf(chunk) {
			r.reducePart(ctx, &acc, part, &calls)
		}
	}
	return nil
}

// partsOf flattens a chunk to its parts in delivered order.
func partsOf(chunk *genai.GenerateContentResponse) []*genai.Part {
	if chunk == nil {
		return nil
	}
	var parts []*genai.Part
	for _, cand := range chunk.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil {
				parts = append(parts, part)
			}
		}
	}
	return parts
}

// reducePart folds a single fragment into the accumulator and emits its UI
// update.
func (r *Reducer) reducePart(ctx context.Context, acc *accumulator, part *genai.Part, calls *sync.WaitGroup) {
	switch {
	case part.FunctionCall != nil:
		r.dispatchCall(ctx, acc, part.FunctionCall, calls)

	case part.Thought:
		if part.Text == "" {
			return
		}
		if acc.thought != "" {
			acc.thought += " "
		}
		acc.thought += part.Text
		r.emitter.ThoughtUpdated(r.renderer.Render(acc.thought))

	case part.Text != "":
		acc.answer += part.Text
		r.emitter.AnswerUpdated(r.renderer.Render(acc.answer))
	}
}

// dispatchCall announces the pending call, then fires it through the bridge
// without blocking consumption of subsequent chunks. The acknowledgment is
// informational only. The model-convention name is normalized once here, so
// the pending-call message and the dispatch agree on the canonical name.
func (r *Reducer) dispatchCall(ctx context.Context, acc *accumulator, fc *genai.FunctionCall, calls *sync.WaitGroup) {
	name := bridge.NormalizeToolName(fc.Name)
	acc.calls++
	r.emitter.FunctionCallPending(name, prettyArgs(fc.Args))

	calls.Add(1)
	go func() {
		defer calls.Done()
		ack, err := r.caller.Call(ctx, name, fc.Args)
		if err != nil {
			r.logger.Warn("tool call failed", "tool", name, "error", err)
		}
		r.emitter.FunctionCallDone(name, ack, err)
	}()
}

// prettyArgs renders call arguments as indented JSON for the pending-call
// message.
func prettyArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
