// Package chat owns the conversation with the model: one Gemini chat per
// process, one turn at a time. A turn is the full round trip from a user
// message through the streamed response, including any tool calls the model
// makes along the way.
package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/roamchat/roam/internal/stream"
)

// ErrEmptyMessage indicates the user message was blank after trimming.
var ErrEmptyMessage = errors.New("message is empty")

// Streamer starts one streamed model turn. *genai.Chat satisfies this; tests
// substitute canned streams.
type Streamer interface {
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Config contains all required parameters for a Session.
type Config struct {
	Streamer Streamer
	Reducer  *stream.Reducer
	Logger   *slog.Logger
}

func (cfg Config) validate() error {
	if cfg.Streamer == nil {
		return errors.New("streamer is required")
	}
	if cfg.Reducer == nil {
		return errors.New("reducer is required")
	}
	return nil
}

// Session drives turns against the model. It is stateless beyond its
// dependencies; the chat history lives in the Streamer and the per-turn
// accumulation lives in the Reducer. Send serializes turns by construction:
// a second Send while one is streaming is rejected, not queued.
type Session struct {
	streamer Streamer
	reducer  *stream.Reducer
	logger   *slog.Logger
}

// NewSession creates a Session.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{streamer: cfg.Streamer, reducer: cfg.Reducer, logger: logger}, nil
}

// Busy reports whether a turn is currently in flight.
func (s *Session) Busy() bool { return s.reducer.State() != stream.StateIdle }

// Send runs one turn: it streams the model's response to the user message and
// folds it into UI events. It returns stream.ErrTurnInProgress when a turn is
// already running, ErrEmptyMessage for blank input, and nil otherwise — model
// and tool failures are surfaced through the reducer's emitter, not returned.
func (s *Session) Send(ctx context.Context, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}

	turnID := uuid.NewString()
	s.logger.Info("turn started", "turn_id", turnID, "message_len", len(message))

	err := s.reducer.Reduce(ctx, s.streamer.SendMessageStream(ctx, genai.Part{Text: message}))
	if err != nil {
		s.logger.Warn("turn rejected", "turn_id", turnID, "error", err)
		return err
	}

	s.logger.Info("turn finished", "turn_id", turnID)
	return nil
}
