package chat

import (
	"context"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/roamchat/roam/internal/log"
	"github.com/roamchat/roam/internal/stream"
	"github.com/roamchat/roam/internal/testutil"
	"github.com/roamchat/roam/internal/tools"
)

// cannedStreamer replays a fixed stream and records what was sent.
type cannedStreamer struct {
	turn iter.Seq2[*genai.GenerateContentResponse, error]
	sent []genai.Part
}

func (s *cannedStreamer) SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error] {
	s.sent = append(s.sent, parts...)
	return s.turn
}

type nopEmitter struct {
	outcome stream.Outcome
}

func (e *nopEmitter) TurnStarted()                           {}
func (e *nopEmitter) ThoughtUpdated(string)                  {}
func (e *nopEmitter) AnswerUpdated(string)                   {}
func (e *nopEmitter) FunctionCallPending(string, string)     {}
func (e *nopEmitter) FunctionCallDone(string, string, error) {}
func (e *nopEmitter) ErrorMessage(string)                    {}
func (e *nopEmitter) TurnEnded(outcome stream.Outcome)       { e.outcome = outcome }

type nopCaller struct{}

func (nopCaller) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	return "", nil
}

func newTestSession(t *testing.T, streamer Streamer) (*Session, *nopEmitter) {
	t.Helper()
	emitter := &nopEmitter{}
	reducer, err := stream.New(nopCaller{}, stream.RendererFunc(func(s string) string { return s }), emitter, log.NewNop())
	require.NoError(t, err)

	session, err := NewSession(Config{Streamer: streamer, Reducer: reducer, Logger: log.NewNop()})
	require.NoError(t, err)
	return session, emitter
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(Config{})
	assert.ErrorContains(t, err, "streamer is required")
}

func TestSession_Send(t *testing.T) {
	streamer := &cannedStreamer{turn: testutil.Stream(
		testutil.Chunk(testutil.TextPart("The Eiffel Tower is in Paris.")),
	)}
	session, emitter := newTestSession(t, streamer)

	err := session.Send(context.Background(), "Where is the Eiffel Tower?")
	require.NoError(t, err)

	require.Len(t, streamer.sent, 1)
	assert.Equal(t, "Where is the Eiffel Tower?", streamer.sent[0].Text)
	assert.Equal(t, "The Eiffel Tower is in Paris.", emitter.outcome.Answer)
	assert.False(t, session.Busy())
}

func TestSession_Send_RejectsEmptyMessage(t *testing.T) {
	streamer := &cannedStreamer{turn: testutil.Stream()}
	session, _ := newTestSession(t, streamer)

	for _, message := range []string{"", "   ", "\n\t"} {
		err := session.Send(context.Background(), message)
		assert.ErrorIs(t, err, ErrEmptyMessage, "message %q", message)
	}
	assert.Empty(t, streamer.sent, "nothing reaches the model")
}

func TestDeclarationsFrom(t *testing.T) {
	defs := []tools.Definition{
		{
			Name:        "get-directions",
			Description: "Get directions between two places.",
			Params: []tools.Param{
				{Name: "origin", Type: "string", Description: "Starting point.", Required: true},
				{Name: "destination", Type: "string", Description: "End point.", Required: true},
				{Name: "mode", Type: "string", Description: "Travel mode.", Required: false},
			},
		},
	}

	decls := declarationsFrom(defs)
	require.Len(t, decls, 1)

	decl := decls[0]
	assert.Equal(t, "get-directions", decl.Name)
	assert.Equal(t, genai.TypeObject, decl.Parameters.Type)
	assert.Equal(t, []string{"origin", "destination"}, decl.Parameters.Required)
	require.Contains(t, decl.Parameters.Properties, "mode")
	assert.Equal(t, genai.TypeString, decl.Parameters.Properties["origin"].Type)
	assert.Equal(t, "Starting point.", decl.Parameters.Properties["origin"].Description)
}

func TestGeminiConfig_Validate(t *testing.T) {
	_, err := NewGeminiChat(context.Background(), GeminiConfig{Model: "gemini-2.5-flash"}, nil)
	assert.ErrorContains(t, err, "api key is required")

	_, err = NewGeminiChat(context.Background(), GeminiConfig{APIKey: "k"}, nil)
	assert.ErrorContains(t, err, "model name is required")
}
