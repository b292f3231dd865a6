// Package testutil provides deterministic model-stream fixtures for tests.
package testutil

import (
	"iter"

	"google.golang.org/genai"
)

// TextPart builds an answer-text fragment.
func TextPart(text string) *genai.Part {
	return &genai.Part{Text: text}
}

// ThoughtPart builds a thought fragment.
func ThoughtPart(text string) *genai.Part {
	return &genai.Part{Text: text, Thought: true}
}

// CallPart builds a function-call fragment.
func CallPart(name string, args map[string]any) *genai.Part {
	return &genai.Part{FunctionCall: &genai.FunctionCall{Name: name, Args: args}}
}

// Chunk wraps parts into a single-candidate response chunk, the shape the
// Gemini SDK streams.
func Chunk(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: parts}},
		},
	}
}

// Stream yields the given chunks in order, then completes.
func Stream(chunks ...*genai.GenerateContentResponse) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

// FailingStream yields the given chunks in order, then raises err.
func FailingStream(err error, chunks ...*genai.GenerateContentResponse) iter.Seq2[*genai.GenerateContentResponse, error] {
	return func(yield func(*genai.GenerateContentResponse, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		yield(nil, err)
	}
}
