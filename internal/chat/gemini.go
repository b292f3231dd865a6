package chat

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/roamchat/roam/internal/tools"
)

// systemInstruction anchors the model to the map-assistant role. The tool
// acknowledgments are one-way: results are not fed back into the turn, so the
// model is told to answer in the same breath as it calls a tool.
const systemInstruction = `You are a map assistant for a terminal application.
When the user asks about a place, call view-location with it. When the user
asks how to get somewhere, call get-directions with the origin and the
destination. Tool calls update a map panel next to the conversation; you do
not receive their results, so always accompany a tool call with a short
answer of your own. Keep answers concise and use markdown.`

// GeminiConfig carries what NewGeminiChat needs from the app configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

func (cfg GeminiConfig) validate() error {
	if cfg.APIKey == "" {
		return errors.New("api key is required")
	}
	if cfg.Model == "" {
		return errors.New("model name is required")
	}
	return nil
}

// NewGeminiChat creates a Gemini chat session with the given tools declared
// and thinking enabled, so streamed responses interleave thought, text and
// function-call parts.
func NewGeminiChat(ctx context.Context, cfg GeminiConfig, defs []tools.Definition) (*genai.Chat, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
		ThinkingConfig: &genai.ThinkingConfig{IncludeThoughts: true},
	}
	if len(defs) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarationsFrom(defs)}}
	}

	chat, err := client.Chats.Create(ctx, cfg.Model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return chat, nil
}

// declarationsFrom converts bridge tool definitions into Gemini function
// declarations. Tool parameters are strings throughout.
func declarationsFrom(defs []tools.Definition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, def := range defs {
		properties := make(map[string]*genai.Schema, len(def.Params))
		var required []string
		for _, p := range def.Params {
			properties[p.Name] = &genai.Schema{
				Type:        genai.TypeString,
				Description: p.Description,
			}
			if p.Required {
				required = append(required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        def.Name,
			Description: def.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		})
	}
	return decls
}
