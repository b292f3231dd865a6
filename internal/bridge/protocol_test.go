package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roamchat/roam/internal/log"
	"github.com/roamchat/roam/internal/tools"
)

// connectBridge wires a server and client over in-memory transports. Both
// sessions are cleaned up via t.Cleanup.
func connectBridge(t *testing.T) (*Client, *recordingSink) {
	t.Helper()

	srv, sink := newTestServer(t)
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := srv.Connect(ctx, serverTransport)
	if err != nil {
		t.Fatalf("server.Connect() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client, err := Connect(ctx, clientTransport, log.NewNop())
	if err != nil {
		t.Fatalf("Connect() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client, sink
}

func TestProtocol_Tools(t *testing.T) {
	client, _ := connectBridge(t)

	defs, err := client.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools() unexpected error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("Tools() returned %d definitions, want 2", len(defs))
	}

	byName := make(map[string]tools.Definition, len(defs))
	for _, d := range defs {
		if d.Description == "" {
			t.Errorf("Tools() definition %q has empty description", d.Name)
		}
		byName[d.Name] = d
	}

	vl, ok := byName["view-location"]
	if !ok {
		t.Fatal("Tools() missing view-location")
	}
	if len(vl.Params) != 1 || vl.Params[0].Name != "location" || !vl.Params[0].Required {
		t.Errorf("view-location params = %+v, want one required location param", vl.Params)
	}

	gd, ok := byName["get-directions"]
	if !ok {
		t.Fatal("Tools() missing get-directions")
	}
	if len(gd.Params) != 2 {
		t.Fatalf("get-directions has %d params, want 2", len(gd.Params))
	}
	for _, p := range gd.Params {
		if p.Name != "origin" && p.Name != "destination" {
			t.Errorf("get-directions has unexpected param %q", p.Name)
		}
		if p.Type != "string" || !p.Required {
			t.Errorf("get-directions param %q = %+v, want required string", p.Name, p)
		}
	}
}

// Advertised schemas arrive as raw JSON after a serialized transport and as
// typed schemas when the value never left the process; both decode to the
// same definition.
func TestDefinitionFromTool(t *testing.T) {
	fromWire := &mcp.Tool{
		Name:        "get-directions",
		Description: "Show directions between two places on the map.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"origin":      map[string]any{"type": "string", "description": "Start of the journey"},
				"destination": map[string]any{"type": "string", "description": "End of the journey"},
			},
			"required": []any{"origin", "destination"},
		},
	}
	typed := tools.Definition{
		Name:        "get-directions",
		Description: "Show directions between two places on the map.",
		Params: []tools.Param{
			{Name: "destination", Type: "string", Description: "End of the journey", Required: true},
			{Name: "origin", Type: "string", Description: "Start of the journey", Required: true},
		},
	}
	fromProcess := &mcp.Tool{
		Name:        typed.Name,
		Description: typed.Description,
		InputSchema: typed.InputSchema(),
	}

	for _, tt := range []struct {
		name string
		tool *mcp.Tool
	}{
		{name: "raw JSON schema", tool: fromWire},
		{name: "typed schema", tool: fromProcess},
	} {
		t.Run(tt.name, func(t *testing.T) {
			def, err := definitionFromTool(tt.tool)
			if err != nil {
				t.Fatalf("definitionFromTool() unexpected error: %v", err)
			}
			if def.Name != typed.Name || def.Description != typed.Description {
				t.Errorf("definitionFromTool() = %+v, want name and description preserved", def)
			}
			// Parameters come back sorted by name.
			if len(def.Params) != 2 {
				t.Fatalf("definitionFromTool() has %d params, want 2", len(def.Params))
			}
			for i, want := range typed.Params {
				if def.Params[i] != want {
					t.Errorf("definitionFromTool() param[%d] = %+v, want %+v", i, def.Params[i], want)
				}
			}
		})
	}
}

func TestDefinitionFromTool_NoSchema(t *testing.T) {
	def, err := definitionFromTool(&mcp.Tool{Name: "ping", Description: "Liveness check."})
	if err != nil {
		t.Fatalf("definitionFromTool() unexpected error: %v", err)
	}
	if len(def.Params) != 0 {
		t.Errorf("definitionFromTool() params = %+v, want none", def.Params)
	}
}

// Full round trip: client, transport, server, registry, sink, acknowledgment.
func TestProtocol_Call_ViewLocation(t *testing.T) {
	client, sink := connectBridge(t)

	ack, err := client.Call(context.Background(), "view-location", map[string]any{"location": "Paris"})
	if err != nil {
		t.Fatalf("Call() unexpected error: %v", err)
	}
	if !strings.Contains(ack, "Paris") {
		t.Errorf("Call() ack = %q, want it to contain Paris", ack)
	}

	if len(sink.updates) != 1 {
		t.Fatalf("sink received %d updates, want exactly 1", len(sink.updates))
	}
	if sink.updates[0].Location == nil || sink.updates[0].Location.Query != "Paris" {
		t.Errorf("sink update = %+v, want Location{Query: Paris}", sink.updates[0])
	}
}

// The client normalizes model-convention names before dispatch.
func TestProtocol_Call_NormalizesName(t *testing.T) {
	client, sink := connectBridge(t)

	ack, err := client.Call(context.Background(), "getDirections", map[string]any{
		"origin":      "Oslo",
		"destination": "Bergen",
	})
	if err != nil {
		t.Fatalf("Call(getDirections) unexpected error: %v", err)
	}
	if !strings.Contains(ack, "Oslo") {
		t.Errorf("Call() ack = %q, want it to echo the origin", ack)
	}
	if len(sink.updates) != 1 {
		t.Fatalf("sink received %d updates, want 1", len(sink.updates))
	}
}

func TestProtocol_Call_UnknownTool(t *testing.T) {
	client, sink := connectBridge(t)

	_, err := client.Call(context.Background(), "teleport", map[string]any{})
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("Call(teleport) error = %v, want ErrUnknownTool", err)
	}
	if len(sink.updates) != 0 {
		t.Errorf("sink received %d updates for unknown tool, want 0", len(sink.updates))
	}
}

func TestProtocol_Call_MissingField(t *testing.T) {
	client, sink := connectBridge(t)

	_, err := client.Call(context.Background(), "get-directions", map[string]any{"origin": "Oslo"})

	var se *tools.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("Call() error = %v, want *SchemaError", err)
	}
	if se.Field != "destination" {
		t.Errorf("Call() SchemaError.Field = %q, want destination", se.Field)
	}
	if len(sink.updates) != 0 {
		t.Errorf("sink received %d updates for invalid invocation, want 0", len(sink.updates))
	}
}

// A closed transport fails pending and subsequent calls instead of hanging.
func TestProtocol_Call_AfterClose(t *testing.T) {
	client, _ := connectBridge(t)

	if err := client.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}

	_, err := client.Call(context.Background(), "view-location", map[string]any{"location": "Paris"})
	if err == nil {
		t.Fatal("Call() after Close() expected error, got nil")
	}
}

func TestDecodeErrorResult(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantField string
		unknown   bool
	}{
		{
			name:    "unknown tool code",
			text:    `[UNKNOWN_TOOL] unknown tool: "teleport"`,
			unknown: true,
		},
		{
			name:      "schema violation names field",
			text:      `[SCHEMA_VIOLATION] tool "get-directions": field "destination" is required`,
			wantField: "destination",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeErrorResult("get-directions", tt.text)
			if tt.unknown {
				if !errors.Is(err, tools.ErrUnknownTool) {
					t.Fatalf("decodeErrorResult() = %v, want ErrUnknownTool", err)
				}
				return
			}
			var se *tools.SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("decodeErrorResult() = %v, want *SchemaError", err)
			}
			if se.Field != tt.wantField {
				t.Errorf("decodeErrorResult() field = %q, want %q", se.Field, tt.wantField)
			}
		})
	}
}
