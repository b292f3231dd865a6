// Package bridge implements the tool-call bridge between a model runtime and
// the map: an MCP server that validates and executes map tool invocations, and
// a client that exposes those tools to the model session.
//
// Both sides are written against the SDK's mcp.Transport interface. In-process
// wiring uses mcp.NewInMemoryTransports; the identical server also runs over
// stdio for external MCP clients (see the mcp command).
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roamchat/roam/internal/nav"
	"github.com/roamchat/roam/internal/tools"
)

// Built-in tool names. These two always exist; additional tools extend the
// registry without changing the contract.
const (
	ToolViewLocation  = "view-location"
	ToolGetDirections = "get-directions"
)

// Server validates tool invocations against its registry, executes them, and
// forwards one MapUpdate per successful call to the sink.
type Server struct {
	mcpServer *mcp.Server
	registry  *tools.Registry
	sink      nav.Sink
	logger    *slog.Logger
}

// ServerConfig holds Server construction parameters.
type ServerConfig struct {
	Name    string
	Version string
	// Sink receives one MapUpdate per successful invocation, before the
	// acknowledgment is returned. Required.
	Sink nav.Sink
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewServer creates a Server with the built-in map tools registered.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		registry: tools.NewRegistry(),
		sink:     cfg.Sink,
		logger:   cfg.Logger,
	}

	if err := s.registerBuiltins(); err != nil {
		return nil, fmt.Errorf("registering built-in tools: %w", err)
	}
	return s, nil
}

// Tools returns the registered definitions in registration order.
func (s *Server) Tools() []tools.Definition {
	return s.registry.Describe()
}

// Run serves the bridge on the given transport. It blocks until the transport
// closes or ctx is canceled; between invocations it parks on the transport's
// message delivery, consuming no CPU.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}

// Connect binds the server to a transport without blocking, returning the
// session for lifecycle control. Used for in-process wiring and tests.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}

// registerBuiltins registers the two map tools and their MCP handlers.
func (s *Server) registerBuiltins() error {
	builtins := []tools.Definition{
		{
			Name:        ToolViewLocation,
			Description: "Frame the map on a single location. Accepts any free-text place name, address or landmark.",
			Params: []tools.Param{
				{Name: "location", Type: "string", Description: "Place to frame on the map", Required: true},
			},
		},
		{
			Name:        ToolGetDirections,
			Description: "Show directions between two places on the map.",
			Params: []tools.Param{
				{Name: "origin", Type: "string", Description: "Start of the journey", Required: true},
				{Name: "destination", Type: "string", Description: "End of the journey", Required: true},
			},
		},
	}

	for _, def := range builtins {
		if err := s.registry.Register(def); err != nil {
			return err
		}
		s.addTool(def)
	}
	return nil
}

// addTool wires one registry definition into the MCP server. The handler
// takes raw arguments; validation stays with the registry so every path
// produces the same typed errors.
func (s *Server) addTool(def tools.Definition) {
	tool := &mcp.Tool{
		Name:        def.Name,
		Description: def.Description,
		InputSchema: def.InputSchema(),
	}
	mcp.AddTool(s.mcpServer, tool, func(ctx context.Context, req *mcp.CallToolRequest, raw map[string]any) (*mcp.CallToolResult, any, error) {
		ack, err := s.Execute(ctx, def.Name, raw)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: ack}},
		}, nil, nil
	})
}

// Execute validates and runs a single invocation: registry validation, then
// the MapUpdate mapping for the named tool, then the sink, then the textual
// acknowledgment. Invocations that fail validation never reach the sink.
func (s *Server) Execute(ctx context.Context, name string, raw map[string]any) (string, error) {
	args, err := s.registry.Validate(name, raw)
	if err != nil {
		s.logger.Warn("invocation rejected", "tool", name, "error", err)
		return "", err
	}

	var (
		update nav.MapUpdate
		ack    string
	)
	switch name {
	case ToolViewLocation:
		update = nav.MapUpdate{
			Kind:     nav.KindLocation,
			Location: &nav.Location{Query: args["location"]},
		}
		ack = fmt.Sprintf("Navigating to: %s", args["location"])
	case ToolGetDirections:
		update = nav.MapUpdate{
			Kind:  nav.KindRoute,
			Route: &nav.Route{Origin: args["origin"], Destination: args["destination"]},
		}
		ack = fmt.Sprintf("Navigating from %s to %s", args["origin"], args["destination"])
	default:
		// Registered but unmapped: a definition was added without a handler arm.
		return "", &ExecError{Tool: name, Msg: "no handler for tool"}
	}

	s.notifySink(name, update)
	s.logger.Debug("tool executed", "tool", name, "ack", ack)
	return ack, nil
}

// notifySink delivers the update. The sink is a best-effort UI notification:
// a panic there is logged and contained, never surfaced to the requester.
func (s *Server) notifySink(name string, update nav.MapUpdate) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("map sink panicked", "tool", name, "panic", r)
		}
	}()
	s.sink(update)
}

// errorResult converts a typed execution error into an error-flagged tool
// result, encoded as "[CODE] message" so the peer can recover the type.
func errorResult(err error) *mcp.CallToolResult {
	code := codeExecution
	var se *tools.SchemaError
	switch {
	case errors.As(err, &se):
		code = codeSchemaViolation
	case errors.Is(err, tools.ErrUnknownTool):
		code = codeUnknownTool
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("[%s] %s", code, err.Error())}},
		IsError: true,
	}
}
