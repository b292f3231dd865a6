package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/roamchat/roam/internal/tools"
)

// Client is the model-facing side of the bridge. It exposes the server's tool
// set to the model runtime and relays invocations over the transport,
// translating protocol failures back into the typed error taxonomy.
type Client struct {
	session *mcp.ClientSession
	logger  *slog.Logger
}

// Connect attaches a client to one endpoint of a transport pair and completes
// the protocol handshake.
func Connect(ctx context.Context, transport mcp.Transport, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "roam-chat",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to tool bridge: %w", err)
	}
	return &Client{session: session, logger: logger}, nil
}

// Close terminates the session. In-flight calls fail with ErrTransportClosed.
func (c *Client) Close() error {
	return c.session.Close()
}

// Tools retrieves the server's current tool definitions for the model
// runtime's declaration mechanism. Tool order follows the server's registry;
// parameter order within a tool is alphabetical, since JSON object keys carry
// no order over the wire.
func (c *Client) Tools(ctx context.Context) ([]tools.Definition, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", translateTransportError(err))
	}

	defs := make([]tools.Definition, 0, len(result.Tools))
	for _, t := range result.Tools {
		def, err := definitionFromTool(t)
		if err != nil {
			return nil, fmt.Errorf("listing tools: %w", err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Call invokes a tool by name. The name is normalized first, so model runtimes
// may use camelCase or SNAKE_CASE freely. The returned string is the tool's
// textual acknowledgment.
func (c *Client) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	canonical := NormalizeToolName(name)
	c.logger.Debug("calling tool", "tool", canonical, "requested_as", name)

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      canonical,
		Arguments: args,
	})
	if err != nil {
		return "", translateCallError(canonical, err)
	}

	text := joinText(result.Content)
	if result.IsError {
		return "", decodeErrorResult(canonical, text)
	}
	return text, nil
}

// definitionFromTool rebuilds a registry definition from an advertised tool.
// The SDK carries the advertised schema as untyped JSON, so it is decoded back
// into a jsonschema.Schema before the parameter list is read.
func definitionFromTool(t *mcp.Tool) (tools.Definition, error) {
	def := tools.Definition{Name: t.Name, Description: t.Description}
	if t.InputSchema == nil {
		return def, nil
	}

	schema, err := decodeSchema(t.InputSchema)
	if err != nil {
		return tools.Definition{}, fmt.Errorf("tool %q: %w", t.Name, err)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for _, name := range slices.Sorted(maps.Keys(schema.Properties)) {
		prop := schema.Properties[name]
		def.Params = append(def.Params, tools.Param{
			Name:        name,
			Type:        prop.Type,
			Description: prop.Description,
			Required:    required[name],
		})
	}
	return def, nil
}

// decodeSchema recovers a typed schema from whatever shape the session
// delivered: a *jsonschema.Schema when the value never left the process, or
// raw JSON (map[string]any) after a round trip over a serialized transport.
func decodeSchema(raw any) (*jsonschema.Schema, error) {
	if s, ok := raw.(*jsonschema.Schema); ok {
		return s, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding advertised schema: %w", err)
	}
	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decoding advertised schema: %w", err)
	}
	return &schema, nil
}

// joinText concatenates the text blocks of a tool result.
func joinText(content []mcp.Content) string {
	var b strings.Builder
	for _, c := range content {
		if tc, ok := c.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// translateCallError maps a protocol-level call failure onto the typed error
// taxonomy. The SDK reports unknown tools and schema mismatches as JSON-RPC
// errors, so classification inspects the message.
func translateCallError(tool string, err error) error {
	msg := err.Error()
	switch {
	case isClosedError(msg):
		return fmt.Errorf("%w: %s", ErrTransportClosed, tool)
	case strings.Contains(msg, "unknown tool") || strings.Contains(msg, "not found"):
		return fmt.Errorf("%w: %q", tools.ErrUnknownTool, tool)
	case strings.Contains(msg, "missing propert") || strings.Contains(msg, "validating"):
		return &tools.SchemaError{Tool: tool, Field: fieldFromMessage(msg), Reason: "failed schema validation"}
	default:
		return &ExecError{Tool: tool, Msg: msg}
	}
}

// translateTransportError maps non-call protocol failures.
func translateTransportError(err error) error {
	if isClosedError(err.Error()) {
		return ErrTransportClosed
	}
	return err
}

func isClosedError(msg string) bool {
	return strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "client closing") ||
		strings.Contains(msg, "session closed") ||
		strings.Contains(msg, "closed pipe")
}

// decodeErrorResult recovers the typed error from an error-flagged result's
// "[CODE] message" text.
func decodeErrorResult(tool, text string) error {
	code, msg := splitCode(text)
	switch code {
	case codeUnknownTool:
		return fmt.Errorf("%w: %q", tools.ErrUnknownTool, tool)
	case codeSchemaViolation:
		return &tools.SchemaError{Tool: tool, Field: fieldFromMessage(msg), Reason: "failed schema validation"}
	default:
		return &ExecError{Tool: tool, Msg: msg}
	}
}

// splitCode parses "[CODE] message". Unprefixed text yields an empty code.
func splitCode(text string) (code, msg string) {
	if !strings.HasPrefix(text, "[") {
		return "", text
	}
	end := strings.Index(text, "]")
	if end < 0 {
		return "", text
	}
	return text[1:end], strings.TrimSpace(text[end+1:])
}

// fieldFromMessage extracts the offending field name from a validation
// message. Server-side SchemaErrors read `field "x" ...`; the SDK's JSON
// schema validator reads `missing properties: "x"`.
func fieldFromMessage(msg string) string {
	for _, marker := range []string{`field "`, "missing propert"} {
		if i := strings.Index(msg, marker); i >= 0 {
			return firstQuoted(msg[i:])
		}
	}
	return firstQuoted(msg)
}

// firstQuoted returns the first double-quoted token in s, if any.
func firstQuoted(s string) string {
	start := strings.Index(s, `"`)
	if start < 0 {
		return ""
	}
	rest := s[start+1:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}
