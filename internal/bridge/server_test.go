package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/roamchat/roam/internal/log"
	"github.com/roamchat/roam/internal/nav"
	"github.com/roamchat/roam/internal/tools"
)

// recordingSink captures map updates for assertions.
type recordingSink struct {
	updates []nav.MapUpdate
}

func (s *recordingSink) sink(u nav.MapUpdate) {
	s.updates = append(s.updates, u)
}

func newTestServer(t *testing.T) (*Server, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	srv, err := NewServer(ServerConfig{
		Name:    "roam-test",
		Version: "0.0.1",
		Sink:    sink.sink,
		Logger:  log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}
	return srv, sink
}

func TestNewServer_RequiresSink(t *testing.T) {
	_, err := NewServer(ServerConfig{Name: "x", Version: "1"})
	if err == nil {
		t.Fatal("NewServer() without sink expected error, got nil")
	}
}

func TestServer_Tools_RegistrationOrder(t *testing.T) {
	srv, _ := newTestServer(t)

	defs := srv.Tools()
	if len(defs) != 2 {
		t.Fatalf("Tools() returned %d definitions, want 2", len(defs))
	}
	if defs[0].Name != ToolViewLocation || defs[1].Name != ToolGetDirections {
		t.Errorf("Tools() order = [%s, %s], want [view-location, get-directions]", defs[0].Name, defs[1].Name)
	}
}

func TestServer_Execute_ViewLocation(t *testing.T) {
	srv, sink := newTestServer(t)

	ack, err := srv.Execute(context.Background(), ToolViewLocation, map[string]any{"location": "Paris"})
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !strings.Contains(ack, "Paris") {
		t.Errorf("Execute() ack = %q, want it to echo the location", ack)
	}

	if len(sink.updates) != 1 {
		t.Fatalf("sink received %d updates, want exactly 1", len(sink.updates))
	}
	u := sink.updates[0]
	if u.Kind != nav.KindLocation || u.Location == nil || u.Location.Query != "Paris" {
		t.Errorf("sink update = %+v, want Location{Query: Paris}", u)
	}
}

func TestServer_Execute_GetDirections(t *testing.T) {
	srv, sink := newTestServer(t)

	ack, err := srv.Execute(context.Background(), ToolGetDirections, map[string]any{
		"origin":      "Oslo",
		"destination": "Bergen",
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if !strings.Contains(ack, "Oslo") || !strings.Contains(ack, "Bergen") {
		t.Errorf("Execute() ack = %q, want it to echo origin and destination", ack)
	}

	if len(sink.updates) != 1 {
		t.Fatalf("sink received %d updates, want exactly 1", len(sink.updates))
	}
	u := sink.updates[0]
	if u.Kind != nav.KindRoute || u.Route == nil || u.Route.Origin != "Oslo" || u.Route.Destination != "Bergen" {
		t.Errorf("sink update = %+v, want Route{Oslo, Bergen}", u)
	}
}

func TestServer_Execute_UnknownTool(t *testing.T) {
	srv, sink := newTestServer(t)

	_, err := srv.Execute(context.Background(), "teleport", map[string]any{})
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("Execute() error = %v, want ErrUnknownTool", err)
	}
	if len(sink.updates) != 0 {
		t.Errorf("sink received %d updates for unknown tool, want 0", len(sink.updates))
	}
}

func TestServer_Execute_MissingField(t *testing.T) {
	srv, sink := newTestServer(t)

	_, err := srv.Execute(context.Background(), ToolGetDirections, map[string]any{"origin": "Oslo"})

	var se *tools.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("Execute() error = %v, want *SchemaError", err)
	}
	if se.Field != "destination" {
		t.Errorf("Execute() SchemaError.Field = %q, want destination", se.Field)
	}
	if len(sink.updates) != 0 {
		t.Errorf("sink received %d updates for invalid invocation, want 0", len(sink.updates))
	}
}

// A panicking sink is contained; the invocation still succeeds.
func TestServer_Execute_SinkPanicContained(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Name:    "roam-test",
		Version: "0.0.1",
		Sink:    func(nav.MapUpdate) { panic("sink exploded") },
		Logger:  log.NewNop(),
	})
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}

	ack, err := srv.Execute(context.Background(), ToolViewLocation, map[string]any{"location": "Paris"})
	if err != nil {
		t.Fatalf("Execute() unexpected error with panicking sink: %v", err)
	}
	if !strings.Contains(ack, "Paris") {
		t.Errorf("Execute() ack = %q, want acknowledgment despite sink panic", ack)
	}
}
