package tools

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry operations.
// These are part of the package's public API and should be checked with errors.Is().
var (
	// ErrUnknownTool indicates an invocation named a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrDuplicateTool indicates a registration reused an existing tool name.
	ErrDuplicateTool = errors.New("duplicate tool")
)

// SchemaError reports an invocation argument that failed schema validation.
// Field always names the offending parameter so callers can surface it.
//
// Check with errors.As:
//
//	var se *tools.SchemaError
//	if errors.As(err, &se) {
//	    // se.Field names the bad parameter
//	}
type SchemaError struct {
	Tool   string // tool the invocation targeted
	Field  string // offending parameter name
	Reason string // human-readable reason ("missing", "must be a string", ...)
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("tool %q: field %q %s", e.Tool, e.Field, e.Reason)
}
