package bridge

import (
	"errors"
	"fmt"
)

// ErrTransportClosed indicates the transport under an in-flight call was
// closed. The call fails immediately; it never hangs on a dead peer.
var ErrTransportClosed = errors.New("transport closed")

// ExecError reports a tool handler (or the protocol layer around it) failing
// after validation succeeded.
type ExecError struct {
	Tool string
	Msg  string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("tool %q execution failed: %s", e.Tool, e.Msg)
}

// Error codes carried inside error-flagged tool results, formatted as
// "[CODE] message". The client translates them back into typed errors, so the
// taxonomy survives the protocol boundary.
const (
	codeUnknownTool     = "UNKNOWN_TOOL"
	codeSchemaViolation = "SCHEMA_VIOLATION"
	codeExecution       = "EXECUTION_ERROR"
)
