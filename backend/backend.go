package backend

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultTimeout bounds every call across a backend transport when neither
// the descriptor nor the caller provides one.
const DefaultTimeout = 30 * time.Second

// State is the connection state of a Session.
type State int

// Session states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateFailed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is the runtime connection to one tool-providing backend.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use and must
// serialize invocations on the underlying transport.
// - Context: InvokeTool must honor cancellation/deadlines.
// - Tools: Tools and ToolNames are only meaningful in StateConnected; other
// states report an empty set.
// - Errors: InvokeTool returns *InvocationError; Disconnect is idempotent.
type Session interface {
	// Name returns the backend name from the descriptor.
	Name() string

	// Kind returns the descriptor kind (e.g., "stdio", "local").
	Kind() string

	// State returns the current connection state.
	State() State

	// Tools returns the tools advertised by the backend.
	Tools() []*mcp.Tool

	// ToolNames returns the advertised tool names in listing order.
	ToolNames() []string

	// InvokeTool calls a tool on this backend.
	InvokeTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error)

	// Disconnect releases the transport. Calling it more than once is a no-op.
	Disconnect() error
}

// Connector opens a Session for a descriptor. Implementations return a
// *ConnectionError on failure and never leave a subprocess running when they
// do.
type Connector func(ctx context.Context, d Descriptor) (Session, error)

// Info summarizes a session for status output.
type Info struct {
	Name  string
	Kind  string
	State State
	Tools []string
	Err   error
}

// Describe builds an Info snapshot for s.
func Describe(s Session) Info {
	info := Info{
		Name:  s.Name(),
		Kind:  s.Kind(),
		State: s.State(),
		Tools: s.ToolNames(),
	}
	if f, ok := s.(*failedSession); ok {
		info.Err = f.err
	}
	return info
}
