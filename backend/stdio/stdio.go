// Package stdio connects to MCP tool servers launched as subprocesses and
// speaking the Model Context Protocol over stdin/stdout.
package stdio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// DefaultTerminateDuration is how long a backend process is given to exit
// after its stdin is closed before it is killed.
const DefaultTerminateDuration = 5 * time.Second

// TransportFunc builds the transport for a descriptor. Tests use it to
// substitute in-memory transports for subprocesses.
type TransportFunc func(d backend.Descriptor) (mcp.Transport, error)

// Options configures stdio sessions.
type Options struct {
	// Client identifies this process during the MCP handshake.
	// Default: toolquery/dev.
	Client *mcp.Implementation

	// Transport overrides how the transport is built.
	// Default: CommandTransport.
	Transport TransportFunc

	// TerminateDuration bounds process shutdown on Disconnect.
	// Default: DefaultTerminateDuration.
	TerminateDuration time.Duration

	// Logger receives session lifecycle events.
	Logger zerolog.Logger
}

func (o *Options) applyDefaults() {
	if o.Client == nil {
		o.Client = &mcp.Implementation{Name: "toolquery", Version: "dev"}
	}
	if o.TerminateDuration == 0 {
		o.TerminateDuration = DefaultTerminateDuration
	}
	if o.Transport == nil {
		terminate := o.TerminateDuration
		o.Transport = func(d backend.Descriptor) (mcp.Transport, error) {
			return CommandTransport(d, terminate), nil
		}
	}
}

// CommandTransport builds the subprocess transport for d. The process is
// not bound to any context: it lives until the session is closed.
func CommandTransport(d backend.Descriptor, terminate time.Duration) *mcp.CommandTransport {
	cmd := exec.Command(d.Command, d.Args...)
	cmd.Dir = d.Dir
	if env := d.Environ(); len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stderr = os.Stderr
	return &mcp.CommandTransport{Command: cmd, TerminateDuration: terminate}
}

// Session is a connection to one MCP backend. It implements backend.Session.
type Session struct {
	name    string
	kind    string
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.RWMutex
	state   backend.State
	cs      *mcp.ClientSession
	tools   []*mcp.Tool
	toolSet map[string]struct{}

	// call serializes invocations on the transport.
	call sync.Mutex
}

// Connect launches the backend, performs the MCP handshake and lists its
// tools. On any failure the process is stopped and a *backend.ConnectionError
// is returned.
func Connect(ctx context.Context, d backend.Descriptor, opts Options) (*Session, error) {
	opts.applyDefaults()

	s := &Session{
		name:    d.Name,
		kind:    d.EffectiveKind(),
		timeout: d.EffectiveTimeout(),
		logger:  opts.Logger.With().Str("backend", d.Name).Logger(),
		state:   backend.StateConnecting,
	}

	transport, err := opts.Transport(d)
	if err != nil {
		return nil, &backend.ConnectionError{Backend: d.Name, Op: "spawn", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client := mcp.NewClient(opts.Client, nil)
	cs, err := client.Connect(ctx, transport, nil)
	if err != nil {
		op := "handshake"
		var execErr *exec.Error
		if errors.As(err, &execErr) || errors.Is(err, os.ErrNotExist) {
			op = "spawn"
		}
		return nil, &backend.ConnectionError{Backend: d.Name, Op: op, Err: err}
	}

	tools, err := listTools(ctx, cs)
	if err != nil {
		_ = cs.Close()
		return nil, &backend.ConnectionError{Backend: d.Name, Op: "list_tools", Err: err}
	}

	s.cs = cs
	s.tools = tools
	s.toolSet = make(map[string]struct{}, len(tools))
	for _, t := range tools {
		s.toolSet[t.Name] = struct{}{}
	}
	s.state = backend.StateConnected
	s.logger.Debug().Int("tools", len(tools)).Msg("backend connected")
	return s, nil
}

// Connector returns a backend.Connector that opens stdio sessions.
func Connector(opts Options) backend.Connector {
	return func(ctx context.Context, d backend.Descriptor) (backend.Session, error) {
		s, err := Connect(ctx, d, opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// listTools follows pagination cursors until the server has listed every
// tool.
func listTools(ctx context.Context, cs *mcp.ClientSession) ([]*mcp.Tool, error) {
	var (
		cursor string
		tools  []*mcp.Tool
	)
	for {
		res, err := cs.ListTools(ctx, &mcp.ListToolsParams{Cursor: cursor})
		if err != nil {
			return nil, err
		}
		tools = append(tools, res.Tools...)
		if res.NextCursor == "" || res.NextCursor == cursor {
			return tools, nil
		}
		cursor = res.NextCursor
	}
}

// Name returns the backend name.
func (s *Session) Name() string {
	return s.name
}

// Kind returns the descriptor kind.
func (s *Session) Kind() string {
	return s.kind
}

// State returns the connection state.
func (s *Session) State() backend.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Tools returns the tools listed during Connect.
func (s *Session) Tools() []*mcp.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != backend.StateConnected {
		return nil
	}
	return append([]*mcp.Tool(nil), s.tools...)
}

// ToolNames returns the names of the tools listed during Connect.
func (s *Session) ToolNames() []string {
	tools := s.Tools()
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Name)
	}
	return out
}

// InvokeTool calls a tool on the backend. Calls are serialized per session.
func (s *Session) InvokeTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	s.mu.RLock()
	state, cs := s.state, s.cs
	_, known := s.toolSet[tool]
	s.mu.RUnlock()

	if state != backend.StateConnected || cs == nil {
		return nil, backend.NotConnected(s.name, tool)
	}
	if !known {
		return nil, backend.UnknownTool(s.name, tool)
	}
	if args == nil {
		args = map[string]any{}
	}

	s.call.Lock()
	defer s.call.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: args})
	if err != nil {
		s.logger.Warn().Err(err).Str("tool", tool).Msg("tool call failed")
		return nil, backend.TransportFailure(s.name, tool, err)
	}
	if res == nil {
		return nil, backend.TransportFailure(s.name, tool, fmt.Errorf("empty response"))
	}
	return res, nil
}

// Disconnect closes the MCP session and stops the backend process. It is
// idempotent and safe to call in any state.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	cs := s.cs
	s.cs = nil
	s.tools = nil
	s.toolSet = nil
	wasConnected := s.state == backend.StateConnected
	s.state = backend.StateDisconnected
	s.mu.Unlock()

	if cs == nil {
		return nil
	}
	err := cs.Close()
	if err != nil && wasConnected {
		s.logger.Warn().Err(err).Msg("backend close failed")
		return &backend.ConnectionError{Backend: s.name, Op: "disconnect", Err: err}
	}
	s.logger.Debug().Msg("backend disconnected")
	return nil
}
