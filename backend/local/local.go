// Package local provides in-process backends whose tools are plain Go
// handlers. They follow the same session state machine as subprocess
// backends, which makes them useful for built-in tools and for tests.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolDef defines a local tool with its handler.
type ToolDef struct {
	Name        string
	Title       string
	Description string
	InputSchema map[string]any
	Annotations *mcp.ToolAnnotations
	Handler     HandlerFunc
}

// Backend is an in-process backend. It implements backend.Session.
type Backend struct {
	name     string
	handlers map[string]ToolDef

	mu    sync.RWMutex
	state backend.State
	tools []*mcp.Tool

	// call serializes handler invocations.
	call sync.Mutex
}

// New creates a new local backend in the disconnected state.
func New(name string) *Backend {
	return &Backend{
		name:     name,
		handlers: make(map[string]ToolDef),
	}
}

// Name returns the backend instance name.
func (b *Backend) Name() string {
	return b.name
}

// Kind returns the backend kind.
func (b *Backend) Kind() string {
	return backend.KindLocal
}

// State returns the connection state.
func (b *Backend) State() backend.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// RegisterHandler registers a tool handler. Tools registered after Connect
// are advertised on the next Connect.
func (b *Backend) RegisterHandler(name string, def ToolDef) {
	if def.Name == "" {
		def.Name = name
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = def
}

// UnregisterHandler removes a tool handler.
func (b *Backend) UnregisterHandler(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, name)
}

// Connect snapshots the registered handlers as the advertised tool list and
// moves the backend to the connected state.
func (b *Backend) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		b.mu.Lock()
		b.state = backend.StateFailed
		b.mu.Unlock()
		return &backend.ConnectionError{Backend: b.name, Op: "handshake", Err: err}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]*mcp.Tool, 0, len(names))
	for _, name := range names {
		def := b.handlers[name]
		schema := def.InputSchema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		tools = append(tools, &mcp.Tool{
			Name:        def.Name,
			Title:       def.Title,
			Description: def.Description,
			InputSchema: schema,
			Annotations: def.Annotations,
		})
	}
	b.tools = tools
	b.state = backend.StateConnected
	return nil
}

// Tools returns the advertised tools.
func (b *Backend) Tools() []*mcp.Tool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.state != backend.StateConnected {
		return nil
	}
	return append([]*mcp.Tool(nil), b.tools...)
}

// ToolNames returns the advertised tool names.
func (b *Backend) ToolNames() []string {
	tools := b.Tools()
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Name)
	}
	return out
}

// InvokeTool invokes a tool handler. Handler errors are reported as an
// IsError result, the same way an MCP server reports tool failures.
func (b *Backend) InvokeTool(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	b.mu.RLock()
	state := b.state
	def, ok := b.handlers[tool]
	advertised := false
	for _, t := range b.tools {
		if t.Name == tool {
			advertised = true
			break
		}
	}
	b.mu.RUnlock()

	if state != backend.StateConnected {
		return nil, backend.NotConnected(b.name, tool)
	}
	if !ok || !advertised || def.Handler == nil {
		return nil, backend.UnknownTool(b.name, tool)
	}
	if err := ctx.Err(); err != nil {
		return nil, backend.TransportFailure(b.name, tool, err)
	}

	b.call.Lock()
	defer b.call.Unlock()

	value, err := def.Handler(ctx, args)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil
	}
	if value == nil {
		return &mcp.CallToolResult{Content: []mcp.Content{}}, nil
	}
	text, err := render(value)
	if err != nil {
		return nil, backend.TransportFailure(b.name, tool, err)
	}
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil
}

// Disconnect moves the backend to the disconnected state. It is idempotent.
func (b *Backend) Disconnect() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = backend.StateDisconnected
	b.tools = nil
	return nil
}

// Connector returns a backend.Connector for local descriptors. Descriptors
// are matched to backends by name.
func Connector(backends ...*Backend) backend.Connector {
	byName := make(map[string]*Backend, len(backends))
	for _, b := range backends {
		byName[b.name] = b
	}
	return func(ctx context.Context, d backend.Descriptor) (backend.Session, error) {
		b, ok := byName[d.Name]
		if !ok {
			return nil, &backend.ConnectionError{Backend: d.Name, Op: "spawn", Err: fmt.Errorf("no local backend named %q", d.Name)}
		}
		if err := b.Connect(ctx); err != nil {
			return nil, err
		}
		return b, nil
	}
}

func render(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode tool result: %w", err)
	}
	return string(data), nil
}
