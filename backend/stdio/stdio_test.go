package stdio

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/toolquery/backend"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type searchInput struct {
	Query string `json:"query" jsonschema:"search query"`
}

// testServer starts an in-memory MCP server with a web_search tool and
// returns Options that connect to it.
func testServer(t *testing.T) Options {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "search", Version: "v0.0.1"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "web_search", Description: "Search the web"},
		func(_ context.Context, _ *mcp.CallToolRequest, in searchInput) (*mcp.CallToolResult, any, error) {
			if in.Query == "fail" {
				return nil, nil, errors.New("search quota exceeded")
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "results for " + in.Query}},
			}, nil, nil
		})
	mcp.AddTool(server, &mcp.Tool{Name: "list_documents", Description: "List documents"},
		func(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: "[]"}},
			}, nil, nil
		})

	return inMemory(t, server)
}

// inMemory returns Options that connect each session to server over
// in-memory transports.
func inMemory(t *testing.T, server *mcp.Server) Options {
	t.Helper()
	return Options{
		Transport: func(_ backend.Descriptor) (mcp.Transport, error) {
			serverT, clientT := mcp.NewInMemoryTransports()
			ss, err := server.Connect(context.Background(), serverT, nil)
			if err != nil {
				return nil, err
			}
			t.Cleanup(func() { _ = ss.Close() })
			return clientT, nil
		},
	}
}

func connectTest(t *testing.T) *Session {
	t.Helper()
	s, err := Connect(context.Background(), backend.Descriptor{Name: "search", Command: "unused"}, testServer(t))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Disconnect() })
	return s
}

func TestConnect_ListsTools(t *testing.T) {
	s := connectTest(t)

	if s.State() != backend.StateConnected {
		t.Errorf("State() = %v, want %v", s.State(), backend.StateConnected)
	}
	if s.Name() != "search" || s.Kind() != backend.KindStdio {
		t.Errorf("Name()/Kind() = %q/%q", s.Name(), s.Kind())
	}

	names := s.ToolNames()
	if len(names) != 2 {
		t.Fatalf("ToolNames() = %v, want 2 tools", names)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	if !seen["web_search"] || !seen["list_documents"] {
		t.Errorf("ToolNames() = %v, want web_search and list_documents", names)
	}
}

func TestSession_InvokeTool(t *testing.T) {
	s := connectTest(t)

	res, err := s.InvokeTool(context.Background(), "web_search", map[string]any{"query": "golang"})
	if err != nil {
		t.Fatalf("InvokeTool() error = %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("InvokeTool() returned no content")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want *mcp.TextContent", res.Content[0])
	}
	if tc.Text != "results for golang" {
		t.Errorf("text = %q, want %q", tc.Text, "results for golang")
	}
}

func TestSession_InvokeToolHandlerError(t *testing.T) {
	s := connectTest(t)

	res, err := s.InvokeTool(context.Background(), "web_search", map[string]any{"query": "fail"})
	if err != nil {
		t.Fatalf("InvokeTool() error = %v", err)
	}
	if !res.IsError {
		t.Error("IsError = false, want true for a failing handler")
	}
}

func TestSession_InvokeUnknownTool(t *testing.T) {
	s := connectTest(t)

	_, err := s.InvokeTool(context.Background(), "read_pdf_from_drive", nil)
	if !errors.Is(err, backend.ErrUnknownTool) {
		t.Errorf("InvokeTool() error = %v, want ErrUnknownTool", err)
	}
}

func TestSession_InvokeToolTimeout(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "slow", Version: "v0.0.1"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "stall", Description: "Never answers in time"},
		func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "late"}}}, nil, nil
			}
		})

	d := backend.Descriptor{Name: "slow", Command: "unused", Timeout: 100 * time.Millisecond}
	s, err := Connect(context.Background(), d, inMemory(t, server))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Disconnect() })

	start := time.Now()
	_, err = s.InvokeTool(context.Background(), "stall", nil)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("InvokeTool() took %v, want it bounded by the 100ms timeout", elapsed)
	}
	var ie *backend.InvocationError
	if !errors.As(err, &ie) {
		t.Fatalf("InvokeTool() error = %v, want *backend.InvocationError", err)
	}
	if ie.Reason != backend.ReasonTransportFailure {
		t.Errorf("Reason = %v, want %v", ie.Reason, backend.ReasonTransportFailure)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("InvokeTool() error = %v, want it to wrap context.DeadlineExceeded", err)
	}
}

func TestSession_DisconnectIdempotent(t *testing.T) {
	s := connectTest(t)

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if err := s.Disconnect(); err != nil {
		t.Fatalf("second Disconnect() error = %v", err)
	}
	if s.State() != backend.StateDisconnected {
		t.Errorf("State() = %v, want %v", s.State(), backend.StateDisconnected)
	}
	if len(s.ToolNames()) != 0 {
		t.Errorf("ToolNames() after Disconnect = %v, want empty", s.ToolNames())
	}

	_, err := s.InvokeTool(context.Background(), "web_search", map[string]any{"query": "x"})
	if !errors.Is(err, backend.ErrNotConnected) {
		t.Errorf("InvokeTool() after Disconnect error = %v, want ErrNotConnected", err)
	}
}

func TestConnect_TransportError(t *testing.T) {
	opts := Options{
		Transport: func(_ backend.Descriptor) (mcp.Transport, error) {
			return nil, fmt.Errorf("no such pipe")
		},
	}

	_, err := Connect(context.Background(), backend.Descriptor{Name: "docs", Command: "x"}, opts)
	var ce *backend.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("Connect() error = %v, want *backend.ConnectionError", err)
	}
	if ce.Op != "spawn" || ce.Backend != "docs" {
		t.Errorf("ConnectionError = %+v, want spawn/docs", ce)
	}
}

func TestConnect_MissingCommand(t *testing.T) {
	d := backend.Descriptor{
		Name:    "docs",
		Command: "toolquery-test-command-that-does-not-exist",
		Timeout: 5 * time.Second,
	}

	_, err := Connect(context.Background(), d, Options{})
	if !errors.Is(err, backend.ErrConnection) {
		t.Errorf("Connect() error = %v, want ErrConnection", err)
	}
}

func TestConnector(t *testing.T) {
	reg := backend.NewRegistry()
	reg.RegisterConnector(backend.KindStdio, Connector(testServer(t)))

	s, err := reg.Connect(context.Background(), backend.Descriptor{Name: "search", Command: "unused"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer s.Disconnect()

	if s.State() != backend.StateConnected {
		t.Errorf("State() = %v, want %v", s.State(), backend.StateConnected)
	}
}

func TestCommandTransport(t *testing.T) {
	d := backend.Descriptor{
		Name:    "search",
		Command: "search-server",
		Args:    []string{"-v"},
		Dir:     "/tmp",
		Env:     map[string]string{"GOOGLE_API_KEY": "k"},
	}
	tr := CommandTransport(d, time.Second)

	if tr.Command.Dir != "/tmp" {
		t.Errorf("Dir = %q, want /tmp", tr.Command.Dir)
	}
	if len(tr.Command.Args) != 2 || tr.Command.Args[1] != "-v" {
		t.Errorf("Args = %v, want [search-server -v]", tr.Command.Args)
	}
	if tr.Command.Env[len(tr.Command.Env)-1] != "GOOGLE_API_KEY=k" {
		t.Errorf("Env does not end with descriptor env: %v", tr.Command.Env[len(tr.Command.Env)-1])
	}
	if tr.TerminateDuration != time.Second {
		t.Errorf("TerminateDuration = %v, want 1s", tr.TerminateDuration)
	}
}
