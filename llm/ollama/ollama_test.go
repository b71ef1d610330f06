package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonwraymond/toolquery/llm"
)

func fakeServer(t *testing.T, response string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response + "\n"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Model() != DefaultModel {
		t.Errorf("Model() = %q, want %q", c.Model(), DefaultModel)
	}
}

func TestNew_InvalidHost(t *testing.T) {
	if _, err := New(Options{Host: "://bad"}); err == nil {
		t.Error("New() error = nil, want error for invalid host")
	}
}

func TestComplete_ToolCalls(t *testing.T) {
	var req map[string]any
	srv := fakeServer(t, `{"model":"m","message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"docs_read_pdf_from_drive","arguments":{"file_id":"abc"}}}]},"done":true}`, &req)

	c, err := New(Options{Host: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tools := []llm.Tool{{
		Name:        "docs_read_pdf_from_drive",
		Description: "[DOCS] Read a PDF",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"file_id": map[string]any{"type": "string"}},
			"required":   []string{"file_id"},
		},
	}}

	msg, err := c.Complete(context.Background(), []llm.Message{llm.User("read abc")}, tools, llm.ToolChoiceAuto)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %v, want 1", msg.ToolCalls)
	}
	call := msg.ToolCalls[0]
	if call.Name != "docs_read_pdf_from_drive" {
		t.Errorf("Name = %q", call.Name)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		t.Fatalf("Arguments %q is not JSON: %v", call.Arguments, err)
	}
	if args["file_id"] != "abc" {
		t.Errorf("file_id = %v, want abc", args["file_id"])
	}
	if call.ID == "" {
		t.Error("ID is empty")
	}

	if req["stream"] != false {
		t.Errorf("stream = %v, want false", req["stream"])
	}
	if sent, _ := req["tools"].([]any); len(sent) != 1 {
		t.Errorf("tools = %v, want 1 tool", req["tools"])
	}
}

func TestComplete_ToolChoiceNoneDropsTools(t *testing.T) {
	var req map[string]any
	srv := fakeServer(t, `{"model":"m","message":{"role":"assistant","content":"done"},"done":true}`, &req)

	c, _ := New(Options{Host: srv.URL})
	msg, err := c.Complete(context.Background(), []llm.Message{llm.User("q")}, []llm.Tool{{Name: "x"}}, llm.ToolChoiceNone)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if msg.Content != "done" {
		t.Errorf("Content = %q, want done", msg.Content)
	}
	if _, ok := req["tools"]; ok {
		t.Error("tools should not be sent with ToolChoiceNone")
	}
}

func TestComplete_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	c, _ := New(Options{Host: srv.URL})
	if _, err := c.Complete(context.Background(), []llm.Message{llm.User("q")}, nil, ""); err == nil {
		t.Error("Complete() error = nil, want error")
	}
}

func TestToToolCall_InvalidArguments(t *testing.T) {
	call, err := toToolCall(llm.ToolCall{Name: "search_web_search", Arguments: "not json"})
	if err != nil {
		t.Fatalf("toToolCall() error = %v", err)
	}
	if call.Function.Name != "search_web_search" {
		t.Errorf("Name = %q", call.Function.Name)
	}
}
