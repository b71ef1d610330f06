// Package ollama implements llm.Client against a local Ollama server.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonwraymond/toolquery/llm"
	"github.com/ollama/ollama/api"
)

// Defaults.
const (
	DefaultHost  = "http://localhost:11434"
	DefaultModel = "llama3.1"
)

// Options configures a Client.
type Options struct {
	// Host is the server URL. Default: DefaultHost.
	Host string

	// Model is the model name. Default: DefaultModel.
	Model string

	// HTTPClient overrides the transport. Default: a client with a 60s timeout.
	HTTPClient *http.Client
}

// Client is an llm.Client backed by the Ollama chat API.
type Client struct {
	api   *api.Client
	model string
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	host := opts.Host
	if host == "" {
		host = DefaultHost
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid host %q: %w", host, err)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: api.NewClient(u, httpClient), model: model}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends one non-streaming chat request. Ollama has no tool choice
// knob; ToolChoiceNone is honored by not sending tools.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool, choice llm.ToolChoice) (llm.Message, error) {
	msgs, err := toMessages(messages)
	if err != nil {
		return llm.Message{}, err
	}
	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   &stream,
	}
	if len(tools) > 0 && choice != llm.ToolChoiceNone {
		req.Tools, err = toTools(tools)
		if err != nil {
			return llm.Message{}, err
		}
	}

	var (
		got  bool
		last api.ChatResponse
	)
	err = c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		if !got {
			last = resp
			got = true
			return nil
		}
		last.Message.Content += resp.Message.Content
		last.Message.ToolCalls = append(last.Message.ToolCalls, resp.Message.ToolCalls...)
		return nil
	})
	if err != nil {
		return llm.Message{}, fmt.Errorf("ollama: chat: %w", err)
	}
	if !got {
		return llm.Message{}, llm.ErrEmptyResponse
	}
	return fromMessage(last.Message)
}

func toMessages(messages []llm.Message) ([]api.Message, error) {
	out := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		msg := api.Message{Role: string(m.Role), Content: m.Content}
		for _, tc := range m.ToolCalls {
			call, err := toToolCall(tc)
			if err != nil {
				return nil, err
			}
			msg.ToolCalls = append(msg.ToolCalls, call)
		}
		out = append(out, msg)
	}
	return out, nil
}

// toToolCall goes through JSON so argument maps keep the wire shape the
// server expects.
func toToolCall(tc llm.ToolCall) (api.ToolCall, error) {
	args := json.RawMessage(tc.Arguments)
	if len(args) == 0 || !json.Valid(args) {
		args = json.RawMessage("{}")
	}
	raw, err := json.Marshal(map[string]any{
		"function": map[string]any{"name": tc.Name, "arguments": args},
	})
	if err != nil {
		return api.ToolCall{}, fmt.Errorf("ollama: encode tool call %s: %w", tc.Name, err)
	}
	var call api.ToolCall
	if err := json.Unmarshal(raw, &call); err != nil {
		return api.ToolCall{}, fmt.Errorf("ollama: encode tool call %s: %w", tc.Name, err)
	}
	return call, nil
}

func toTools(tools []llm.Tool) (api.Tools, error) {
	out := make(api.Tools, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		raw, err := json.Marshal(map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  params,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("ollama: encode tool %s: %w", t.Name, err)
		}
		var tool api.Tool
		if err := json.Unmarshal(raw, &tool); err != nil {
			return nil, fmt.Errorf("ollama: encode tool %s: %w", t.Name, err)
		}
		out = append(out, tool)
	}
	return out, nil
}

func fromMessage(m api.Message) (llm.Message, error) {
	out := llm.Message{Role: llm.RoleAssistant, Content: m.Content}
	for i, tc := range m.ToolCalls {
		args, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			return llm.Message{}, fmt.Errorf("ollama: decode tool call %s: %w", tc.Function.Name, err)
		}
		if string(args) == "null" {
			args = []byte("{}")
		}
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			// Ollama does not assign call ids.
			ID:        "call_" + strconv.Itoa(i),
			Name:      tc.Function.Name,
			Arguments: string(args),
		})
	}
	return out, nil
}
